package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/lyfestyler-bot/internal/bot/filters"
	"serotonyl.ru/lyfestyler-bot/internal/config"
	"serotonyl.ru/lyfestyler-bot/internal/features/admin"
	"serotonyl.ru/lyfestyler-bot/internal/features/gym"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/features/members"
	"serotonyl.ru/lyfestyler-bot/internal/features/wake"
	"serotonyl.ru/lyfestyler-bot/internal/imagemeta"
)

const (
	gymChat  int64 = -100
	wakeChat int64 = -200
	ownerID  int64 = 1
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cases := []struct {
		text string
		cmd  string
		args []string
		ok   bool
	}{
		{"!gym", "gym", nil, true},
		{"  /Rank  ", "rank", nil, true},
		{".зал", "зал", nil, true},
		{"/rank@lyfestyler_bot", "rank", nil, true},
		{"/setpoints @anya 15", "setpoints", []string{"@anya", "15"}, true},
		{"!ПОДЪЕМ", "подъем", nil, true},
		{"gym", "", nil, false},
		{"!", "", nil, false},
		{"/@bot", "", nil, false},
		{"", "", nil, false},
	}
	for _, c := range cases {
		cmd, args, ok := p.ParseCommand(c.text)
		assert.Equal(t, c.ok, ok, c.text)
		assert.Equal(t, c.cmd, cmd, c.text)
		assert.Equal(t, c.args, args, c.text)
	}
}

type fakeAPI struct {
	mu   sync.Mutex
	sent []*telego.SendMessageParams
}

func (f *fakeAPI) SendMessage(_ context.Context, p *telego.SendMessageParams) (*telego.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return &telego.Message{}, nil
}

func (f *fakeAPI) GetChatMember(context.Context, *telego.GetChatMemberParams) (telego.ChatMember, error) {
	return nil, errors.New("not found")
}

func (f *fakeAPI) textsTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.sent {
		if p.ChatID.ID == chatID {
			out = append(out, p.Text)
		}
	}
	return out
}

type chanPoller struct {
	updates chan telego.Update
}

func (p *chanPoller) UpdatesViaLongPolling(context.Context, *telego.GetUpdatesParams, ...telego.LongPollingOption) (<-chan telego.Update, error) {
	return p.updates, nil
}

type noImages struct{}

func (noImages) CaptureDate(context.Context, imagemeta.Image) (time.Time, bool) {
	return time.Time{}, false
}

type fixture struct {
	bot     *Bot
	api     *fakeAPI
	ledger  *ledger.Ledger
	members *members.Service
	poller  *chanPoller
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := &config.Config{
		OwnerID:                 ownerID,
		GymChatID:               gymChat,
		WakeChatID:              wakeChat,
		BotMaxInflight:          1,
		BotUpdateTimeoutSeconds: 1,
		RateLimitRequests:       100,
		RateLimitWindow:         time.Minute,
	}

	api := &fakeAPI{}
	l := ledger.New(time.Now())
	memberService := members.NewService(nil)
	reporter := ledger.Reporter{Currency: "€", Mention: memberService.Mention}

	gymService := gym.NewService(l, noImages{}, time.UTC, gym.Settings{PointsPerGym: 10, CheatPenalty: 5, CheatMaxAgeDays: 1})
	adminService := admin.NewService(l, memberService, nil, ownerID)
	poller := &chanPoller{updates: make(chan telego.Update, 16)}

	b := New(
		poller, api, cfg,
		members.NewHandler(memberService),
		gym.NewHandler(gymService, l, reporter, api),
		wake.NewHandler(l, reporter, memberService, api, time.UTC),
		admin.NewHandler(adminService, l, cfg.StakeCurrency, api),
		filters.NewChatFilter(gymChat, wakeChat, ownerID, memberService, api),
	)
	return fixture{bot: b, api: api, ledger: l, members: memberService, poller: poller}
}

func photoMessage(chatID, from int64, name, caption string) *telego.Message {
	return &telego.Message{
		MessageID: 10,
		Chat:      telego.Chat{ID: chatID, Type: telego.ChatTypeSupergroup},
		From:      &telego.User{ID: from, FirstName: name, Username: strings.ToLower(name)},
		Caption:   caption,
		Photo:     []telego.PhotoSize{{FileID: "photo", Width: 800, Height: 600}},
	}
}

func textMessage(chatID, from int64, chatType, text string) *telego.Message {
	return &telego.Message{
		MessageID: 11,
		Chat:      telego.Chat{ID: chatID, Type: chatType},
		From:      &telego.User{ID: from, FirstName: "Owner", Username: "owner"},
		Text:      text,
	}
}

func TestStart_RoutesUpdates(t *testing.T) {
	f := newFixture(t)

	f.poller.updates <- telego.Update{Message: photoMessage(gymChat, 2, "Anya", "!gym")}
	f.poller.updates <- telego.Update{Message: photoMessage(wakeChat, 2, "Anya", "!awake")}
	f.poller.updates <- telego.Update{Message: textMessage(gymChat, 3, telego.ChatTypeSupergroup, "/rank")}
	close(f.poller.updates)

	require.NoError(t, f.bot.Start(context.Background()))

	u, ok := f.ledger.User("2")
	require.True(t, ok)
	assert.Equal(t, 10, u.MonthPoints)
	assert.Equal(t, 1, u.WakeFirstCurrentStreak)
	assert.True(t, f.members.IsMember(2))

	gymTexts := f.api.textsTo(gymChat)
	require.Len(t, gymTexts, 2)
	assert.Contains(t, gymTexts[0], "Anya качается!")
	assert.Contains(t, gymTexts[1], "1. Anya")

	wakeTexts := f.api.textsTo(wakeChat)
	require.NotEmpty(t, wakeTexts)
	assert.Contains(t, wakeTexts[0], "@anya — самая ранняя пташка")
}

func TestHandleUpdate_CheckInOnlyInOwnChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bot.handleUpdate(ctx, telego.Update{Message: photoMessage(wakeChat, 2, "Anya", "!gym")})
	f.bot.handleUpdate(ctx, telego.Update{Message: photoMessage(gymChat, 2, "Anya", "!awake")})

	assert.Equal(t, 0, f.ledger.UserCount())
	assert.Empty(t, f.api.sent)
}

func TestHandleUpdate_ForeignChatIgnored(t *testing.T) {
	f := newFixture(t)

	f.bot.handleUpdate(context.Background(), telego.Update{Message: photoMessage(-999, 2, "Anya", "!gym")})

	assert.Equal(t, 0, f.ledger.UserCount())
	assert.False(t, f.members.IsMember(2))
}

func TestHandleUpdate_AdminFromPrivateChat(t *testing.T) {
	f := newFixture(t)

	f.bot.handleUpdate(context.Background(), telego.Update{
		Message: textMessage(ownerID, ownerID, telego.ChatTypePrivate, "/setplayers 4"),
	})

	assert.Equal(t, 4, f.ledger.Stake().PlayerCount)
	assert.Equal(t, []string{"Игроков: 4."}, f.api.textsTo(ownerID))
}

func TestHandleUpdate_NewChatMembers(t *testing.T) {
	f := newFixture(t)

	f.bot.handleUpdate(context.Background(), telego.Update{Message: &telego.Message{
		Chat: telego.Chat{ID: wakeChat, Type: telego.ChatTypeSupergroup},
		From: &telego.User{ID: ownerID},
		NewChatMembers: []telego.User{
			{ID: 5, FirstName: "Vera", Username: "vera"},
			{ID: 6, FirstName: "Helper", IsBot: true},
		},
	}})

	assert.True(t, f.members.IsMember(5))
	assert.False(t, f.members.IsMember(6))
}

func TestHandleUpdate_Help(t *testing.T) {
	f := newFixture(t)

	f.bot.handleUpdate(context.Background(), telego.Update{
		Message: textMessage(gymChat, 3, telego.ChatTypeSupergroup, "/help"),
	})

	assert.Equal(t, []string{HelpText}, f.api.textsTo(gymChat))
}
