package gym

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/imagemeta"
)

type fakeImages struct {
	date  time.Time
	ok    bool
	calls int
}

func (f *fakeImages) CaptureDate(context.Context, imagemeta.Image) (time.Time, bool) {
	f.calls++
	return f.date, f.ok
}

type fakeSender struct {
	mu   sync.Mutex
	sent []*telego.SendMessageParams
}

func (f *fakeSender) SendMessage(_ context.Context, p *telego.SendMessageParams) (*telego.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return &telego.Message{}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, p := range f.sent {
		out = append(out, p.Text)
	}
	return out
}

var berlin = time.FixedZone("CET", 3600)

func newService(images CaptureDater, now time.Time) (*Service, *ledger.Ledger) {
	l := ledger.New(now)
	s := NewService(l, images, berlin, Settings{PointsPerGym: 10, CheatPenalty: 5, CheatMaxAgeDays: 1})
	s.now = func() time.Time { return now }
	return s, l
}

func TestCheckIn_Awards(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, berlin)
	s, l := newService(&fakeImages{}, now)

	res := s.CheckIn(context.Background(), "1", "Аня", imagemeta.Image{FileID: "x"})
	assert.Equal(t, OutcomeAwarded, res.Outcome)
	assert.Equal(t, 10, res.Total)
	assert.Equal(t, 1, res.Award.CurrentStreak)

	res = s.CheckIn(context.Background(), "1", "Аня", imagemeta.Image{FileID: "y"})
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Equal(t, 10, res.Total)

	u, _ := l.User("1")
	assert.Equal(t, 10, u.MonthPoints)
}

func TestCheckIn_CheatPenalty(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, berlin)
	images := &fakeImages{date: time.Date(2026, time.October, 13, 9, 0, 0, 0, time.Local), ok: true}
	s, l := newService(images, now)

	l.AwardDailyPoints("1", "Аня", time.Date(2026, time.October, 14, 0, 0, 0, 0, berlin), 10)

	res := s.CheckIn(context.Background(), "1", "Аня", imagemeta.Image{FileID: "x"})
	require.Equal(t, OutcomeCheat, res.Outcome)
	assert.Equal(t, 5, res.Penalty)
	assert.Equal(t, 5, res.Total)

	u, _ := l.User("1")
	assert.Equal(t, 5, u.MonthPoints)
	assert.Equal(t, 1, u.CurrentStreak, "стрик не меняется")
	require.NotNil(t, u.LastAwardDate)
	assert.Equal(t, 14, u.LastAwardDate.Day())
}

func TestCheckIn_YesterdayPhotoIsFine(t *testing.T) {
	now := time.Date(2026, time.October, 15, 0, 30, 0, 0, berlin)
	images := &fakeImages{date: time.Date(2026, time.October, 14, 23, 50, 0, 0, time.Local), ok: true}
	s, _ := newService(images, now)

	res := s.CheckIn(context.Background(), "1", "Аня", imagemeta.Image{FileID: "x"})
	assert.Equal(t, OutcomeAwarded, res.Outcome)
}

func TestCheckIn_NoSignalIsFailOpen(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, berlin)
	images := &fakeImages{date: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), ok: false}
	s, _ := newService(images, now)

	res := s.CheckIn(context.Background(), "1", "Аня", imagemeta.Image{FileID: "x"})
	assert.Equal(t, OutcomeAwarded, res.Outcome)
	assert.Equal(t, 1, images.calls)
}

func TestHandleGym(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, berlin)
	s, l := newService(&fakeImages{}, now)
	bot := &fakeSender{}
	h := NewHandler(s, l, ledger.Reporter{Currency: "€"}, bot)

	from := &telego.User{ID: 7, FirstName: "Аня"}
	chat := telego.Chat{ID: -100}

	h.HandleGym(context.Background(), &telego.Message{MessageID: 1, From: from, Chat: chat, Text: "!gym"})
	h.HandleGym(context.Background(), &telego.Message{
		MessageID: 2, From: from, Chat: chat, Caption: "!gym",
		Photo: []telego.PhotoSize{{FileID: "p"}},
	})
	h.HandleGym(context.Background(), &telego.Message{
		MessageID: 3, From: from, Chat: chat, Caption: "!gym",
		Photo: []telego.PhotoSize{{FileID: "p2"}},
	})

	texts := bot.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, "Аня, пришли фото вместе с командой !gym.", texts[0])
	assert.Equal(t, "Аня качается! (+10 очков, стрик: 1)", texts[1])
	assert.Equal(t, "Аня, ты сегодня уже отметился. (Очки: 10)", texts[2])

	require.NotNil(t, bot.sent[1].ReplyParameters)
	assert.Equal(t, 2, bot.sent[1].ReplyParameters.MessageID)
}

func TestHandleRank(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, berlin)
	s, l := newService(&fakeImages{}, now)
	bot := &fakeSender{}
	h := NewHandler(s, l, ledger.Reporter{Currency: "€"}, bot)

	h.HandleRank(context.Background(), -100)
	l.AwardDailyPoints("1", "Аня", now, 10)
	h.HandleRank(context.Background(), -100)
	h.HandleYearRank(context.Background(), -100)

	texts := bot.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, ledger.NoMonthlyPointsText, texts[0])
	assert.Contains(t, texts[1], "1. Аня — 10 очков")
	assert.Contains(t, texts[2], "2026")
	assert.Equal(t, int64(-100), bot.sent[0].ChatID.ID)
}
