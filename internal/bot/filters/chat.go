package filters

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
)

// MemberDirectory — справочник участников (*members.Service).
type MemberDirectory interface {
	IsMember(userID int64) bool
	EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error
}

// ChatAPI — часть Bot API, нужная фильтру (*telego.Bot).
type ChatAPI interface {
	common.Sender
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
}

// ChatFilter пропускает сообщения из чата зала, чата подъёма
// и из лички участников этих чатов.
type ChatFilter struct {
	gymChatID  int64
	wakeChatID int64
	ownerID    int64
	members    MemberDirectory
	bot        ChatAPI
}

func NewChatFilter(gymChatID, wakeChatID, ownerID int64, members MemberDirectory, bot ChatAPI) *ChatFilter {
	return &ChatFilter{
		gymChatID:  gymChatID,
		wakeChatID: wakeChatID,
		ownerID:    ownerID,
		members:    members,
		bot:        bot,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *telego.Message) bool {
	if message == nil {
		log.WithField("component", "ChatFilter").Warn("nil message")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chatID,
		"chat_type": message.Chat.Type,
		"user_id":   userID,
	})

	// 1) Разрешённые чаты
	if chatID == f.gymChatID || chatID == f.wakeChatID {
		logger.Debug("allow: group chat")
		return true
	}

	if message.Chat.Type != telego.ChatTypePrivate {
		logger.Info("deny: unknown group chat")
		return false
	}

	// 2) Личка: владелец и уже известные участники
	if userID == f.ownerID || f.members.IsMember(userID) {
		logger.Debug("allow: private (known member)")
		return true
	}

	// 2.1) Справочник не знает пользователя: проверяем членство через Telegram API
	for _, groupID := range []int64{f.gymChatID, f.wakeChatID} {
		status, err := f.memberStatus(ctx, groupID, userID)
		if err != nil {
			logger.WithError(err).WithField("group_id", groupID).Warn("member check failed (telegram GetChatMember)")
			continue
		}
		switch status {
		case "creator", "administrator", "member", "restricted":
			if err := f.members.EnsureMember(ctx, userID,
				message.From.Username, message.From.FirstName, message.From.LastName,
			); err != nil {
				logger.WithError(err).Warn("failed to backfill member (allowing anyway)")
			}
			logger.WithField("tg_status", status).Info("allow: private (telegram member, backfilled)")
			return true
		}
	}

	logger.Info("deny: private (not a chat member)")
	common.Send(ctx, f.bot, chatID, "❌ Бот работает только для участников чата")
	return false
}

func (f *ChatFilter) memberStatus(ctx context.Context, groupID, userID int64) (string, error) {
	cm, err := f.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(groupID),
		UserID: userID,
	})
	if err != nil {
		return "", err
	}
	return cm.MemberStatus(), nil
}
