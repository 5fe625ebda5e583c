// Package common — sender.go отправляет текстовые ответы в Telegram.
package common

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// Sender — часть Bot API для отправки сообщений (*telego.Bot).
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Send отправляет текст в чат. Ошибка только логируется.
func Send(ctx context.Context, s Sender, chatID int64, text string) {
	if _, err := s.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// Reply отвечает на сообщение msg.
func Reply(ctx context.Context, s Sender, msg *telego.Message, text string) {
	params := tu.Message(tu.ID(msg.Chat.ID), text).
		WithReplyParameters(&telego.ReplyParameters{
			MessageID:                msg.MessageID,
			AllowSendingWithoutReply: true,
		})
	if _, err := s.SendMessage(ctx, params); err != nil {
		log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("Ошибка отправки ответа")
	}
}

// SenderName — отображаемое имя автора сообщения.
func SenderName(u *telego.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" && u.Username != "" {
		name = "@" + u.Username
	}
	return name
}

// MessageText — текст сообщения или подпись к фото/документу.
func MessageText(msg *telego.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}
