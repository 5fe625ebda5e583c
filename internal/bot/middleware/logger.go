// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
)

const maxLoggedRunes = 50

// LogMessage логирует входящее сообщение.
// Записывает: user_id, chat_id, username, текст или подпись (первые 50 символов), наличие фото.
func LogMessage(message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}

	text := []rune(common.MessageText(message))
	if len(text) > maxLoggedRunes {
		text = append(text[:maxLoggedRunes], []rune("...")...)
	}

	log.WithFields(log.Fields{
		"user_id":   message.From.ID,
		"chat_id":   message.Chat.ID,
		"username":  message.From.Username,
		"text":      string(text),
		"has_photo": len(message.Photo) > 0 || message.Document != nil,
	}).Debug("Входящее сообщение")
}
