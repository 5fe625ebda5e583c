// Package members — handlers.go обрабатывает события вступления в чат.
package members

import (
	"context"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает события участников.
type Handler struct {
	service *Service
}

// NewHandler создаёт новый обработчик событий участников.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleNewChatMembers регистрирует вступивших пользователей.
// Ботов не запоминаем.
func (h *Handler) HandleNewChatMembers(ctx context.Context, newMembers []telego.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		if err := h.service.EnsureMember(ctx, user.ID, user.Username, user.FirstName, user.LastName); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка регистрации нового участника")
		}
	}
}

// HandleSender запоминает автора сообщения.
func (h *Handler) HandleSender(ctx context.Context, from *telego.User) {
	if from == nil || from.IsBot {
		return
	}
	if err := h.service.EnsureMember(ctx, from.ID, from.Username, from.FirstName, from.LastName); err != nil {
		log.WithError(err).WithField("user_id", from.ID).Warn("EnsureMember failed")
	}
}
