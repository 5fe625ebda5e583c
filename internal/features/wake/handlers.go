// Package wake обрабатывает утренние отметки !awake и порядок подъёма.
package wake

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/imagemeta"
	"serotonyl.ru/lyfestyler-bot/internal/metrics"
)

// Mentioner строит упоминание по user ID (*members.Service).
type Mentioner interface {
	Mention(userKey, fallback string) string
}

// Handler обрабатывает команды подъёма.
type Handler struct {
	ledger   *ledger.Ledger
	reporter ledger.Reporter
	members  Mentioner
	bot      common.Sender
	loc      *time.Location
	now      func() time.Time
}

// NewHandler создаёт обработчик. loc — часовой пояс календарных дат.
func NewHandler(l *ledger.Ledger, reporter ledger.Reporter, members Mentioner, bot common.Sender, loc *time.Location) *Handler {
	return &Handler{
		ledger:   l,
		reporter: reporter,
		members:  members,
		bot:      bot,
		loc:      loc,
		now:      time.Now,
	}
}

// HandleAwake обрабатывает !awake. Повторная отметка за день игнорируется молча.
func (h *Handler) HandleAwake(ctx context.Context, msg *telego.Message) {
	chatID := msg.Chat.ID
	if _, ok := imagemeta.FromMessage(msg); !ok {
		common.Send(ctx, h.bot, chatID, "Для !awake нужно фото.")
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	name := common.SenderName(msg.From)
	now := h.now().In(h.loc)

	res := h.ledger.RegisterArrival(userID, name, now, now)
	if !res.Accepted {
		metrics.CheckInsTotal.WithLabelValues("wake", "duplicate").Inc()
		log.WithFields(log.Fields{
			"user_id":  userID,
			"position": res.Position,
		}).Debug("Повторная отметка подъёма")
		return
	}

	mention := h.members.Mention(userID, name)
	logger := log.WithFields(log.Fields{
		"user_id":  userID,
		"position": res.Position,
		"first":    res.IsFirst,
		"last":     res.IsLast,
	})

	if res.IsFirst {
		metrics.CheckInsTotal.WithLabelValues("wake", "first").Inc()
		logger.Info("Ранняя пташка")
		common.Send(ctx, h.bot, chatID, fmt.Sprintf("%s — самая ранняя пташка и поймал(а) червячка 🪱!", mention))
		if text := h.sleepersText(userID); text != "" {
			common.Send(ctx, h.bot, chatID, text)
		}
		return
	}

	size := h.ledger.WakeRosterSize()
	if res.IsLast && size > 0 && res.Position >= size {
		metrics.CheckInsTotal.WithLabelValues("wake", "last").Inc()
		logger.Info("Все проснулись")
		common.Send(ctx, h.bot, chatID, fmt.Sprintf(
			"%s тоже наконец-то встал(а). Видок помятый для того, кто так долго спал. Теперь проснулись все!", mention))
		h.HandleWakeOrder(ctx, chatID)
		return
	}

	metrics.CheckInsTotal.WithLabelValues("wake", "arrived").Inc()
	common.Send(ctx, h.bot, chatID, fmt.Sprintf("%s тоже наконец-то встал(а). Выспался(-ась) сегодня, да?", mention))
}

// HandleWakeOrder отправляет порядок подъёма за сегодня.
func (h *Handler) HandleWakeOrder(ctx context.Context, chatID int64) {
	summary, ok := h.ledger.BuildOrderSummary(h.now().In(h.loc))
	common.Send(ctx, h.bot, chatID, h.reporter.WakeOrder(summary, ok))
}

// sleepersText упоминает участников состава, кроме самого проснувшегося.
func (h *Handler) sleepersText(exceptUserID string) string {
	var mentions []string
	for _, id := range h.ledger.PendingSleepers() {
		if id == exceptUserID {
			continue
		}
		mentions = append(mentions, h.members.Mention(id, id))
	}
	if len(mentions) == 0 {
		return ""
	}
	return strings.Join(mentions, " ") + "\nПодъём, лежебоки!"
}
