// Package gym — handlers.go обрабатывает команды !gym, !rank и !yearrank.
package gym

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"

	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/imagemeta"
)

// Handler обрабатывает команды зала.
type Handler struct {
	service  *Service
	ledger   *ledger.Ledger
	reporter ledger.Reporter
	bot      common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, l *ledger.Ledger, reporter ledger.Reporter, bot common.Sender) *Handler {
	return &Handler{
		service:  service,
		ledger:   l,
		reporter: reporter,
		bot:      bot,
	}
}

// HandleGym обрабатывает !gym.
func (h *Handler) HandleGym(ctx context.Context, msg *telego.Message) {
	name := common.SenderName(msg.From)

	img, ok := imagemeta.FromMessage(msg)
	if !ok {
		common.Reply(ctx, h.bot, msg, fmt.Sprintf("%s, пришли фото вместе с командой !gym.", name))
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	res := h.service.CheckIn(ctx, userID, name, img)

	var text string
	switch res.Outcome {
	case OutcomeCheat:
		text = fmt.Sprintf("%s прислал старое фото. %s! (Очки: %d)",
			name, common.FormatPointsDelta(-res.Penalty), res.Total)
	case OutcomeDuplicate:
		text = fmt.Sprintf("%s, ты сегодня уже отметился. (Очки: %d)", name, res.Total)
	default:
		text = fmt.Sprintf("%s качается! (%s, стрик: %d)",
			name, common.FormatPointsDelta(res.Award.PointsAdded), res.Award.CurrentStreak)
	}
	common.Reply(ctx, h.bot, msg, text)
}

// HandleRank отправляет рейтинг месяца.
func (h *Handler) HandleRank(ctx context.Context, chatID int64) {
	text := h.reporter.MonthlyRanking(h.ledger.CurrentMonth(), h.ledger.MonthlyRanking())
	common.Send(ctx, h.bot, chatID, text)
}

// HandleYearRank отправляет рейтинг года.
func (h *Handler) HandleYearRank(ctx context.Context, chatID int64) {
	text := h.reporter.YearlyRanking(h.ledger.CurrentYear(), h.ledger.YearlyRanking())
	common.Send(ctx, h.bot, chatID, text)
}
