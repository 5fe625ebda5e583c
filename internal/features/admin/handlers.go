// Package admin — handlers.go разбирает аргументы команд и отвечает в чат.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/metrics"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service  *Service
	ledger   *ledger.Ledger
	currency string
	bot      common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, l *ledger.Ledger, currency string, bot common.Sender) *Handler {
	return &Handler{
		service:  service,
		ledger:   l,
		currency: currency,
		bot:      bot,
	}
}

// IsAdminCommand проверяет, относится ли команда к этому пакету.
func IsAdminCommand(cmd string) bool {
	switch cmd {
	case CmdSetPoints, CmdSetStreak, CmdSetStake, CmdSetPlayers, CmdSetPlayer,
		CmdSetWakePlayers, CmdKnecht, CmdStake:
		return true
	}
	return false
}

// HandleCommand выполняет команду. Возвращает false, если команда не админская.
func (h *Handler) HandleCommand(ctx context.Context, msg *telego.Message, cmd string, args []string) bool {
	if !IsAdminCommand(cmd) {
		return false
	}
	if cmd == CmdSetPlayer {
		cmd = CmdSetPlayers
	}

	logger := log.WithFields(log.Fields{
		"component": "admin",
		"command":   cmd,
		"user_id":   msg.From.ID,
		"chat_id":   msg.Chat.ID,
	})

	// Без ограничений
	switch cmd {
	case CmdKnecht:
		text, err := h.knecht(msg, args)
		h.finish(ctx, msg, cmd, logger, text, err)
		return true
	case CmdStake:
		h.finish(ctx, msg, cmd, logger, h.stakeText(), nil)
		return true
	}

	if !h.service.IsOwner(msg.From.ID) {
		metrics.AdminCommandsTotal.WithLabelValues(cmd, metrics.OutcomeRejected).Inc()
		logger.Warn("Админ-команда от не-владельца")
		common.Reply(ctx, h.bot, msg, DenialText)
		return true
	}

	var (
		text string
		err  error
	)
	switch cmd {
	case CmdSetPoints:
		text, err = h.setPoints(ctx, msg, args)
	case CmdSetStreak:
		text, err = h.setStreak(ctx, msg, args)
	case CmdSetStake:
		text, err = h.setStake(ctx, msg, args)
	case CmdSetPlayers:
		text, err = h.setPlayers(ctx, msg, args)
	case CmdSetWakePlayers:
		text, err = h.setWakePlayers(ctx, msg, args)
	}
	h.finish(ctx, msg, cmd, logger, text, err)
	return true
}

func (h *Handler) finish(ctx context.Context, msg *telego.Message, cmd string, logger *log.Entry, text string, err error) {
	if err != nil {
		metrics.AdminCommandsTotal.WithLabelValues(cmd, metrics.OutcomeRejected).Inc()
		logger.WithError(err).Info("Некорректные параметры команды")
		common.Reply(ctx, h.bot, msg, errorText(cmd, err))
		return
	}
	metrics.AdminCommandsTotal.WithLabelValues(cmd, metrics.OutcomeOK).Inc()
	common.Reply(ctx, h.bot, msg, text)
}

func (h *Handler) setPoints(ctx context.Context, msg *telego.Message, args []string) (string, error) {
	t, rest, err := h.target(msg, args, 1)
	if err != nil {
		return "", err
	}
	if len(rest) == 0 {
		return "", common.ErrMissingOption
	}
	v, err := ParseInt(rest[0])
	if err != nil {
		return "", err
	}
	total := h.service.SetPoints(ctx, msg.From.ID, t, v)
	return fmt.Sprintf("Очки %s: %s.", t.DisplayName, common.FormatPoints(total)), nil
}

func (h *Handler) setStreak(ctx context.Context, msg *telego.Message, args []string) (string, error) {
	t, rest, err := h.target(msg, args, 1)
	if err != nil {
		return "", err
	}
	if len(rest) == 0 {
		return "", common.ErrMissingOption
	}
	v, err := ParseInt(rest[0])
	if err != nil {
		return "", err
	}
	applied := h.service.SetStreak(ctx, msg.From.ID, t, v)
	return fmt.Sprintf("Стрик %s: %d.", t.DisplayName, applied), nil
}

func (h *Handler) setStake(ctx context.Context, msg *telego.Message, args []string) (string, error) {
	if len(args) == 0 {
		return "", common.ErrMissingOption
	}
	minor, err := ParseStake(args[0])
	if err != nil {
		return "", err
	}
	h.service.SetStake(ctx, msg.From.ID, minor)
	return "Взнос на игрока: " + common.FormatMoney(minor, h.currency) + ".", nil
}

func (h *Handler) setPlayers(ctx context.Context, msg *telego.Message, args []string) (string, error) {
	if len(args) == 0 {
		return "", common.ErrMissingOption
	}
	n, err := ParseInt(args[0])
	if err != nil {
		return "", err
	}
	applied := h.service.SetPlayers(ctx, msg.From.ID, n)
	return fmt.Sprintf("Игроков: %d.", applied), nil
}

func (h *Handler) setWakePlayers(ctx context.Context, msg *telego.Message, args []string) (string, error) {
	roster, err := h.service.ResolveRoster(args)
	if err != nil {
		return "", err
	}
	h.service.SetWakeRoster(ctx, msg.From.ID, roster)

	names := make([]string, 0, len(roster))
	for _, t := range roster {
		names = append(names, t.DisplayName)
	}
	return fmt.Sprintf("Состав подъёма (%d): %s.", len(roster), strings.Join(names, ", ")), nil
}

// knecht объявляет цель холопом. Владельца может назначить только он сам.
func (h *Handler) knecht(msg *telego.Message, args []string) (string, error) {
	t, _, err := h.target(msg, args, 0)
	if err != nil {
		return "", err
	}
	if h.service.IsOwner(t.UserID) && !h.service.IsOwner(msg.From.ID) {
		invoker := h.service.TargetFromUser(msg.From)
		return invoker.Mention + ", холоп тут ты сам.", nil
	}
	return t.Mention + " — холоп.", nil
}

func (h *Handler) stakeText() string {
	st := h.ledger.Stake()
	if st.StakePerPlayer == 0 && st.PlayerCount == 0 {
		return ledger.NoStakeText
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💶 Взнос: %s × %d = %s",
		common.FormatMoney(st.StakePerPlayer, h.currency),
		st.PlayerCount,
		common.FormatMoney(st.StakePerPlayer*int64(st.PlayerCount), h.currency))
	fmt.Fprintf(&sb, "\nСостав подъёма: %d", len(st.Roster))
	return sb.String()
}

// target берёт цель из ответа на сообщение, иначе из первого аргумента.
// values — сколько аргументов команда ждёт после цели: если в ответе
// аргументов не больше, все они значения, а цель — автор сообщения.
func (h *Handler) target(msg *telego.Message, args []string, values int) (Target, []string, error) {
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil && !reply.From.IsBot {
		if len(args) <= values {
			return h.service.TargetFromUser(reply.From), args, nil
		}
	}
	if len(args) == 0 {
		return Target{}, nil, common.ErrMissingOption
	}
	t, err := h.service.ResolveTarget(args[0])
	if err != nil {
		return Target{}, nil, err
	}
	return t, args[1:], nil
}

func errorText(cmd string, err error) string {
	switch {
	case errors.Is(err, common.ErrUnknownUser):
		return "Пользователь не найден. Он должен хотя бы раз написать в чат."
	case errors.Is(err, common.ErrInvalidAmount):
		return "Некорректная сумма: не больше двух знаков после запятой, от 0 до 1 000 000 000."
	}
	text := MissingOptionText
	if u, ok := usage[cmd]; ok {
		text += "\n" + u
	}
	return text
}
