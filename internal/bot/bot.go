// Package bot содержит главный модуль бота — запуск polling и маршрутизацию.
// bot.go принимает апдейты, пропускает их через фильтры и раздаёт обработчикам.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/bot/filters"
	"serotonyl.ru/lyfestyler-bot/internal/bot/middleware"
	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/config"
	"serotonyl.ru/lyfestyler-bot/internal/features/admin"
	"serotonyl.ru/lyfestyler-bot/internal/features/gym"
	"serotonyl.ru/lyfestyler-bot/internal/features/members"
	"serotonyl.ru/lyfestyler-bot/internal/features/wake"
	"serotonyl.ru/lyfestyler-bot/internal/metrics"
)

// HelpText — ответ на /start и /help.
const HelpText = "Я считаю очки за зал и ранние подъёмы.\n\n" +
	"В чате зала:\n" +
	"!gym (!зал) + фото — отметиться, +очки и стрик\n" +
	"!rank (!рейтинг) — рейтинг месяца\n" +
	"!yearrank — рейтинг года\n\n" +
	"В чате подъёма:\n" +
	"!awake (!подъем) + фото — я проснулся\n" +
	"!wakeorder — кто во сколько встал\n\n" +
	"!stake — взнос и банк\n" +
	"Владельцу: /setpoints, /setstreak, /setstake, /setplayers, /setwakeplayers"

// Исходы обработки апдейта для метрики.
const (
	outcomeHandled     = "handled"
	outcomeIgnored     = "ignored"
	outcomeFiltered    = "filtered"
	outcomeRateLimited = "rate_limited"
)

// Poller — источник апдейтов (*telego.Bot).
type Poller interface {
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, options ...telego.LongPollingOption) (<-chan telego.Update, error)
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api    Poller
	sender common.Sender
	cfg    *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberHandler *members.Handler
	gymHandler    *gym.Handler
	wakeHandler   *wake.Handler
	adminHandler  *admin.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api Poller,
	sender common.Sender,
	cfg *config.Config,
	memberHandler *members.Handler,
	gymHandler *gym.Handler,
	wakeHandler *wake.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		sender:        sender,
		cfg:           cfg,
		chatFilter:    chatFilter,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberHandler: memberHandler,
		gymHandler:    gymHandler,
		wakeHandler:   wakeHandler,
		adminHandler:  adminHandler,
		parser:        NewCommandParser(),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
// Возвращается только после завершения всех начатых обработчиков.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.rateLimiter.Close()
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			b.wg.Add(1)
			go func(upd telego.Update) {
				defer b.wg.Done()
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	metrics.InflightUpdates.Inc()
	start := time.Now()
	outcome := outcomeIgnored
	defer func() {
		metrics.InflightUpdates.Dec()
		metrics.UpdateDuration.Observe(time.Since(start).Seconds())
		metrics.UpdatesTotal.WithLabelValues(outcome).Inc()
	}()
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil {
		return
	}

	// Вступление в чат — запоминаем участников
	if len(message.NewChatMembers) > 0 {
		if b.isGroupChat(message.Chat.ID) {
			b.memberHandler.HandleNewChatMembers(ctx, message.NewChatMembers)
			outcome = outcomeHandled
		}
		return
	}

	text := common.MessageText(message)
	if text == "" {
		return
	}

	middleware.LogMessage(message)

	// Проверяем доступ (чаты зала/подъёма или личка участника)
	if !b.chatFilter.CheckAccess(ctx, message) {
		outcome = outcomeFiltered
		return
	}

	b.memberHandler.HandleSender(ctx, message.From)

	cmd, args, isCommand := b.parser.ParseCommand(text)
	if !isCommand {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		outcome = outcomeRateLimited
		return
	}

	if b.routeCommand(ctx, message, cmd, args) {
		outcome = outcomeHandled
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
// Возвращает false, если команда не распознана или не для этого чата.
func (b *Bot) routeCommand(ctx context.Context, message *telego.Message, cmd string, args []string) bool {
	chatID := message.Chat.ID
	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    args,
		"chat_id": chatID,
	}).Debug("routing command")

	switch cmd {
	case "start", "help":
		common.Reply(ctx, b.sender, message, HelpText)
		return true

	case "gym", "зал":
		if chatID != b.cfg.GymChatID {
			return false
		}
		b.gymHandler.HandleGym(ctx, message)
		return true

	case "awake", "подъем", "подъём":
		if chatID != b.cfg.WakeChatID {
			return false
		}
		b.wakeHandler.HandleAwake(ctx, message)
		return true

	case "rank", "рейтинг":
		b.gymHandler.HandleRank(ctx, chatID)
		return true

	case "yearrank":
		b.gymHandler.HandleYearRank(ctx, chatID)
		return true

	case "wakeorder":
		b.wakeHandler.HandleWakeOrder(ctx, chatID)
		return true
	}

	return b.adminHandler.HandleCommand(ctx, message, cmd, args)
}

func (b *Bot) isGroupChat(chatID int64) bool {
	return chatID == b.cfg.GymChatID || chatID == b.cfg.WakeChatID
}

// CommandParser парсит команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс "@имя_бота" у команды отбрасывается: /rank@lyfestyler_bot → rank.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
