// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: утреннее сообщение первого числа,
// смену периода с итогами месяца/года и сохранение снапшота журнала.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/metrics"
)

// FirstOfMonthText отправляется в чат подъёма утром первого числа.
const FirstOfMonthText = "Wake up (Wake up)\nIt's the first of the month (slatt, slatt)\n" +
	"I brush my teeth and count up (What? Slatt, slatt, slatt, slatt, woah)"

const snapshotRetries = 3

// Settings — расписание и адресаты задач.
type Settings struct {
	DailySpec        string
	PeriodSpec       string
	SnapshotInterval time.Duration
	GymChatID        int64
	WakeChatID       int64
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	ledger    *ledger.Ledger
	reporter  ledger.Reporter
	bot       common.Sender
	snapshots ledger.SnapshotStore // nil — сохранение выключено
	backend   string
	settings  Settings
	loc       *time.Location
	now       func() time.Time
	newPolicy func() backoff.BackOff
}

// NewScheduler создаёт планировщик в часовом поясе loc.
// store может быть nil.
func NewScheduler(
	l *ledger.Ledger,
	reporter ledger.Reporter,
	bot common.Sender,
	store ledger.SnapshotStore,
	backend string,
	settings Settings,
	loc *time.Location,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		ledger:    l,
		reporter:  reporter,
		bot:       bot,
		snapshots: store,
		backend:   backend,
		settings:  settings,
		loc:       loc,
		now:       time.Now,
		newPolicy: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Start регистрирует и запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.settings.DailySpec, func() { s.runDaily(ctx) }); err != nil {
		return fmt.Errorf("daily job %q: %w", s.settings.DailySpec, err)
	}
	if _, err := s.cron.AddFunc(s.settings.PeriodSpec, func() { s.runPeriod(ctx) }); err != nil {
		return fmt.Errorf("period job %q: %w", s.settings.PeriodSpec, err)
	}
	if s.snapshots != nil {
		spec := "@every " + s.settings.SnapshotInterval.String()
		if _, err := s.cron.AddFunc(spec, func() { s.runSnapshot(ctx) }); err != nil {
			return fmt.Errorf("snapshot job %q: %w", spec, err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"timezone":  s.loc.String(),
		"daily":     s.settings.DailySpec,
		"period":    s.settings.PeriodSpec,
		"snapshots": s.snapshots != nil,
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт выполняющиеся задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// runDaily первого числа будит чат подъёма.
func (s *Scheduler) runDaily(ctx context.Context) {
	today := s.now().In(s.loc)
	if today.Day() != 1 {
		return
	}
	log.Info("[CRON] Первое число месяца")
	common.Send(ctx, s.bot, s.settings.WakeChatID, FirstOfMonthText)
	metrics.JobRunsTotal.WithLabelValues("daily", metrics.OutcomeOK).Inc()
}

// runPeriod закрывает месяц/год, если календарь ушёл вперёд,
// и объявляет все накопившиеся итоги в чате зала.
func (s *Scheduler) runPeriod(ctx context.Context) {
	today := common.Today(s.now().In(s.loc))
	if s.ledger.RolloverIfNeeded(today) {
		log.WithField("month", s.ledger.CurrentMonth().String()).Info("[CRON] Новый период")
	}

	// Итоги могли накопиться и от ленивой смены периода при !gym
	for _, pc := range s.ledger.DrainClosedPeriods() {
		log.WithFields(log.Fields{
			"month":       pc.Month.String(),
			"year_closed": pc.YearClosed,
			"entrants":    len(pc.MonthlyRanking),
		}).Info("[CRON] Итоги периода")

		common.Send(ctx, s.bot, s.settings.GymChatID, s.reporter.MonthEnd(pc))
		if pc.YearClosed {
			common.Send(ctx, s.bot, s.settings.GymChatID, s.reporter.YearEnd(pc))
		}
	}

	metrics.LedgerUsers.Set(float64(s.ledger.UserCount()))
	metrics.JobRunsTotal.WithLabelValues("period", metrics.OutcomeOK).Inc()
}

func (s *Scheduler) runSnapshot(ctx context.Context) {
	if err := s.SaveSnapshot(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка сохранения снапшота")
		metrics.JobRunsTotal.WithLabelValues("snapshot", metrics.OutcomeError).Inc()
		return
	}
	metrics.JobRunsTotal.WithLabelValues("snapshot", metrics.OutcomeOK).Inc()
}

// SaveSnapshot сохраняет журнал с повторами. Без хранилища ничего не делает.
func (s *Scheduler) SaveSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	snap := s.ledger.Snapshot(s.now().UTC())

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newPolicy(), snapshotRetries), ctx)
	err := backoff.Retry(func() error {
		return s.snapshots.Save(ctx, snap)
	}, policy)
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues(s.backend, "save", metrics.OutcomeError).Inc()
		return fmt.Errorf("снапшот не сохранён: %w", err)
	}

	metrics.SnapshotsTotal.WithLabelValues(s.backend, "save", metrics.OutcomeOK).Inc()
	metrics.LedgerUsers.Set(float64(len(snap.Users)))
	log.WithField("users", len(snap.Users)).Debug("Снапшот сохранён")
	return nil
}

// RestoreSnapshot загружает журнал из хранилища при старте.
// Отсутствие снапшота — не ошибка.
func (s *Scheduler) RestoreSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.Load(ctx)
	if errors.Is(err, common.ErrSnapshotNotFound) {
		metrics.SnapshotsTotal.WithLabelValues(s.backend, "load", "empty").Inc()
		log.Info("Снапшот не найден, начинаем с пустого журнала")
		return nil
	}
	if err == nil {
		err = s.ledger.Restore(snap)
	}
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues(s.backend, "load", metrics.OutcomeError).Inc()
		return fmt.Errorf("снапшот не загружен: %w", err)
	}

	// Пока бот лежал, мог смениться месяц
	s.ledger.RolloverIfNeeded(common.Today(s.now().In(s.loc)))

	metrics.SnapshotsTotal.WithLabelValues(s.backend, "load", metrics.OutcomeOK).Inc()
	metrics.LedgerUsers.Set(float64(s.ledger.UserCount()))
	log.WithFields(log.Fields{
		"users":    len(snap.Users),
		"taken_at": snap.TakenAt,
		"month":    snap.CurrentMonth.String(),
	}).Info("Журнал восстановлен из снапшота")
	return nil
}
