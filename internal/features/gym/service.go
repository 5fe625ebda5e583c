// Package gym обрабатывает чек-ины в зале: !gym с фото, рейтинги.
// service.go содержит логику начисления и проверки на старое фото.
package gym

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/imagemeta"
	"serotonyl.ru/lyfestyler-bot/internal/metrics"
)

// CaptureDater возвращает дату съёмки изображения (*imagemeta.Inspector).
type CaptureDater interface {
	CaptureDate(ctx context.Context, img imagemeta.Image) (time.Time, bool)
}

// Outcome — итог чек-ина.
type Outcome int

const (
	OutcomeAwarded   Outcome = iota // Очки начислены
	OutcomeDuplicate                // Сегодня уже был чек-ин
	OutcomeCheat                    // Старое фото, штраф
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAwarded:
		return "awarded"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeCheat:
		return "cheat"
	}
	return "unknown"
}

// Result — результат чек-ина.
type Result struct {
	Outcome Outcome
	Award   ledger.AwardResult // Для OutcomeAwarded и OutcomeDuplicate
	Penalty int                // Для OutcomeCheat (положительное число)
	Total   int                // Очки месяца после операции
}

// Settings — параметры начисления.
type Settings struct {
	PointsPerGym    int
	CheatPenalty    int
	CheatMaxAgeDays int
}

// Service начисляет очки за зал.
type Service struct {
	ledger   *ledger.Ledger
	images   CaptureDater
	loc      *time.Location
	settings Settings
	now      func() time.Time
}

// NewService создаёт сервис. loc — часовой пояс календарных дат.
func NewService(l *ledger.Ledger, images CaptureDater, loc *time.Location, settings Settings) *Service {
	return &Service{
		ledger:   l,
		images:   images,
		loc:      loc,
		settings: settings,
		now:      time.Now,
	}
}

// CheckIn засчитывает посещение зала.
// Дата съёмки читается до обращения к журналу: сеть не держит лок.
func (s *Service) CheckIn(ctx context.Context, userID, displayName string, img imagemeta.Image) Result {
	today := s.today()

	if captured, ok := s.images.CaptureDate(ctx, img); ok && s.isStale(captured, today) {
		total := s.ledger.AdjustPoints(userID, displayName, -s.settings.CheatPenalty)
		log.WithFields(log.Fields{
			"user_id":  userID,
			"captured": captured.Format("2006-01-02"),
			"penalty":  s.settings.CheatPenalty,
		}).Info("Старое фото в !gym, штраф")
		metrics.CheckInsTotal.WithLabelValues("gym", OutcomeCheat.String()).Inc()
		return Result{Outcome: OutcomeCheat, Penalty: s.settings.CheatPenalty, Total: total}
	}

	award := s.ledger.AwardDailyPoints(userID, displayName, today, s.settings.PointsPerGym)
	outcome := OutcomeAwarded
	if !award.Accepted {
		outcome = OutcomeDuplicate
	}
	metrics.CheckInsTotal.WithLabelValues("gym", outcome.String()).Inc()
	return Result{Outcome: outcome, Award: award, Total: award.TotalPoints}
}

// today — текущий момент в поясе приложения.
func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// isStale: дата съёмки раньше, чем today - CheatMaxAgeDays.
// Сравниваются календарные даты; время EXIF берётся как есть.
func (s *Service) isStale(captured, today time.Time) bool {
	c := time.Date(captured.Year(), captured.Month(), captured.Day(), 0, 0, 0, 0, time.UTC)
	limit := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -s.settings.CheatMaxAgeDays)
	return c.Before(limit)
}
