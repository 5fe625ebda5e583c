// Package metrics содержит Prometheus-метрики бота.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UpdatesTotal — апдейты Telegram по результату обработки.
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyfestyler_updates_total",
		Help: "Telegram updates by outcome",
	}, []string{"outcome"})

	// UpdateDuration — время обработки одного апдейта.
	UpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lyfestyler_update_duration_seconds",
		Help:    "Update handling duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// InflightUpdates — апдейты в обработке.
	InflightUpdates = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lyfestyler_inflight_updates",
		Help: "Updates currently being handled",
	})

	// PanicsTotal — восстановленные паники в обработчиках.
	PanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lyfestyler_handler_panics_total",
		Help: "Recovered panics in update handlers",
	})

	// RateLimitedTotal — сообщения, отброшенные ограничителем частоты.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lyfestyler_rate_limited_total",
		Help: "Messages dropped by the per-user rate limiter",
	})

	// CheckInsTotal — чек-ины по типу (gym, wake) и результату.
	CheckInsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyfestyler_checkins_total",
		Help: "Check-ins by kind and outcome",
	}, []string{"kind", "outcome"})

	// AdminCommandsTotal — админ-команды по результату.
	AdminCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyfestyler_admin_commands_total",
		Help: "Admin commands by command and outcome",
	}, []string{"command", "outcome"})

	// JobRunsTotal — запуски cron-задач.
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyfestyler_job_runs_total",
		Help: "Scheduled job runs by job and outcome",
	}, []string{"job", "outcome"})

	// SnapshotsTotal — сохранения/загрузки снапшота.
	SnapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyfestyler_snapshots_total",
		Help: "Snapshot operations by backend, operation and outcome",
	}, []string{"backend", "op", "outcome"})

	// LedgerUsers — пользователей в журнале.
	LedgerUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lyfestyler_ledger_users",
		Help: "Users known to the ledger",
	})
)

// Результаты для меток outcome.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Handler возвращает HTTP-обработчик /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
