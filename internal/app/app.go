// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: хранилище, Telegram API, журнал, сервисы,
// обработчики, фильтры, планировщик и служебный HTTP.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/bot"
	"serotonyl.ru/lyfestyler-bot/internal/bot/filters"
	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/config"
	"serotonyl.ru/lyfestyler-bot/internal/db/postgres"
	redisstore "serotonyl.ru/lyfestyler-bot/internal/db/redis"
	"serotonyl.ru/lyfestyler-bot/internal/features/admin"
	"serotonyl.ru/lyfestyler-bot/internal/features/gym"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/features/members"
	"serotonyl.ru/lyfestyler-bot/internal/features/wake"
	"serotonyl.ru/lyfestyler-bot/internal/imagemeta"
	"serotonyl.ru/lyfestyler-bot/internal/jobs"
	"serotonyl.ru/lyfestyler-bot/internal/server"
)

// shutdownTimeout — сколько ждём финальный снапшот и HTTP при остановке.
const shutdownTimeout = 15 * time.Second

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	HTTP      *server.Server // nil, если HTTP_ADDR пуст
	BotAPI    *telego.Bot

	closers []func()
}

// storage — выбранный бэкенд хранения и то, что он даёт остальным.
type storage struct {
	snapshots ledger.SnapshotStore
	members   members.Repository
	audit     admin.AuditLog
	checks    map[string]server.Check
	closers   []func()
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc := common.LoadLocation(cfg.AppTimezone)

	// === 1. Хранилище (опционально) ===
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{closers: st.closers}

	// === 2. Telegram Bot API ===
	api, err := telego.NewBot(cfg.TelegramBotToken, telego.WithLogger(log.StandardLogger()))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := api.GetMe(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)
	a.BotAPI = api

	// === 3. Журнал и справочник ===
	l := ledger.New(time.Now().In(loc))

	memberService := members.NewService(st.members)
	if err := memberService.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка загрузки участников: %w", err)
	}
	reporter := ledger.Reporter{Currency: cfg.StakeCurrency, Mention: memberService.Mention}

	// === 4. Сервисы ===
	inspector := imagemeta.NewInspector(api, cfg.ImageMaxBytes, cfg.ImageDownloadTimeout)
	gymService := gym.NewService(l, inspector, loc, gym.Settings{
		PointsPerGym:    cfg.PointsPerGym,
		CheatPenalty:    cfg.CheatPenalty,
		CheatMaxAgeDays: cfg.CheatMaxAgeDays,
	})
	adminService := admin.NewService(l, memberService, st.audit, cfg.OwnerID)

	// === 5. Обработчики ===
	memberHandler := members.NewHandler(memberService)
	gymHandler := gym.NewHandler(gymService, l, reporter, api)
	wakeHandler := wake.NewHandler(l, reporter, memberService, api, loc)
	adminHandler := admin.NewHandler(adminService, l, cfg.StakeCurrency, api)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.GymChatID, cfg.WakeChatID, cfg.OwnerID, memberService, api)

	// === 7. Собираем бота ===
	a.Bot = bot.New(api, api, cfg, memberHandler, gymHandler, wakeHandler, adminHandler, chatFilter)

	// === 8. Планировщик задач и восстановление журнала ===
	a.Scheduler = jobs.NewScheduler(l, reporter, api, st.snapshots, cfg.SnapshotBackend, jobs.Settings{
		DailySpec:        cfg.DailyJobSpec,
		PeriodSpec:       cfg.PeriodJobSpec,
		SnapshotInterval: cfg.SnapshotInterval,
		GymChatID:        cfg.GymChatID,
		WakeChatID:       cfg.WakeChatID,
	}, loc)
	// Без журнала из снапшота не стартуем: иначе первый же save затрёт его пустым
	if err := a.Scheduler.RestoreSnapshot(ctx); err != nil {
		a.Close()
		return nil, err
	}

	// === 9. Служебный HTTP ===
	if cfg.HTTPAddr != "" {
		a.HTTP = server.New(cfg.HTTPAddr, st.checks)
	}

	return a, nil
}

// Run запускает планировщик, HTTP и polling; блокируется до отмены ctx.
// После остановки polling сохраняет финальный снапшот.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска планировщика: %w", err)
	}
	if a.HTTP != nil {
		a.HTTP.Start()
	}

	botErr := a.Bot.Start(ctx)

	a.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Scheduler.SaveSnapshot(shutdownCtx); err != nil {
		log.WithError(err).Error("Финальный снапшот не сохранён")
	}
	if a.HTTP != nil {
		if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP-сервер остановлен с ошибкой")
		}
	}

	if botErr != nil {
		return fmt.Errorf("ошибка polling: %w", botErr)
	}
	return nil
}

// Close освобождает соединения с хранилищем.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStorage подключает бэкенд из SNAPSHOT_BACKEND.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	st := &storage{checks: map[string]server.Check{}}

	switch cfg.SnapshotBackend {
	case config.SnapshotPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		st.closers = append(st.closers, pool.Close)

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}

		st.snapshots = postgres.NewSnapshotStore(pool)
		st.members = members.NewPostgresRepository(pool)
		st.audit = admin.NewRepository(pool)
		st.checks["postgres"] = pingPostgres(pool)

	case config.SnapshotRedis:
		client, err := redisstore.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })

		st.snapshots = redisstore.NewSnapshotStore(client, cfg.RedisSnapshotKey)
		st.checks["redis"] = pingRedis(client)

	default:
		log.Info("Хранилище выключено, журнал живёт только в памяти")
	}

	return st, nil
}

func pingPostgres(pool *pgxpool.Pool) server.Check {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

func pingRedis(client *redis.Client) server.Check {
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}
