// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// локальный .env подхватывается через godotenv.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Бэкенды снапшота журнала.
const (
	SnapshotNone     = "none"
	SnapshotPostgres = "postgres"
	SnapshotRedis    = "redis"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Владелец: единственный, кому доступны админ-команды
	OwnerID int64 `envconfig:"OWNER_ID" required:"true"`
	// Чат зала (!gym, рейтинги, итоги месяца) и чат подъёма (!awake)
	GymChatID  int64 `envconfig:"GYM_CHAT_ID" required:"true"`
	WakeChatID int64 `envconfig:"WAKE_CHAT_ID" required:"true"`

	// --- Database ---
	// Нужна только при SNAPSHOT_BACKEND=postgres.
	// Дефолт "postgres" — имя сервиса в docker-compose, для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"lyfestyler"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// --- Redis ---
	RedisAddr        string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword    string `envconfig:"REDIS_PASSWORD"`
	RedisDB          int    `envconfig:"REDIS_DB" default:"0"`
	RedisSnapshotKey string `envconfig:"REDIS_SNAPSHOT_KEY" default:"lyfestyler:ledger"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Berlin"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Gym ---
	PointsPerGym    int `envconfig:"POINTS_PER_GYM" default:"10"`
	CheatPenalty    int `envconfig:"CHEAT_PENALTY" default:"5"`
	CheatMaxAgeDays int `envconfig:"CHEAT_MAX_AGE_DAYS" default:"1"`

	// --- Stake ---
	StakeCurrency string `envconfig:"STAKE_CURRENCY" default:"€"`

	// --- Images ---
	ImageMaxBytes        int64         `envconfig:"IMAGE_MAX_BYTES" default:"20971520"`
	ImageDownloadTimeout time.Duration `envconfig:"IMAGE_DOWNLOAD_TIMEOUT" default:"15s"`

	// --- Jobs ---
	DailyJobSpec  string `envconfig:"DAILY_JOB_SPEC" default:"0 7 * * *"`
	PeriodJobSpec string `envconfig:"PERIOD_JOB_SPEC" default:"1 0 * * *"`

	// --- Persistence ---
	SnapshotBackend  string        `envconfig:"SNAPSHOT_BACKEND" default:"none"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"5m"`

	// --- HTTP (метрики, healthz); пусто — не поднимаем ---
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.OwnerID == 0 {
		return fmt.Errorf("OWNER_ID не задан или равен 0")
	}
	if c.GymChatID == 0 || c.WakeChatID == 0 {
		return fmt.Errorf("GYM_CHAT_ID и WAKE_CHAT_ID должны быть заданы")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.PointsPerGym <= 0 {
		return fmt.Errorf("POINTS_PER_GYM должен быть > 0")
	}
	if c.CheatPenalty < 0 || c.CheatMaxAgeDays < 0 {
		return fmt.Errorf("CHEAT_PENALTY и CHEAT_MAX_AGE_DAYS не могут быть отрицательными")
	}
	if c.ImageMaxBytes <= 0 {
		return fmt.Errorf("IMAGE_MAX_BYTES должен быть > 0")
	}
	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{"DAILY_JOB_SPEC": c.DailyJobSpec, "PERIOD_JOB_SPEC": c.PeriodJobSpec} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s %q: %w", name, spec, err)
		}
	}

	switch c.SnapshotBackend {
	case SnapshotNone:
	case SnapshotPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен при SNAPSHOT_BACKEND=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	case SnapshotRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR обязателен при SNAPSHOT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("неизвестный SNAPSHOT_BACKEND %q (none, postgres, redis)", c.SnapshotBackend)
	}
	if c.SnapshotBackend != SnapshotNone && c.SnapshotInterval <= 0 {
		return fmt.Errorf("SNAPSHOT_INTERVAL должен быть > 0")
	}
	return nil
}

// Load подхватывает .env (если есть), читает переменные окружения
// и заполняет структуру Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
