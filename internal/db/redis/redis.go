// Package redis хранит снапшот журнала очков в Redis (один ключ, JSON).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/config"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
)

// NewClient создаёт клиента и ждёт, пока Redis ответит на PING.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis недоступен, повторяем...")
			return err
		}
		return nil
	}, policy)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}

	log.WithField("addr", cfg.RedisAddr).Info("Подключение к Redis установлено")
	return client, nil
}

// SnapshotStore хранит снапшот под одним ключом.
type SnapshotStore struct {
	client redis.UniversalClient
	key    string
}

func NewSnapshotStore(client redis.UniversalClient, key string) *SnapshotStore {
	return &SnapshotStore{client: client, key: key}
}

// Load читает снапшот. Нет ключа — common.ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context) (*ledger.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снапшота (key=%s): %w", s.key, err)
	}
	return ledger.UnmarshalSnapshot(data)
}

// Save перезаписывает снапшот без срока жизни.
func (s *SnapshotStore) Save(ctx context.Context, snap *ledger.Snapshot) error {
	data, err := ledger.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения снапшота (key=%s): %w", s.key, err)
	}
	return nil
}
