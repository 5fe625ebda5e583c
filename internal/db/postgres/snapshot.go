package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
)

// SnapshotStore хранит снапшот журнала в таблице ledger_snapshots.
type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Load читает снапшот. Пустая таблица — common.ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context) (*ledger.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM ledger_snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снапшота: %w", err)
	}
	return ledger.UnmarshalSnapshot(data)
}

// Save перезаписывает снапшот.
func (s *SnapshotStore) Save(ctx context.Context, snap *ledger.Snapshot) error {
	data, err := ledger.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ledger_snapshots (id, data, taken_at, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data,
		    taken_at = EXCLUDED.taken_at,
		    updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, data, snap.TakenAt); err != nil {
		return fmt.Errorf("ошибка сохранения снапшота: %w", err)
	}
	return nil
}
