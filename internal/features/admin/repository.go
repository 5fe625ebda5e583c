// Package admin — repository.go пишет журнал админ-действий в таблицу admin_actions.
package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog — журнал админ-действий.
type AuditLog interface {
	Record(ctx context.Context, a *Action) error
}

// Repository хранит журнал в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Record добавляет запись.
func (r *Repository) Record(ctx context.Context, a *Action) error {
	query := `
		INSERT INTO admin_actions (actor_id, command, target_id, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, a.ActorID, a.Command, a.TargetID, a.Value, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("ошибка записи админ-действия: %w", err)
	}
	return nil
}
