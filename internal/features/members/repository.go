// Package members — repository.go хранит справочник участников в PostgreSQL.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository — постоянное хранилище справочника.
// Без него справочник живёт только в памяти.
type Repository interface {
	Upsert(ctx context.Context, m *Member) error
	List(ctx context.Context) ([]*Member, error)
}

// PostgresRepository хранит участников в таблице members.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert добавляет участника или обновляет имя/username.
func (r *PostgresRepository) Upsert(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (user_id, username, first_name, last_name, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, m.UserID, m.Username, m.FirstName, m.LastName, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения участника (user_id=%d): %w", m.UserID, err)
	}
	return nil
}

// List возвращает всех участников.
func (r *PostgresRepository) List(ctx context.Context) ([]*Member, error) {
	query := `
		SELECT user_id, username, first_name, last_name, updated_at
		FROM members
		ORDER BY user_id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.FirstName, &m.LastName, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}

	return out, nil
}
