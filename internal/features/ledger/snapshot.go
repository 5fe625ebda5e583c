// Package ledger — snapshot.go сериализует состояние для внешнего хранилища.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// snapshotVersion меняется при несовместимом изменении формата.
const snapshotVersion = 1

// Snapshot — полное состояние журнала.
type Snapshot struct {
	Version        int          `json:"version"`
	TakenAt        time.Time    `json:"taken_at"`
	CurrentMonth   Month        `json:"current_month"`
	CurrentYear    int          `json:"current_year"`
	StakePerPlayer int64        `json:"stake_per_player"`
	PlayerCount    int          `json:"player_count"`
	Roster         []string     `json:"roster,omitempty"`
	WakeDate       *time.Time   `json:"wake_date,omitempty"`
	Arrivals       []Arrival    `json:"arrivals,omitempty"`
	Users          []UserRecord `json:"users"`

	// Закрытые периоды, итоги которых ещё не объявлены
	Closed []PeriodClose `json:"closed,omitempty"`
}

// SnapshotStore — хранилище снапшотов (PostgreSQL, Redis).
type SnapshotStore interface {
	// Load возвращает common.ErrSnapshotNotFound, если снапшота ещё нет.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

// Snapshot снимает копию состояния вместе с очередью необъявленных итогов.
func (l *Ledger) Snapshot(now time.Time) *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := &Snapshot{
		Version:        snapshotVersion,
		TakenAt:        now,
		CurrentMonth:   l.currentMonth,
		CurrentYear:    l.currentYear,
		StakePerPlayer: l.stakePerPlayer,
		PlayerCount:    l.playerCount,
		Roster:         append([]string(nil), l.roster...),
		Arrivals:       append([]Arrival(nil), l.arrivals...),
		Users:          make([]UserRecord, 0, len(l.users)),
		Closed:         append([]PeriodClose(nil), l.closed...),
	}
	if l.wakeDate != nil {
		d := *l.wakeDate
		s.WakeDate = &d
	}
	for _, u := range l.users {
		s.Users = append(s.Users, copyRecord(u))
	}
	return s
}

// Restore заменяет состояние снапшотом.
func (l *Ledger) Restore(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("пустой снапшот")
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("неподдерживаемая версия снапшота: %d", s.Version)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.users = make(map[string]*UserRecord, len(s.Users))
	for i := range s.Users {
		u := copyRecord(&s.Users[i])
		l.users[u.UserID] = &u
	}
	l.currentMonth = s.CurrentMonth
	l.currentYear = s.CurrentYear
	l.stakePerPlayer = max(0, min(s.StakePerPlayer, MaxStakePerPlayer))
	l.playerCount = max(0, min(s.PlayerCount, MaxPlayerCount))
	l.roster = append([]string(nil), s.Roster...)
	l.arrivals = append([]Arrival(nil), s.Arrivals...)
	l.closed = append([]PeriodClose(nil), s.Closed...)
	l.wakeDate = nil
	if s.WakeDate != nil {
		d := *s.WakeDate
		l.wakeDate = &d
	}
	return nil
}

// MarshalSnapshot кодирует снапшот в JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования снапшота: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot декодирует снапшот из JSON.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ошибка декодирования снапшота: %w", err)
	}
	return &s, nil
}
