// Package members — service.go содержит справочник участников в памяти
// с необязательной записью в хранилище.
package members

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Service — справочник участников.
type Service struct {
	mu         sync.RWMutex
	byID       map[int64]*Member
	byUsername map[string]int64 // username в нижнем регистре → user ID

	repo Repository // nil — только память
	now  func() time.Time
}

// NewService создаёт справочник. repo может быть nil.
func NewService(repo Repository) *Service {
	return &Service{
		byID:       make(map[int64]*Member),
		byUsername: make(map[string]int64),
		repo:       repo,
		now:        time.Now,
	}
}

// Load заполняет справочник из хранилища.
func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range list {
		s.put(m)
	}
	log.WithField("count", len(list)).Info("Справочник участников загружен")
	return nil
}

// EnsureMember запоминает участника или обновляет его имя/username.
// В хранилище пишется только новое или изменившееся.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	s.mu.Lock()
	existing, ok := s.byID[userID]
	if ok && existing.sameInfo(username, firstName, lastName) {
		s.mu.Unlock()
		return nil
	}
	if ok && existing.Username != "" {
		// Старый username мог уже достаться другому участнику
		old := strings.ToLower(existing.Username)
		if s.byUsername[old] == userID {
			delete(s.byUsername, old)
		}
	}
	m := &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		UpdatedAt: s.now().UTC(),
	}
	s.put(m)
	saved := *m
	s.mu.Unlock()

	if !ok {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"username": username,
		}).Info("Новый участник зарегистрирован")
	}

	if s.repo == nil {
		return nil
	}
	return s.repo.Upsert(ctx, &saved)
}

// IsMember проверяет, знает ли справочник пользователя.
func (s *Service) IsMember(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[userID]
	return ok
}

// GetByUserID возвращает копию участника.
func (s *Service) GetByUserID(userID int64) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[userID]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// GetByUsername ищет участника по @username (регистр и @ не важны).
func (s *Service) GetByUsername(username string) (Member, bool) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	if key == "" {
		return Member{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[key]
	if !ok {
		return Member{}, false
	}
	return *s.byID[id], true
}

// Mention возвращает упоминание по ключу журнала (user ID строкой).
// Незнакомый пользователь упоминается по fallback.
func (s *Service) Mention(userKey, fallback string) string {
	id, err := strconv.ParseInt(userKey, 10, 64)
	if err != nil {
		return fallback
	}
	m, ok := s.GetByUserID(id)
	if !ok {
		return fallback
	}
	return m.Mention()
}

// Count возвращает количество участников.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// put вызывается под s.mu.
func (s *Service) put(m *Member) {
	s.byID[m.UserID] = m
	if m.Username != "" {
		s.byUsername[strings.ToLower(m.Username)] = m.UserID
	}
}
