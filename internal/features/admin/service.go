// Package admin — service.go: проверка владельца, разбор аргументов
// и изменения журнала очков.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
	"serotonyl.ru/lyfestyler-bot/internal/features/ledger"
	"serotonyl.ru/lyfestyler-bot/internal/features/members"
)

// Directory — поиск участников (*members.Service).
type Directory interface {
	GetByUserID(userID int64) (members.Member, bool)
	GetByUsername(username string) (members.Member, bool)
}

// Service выполняет админ-команды.
type Service struct {
	ledger  *ledger.Ledger
	members Directory
	audit   AuditLog // nil — журнал только в логах
	ownerID int64
	now     func() time.Time
}

// NewService создаёт сервис. audit может быть nil.
func NewService(l *ledger.Ledger, dir Directory, audit AuditLog, ownerID int64) *Service {
	return &Service{
		ledger:  l,
		members: dir,
		audit:   audit,
		ownerID: ownerID,
		now:     time.Now,
	}
}

// IsOwner проверяет, является ли пользователь владельцем.
func (s *Service) IsOwner(userID int64) bool {
	return userID == s.ownerID
}

// OwnerID возвращает ID владельца.
func (s *Service) OwnerID() int64 {
	return s.ownerID
}

// SetPoints выставляет очки месяца.
func (s *Service) SetPoints(ctx context.Context, actorID int64, t Target, value int) int {
	total := s.ledger.SetPoints(strconv.FormatInt(t.UserID, 10), t.DisplayName, value)
	s.record(ctx, actorID, CmdSetPoints, &t.UserID, strconv.Itoa(total))
	return total
}

// SetStreak выставляет текущий стрик.
func (s *Service) SetStreak(ctx context.Context, actorID int64, t Target, value int) int {
	applied := s.ledger.SetStreak(strconv.FormatInt(t.UserID, 10), t.DisplayName, value)
	s.record(ctx, actorID, CmdSetStreak, &t.UserID, strconv.Itoa(applied))
	return applied
}

// SetStake выставляет взнос на игрока (минимальные единицы).
func (s *Service) SetStake(ctx context.Context, actorID int64, minorUnits int64) {
	s.ledger.SetStakePerPlayer(minorUnits)
	s.record(ctx, actorID, CmdSetStake, nil, strconv.FormatInt(minorUnits, 10))
}

// SetPlayers выставляет количество игроков.
func (s *Service) SetPlayers(ctx context.Context, actorID int64, n int) int {
	s.ledger.SetPlayerCount(n)
	applied := s.ledger.Stake().PlayerCount
	s.record(ctx, actorID, CmdSetPlayers, nil, strconv.Itoa(applied))
	return applied
}

// SetWakeRoster выставляет состав подъёма.
func (s *Service) SetWakeRoster(ctx context.Context, actorID int64, roster []Target) {
	ids := make([]string, 0, len(roster))
	for _, t := range roster {
		ids = append(ids, strconv.FormatInt(t.UserID, 10))
	}
	s.ledger.SetWakeRoster(ids)
	s.record(ctx, actorID, CmdSetWakePlayers, nil, strings.Join(ids, ","))
}

// ResolveTarget определяет пользователя по аргументу: @username или числовой ID.
func (s *Service) ResolveTarget(arg string) (Target, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Target{}, common.ErrMissingOption
	}

	if strings.HasPrefix(arg, "@") {
		m, ok := s.members.GetByUsername(arg)
		if !ok {
			return Target{}, fmt.Errorf("%w: %s", common.ErrUnknownUser, arg)
		}
		return targetFromMember(m), nil
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return Target{}, fmt.Errorf("%w: %s", common.ErrUnknownUser, arg)
	}
	if m, ok := s.members.GetByUserID(id); ok {
		return targetFromMember(m), nil
	}
	// Неизвестен справочнику, но мог уже попасть в журнал
	name := arg
	if u, ok := s.ledger.User(arg); ok && u.DisplayName != "" {
		name = u.DisplayName
	}
	return Target{UserID: id, DisplayName: name, Mention: name}, nil
}

// TargetFromUser строит цель из автора сообщения (команда ответом).
func (s *Service) TargetFromUser(u *telego.User) Target {
	if m, ok := s.members.GetByUserID(u.ID); ok {
		return targetFromMember(m)
	}
	m := members.Member{UserID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
	return targetFromMember(m)
}

// ResolveRoster разбирает список участников подъёма.
func (s *Service) ResolveRoster(args []string) ([]Target, error) {
	if len(args) == 0 {
		return nil, common.ErrMissingOption
	}
	seen := make(map[int64]bool, len(args))
	out := make([]Target, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, err := s.ResolveTarget(part)
			if err != nil {
				return nil, err
			}
			if seen[t.UserID] {
				continue
			}
			seen[t.UserID] = true
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, common.ErrMissingOption
	}
	return out, nil
}

// maxStake — взнос в основных единицах, больше которого банк не считается.
var maxStake = decimal.New(ledger.MaxStakePerPlayer, -2)

// ParseStake разбирает сумму в основных единицах валюты: "10", "10.5", "10,50".
// Не больше двух знаков после запятой, от нуля до maxStake.
func ParseStake(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, common.ErrMissingOption
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", common.ErrInvalidAmount, raw)
	}
	if d.IsNegative() || d.GreaterThan(maxStake) || !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("%w: %s", common.ErrInvalidAmount, raw)
	}
	return d.Shift(2).IntPart(), nil
}

// ParseInt разбирает целочисленный аргумент.
func ParseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, common.ErrMissingOption
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", common.ErrInvalidNumber, raw)
	}
	return v, nil
}

func (s *Service) record(ctx context.Context, actorID int64, cmd string, targetID *int64, value string) {
	fields := log.Fields{
		"component": "admin",
		"actor_id":  actorID,
		"command":   cmd,
		"value":     value,
	}
	if targetID != nil {
		fields["target_id"] = *targetID
	}
	log.WithFields(fields).Info("Админ-команда выполнена")

	if s.audit == nil {
		return
	}
	a := &Action{
		ActorID:   actorID,
		Command:   cmd,
		TargetID:  targetID,
		Value:     value,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Record(ctx, a); err != nil {
		log.WithError(err).WithField("command", cmd).Warn("Не удалось записать админ-действие")
	}
}

func targetFromMember(m members.Member) Target {
	return Target{
		UserID:      m.UserID,
		DisplayName: m.DisplayName(),
		Mention:     m.Mention(),
	}
}
