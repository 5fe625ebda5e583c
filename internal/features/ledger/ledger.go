// Package ledger — ledger.go хранит всё состояние в памяти и управляет
// сменой периодов. Все операции сериализуются одним мьютексом: начисление,
// смена месяца и чтение рейтинга не должны перемежаться.
package ledger

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxPendingCloses ограничивает очередь необъявленных итогов (два года).
const maxPendingCloses = 24

// Ledger — единственный владелец пользовательской статистики.
type Ledger struct {
	mu sync.Mutex

	users        map[string]*UserRecord
	currentMonth Month
	currentYear  int

	stakePerPlayer int64 // В минимальных единицах валюты
	playerCount    int

	// Порядок подъёма
	roster   []string      // Ожидаемые участники (user ID)
	wakeDate *time.Time    // День, к которому относится arrivals
	arrivals []Arrival     // В порядке регистрации
	closed   []PeriodClose // Закрытые периоды, ещё не объявленные
}

// Arrival — отметка подъёма.
type Arrival struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// New создаёт пустой журнал, текущий период берётся из now.
func New(now time.Time) *Ledger {
	m := MonthOf(now)
	return &Ledger{
		users:        make(map[string]*UserRecord),
		currentMonth: m,
		currentYear:  m.Year,
	}
}

// AwardDailyPoints начисляет очки за дневной чек-ин и ведёт стрик.
// Один засчитанный чек-ин на пользователя в день.
func (l *Ledger) AwardDailyPoints(userID, displayName string, today time.Time, pointsPerAward int) AwardResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := dateOnly(today)
	l.rolloverIfPeriodChanged(day)

	u := l.touch(userID, displayName)

	if u.LastAwardDate != nil && u.LastAwardDate.Equal(day) {
		return AwardResult{
			Accepted:      false,
			TotalPoints:   u.MonthPoints,
			CurrentStreak: u.CurrentStreak,
			BestStreak:    u.BestStreak,
		}
	}

	if u.LastAwardDate != nil && u.LastAwardDate.AddDate(0, 0, 1).Equal(day) {
		u.CurrentStreak++
	} else {
		u.CurrentStreak = 1
	}
	if u.CurrentStreak > u.BestStreak {
		u.BestStreak = u.CurrentStreak
	}

	u.MonthPoints += pointsPerAward
	if pointsPerAward > 0 {
		u.YearPoints += pointsPerAward
	}
	u.LastAwardDate = &day

	return AwardResult{
		Accepted:      true,
		PointsAdded:   pointsPerAward,
		TotalPoints:   u.MonthPoints,
		CurrentStreak: u.CurrentStreak,
		BestStreak:    u.BestStreak,
	}
}

// AdjustPoints прибавляет delta к очкам месяца (например -5 за старое фото).
// Стрики, годовые очки и дата последнего чек-ина не меняются.
func (l *Ledger) AdjustPoints(userID, displayName string, delta int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.touch(userID, displayName)
	u.MonthPoints += delta
	return u.MonthPoints
}

// SetPoints выставляет очки месяца напрямую.
func (l *Ledger) SetPoints(userID, displayName string, newValue int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.touch(userID, displayName)
	u.MonthPoints += newValue - u.MonthPoints
	return u.MonthPoints
}

// SetStreak выставляет текущий стрик (отрицательные значения → 0).
func (l *Ledger) SetStreak(userID, displayName string, newValue int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if newValue < 0 {
		newValue = 0
	}
	u := l.touch(userID, displayName)
	u.CurrentStreak = newValue
	if u.CurrentStreak > u.BestStreak {
		u.BestStreak = u.CurrentStreak
	}
	return u.CurrentStreak
}

// RolloverToPeriod закрывает текущий месяц (и год) и переходит в newMonth.
func (l *Ledger) RolloverToPeriod(newMonth Month) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(newMonth)
}

// RolloverIfNeeded переходит в месяц даты today, если он отличается от текущего.
// Возвращает true, если смена произошла.
func (l *Ledger) RolloverIfNeeded(today time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rolloverIfPeriodChanged(dateOnly(today))
}

// DrainClosedPeriods забирает закрытые периоды для объявления итогов.
func (l *Ledger) DrainClosedPeriods() []PeriodClose {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.closed
	l.closed = nil
	return out
}

// CurrentMonth возвращает текущий месяц.
func (l *Ledger) CurrentMonth() Month {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentMonth
}

// CurrentYear возвращает текущий год.
func (l *Ledger) CurrentYear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentYear
}

// User возвращает копию записи пользователя.
func (l *Ledger) User(userID string) (UserRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[userID]
	if !ok {
		return UserRecord{}, false
	}
	return copyRecord(u), true
}

// UserCount возвращает количество известных пользователей.
func (l *Ledger) UserCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

// SetStakePerPlayer задаёт взнос на игрока в минимальных единицах валюты,
// в пределах [0, MaxStakePerPlayer].
func (l *Ledger) SetStakePerPlayer(minorUnits int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stakePerPlayer = max(0, min(minorUnits, MaxStakePerPlayer))
}

// SetPlayerCount задаёт количество игроков в банке, в пределах [0, MaxPlayerCount].
func (l *Ledger) SetPlayerCount(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playerCount = max(0, min(n, MaxPlayerCount))
}

// SetWakeRoster задаёт список участников подъёма.
func (l *Ledger) SetWakeRoster(userIDs []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roster = append([]string(nil), userIDs...)
}

// Stake возвращает текущие настройки банка.
func (l *Ledger) Stake() StakeInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return StakeInfo{
		StakePerPlayer: l.stakePerPlayer,
		PlayerCount:    l.playerCount,
		Roster:         append([]string(nil), l.roster...),
	}
}

// --- внутренние методы, вызываются под l.mu ---

// touch находит или создаёт запись и обновляет отображаемое имя.
func (l *Ledger) touch(userID, displayName string) *UserRecord {
	u, ok := l.users[userID]
	if !ok {
		u = &UserRecord{UserID: userID}
		l.users[userID] = u
		log.WithField("user_id", userID).Debug("Новая запись пользователя")
	}
	u.DisplayName = displayName
	return u
}

func (l *Ledger) rolloverIfPeriodChanged(day time.Time) bool {
	m := MonthOf(day)
	if m == l.currentMonth {
		return false
	}
	l.rollover(m)
	return true
}

func (l *Ledger) rollover(newMonth Month) {
	yearChanged := newMonth.Year != l.currentMonth.Year

	pc := PeriodClose{
		Month:          l.currentMonth,
		MonthlyRanking: rankMonthly(l.users),
		YearClosed:     yearChanged,
		Year:           l.currentMonth.Year,
	}
	pc.Payout = CalculatePayout(pc.MonthlyRanking, l.playerCount, l.stakePerPlayer)
	if yearChanged {
		pc.YearlyRanking = rankYearly(l.users)
	}

	for _, u := range l.users {
		if u.MonthPoints > u.BestMonthlyPoints {
			u.BestMonthlyPoints = u.MonthPoints
		}
	}

	if yearChanged {
		for _, u := range l.users {
			if u.YearPoints > u.BestYearlyPoints {
				u.BestYearlyPoints = u.YearPoints
			}
			u.YearPoints = 0
		}
		l.currentYear = newMonth.Year
	}

	l.currentMonth = newMonth
	for _, u := range l.users {
		u.MonthPoints = 0
		u.CurrentStreak = 0
		u.LastAwardDate = nil
	}

	l.closed = append(l.closed, pc)
	if dropped := len(l.closed) - maxPendingCloses; dropped > 0 {
		log.WithField("dropped", dropped).Warn("Очередь итогов переполнена, старые итоги отброшены")
		l.closed = l.closed[dropped:]
	}

	log.WithFields(log.Fields{
		"closed_month": pc.Month.String(),
		"new_month":    newMonth.String(),
		"year_closed":  yearChanged,
		"users":        len(l.users),
	}).Info("Смена периода выполнена")
}

// dateOnly отбрасывает время: календарная дата в UTC-полночь.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func copyRecord(u *UserRecord) UserRecord {
	c := *u
	if u.LastAwardDate != nil {
		d := *u.LastAwardDate
		c.LastAwardDate = &d
	}
	if u.LastWakeFirstDate != nil {
		d := *u.LastWakeFirstDate
		c.LastWakeFirstDate = &d
	}
	return c
}
