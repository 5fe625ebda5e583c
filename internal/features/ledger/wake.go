// Package ledger — wake.go ведёт порядок подъёма за день.
// Первый проснувшийся получает +1 к стрику «ранней пташки».
package ledger

import (
	"slices"
	"sort"
	"time"
)

// RegisterArrival регистрирует подъём пользователя.
// Повторная регистрация в тот же день отклоняется с исходной позицией.
func (l *Ledger) RegisterArrival(userID, displayName string, today, now time.Time) WakeArrivalResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := dateOnly(today)
	l.rolloverIfPeriodChanged(day)

	if l.wakeDate == nil || !l.wakeDate.Equal(day) {
		l.arrivals = nil
		l.wakeDate = &day
	}

	if idx := l.arrivalIndex(userID); idx >= 0 {
		return WakeArrivalResult{
			Accepted: false,
			Position: idx + 1,
			Date:     day,
			Time:     l.arrivals[idx].At,
		}
	}

	u := l.touch(userID, displayName)
	l.arrivals = append(l.arrivals, Arrival{UserID: userID, At: now})
	pos := len(l.arrivals)
	isFirst := pos == 1

	if isFirst {
		recordWakeFirst(u, day)
	}

	return WakeArrivalResult{
		Accepted: true,
		IsFirst:  isFirst,
		IsLast:   l.isLast(pos),
		Position: pos,
		Date:     day,
		Time:     now,
	}
}

// WakeRosterSize — размер ожидаемого состава: список участников,
// а если он пуст — количество игроков банка.
func (l *Ledger) WakeRosterSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rosterSize()
}

// BuildOrderSummary возвращает порядок подъёма за день today.
// ok == false, если в этот день ещё никто не регистрировался.
func (l *Ledger) BuildOrderSummary(today time.Time) (WakeOrderSummary, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wakeDate == nil || !l.wakeDate.Equal(dateOnly(today)) || len(l.arrivals) == 0 {
		return WakeOrderSummary{}, false
	}

	ordered := slices.Clone(l.arrivals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].At.Before(ordered[j].At)
	})

	s := WakeOrderSummary{
		Date:    *l.wakeDate,
		Entries: make([]WakeEntry, 0, len(ordered)),
	}
	for i, a := range ordered {
		s.Entries = append(s.Entries, WakeEntry{
			Position:    i + 1,
			UserID:      a.UserID,
			DisplayName: l.nameOf(a.UserID),
			Time:        a.At,
		})
	}

	if first, ok := l.users[ordered[0].UserID]; ok {
		s.FirstUserID = first.UserID
		s.FirstDisplayName = first.DisplayName
		s.FirstCurrentStreak = first.WakeFirstCurrentStreak
		s.FirstBestStreak = first.WakeFirstBestStreak
	}
	return s, true
}

// PendingSleepers возвращает участников состава, ещё не отметившихся сегодня.
func (l *Ledger) PendingSleepers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	for _, id := range l.roster {
		if l.arrivalIndex(id) < 0 {
			out = append(out, id)
		}
	}
	return out
}

func (l *Ledger) arrivalIndex(userID string) int {
	for i, a := range l.arrivals {
		if a.UserID == userID {
			return i
		}
	}
	return -1
}

func (l *Ledger) rosterSize() int {
	if len(l.roster) > 0 {
		return len(l.roster)
	}
	return l.playerCount
}

// isLast: последний ожидаемый участник. Без состава «последнего» нет.
func (l *Ledger) isLast(pos int) bool {
	size := l.rosterSize()
	if size <= 0 {
		return false
	}
	threshold := size
	if l.playerCount > 0 && l.playerCount < threshold {
		threshold = l.playerCount
	}
	return pos >= threshold
}

func (l *Ledger) nameOf(userID string) string {
	if u, ok := l.users[userID]; ok {
		return u.DisplayName
	}
	return userID
}

// recordWakeFirst обновляет стрик «ранней пташки», не чаще раза в день.
func recordWakeFirst(u *UserRecord, day time.Time) {
	if u.LastWakeFirstDate != nil && u.LastWakeFirstDate.Equal(day) {
		return
	}
	if u.LastWakeFirstDate != nil && u.LastWakeFirstDate.AddDate(0, 0, 1).Equal(day) {
		u.WakeFirstCurrentStreak++
	} else {
		u.WakeFirstCurrentStreak = 1
	}
	if u.WakeFirstCurrentStreak > u.WakeFirstBestStreak {
		u.WakeFirstBestStreak = u.WakeFirstCurrentStreak
	}
	u.LastWakeFirstDate = &day
}
