// Package ledger — ranking.go строит рейтинги.
// Порядок: очки по убыванию, затем лучший стрик по убыванию, затем имя по возрастанию.
package ledger

import "sort"

// MonthlyRanking возвращает рейтинг текущего месяца.
func (l *Ledger) MonthlyRanking() Ranking {
	l.mu.Lock()
	defer l.mu.Unlock()
	return rankMonthly(l.users)
}

// YearlyRanking возвращает рейтинг текущего года.
func (l *Ledger) YearlyRanking() Ranking {
	l.mu.Lock()
	defer l.mu.Unlock()
	return rankYearly(l.users)
}

func rankMonthly(users map[string]*UserRecord) Ranking {
	return rank(users, func(u *UserRecord) int { return u.MonthPoints })
}

func rankYearly(users map[string]*UserRecord) Ranking {
	return rank(users, func(u *UserRecord) int { return u.YearPoints })
}

func rank(users map[string]*UserRecord, points func(*UserRecord) int) Ranking {
	out := make(Ranking, 0, len(users))
	for _, u := range users {
		out = append(out, RankEntry{
			UserID:            u.UserID,
			DisplayName:       u.DisplayName,
			Points:            points(u),
			CurrentStreak:     u.CurrentStreak,
			BestStreak:        u.BestStreak,
			BestMonthlyPoints: u.BestMonthlyPoints,
			BestYearlyPoints:  u.BestYearlyPoints,
		})
	}
	SortRanking(out)
	return out
}

// SortRanking упорядочивает записи на месте.
// При полном совпадении (очки, стрик, имя) порядок задаёт user ID,
// чтобы результат не зависел от обхода map.
func SortRanking(r Ranking) {
	sort.Slice(r, func(i, j int) bool {
		a, b := r[i], r[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.BestStreak != b.BestStreak {
			return a.BestStreak > b.BestStreak
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.UserID < b.UserID
	})
}
