// Package ledger — ядро подсчёта очков: пользователи, стрики, рейтинги,
// смена периодов (месяц/год), распределение банка и порядок подъёма.
// models.go описывает структуры данных.
package ledger

import (
	"fmt"
	"time"
)

// UserRecord — статистика одного пользователя.
// Создаётся лениво при первом обращении и никогда не удаляется.
type UserRecord struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"` // Обновляется при каждом обращении

	MonthPoints int `json:"month_points"` // Может уйти в минус через корректировки
	YearPoints  int `json:"year_points"`  // Не меньше 0

	CurrentStreak int `json:"current_streak"` // Дней подряд с засчитанным !gym
	BestStreak    int `json:"best_streak"`

	BestMonthlyPoints int `json:"best_monthly_points"` // Рекорд месяца (обновляется при закрытии месяца)
	BestYearlyPoints  int `json:"best_yearly_points"`  // Рекорд года (обновляется при закрытии года)

	LastAwardDate *time.Time `json:"last_award_date,omitempty"`

	WakeFirstCurrentStreak int        `json:"wake_first_current_streak"` // Дней подряд «первым проснулся»
	WakeFirstBestStreak    int        `json:"wake_first_best_streak"`
	LastWakeFirstDate      *time.Time `json:"last_wake_first_date,omitempty"`
}

// AwardResult — результат начисления дневных очков.
type AwardResult struct {
	Accepted      bool
	PointsAdded   int
	TotalPoints   int
	CurrentStreak int
	BestStreak    int
}

// WakeArrivalResult — результат регистрации подъёма.
type WakeArrivalResult struct {
	Accepted bool
	IsFirst  bool
	IsLast   bool
	Position int // 1-based
	Date     time.Time
	Time     time.Time
}

// Month — календарный месяц (год + месяц).
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf возвращает месяц, к которому относится дата.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Next возвращает следующий месяц.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// RankEntry — строка рейтинга (копия записи, снятая под локом).
type RankEntry struct {
	UserID            string `json:"user_id"`
	DisplayName       string `json:"display_name"`
	Points            int    `json:"points"`
	CurrentStreak     int    `json:"current_streak"`
	BestStreak        int    `json:"best_streak"`
	BestMonthlyPoints int    `json:"best_monthly_points"`
	BestYearlyPoints  int    `json:"best_yearly_points"`
}

// Ranking — упорядоченный список, лучший первым. Пустой рейтинг допустим.
type Ranking []RankEntry

// Winner возвращает первое место.
func (r Ranking) Winner() (RankEntry, bool) {
	if len(r) == 0 {
		return RankEntry{}, false
	}
	return r[0], true
}

// Last возвращает последнее место.
func (r Ranking) Last() (RankEntry, bool) {
	if len(r) == 0 {
		return RankEntry{}, false
	}
	return r[len(r)-1], true
}

// PeriodClose — итог закрытого месяца (и года, если сменился год).
// Рейтинги сняты ДО обнуления очков.
type PeriodClose struct {
	Month          Month   `json:"month"`
	MonthlyRanking Ranking `json:"monthly_ranking"`
	Payout         Payout  `json:"payout"`

	YearClosed    bool    `json:"year_closed"`
	Year          int     `json:"year"`
	YearlyRanking Ranking `json:"yearly_ranking,omitempty"`
}

// WakeEntry — строка сводки подъёма.
type WakeEntry struct {
	Position    int
	UserID      string
	DisplayName string
	Time        time.Time
}

// WakeOrderSummary — порядок подъёма за день и текущий «ранний пташка».
type WakeOrderSummary struct {
	Date    time.Time
	Entries []WakeEntry

	FirstUserID        string
	FirstDisplayName   string
	FirstCurrentStreak int
	FirstBestStreak    int
}

// StakeInfo — настройки банка.
type StakeInfo struct {
	StakePerPlayer int64 // В копейках/центах
	PlayerCount    int
	Roster         []string
}
