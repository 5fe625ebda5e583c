// Package ledger — reports.go формирует текстовые отчёты:
// рейтинги, итоги месяца и года, порядок подъёма.
package ledger

import (
	"fmt"
	"strings"

	"serotonyl.ru/lyfestyler-bot/internal/common"
)

// Тексты для пустых отчётов.
const (
	NoMonthlyPointsText = "Пока ни у кого нет очков."
	NoYearlyPointsText  = "Пока ни у кого нет очков за год."
	NoMonthEntrantsText = "В этом месяце участников не было."
	NoYearEntrantsText  = "В этом году участников не было."
	NoWakeDataText      = "Сегодня ещё никто не проснулся."
	NoStakeText         = "Взнос не задан."
)

var monthNames = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

// Label возвращает "октябрь 2026".
func (m Month) Label() string {
	if m.Month < 1 || m.Month > 12 {
		return m.String()
	}
	return fmt.Sprintf("%s %d", monthNames[m.Month-1], m.Year)
}

// Reporter форматирует отчёты.
type Reporter struct {
	Currency string
	// Mention возвращает упоминание пользователя (@username или имя).
	Mention func(userID, displayName string) string
}

func (r Reporter) mention(userID, displayName string) string {
	if r.Mention == nil {
		return displayName
	}
	return r.Mention(userID, displayName)
}

// MonthlyRanking — рейтинг месяца с рекордами.
//
//	🏆 Рейтинг (октябрь 2026)
//	1. Аня — 30 очков, стрик: 3 (лучший: 5), рекорд месяца: 120
func (r Reporter) MonthlyRanking(m Month, ranking Ranking) string {
	if len(ranking) == 0 {
		return NoMonthlyPointsText
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Рейтинг (%s)\n", m.Label())
	for i, e := range ranking {
		fmt.Fprintf(&sb, "%d. %s — %s, стрик: %d (лучший: %d)",
			i+1, e.DisplayName, common.FormatPoints(e.Points), e.CurrentStreak, e.BestStreak)
		writeHighscores(&sb, e)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// YearlyRanking — рейтинг года.
func (r Reporter) YearlyRanking(year int, ranking Ranking) string {
	if len(ranking) == 0 {
		return NoYearlyPointsText
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Рейтинг года (%d)\n", year)
	for i, e := range ranking {
		fmt.Fprintf(&sb, "%d. %s — %s", i+1, e.DisplayName, common.FormatPoints(e.Points))
		if e.BestStreak > 0 {
			fmt.Fprintf(&sb, ", лучший стрик: %d", e.BestStreak)
		}
		writeHighscores(&sb, e)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeHighscores(sb *strings.Builder, e RankEntry) {
	if e.BestMonthlyPoints > 0 {
		fmt.Fprintf(sb, ", рекорд месяца: %d", e.BestMonthlyPoints)
	}
	if e.BestYearlyPoints > 0 {
		fmt.Fprintf(sb, ", рекорд года: %d", e.BestYearlyPoints)
	}
}

// Payout — распределение банка.
func (r Reporter) Payout(p Payout) string {
	if !p.Computable {
		return NoStakeText
	}
	if !p.Distributed {
		return fmt.Sprintf("Банк: %s — делить не на кого (слишком мало игроков).",
			common.FormatMoney(p.Pot, r.Currency))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Банк: %s, %d %s по %s\n",
		common.FormatMoney(p.Pot, r.Currency),
		p.PlayerCount, common.PluralizePlayers(p.PlayerCount),
		common.FormatMoney(p.StakePerPlayer, r.Currency))
	for _, l := range p.Lines {
		fmt.Fprintf(&sb, "%d. %s: %s\n", l.Position, l.DisplayName, common.FormatMoney(l.Amount, r.Currency))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// MonthEnd — итоги месяца: победитель, выплаты, рейтинг.
func (r Reporter) MonthEnd(pc PeriodClose) string {
	winner, ok := pc.MonthlyRanking.Winner()
	if !ok {
		return NoMonthEntrantsText
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎊 Победитель за %s: %s — %s!\n\n",
		pc.Month.Label(), r.mention(winner.UserID, winner.DisplayName), common.FormatPoints(winner.Points))
	sb.WriteString(r.Payout(pc.Payout))
	sb.WriteString("\n\n")
	sb.WriteString(r.MonthlyRanking(pc.Month, pc.MonthlyRanking))
	return sb.String()
}

// YearEnd — итоги года: победитель, рейтинг и последнее место.
func (r Reporter) YearEnd(pc PeriodClose) string {
	winner, ok := pc.YearlyRanking.Winner()
	if !ok {
		return NoYearEntrantsText
	}
	last, _ := pc.YearlyRanking.Last()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎊 Победитель %d года: %s — %s!\n\n",
		pc.Year, r.mention(winner.UserID, winner.DisplayName), common.FormatPoints(winner.Points))
	sb.WriteString(r.YearlyRanking(pc.Year, pc.YearlyRanking))
	fmt.Fprintf(&sb, "\n\n%s угощает всех ужином 🍔", r.mention(last.UserID, last.DisplayName))
	return sb.String()
}

// WakeOrder — порядок подъёма за день.
func (r Reporter) WakeOrder(s WakeOrderSummary, ok bool) string {
	if !ok {
		return NoWakeDataText
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏰ Порядок подъёма за %s\n", common.FormatDate(s.Date))
	for _, e := range s.Entries {
		fmt.Fprintf(&sb, "%d. %s — %s\n", e.Position, e.DisplayName, common.FormatClock(e.Time))
	}
	if s.FirstUserID != "" {
		fmt.Fprintf(&sb, "\n🐦 Ранняя пташка: %s — стрик: %d (лучший: %d)",
			s.FirstDisplayName, s.FirstCurrentStreak, s.FirstBestStreak)
	}
	return strings.TrimRight(sb.String(), "\n")
}
