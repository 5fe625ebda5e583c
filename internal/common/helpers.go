// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование денег, работа с временем.
package common

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// plural выбирает форму слова для числа n по правилам русского языка.
//
//   - n%10==1 И n%100!=11 → one (1, 21, 31, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, ...)
//   - остальные → many (0, 5-20, 25-30, ...)
func plural(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizePoints возвращает правильную форму слова «очко» для числа n.
//
// Примеры:
//
//	PluralizePoints(1)  → "очко"
//	PluralizePoints(3)  → "очка"
//	PluralizePoints(10) → "очков"
func PluralizePoints(n int) string {
	return plural(int64(n), "очко", "очка", "очков")
}

// PluralizePlayers возвращает правильную форму слова «игрок».
func PluralizePlayers(n int) string {
	return plural(int64(n), "игрок", "игрока", "игроков")
}

// FormatMoney форматирует сумму в минимальных единицах (центы/копейки).
// Пример: FormatMoney(1050, "€") → "10,50 €"
func FormatMoney(minorUnits int64, currency string) string {
	s := strings.Replace(decimal.New(minorUnits, -2).StringFixed(2), ".", ",", 1)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// LoadLocation загружает часовой пояс. При ошибке — UTC с предупреждением.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("timezone", name).Warn("Не удалось загрузить часовой пояс, используем UTC")
		return time.UTC
	}
	return loc
}

// Today возвращает календарную дату t (полночь в том же поясе).
func Today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatClock форматирует время подъёма "07:04:31".
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatDate форматирует дату "02.01.2006".
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}
