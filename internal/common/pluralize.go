// Package common — pluralize.go содержит вспомогательные функции
// для форматирования очков и чисел.
package common

import "fmt"

// FormatPoints создаёт строку вида "10 очков".
func FormatPoints(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizePoints(n))
}

// FormatPointsDelta создаёт строку вида "+10 очков" или "-5 очков".
// Знак «+» или «-» добавляется автоматически.
//
// Примеры:
//
//	FormatPointsDelta(10) → "+10 очков"
//	FormatPointsDelta(-5) → "-5 очков"
//	FormatPointsDelta(1)  → "+1 очко"
func FormatPointsDelta(delta int) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d %s", delta, PluralizePoints(delta))
	}
	return fmt.Sprintf("%d %s", delta, PluralizePoints(delta))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
