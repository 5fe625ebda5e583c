// Package ledger — payout.go делит банк между лучшими игроками.
//
// Веса линейные: при n призовых местах первое получает вес n-1,
// последнее — 0. Сумма весов n(n-1)/2.
//
// Округление: half-up в целых числах, (2*pot*w + sum) / (2*sum).
// Ошибка округления не перераспределяется, сумма выплат может
// отличаться от банка не больше чем на n-1 минимальных единиц.
package ledger

// Границы банка: 2*pot*w при максимальных значениях остаётся в int64.
const (
	MaxPlayerCount    = 1000
	MaxStakePerPlayer = int64(100_000_000_000) // 1 000 000 000,00 в основных единицах
)

// PayoutLine — выплата одному месту.
type PayoutLine struct {
	Position    int    `json:"position"` // 1-based
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Amount      int64  `json:"amount"`
}

// Payout — результат расчёта.
type Payout struct {
	// Computable == false: не задан взнос или количество игроков.
	Computable bool `json:"computable"`
	// Distributed == false: банк посчитан, но делить не на кого (n <= 1).
	Distributed bool `json:"distributed"`

	Pot            int64        `json:"pot"`
	PlayerCount    int          `json:"player_count"`
	StakePerPlayer int64        `json:"stake_per_player"`
	Lines          []PayoutLine `json:"lines,omitempty"`
}

// CalculatePayout считает распределение банка по рейтингу.
func CalculatePayout(ranking Ranking, playerCount int, stakePerPlayer int64) Payout {
	if playerCount <= 0 || stakePerPlayer <= 0 {
		return Payout{}
	}

	p := Payout{
		Computable:     true,
		Pot:            int64(playerCount) * stakePerPlayer,
		PlayerCount:    playerCount,
		StakePerPlayer: stakePerPlayer,
	}

	n := min(playerCount, len(ranking))
	if n <= 1 {
		return p
	}

	sum := int64(n * (n - 1) / 2)
	p.Distributed = true
	p.Lines = make([]PayoutLine, 0, n)
	for i := 0; i < n; i++ {
		w := int64(n - 1 - i)
		p.Lines = append(p.Lines, PayoutLine{
			Position:    i + 1,
			UserID:      ranking[i].UserID,
			DisplayName: ranking[i].DisplayName,
			Amount:      roundHalfUp(p.Pot*w, sum),
		})
	}
	return p
}

// roundHalfUp делит num/den с округлением половины вверх (num >= 0, den > 0).
func roundHalfUp(num, den int64) int64 {
	return (2*num + den) / (2 * den)
}

// Total возвращает сумму всех выплат.
func (p Payout) Total() int64 {
	var t int64
	for _, l := range p.Lines {
		t += l.Amount
	}
	return t
}
