package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranking(ids ...string) Ranking {
	r := make(Ranking, 0, len(ids))
	for i, id := range ids {
		r = append(r, RankEntry{UserID: id, DisplayName: id, Points: 100 - i})
	}
	return r
}

func TestCalculatePayout_FourPlayers(t *testing.T) {
	p := CalculatePayout(ranking("a", "b", "c", "d"), 4, 1000)

	require.True(t, p.Computable)
	require.True(t, p.Distributed)
	assert.Equal(t, int64(4000), p.Pot)

	amounts := make([]int64, 0, len(p.Lines))
	for _, l := range p.Lines {
		amounts = append(amounts, l.Amount)
	}
	assert.Equal(t, []int64{2000, 1333, 667, 0}, amounts)
	assert.Equal(t, int64(4000), p.Total())
	assert.Equal(t, "a", p.Lines[0].UserID)
	assert.Equal(t, 4, p.Lines[3].Position)
}

func TestCalculatePayout_NotComputable(t *testing.T) {
	tests := []struct {
		name        string
		playerCount int
		stake       int64
	}{
		{"нет игроков", 0, 1000},
		{"отрицательное число игроков", -1, 1000},
		{"нет взноса", 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CalculatePayout(ranking("a", "b"), tt.playerCount, tt.stake)
			assert.False(t, p.Computable)
			assert.False(t, p.Distributed)
			assert.Empty(t, p.Lines)
		})
	}
}

func TestCalculatePayout_SingleEntryReportsPot(t *testing.T) {
	p := CalculatePayout(ranking("a"), 4, 1000)

	assert.True(t, p.Computable)
	assert.False(t, p.Distributed)
	assert.Equal(t, int64(4000), p.Pot)
	assert.Empty(t, p.Lines)
}

func TestCalculatePayout_EmptyRanking(t *testing.T) {
	p := CalculatePayout(nil, 3, 500)

	assert.True(t, p.Computable)
	assert.False(t, p.Distributed)
	assert.Equal(t, int64(1500), p.Pot)
}

func TestCalculatePayout_LimitedByPlayerCount(t *testing.T) {
	p := CalculatePayout(ranking("a", "b", "c", "d", "e"), 2, 1000)

	require.Len(t, p.Lines, 2)
	assert.Equal(t, int64(2000), p.Lines[0].Amount)
	assert.Equal(t, int64(0), p.Lines[1].Amount)
}

func TestCalculatePayout_RoundsHalfUp(t *testing.T) {
	// pot = 3*1 = 3, n = 3, sum = 3, веса 2,1,0 → 2, 1, 0
	p := CalculatePayout(ranking("a", "b", "c"), 3, 1)
	require.Len(t, p.Lines, 3)
	assert.Equal(t, int64(2), p.Lines[0].Amount)
	assert.Equal(t, int64(1), p.Lines[1].Amount)

	// pot = 5, n = 4, sum = 6: 15/6=2.5→3, 10/6=1.67→2, 5/6=0.83→1
	p = CalculatePayout(ranking("a", "b", "c", "d"), 5, 1)
	require.Len(t, p.Lines, 4)
	assert.Equal(t, []int64{3, 2, 1, 0}, []int64{
		p.Lines[0].Amount, p.Lines[1].Amount, p.Lines[2].Amount, p.Lines[3].Amount,
	})
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, int64(3), roundHalfUp(5, 2))
	assert.Equal(t, int64(2), roundHalfUp(7, 4))
	assert.Equal(t, int64(1), roundHalfUp(5, 4))
	assert.Equal(t, int64(0), roundHalfUp(0, 6))
}

func TestCalculatePayout_MaxBoundsDoNotOverflow(t *testing.T) {
	ids := make([]string, MaxPlayerCount)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('a'+i/26%26))
	}
	p := CalculatePayout(ranking(ids...), MaxPlayerCount, MaxStakePerPlayer)

	require.True(t, p.Distributed)
	assert.Equal(t, int64(MaxPlayerCount)*MaxStakePerPlayer, p.Pot)
	for i := 1; i < len(p.Lines); i++ {
		assert.GreaterOrEqual(t, p.Lines[i-1].Amount, p.Lines[i].Amount)
	}
	assert.Positive(t, p.Lines[0].Amount)
	assert.InDelta(t, p.Pot, p.Total(), float64(MaxPlayerCount))
}
