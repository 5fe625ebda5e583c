package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	src := New(day(2026, time.October, 1))
	src.SetStakePerPlayer(1050)
	src.SetPlayerCount(3)
	src.SetWakeRoster([]string{"1", "2"})
	src.AwardDailyPoints("1", "Аня", day(2026, time.October, 14), 10)
	src.AwardDailyPoints("1", "Аня", day(2026, time.October, 15), 10)
	today := day(2026, time.October, 15)
	src.RegisterArrival("2", "Борис", today, at(today, 6, 0))

	data, err := MarshalSnapshot(src.Snapshot(time.Now()))
	require.NoError(t, err)

	s, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	dst := New(day(2020, time.January, 1))
	require.NoError(t, dst.Restore(s))

	assert.Equal(t, src.CurrentMonth(), dst.CurrentMonth())
	assert.Equal(t, src.CurrentYear(), dst.CurrentYear())
	assert.Equal(t, src.Stake(), dst.Stake())
	assert.Equal(t, src.MonthlyRanking(), dst.MonthlyRanking())

	u, ok := dst.User("1")
	require.True(t, ok)
	assert.Equal(t, 2, u.CurrentStreak)
	require.NotNil(t, u.LastAwardDate)
	assert.True(t, u.LastAwardDate.Equal(today))

	// Порядок подъёма восстановлен: повтор отклоняется
	res := dst.RegisterArrival("2", "Борис", today, at(today, 7, 0))
	assert.False(t, res.Accepted)
	assert.Equal(t, 1, res.Position)

	// Продолжение стрика после восстановления
	award := dst.AwardDailyPoints("1", "Аня", day(2026, time.October, 16), 10)
	assert.Equal(t, 3, award.CurrentStreak)
}

func TestRestore_RejectsBadSnapshot(t *testing.T) {
	l := New(day(2026, time.October, 1))

	assert.Error(t, l.Restore(nil))
	assert.Error(t, l.Restore(&Snapshot{Version: snapshotVersion + 1}))
}

func TestUnmarshalSnapshot_InvalidJSON(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte("{"))
	assert.Error(t, err)
}

func TestSnapshot_KeepsPendingPeriodCloses(t *testing.T) {
	src := New(day(2026, time.December, 1))
	src.SetStakePerPlayer(1000)
	src.SetPlayerCount(2)
	src.AwardDailyPoints("1", "Аня", day(2026, time.December, 30), 10)
	src.AwardDailyPoints("2", "Борис", day(2026, time.December, 31), 10)
	src.AwardDailyPoints("2", "Борис", day(2027, time.January, 1), 10) // ленивая смена года

	data, err := MarshalSnapshot(src.Snapshot(time.Now()))
	require.NoError(t, err)
	s, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	dst := New(day(2027, time.January, 1))
	require.NoError(t, dst.Restore(s))

	closed := dst.DrainClosedPeriods()
	require.Len(t, closed, 1)
	pc := closed[0]
	assert.Equal(t, Month{Year: 2026, Month: time.December}, pc.Month)
	assert.True(t, pc.YearClosed)
	require.Len(t, pc.MonthlyRanking, 2)
	assert.Equal(t, "1", pc.MonthlyRanking[0].UserID)
	assert.Equal(t, int64(2000), pc.Payout.Pot)
	require.Len(t, pc.Payout.Lines, 2)
	assert.Equal(t, int64(2000), pc.Payout.Lines[0].Amount)
	require.Len(t, pc.YearlyRanking, 2)

	// Очередь не дублируется в исходном журнале
	assert.Len(t, src.DrainClosedPeriods(), 1)
}
