package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveReducesAvailableBalance(t *testing.T) {
	l := NewLedger(10000)
	require.NoError(t, l.Reserve(1, 4000))
	assert.Equal(t, uint64(6000), l.AvailableBalance())
	assert.Equal(t, uint64(4000), l.MarginUsed())
	assert.Equal(t, uint64(10000), l.Balance())
}

func TestReserveRejectsWhenInsufficient(t *testing.T) {
	l := NewLedger(1000)
	err := l.Reserve(1, 2000)
	assert.ErrorIs(t, err, ErrInsufficientBuyingPower)
}

func TestReleaseRestoresAvailableBalance(t *testing.T) {
	l := NewLedger(10000)
	require.NoError(t, l.Reserve(1, 4000))
	require.NoError(t, l.Release(1))
	assert.Equal(t, uint64(10000), l.AvailableBalance())
	assert.Equal(t, uint64(0), l.MarginUsed())
}

func TestReleaseUnknownReservationErrors(t *testing.T) {
	l := NewLedger(10000)
	err := l.Release(99)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestSettleUnderReservationReturnsSurplus(t *testing.T) {
	l := NewLedger(10000)
	require.NoError(t, l.Reserve(1, 4000))
	require.NoError(t, l.Settle(1, 3500))
	assert.Equal(t, uint64(6500), l.Balance())
	assert.Equal(t, uint64(6500), l.AvailableBalance())
	assert.Equal(t, uint64(0), l.MarginUsed())
}

func TestSettleOverReservationDebitsExtra(t *testing.T) {
	l := NewLedger(10000)
	require.NoError(t, l.Reserve(1, 4000))
	require.NoError(t, l.Settle(1, 4500))
	assert.Equal(t, uint64(5500), l.Balance())
	assert.Equal(t, uint64(5500), l.AvailableBalance())
}
