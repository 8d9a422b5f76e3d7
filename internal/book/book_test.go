package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(maxOrders, maxLevels int) *OrderBook {
	return NewOrderBook(Config{
		Symbol:     1,
		PriceBase:  9000,
		PriceRange: 2000,
		MaxOrders:  maxOrders,
		MaxLevels:  maxLevels,
	})
}

func TestAddOrderValidation(t *testing.T) {
	ob := newTestBook(10, 10)

	assert.ErrorIs(t, ob.AddOrder(0, 0, Buy, 10100, 10), ErrInvalidOrderID)
	assert.ErrorIs(t, ob.AddOrder(1, 0, Buy, 10100, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, ob.AddOrder(1, 0, Buy, 500, 10), ErrInvalidPrice)

	require.NoError(t, ob.AddOrder(1, 0, Buy, 10100, 10))
	assert.ErrorIs(t, ob.AddOrder(1, 0, Buy, 10100, 10), ErrDuplicateOrderID)
}

func TestOrderPoolExhaustion(t *testing.T) {
	ob := newTestBook(2, 10)
	require.NoError(t, ob.AddOrder(1, 0, Buy, 10100, 10))
	require.NoError(t, ob.AddOrder(2, 0, Buy, 10100, 10))
	assert.ErrorIs(t, ob.AddOrder(3, 0, Buy, 10100, 10), ErrOrderPoolExhausted)

	stats := ob.OrderPoolStats()
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, 2, stats.InUse)
	assert.Equal(t, 0.0, stats.FreeFraction())
}

func TestLevelPoolExhaustion(t *testing.T) {
	ob := newTestBook(10, 1)
	require.NoError(t, ob.AddOrder(1, 0, Buy, 10100, 10))
	// Same level, should not need a new slot.
	require.NoError(t, ob.AddOrder(2, 0, Buy, 10100, 5))
	// Different price needs a second level slot, which is exhausted.
	assert.ErrorIs(t, ob.AddOrder(3, 0, Buy, 10200, 5), ErrLevelPoolExhausted)
}

func TestCancelOrderIdempotent(t *testing.T) {
	ob := newTestBook(10, 10)
	require.NoError(t, ob.AddOrder(1, 0, Buy, 10100, 10))

	assert.True(t, ob.CancelOrder(1))
	assert.False(t, ob.CancelOrder(1))

	_, ok := ob.BestBid()
	assert.False(t, ok)

	stats := ob.OrderPoolStats()
	assert.Equal(t, 0, stats.InUse)
	lstats := ob.LevelPoolStats()
	assert.Equal(t, 0, lstats.InUse)
}

func TestExecuteOrderPartialAndFull(t *testing.T) {
	ob := newTestBook(10, 10)
	require.NoError(t, ob.AddOrder(1, 0, Buy, 10100, 10))

	removed, err := ob.ExecuteOrder(1, 4)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, uint64(6), ob.BidQuantityAt(10100))

	removed, err = ob.ExecuteOrder(1, 6)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, uint64(0), ob.BidQuantityAt(10100))

	_, err = ob.ExecuteOrder(1, 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestLevelOrdering(t *testing.T) {
	ob := newTestBook(10, 10)
	require.NoError(t, ob.AddOrder(1, 0, Buy, 10100, 10))
	require.NoError(t, ob.AddOrder(2, 0, Buy, 10300, 10))
	require.NoError(t, ob.AddOrder(3, 0, Buy, 10200, 10))

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint32(10300), best)

	snap := ob.Snapshot(5)
	require.Len(t, snap.BidLevels, 3)
	assert.Equal(t, uint32(10300), snap.BidLevels[0].Price)
	assert.Equal(t, uint32(10200), snap.BidLevels[1].Price)
	assert.Equal(t, uint32(10100), snap.BidLevels[2].Price)

	require.NoError(t, ob.AddOrder(4, 0, Sell, 10250, 10))
	require.NoError(t, ob.AddOrder(5, 0, Sell, 10220, 10))
	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint32(10220), bestAsk)
}

func TestRoundTripEmptyBook(t *testing.T) {
	ob := newTestBook(10, 10)
	require.NoError(t, ob.AddOrder(1, 0, Buy, 10100, 10))
	require.NoError(t, ob.AddOrder(2, 0, Sell, 10300, 10))
	assert.True(t, ob.CancelOrder(1))
	assert.True(t, ob.CancelOrder(2))

	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
	assert.Equal(t, 0, ob.OrderPoolStats().InUse)
	assert.Equal(t, 0, ob.LevelPoolStats().InUse)
}

func TestPeekHeadFIFO(t *testing.T) {
	ob := newTestBook(10, 10)
	require.NoError(t, ob.AddOrder(1, 100, Buy, 10100, 10))
	require.NoError(t, ob.AddOrder(2, 200, Buy, 10100, 5))

	head, ok := ob.PeekHead(Buy)
	require.True(t, ok)
	assert.Equal(t, uint64(1), head.ID)

	_, err := ob.ExecuteOrder(1, 10)
	require.NoError(t, err)

	head, ok = ob.PeekHead(Buy)
	require.True(t, ok)
	assert.Equal(t, uint64(2), head.ID)
}
