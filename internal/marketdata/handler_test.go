package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/tradSys/internal/book"
)

func testHandlerFactory(symbol uint32) book.Config {
	return book.Config{Symbol: symbol, PriceBase: 9000, PriceRange: 3000, MaxOrders: 256, MaxLevels: 256}
}

func TestHandlerOrderAddExecuteDelete(t *testing.T) {
	h := NewHandler(testHandlerFactory)

	h.OnOrderAdd(1, 1, book.Buy, 10100, 50, 1)
	ob := h.Book(1)
	require.NotNil(t, ob)
	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint32(10100), best)

	h.OnOrderExecute(1, 20, 2)
	assert.Equal(t, uint64(30), ob.BidQuantityAt(10100))

	h.OnOrderDelete(1, 3)
	_, ok = ob.BestBid()
	assert.False(t, ok)
}

func TestHandlerOrderReplacePreservesSide(t *testing.T) {
	h := NewHandler(testHandlerFactory)
	h.OnOrderAdd(1, 1, book.Sell, 10200, 40, 1)

	h.OnOrderReplace(1, 2, 25, 10250, 2)

	ob := h.Book(1)
	_, found := ob.GetOrder(1)
	assert.False(t, found)

	order, found := ob.GetOrder(2)
	require.True(t, found)
	assert.Equal(t, book.Sell, order.Side)
	assert.Equal(t, uint32(10250), order.Price)
	assert.Equal(t, uint32(25), order.Quantity)
}

func TestHandlerBookLevelReplacesAggregate(t *testing.T) {
	h := NewHandler(testHandlerFactory)

	h.OnBookLevel(1, book.Buy, 10100, 100, 1)
	ob := h.Book(1)
	assert.Equal(t, uint64(100), ob.BidQuantityAt(10100))

	h.OnBookLevel(1, book.Buy, 10100, 250, 2)
	assert.Equal(t, uint64(250), ob.BidQuantityAt(10100))

	h.OnBookLevel(1, book.Buy, 10100, 0, 3)
	assert.Equal(t, uint64(0), ob.BidQuantityAt(10100))
}

func TestHandlerSnapshotThenDeltaGating(t *testing.T) {
	h := NewHandler(testHandlerFactory)

	snap := Snapshot{
		Sequence: 100,
		Bids:     []book.PriceLevelView{{Price: 10000, Quantity: 10}},
		Asks:     []book.PriceLevelView{{Price: 10100, Quantity: 5}},
	}
	h.ApplySnapshot(1, snap, 1)

	top := h.TopOfBook(1)
	require.NotNil(t, top)
	assert.Equal(t, book.TopOfBookBuilding, top.State)

	stale := h.ApplyDepthDelta(1, 99, nil, nil, 2)
	assert.False(t, stale)

	applied := h.ApplyDepthDelta(1, 101, []book.PriceLevelView{{Price: 10000, Quantity: 20}}, nil, 3)
	assert.True(t, applied)
	assert.Equal(t, book.TopOfBookReady, top.State)

	ob := h.Book(1)
	assert.Equal(t, uint64(20), ob.BidQuantityAt(10000))
}

func TestHandlerDeltaBeforeSnapshotDiscarded(t *testing.T) {
	h := NewHandler(testHandlerFactory)
	ok := h.ApplyDepthDelta(1, 5, nil, nil, 1)
	assert.False(t, ok)
}
