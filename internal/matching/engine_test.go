package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/tradSys/internal/book"
)

func testFactory(symbol uint32) book.Config {
	return book.Config{Symbol: symbol, PriceBase: 9000, PriceRange: 3000, MaxOrders: 100, MaxLevels: 100}
}

func TestBasicCross(t *testing.T) {
	var trades []Trade
	e := NewEngine(testFactory, func(tr Trade) { trades = append(trades, tr) })

	_, err := e.AddOrder(1, 0, 1, book.Sell, 10100, 100)
	require.NoError(t, err)
	res, err := e.AddOrder(2, 0, 1, book.Buy, 10100, 100)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, uint32(10100), trades[0].Price)
	assert.Equal(t, uint32(100), trades[0].Quantity)
	assert.Equal(t, book.Buy, trades[0].AggressorSide)
	assert.Equal(t, uint32(100), res.FilledQuantity)
	assert.Equal(t, uint32(0), res.RestingQuantity)

	ob := e.Book(1)
	_, okBid := ob.BestBid()
	_, okAsk := ob.BestAsk()
	assert.False(t, okBid)
	assert.False(t, okAsk)
}

func TestWalkTheBook(t *testing.T) {
	var trades []Trade
	e := NewEngine(testFactory, func(tr Trade) { trades = append(trades, tr) })

	require.NoError(t, mustAdd(e, 1, 0, 1, book.Sell, 10100, 50))
	require.NoError(t, mustAdd(e, 2, 0, 1, book.Sell, 10200, 50))
	require.NoError(t, mustAdd(e, 3, 0, 1, book.Sell, 10300, 50))

	res, err := e.AddOrder(4, 0, 1, book.Buy, 10300, 120)
	require.NoError(t, err)

	require.Len(t, trades, 3)
	assert.Equal(t, []uint32{10100, 10200, 10300}, []uint32{trades[0].Price, trades[1].Price, trades[2].Price})
	assert.Equal(t, []uint32{50, 50, 20}, []uint32{trades[0].Quantity, trades[1].Quantity, trades[2].Quantity})
	assert.Equal(t, uint32(120), res.FilledQuantity)
	assert.Equal(t, uint32(0), res.RestingQuantity)

	assert.Equal(t, uint64(30), e.Book(1).AskQuantityAt(10300))
}

func TestPriceImprovement(t *testing.T) {
	var trades []Trade
	e := NewEngine(testFactory, func(tr Trade) { trades = append(trades, tr) })

	require.NoError(t, mustAdd(e, 1, 0, 1, book.Sell, 10100, 100))
	_, err := e.AddOrder(2, 0, 1, book.Buy, 10200, 100)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, uint32(10100), trades[0].Price)
}

func TestSelfTradePrevention(t *testing.T) {
	var trades []Trade
	e := NewEngine(testFactory, func(tr Trade) { trades = append(trades, tr) })

	require.NoError(t, mustAdd(e, 1, 1001, 1, book.Sell, 10100, 100))
	res, err := e.AddOrder(2, 1001, 1, book.Buy, 10100, 100)
	require.NoError(t, err)

	assert.Empty(t, trades)
	assert.True(t, res.SelfTradeCancelled)
	assert.Equal(t, uint32(0), res.RestingQuantity)

	bestAsk, ok := e.Book(1).BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint32(10100), bestAsk)

	_, found := e.Book(1).GetOrder(2)
	assert.False(t, found)
}

func TestRestsWhenUnfilled(t *testing.T) {
	e := NewEngine(testFactory, nil)
	res, err := e.AddOrder(1, 0, 1, book.Buy, 10100, 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.FilledQuantity)
	assert.Equal(t, uint32(100), res.RestingQuantity)

	best, ok := e.Book(1).BestBid()
	require.True(t, ok)
	assert.Equal(t, uint32(10100), best)
}

func mustAdd(e *Engine, id, trader uint64, symbol uint32, side book.Side, price, qty uint32) error {
	_, err := e.AddOrder(id, trader, symbol, side, price, qty)
	return err
}
