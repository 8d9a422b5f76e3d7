package exchange

import (
	"errors"
	"testing"

	"github.com/abdoElHodaky/tradSys/internal/paperexchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaperConfig() paperexchange.Config {
	return paperexchange.Config{SlippageBps: 10, CommissionBps: 5, PriceScale: 10000}
}

func TestPaperExchangeFillCallbackReceivesSymbolName(t *testing.T) {
	names := map[uint32]string{1: "BTCUSD"}
	pe := NewPaperExchange(testPaperConfig(), func(symbol uint32) string { return names[symbol] })

	var gotSymbol string
	var gotSide paperexchange.Side
	pe.SetFillCallback(func(orderID uint64, symbol string, side paperexchange.Side, qty float64, price uint32, commission uint64) {
		gotSymbol = symbol
		gotSide = side
	})

	_, err := pe.SubmitMarketOrder(1, paperexchange.Buy, 10, 10000)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSD", gotSymbol)
	assert.Equal(t, paperexchange.Buy, gotSide)
}

func TestPaperExchangeLimitOrderRejectionSurfacesAsError(t *testing.T) {
	pe := NewPaperExchange(testPaperConfig(), nil)
	for i := 0; i < paperexchange.MaxPendingOrders; i++ {
		_, err := pe.SubmitLimitOrder(1, paperexchange.Buy, 9000, 1)
		require.NoError(t, err)
	}
	_, err := pe.SubmitLimitOrder(1, paperexchange.Buy, 9000, 1)
	assert.ErrorIs(t, err, paperexchange.ErrPendingTableFull)
}

func TestPaperExchangeAlwaysConnected(t *testing.T) {
	pe := NewPaperExchange(testPaperConfig(), nil)
	assert.True(t, pe.Connected())
}

type fakeVenue struct {
	fail bool
}

func (f *fakeVenue) SendMarketOrder(symbol uint32, side paperexchange.Side, qty float64) (uint64, error) {
	if f.fail {
		return 0, errors.New("venue unreachable")
	}
	return 42, nil
}

func (f *fakeVenue) SendLimitOrder(symbol uint32, side paperexchange.Side, price uint32, qty float64) (uint64, error) {
	if f.fail {
		return 0, errors.New("venue unreachable")
	}
	return 43, nil
}

func (f *fakeVenue) SendCancel(orderID uint64) error {
	if f.fail {
		return errors.New("venue unreachable")
	}
	return nil
}

func TestProductionAdapterSubmitsThroughBreaker(t *testing.T) {
	venue := &fakeVenue{}
	a := NewProductionAdapter("test-venue", venue)

	id, err := a.SubmitMarketOrder(1, paperexchange.Buy, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.True(t, a.Connected())
}

func TestProductionAdapterDeliverFillInvokesCallback(t *testing.T) {
	venue := &fakeVenue{}
	a := NewProductionAdapter("test-venue-2", venue)

	var called bool
	a.SetFillCallback(func(orderID uint64, symbol string, side paperexchange.Side, qty float64, price uint32, commission uint64) {
		called = true
	})
	a.DeliverFill(1, "ETHUSD", paperexchange.Sell, 1, 2000, 1)
	assert.True(t, called)
}

func TestProductionAdapterTripsBreakerOnRepeatedFailures(t *testing.T) {
	venue := &fakeVenue{fail: true}
	a := NewProductionAdapter("test-venue-3", venue)

	for i := 0; i < 10; i++ {
		_, _ = a.SubmitMarketOrder(1, paperexchange.Buy, 1, 0)
	}
	assert.False(t, a.Connected())
}
