package paperexchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{SlippageBps: 10, CommissionBps: 5, PriceScale: 10000}
}

func TestPlaceMarketOrderAppliesSlippageAndCommission(t *testing.T) {
	s := NewSimulator(testConfig(), nil)

	report := s.PlaceMarketOrder(1, Buy, 100, 500000)
	assert.Equal(t, StatusFilled, report.Status)
	assert.Greater(t, report.FillPrice, uint32(500000))
	assert.Equal(t, uint32(500500), report.FillPrice)
	assert.Positive(t, report.Commission)
	assert.Equal(t, int64(50000), report.SlippagePaid)

	sellReport := s.PlaceMarketOrder(1, Sell, 100, 500000)
	assert.Less(t, sellReport.FillPrice, uint32(500000))
}

func TestPlaceLimitOrderRejectsWhenTableFull(t *testing.T) {
	s := NewSimulator(testConfig(), nil)
	for i := 0; i < MaxPendingOrders; i++ {
		r := s.PlaceLimitOrder(1, Buy, 10000, 10)
		require.Equal(t, StatusNew, r.Status)
	}
	r := s.PlaceLimitOrder(1, Buy, 10000, 10)
	assert.Equal(t, StatusRejected, r.Status)
	assert.Equal(t, RejectMaxPendingExceeded, r.Reason)
}

func TestCancelOrderFreesSlot(t *testing.T) {
	s := NewSimulator(testConfig(), nil)
	r := s.PlaceLimitOrder(1, Buy, 10000, 10)

	_, err := s.CancelOrder(r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 0, s.PendingCount())

	_, err = s.CancelOrder(r.OrderID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPessimisticFillOnPriceUpdate(t *testing.T) {
	s := NewSimulator(testConfig(), nil)
	buy := s.PlaceLimitOrder(1, Buy, 10000, 10)
	sell := s.PlaceLimitOrder(1, Sell, 10100, 10)

	reports := s.OnPriceUpdate(1, 10050, 10050, 1)
	assert.Empty(t, reports)

	reports = s.OnPriceUpdate(1, 9990, 9995, 2)
	require.Len(t, reports, 1)
	assert.Equal(t, buy.OrderID, reports[0].OrderID)
	assert.Equal(t, uint32(9995)+applyBpsDelta(9995, 10), reports[0].FillPrice)

	reports = s.OnPriceUpdate(1, 10150, 10160, 3)
	require.Len(t, reports, 1)
	assert.Equal(t, sell.OrderID, reports[0].OrderID)
}

func applyBpsDelta(base uint32, bps uint32) uint32 {
	return uint32(applyBps(uint64(base), bps))
}

func TestQueuePositionConfirmationByDrain(t *testing.T) {
	s := NewSimulator(testConfig(), nil)
	r := s.PlaceLimitOrder(1, Buy, 10000, 10)
	require.True(t, s.RegisterQueuePosition(r.OrderID, 50, 0))

	confidence, ok := s.FillConfidence(r.OrderID)
	require.True(t, ok)
	assert.Equal(t, Unlikely, confidence)

	filled := s.OnTrade(1, 10000, 30, Sell, 1, 0)
	assert.Empty(t, filled)

	confidence, _ = s.FillConfidence(r.OrderID)
	assert.Equal(t, Likely, confidence)

	filled = s.OnTrade(1, 10000, 20, Sell, 2, 0)
	assert.Empty(t, filled)

	filled = s.OnTrade(1, 10000, 5, Sell, 3, 0)
	require.Len(t, filled, 1)
	assert.Equal(t, r.OrderID, filled[0])
}

func TestFractionalQuantityPreservedThroughFill(t *testing.T) {
	s := NewSimulator(testConfig(), nil)
	var got ExecutionReport
	s.onReport = func(r ExecutionReport) { got = r }

	placed := s.PlaceLimitOrder(1, Buy, 50000, 0.01)
	assert.Equal(t, 0.01, placed.Quantity)

	reports := s.OnPriceUpdate(1, 50100, 50200, 1)
	assert.Empty(t, reports)

	reports = s.OnPriceUpdate(1, 49900, 49950, 2)
	require.Len(t, reports, 1)
	assert.Equal(t, 0.01, reports[0].Quantity)
	assert.Equal(t, got.Quantity, reports[0].Quantity)
	assert.Equal(t, uint32(49950)+applyBpsDelta(49950, 10), reports[0].FillPrice)
}

func TestQueuePositionConfirmationBySequence(t *testing.T) {
	s := NewSimulator(testConfig(), nil)
	r := s.PlaceLimitOrder(1, Sell, 10100, 10)
	require.True(t, s.RegisterQueuePosition(r.OrderID, 1000, 777))

	filled := s.OnTrade(1, 10100, 1, Buy, 1, 777)
	require.Len(t, filled, 1)
	assert.Equal(t, r.OrderID, filled[0])
}
