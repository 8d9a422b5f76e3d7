package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegistryCountsOrdersAndFills(t *testing.T) {
	r := NewRegistry()

	r.OrdersSubmitted.WithLabelValues("BTCUSD", "buy").Inc()
	r.OrdersSubmitted.WithLabelValues("BTCUSD", "buy").Inc()
	r.Fills.WithLabelValues("BTCUSD", "buy").Inc()
	r.OrdersRejected.WithLabelValues("max_order_size").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(r.OrdersSubmitted.WithLabelValues("BTCUSD", "buy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.Fills.WithLabelValues("BTCUSD", "buy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.OrdersRejected.WithLabelValues("max_order_size")))
}

func TestRegistryHaltStateGauge(t *testing.T) {
	r := NewRegistry()
	r.HaltState.Set(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(r.HaltState))
}
