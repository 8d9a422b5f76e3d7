package exchange

import (
	"errors"
	"time"

	"github.com/abdoElHodaky/tradSys/internal/paperexchange"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the production adapter's breaker has
// tripped and order submission is refused without even attempting the
// venue call.
var ErrCircuitOpen = errors.New("exchange: circuit breaker open")

// VenueClient is the minimal venue-facing surface a real connection
// must provide; ProductionAdapter guards every call with a circuit
// breaker so a flaky venue cannot wedge the trading thread in retries.
type VenueClient interface {
	SendMarketOrder(symbol uint32, side paperexchange.Side, qty float64) (uint64, error)
	SendLimitOrder(symbol uint32, side paperexchange.Side, price uint32, qty float64) (uint64, error)
	SendCancel(orderID uint64) error
}

// ProductionAdapter wraps a VenueClient with a gobreaker.CircuitBreaker
// (spec §7 "External failure. Exchange connection lost, execution
// report rejection from venue, timeout"). It is a stub: a real
// deployment would also manage the transport connection lifecycle,
// reconnects, and sequence-gapped replay, which are out of scope here.
type ProductionAdapter struct {
	client  VenueClient
	breaker *gobreaker.CircuitBreaker
	onFill  FillCallback
}

// NewProductionAdapter wires client behind a breaker named after the
// venue, tripping once at least 10 requests have been counted within the
// rolling interval and at least half of them failed, and probing
// recovery after Timeout.
func NewProductionAdapter(name string, client VenueClient) *ProductionAdapter {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.5
		},
	}
	return &ProductionAdapter{client: client, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (a *ProductionAdapter) SubmitMarketOrder(symbol uint32, side paperexchange.Side, qty float64, _ uint32) (uint64, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.SendMarketOrder(symbol, side, qty)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

func (a *ProductionAdapter) SubmitLimitOrder(symbol uint32, side paperexchange.Side, limitPrice uint32, qty float64) (uint64, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.SendLimitOrder(symbol, side, limitPrice, qty)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

func (a *ProductionAdapter) CancelOrder(orderID uint64) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.client.SendCancel(orderID)
	})
	return err
}

func (a *ProductionAdapter) SetFillCallback(fn FillCallback)         { a.onFill = fn }
func (a *ProductionAdapter) SetSlippageCallback(fn SlippageCallback) {}

// Connected reports true only while the breaker is Closed or HalfOpen;
// an Open breaker means the adapter is refusing submissions.
func (a *ProductionAdapter) Connected() bool {
	return a.breaker.State() != gobreaker.StateOpen
}

// DeliverFill lets the venue's own IO thread push a fill report in
// (spec §5: "A production adapter may deliver them on its own IO
// thread; the execution engine is responsible for forwarding them to
// the trading thread").
func (a *ProductionAdapter) DeliverFill(orderID uint64, symbol string, side paperexchange.Side, filledQty float64, fillPrice uint32, commission uint64) {
	if a.onFill != nil {
		a.onFill(orderID, symbol, side, filledQty, fillPrice, commission)
	}
}
