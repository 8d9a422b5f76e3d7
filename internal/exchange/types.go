// Package exchange defines the Exchange interface the execution engine
// submits orders through (spec §6: "Callbacks exposed to exchanges"),
// and wires the paper-exchange simulator and a circuit-breaker-guarded
// production adapter stub behind it.
package exchange

import "github.com/abdoElHodaky/tradSys/internal/paperexchange"

// FillCallback receives a fill exactly as spec §6 describes: order id,
// symbol name, side, filled quantity, fill price, commission.
type FillCallback func(orderID uint64, symbol string, side paperexchange.Side, filledQty float64, fillPrice uint32, commission uint64)

// SlippageCallback receives the per-fill slippage paid; only invoked by
// paper exchanges (spec §6).
type SlippageCallback func(orderID uint64, slippage int64)

// Exchange is the order-submission surface the execution engine drives.
// A production adapter wraps a venue connection; PaperExchange wraps
// paperexchange.Simulator.
type Exchange interface {
	// SubmitMarketOrder places a market order. referenceQuote is the
	// current top-of-book price on the order's side; a production
	// adapter that derives its own market price ignores it, while the
	// paper exchange (which has no resting book of its own) prices the
	// fill from it.
	SubmitMarketOrder(symbol uint32, side paperexchange.Side, qty float64, referenceQuote uint32) (uint64, error)
	SubmitLimitOrder(symbol uint32, side paperexchange.Side, limitPrice uint32, qty float64) (uint64, error)
	CancelOrder(orderID uint64) error

	SetFillCallback(fn FillCallback)
	// SetSlippageCallback is a no-op on adapters that do not model
	// slippage (spec §6: "for paper exchanges only").
	SetSlippageCallback(fn SlippageCallback)

	// Connected reports whether the exchange can currently accept
	// orders; a production adapter reports false while its circuit
	// breaker is open.
	Connected() bool
}
