// Package risk implements pre-trade risk checking and order-flow rate
// limiting (spec §4.4). Both are addressed by dense, pre-registered
// integer indices — SymbolIndex and trader id — so the hot path never
// touches a string or a map.
package risk

// RejectReason enumerates why check_order rejected an order, mirroring
// the teacher's risk_manager's enumerated-violation style
// (services/trading/risk_manager_types.go RiskViolation) but as a small
// closed set instead of a free-form list, since every spec §4.4 check is
// a single named condition.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectHalted
	RejectMaxOrderSize
	RejectMaxPosition
	RejectSymbolNotional
	RejectGlobalNotional
)

func (r RejectReason) String() string {
	switch r {
	case RejectHalted:
		return "halted"
	case RejectMaxOrderSize:
		return "max_order_size"
	case RejectMaxPosition:
		return "max_position"
	case RejectSymbolNotional:
		return "symbol_notional"
	case RejectGlobalNotional:
		return "global_notional"
	default:
		return "none"
	}
}

// Side mirrors book.Side; risk is intentionally decoupled from the book
// package so it can be used standalone by the execution orchestration
// layer and by tests without constructing an order book.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func signedQty(side Side, qty uint32) int64 {
	if side == Sell {
		return -int64(qty)
	}
	return int64(qty)
}

// EnhancedRiskConfig is the one risk-manager-wide configuration spec
// §4.4 names.
type EnhancedRiskConfig struct {
	InitialCapital   int64
	DailyLossPct     float64
	MaxDrawdownPct   float64
	MaxNotionalPct   float64
	MaxOrderSize     uint32
	MaxAggregatePos  int64
	PriceScale       uint32
}

func (c EnhancedRiskConfig) withDefaults() EnhancedRiskConfig {
	if c.PriceScale == 0 {
		c.PriceScale = 10000
	}
	return c
}

// SymbolLimit is the per-symbol override of the position/notional caps
// (spec §4.4: "a per-symbol limit record").
type SymbolLimit struct {
	MaxPosition int64
	MaxNotional int64
}

// symbolState is the dense per-symbol risk state (spec §4.4: "Maintains
// per-symbol state indexed by a dense SymbolIndex").
type symbolState struct {
	position    int64
	notional    int64
	lastPrice   uint32
	limit       SymbolLimit
}

// CheckResult reports the outcome of check_order.
type CheckResult struct {
	Accepted bool
	Reason   RejectReason
}
