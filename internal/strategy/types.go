// Package strategy defines the interface trading strategies implement
// and the Signal they hand back to the execution engine (spec §6:
// "Callbacks exposed to strategies").
package strategy

import "github.com/abdoElHodaky/tradSys/internal/book"

// Regime classifies the current market condition, used to gate which
// strategies are allowed to trade (spec §6 "suitable_for_regime").
type Regime uint8

const (
	RegimeUnknown Regime = iota
	RegimeTrending
	RegimeRanging
	RegimeVolatile
)

func (r Regime) String() string {
	switch r {
	case RegimeTrending:
		return "trending"
	case RegimeRanging:
		return "ranging"
	case RegimeVolatile:
		return "volatile"
	default:
		return "unknown"
	}
}

// Action is the tagged-union discriminant of a Signal.
type Action uint8

const (
	ActionNone Action = iota
	ActionBuy
	ActionSell
	ActionExit
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	case ActionExit:
		return "exit"
	default:
		return "none"
	}
}

// Strength is the strategy's confidence in a non-None Signal.
type Strength uint8

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return "none"
	}
}

// OrderPreference is the strategy's preferred order type for acting on
// a Signal; the execution engine is free to downgrade Limit to Market
// on timeout (spec §5 "limit_timeout_ms").
type OrderPreference uint8

const (
	OrderPreferMarket OrderPreference = iota
	OrderPreferLimit
	OrderPreferEither
)

// Signal is the tagged union a Strategy returns from Generate (spec
// §6). LimitPrice is only meaningful when OrderPreference is Limit or
// Either.
type Signal struct {
	Action          Action
	Strength        Strength
	SuggestedQty    float64
	OrderPreference OrderPreference
	LimitPrice      uint64
	HasLimitPrice   bool
	Reason          string
}

// NoSignal is the zero-value None signal, returned when a strategy has
// nothing to say this tick.
var NoSignal = Signal{Action: ActionNone, Strength: StrengthNone}

// Position is the caller-supplied current holding for the symbol the
// strategy is being asked to evaluate.
type Position struct {
	Symbol   uint32
	Quantity int64
	AvgPrice uint64
}

// Strategy is the interface every pluggable strategy implements (spec
// §6). Generate is called once per tick on the trading thread and must
// not block or allocate on steady-state paths.
type Strategy interface {
	// Generate produces a trading decision from the current top-of-book
	// snapshot, the caller's position in that symbol, and the prevailing
	// market regime.
	Generate(snapshot *book.TopOfBook, position Position, regime Regime) Signal

	// OnTick is called on every market-data tick, including ones that do
	// not warrant a Generate call, so the strategy can update rolling
	// state (moving averages, volatility estimates).
	OnTick(snapshot *book.TopOfBook)

	// Reset clears any accumulated state, e.g. after a halt/reset cycle.
	Reset()

	// Ready reports whether the strategy has observed enough ticks to
	// produce meaningful signals.
	Ready() bool

	// SuitableForRegime reports whether this strategy should be allowed
	// to trade under the given regime.
	SuitableForRegime(regime Regime) bool

	// Name identifies the strategy for logging and SharedConfig's
	// regime_strategy CLI verb (spec §6).
	Name() string
}
