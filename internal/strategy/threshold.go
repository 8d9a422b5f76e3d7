package strategy

import "github.com/abdoElHodaky/tradSys/internal/book"

// ThresholdConfig parameterizes ThresholdStrategy.
type ThresholdConfig struct {
	// EntryMoveTicks is the minimum move, in price ticks (book.PriceScale
	// units), from the strategy's reference price before it signals.
	EntryMoveTicks int64
	// ExitMoveTicks reverses and signals Exit once the price has given
	// back this many ticks from its favorable extreme.
	ExitMoveTicks int64
	// OrderQty is the fixed quantity suggested on every non-None signal.
	OrderQty float64
	// WarmupTicks is the number of OnTick calls required before Ready().
	WarmupTicks int
}

func (c ThresholdConfig) withDefaults() ThresholdConfig {
	if c.EntryMoveTicks == 0 {
		c.EntryMoveTicks = 50
	}
	if c.ExitMoveTicks == 0 {
		c.ExitMoveTicks = 20
	}
	if c.OrderQty == 0 {
		c.OrderQty = 1
	}
	if c.WarmupTicks == 0 {
		c.WarmupTicks = 3
	}
	return c
}

// ThresholdStrategy is a momentum strategy that enters once the mid
// price has moved EntryMoveTicks away from its reference and exits once
// it has given back ExitMoveTicks from the best price seen since entry.
// It is the one illustrative pluggable strategy shipped alongside the
// Strategy interface.
type ThresholdStrategy struct {
	cfg ThresholdConfig

	ticksSeen  int
	refMid     int64
	haveRef    bool
	inPosition bool
	entrySide  Action
	extremeMid int64
}

// NewThresholdStrategy constructs a ThresholdStrategy with defaults
// applied for any zero-valued field in cfg.
func NewThresholdStrategy(cfg ThresholdConfig) *ThresholdStrategy {
	return &ThresholdStrategy{cfg: cfg.withDefaults()}
}

func (s *ThresholdStrategy) Name() string { return "threshold" }

func absQty(q int64) float64 {
	if q < 0 {
		return float64(-q)
	}
	return float64(q)
}

func mid(snap *book.TopOfBook) (int64, bool) {
	bid, hasBid := snap.BestBid()
	ask, hasAsk := snap.BestAsk()
	if !hasBid || !hasAsk {
		return 0, false
	}
	return int64(bid.Price+ask.Price) / 2, true
}

func (s *ThresholdStrategy) OnTick(snapshot *book.TopOfBook) {
	s.ticksSeen++
	m, ok := mid(snapshot)
	if !ok {
		return
	}
	if !s.haveRef {
		s.refMid = m
		s.haveRef = true
	}
	if s.inPosition {
		switch s.entrySide {
		case ActionBuy:
			if m > s.extremeMid {
				s.extremeMid = m
			}
		case ActionSell:
			if m < s.extremeMid {
				s.extremeMid = m
			}
		}
	}
}

func (s *ThresholdStrategy) Ready() bool {
	return s.ticksSeen >= s.cfg.WarmupTicks && s.haveRef
}

func (s *ThresholdStrategy) SuitableForRegime(regime Regime) bool {
	return regime == RegimeTrending || regime == RegimeUnknown
}

func (s *ThresholdStrategy) Reset() {
	s.ticksSeen = 0
	s.haveRef = false
	s.refMid = 0
	s.inPosition = false
	s.entrySide = ActionNone
	s.extremeMid = 0
}

// Generate implements Strategy. It signals Buy/Sell once price has
// moved EntryMoveTicks from the reference, and Exit once it has given
// back ExitMoveTicks from the best price observed since entry.
func (s *ThresholdStrategy) Generate(snapshot *book.TopOfBook, position Position, regime Regime) Signal {
	if !s.Ready() || !s.SuitableForRegime(regime) {
		return NoSignal
	}
	m, ok := mid(snapshot)
	if !ok {
		return NoSignal
	}

	if s.inPosition {
		giveback := s.extremeMid - m
		if s.entrySide == ActionSell {
			giveback = m - s.extremeMid
		}
		if giveback >= s.cfg.ExitMoveTicks {
			s.inPosition = false
			return Signal{
				Action:          ActionExit,
				Strength:        StrengthMedium,
				SuggestedQty:    absQty(position.Quantity),
				OrderPreference: OrderPreferMarket,
				Reason:          "threshold: giveback from extreme exceeded exit distance",
			}
		}
		return NoSignal
	}

	move := m - s.refMid
	switch {
	case move >= s.cfg.EntryMoveTicks:
		s.inPosition = true
		s.entrySide = ActionBuy
		s.extremeMid = m
		return Signal{
			Action:          ActionBuy,
			Strength:        StrengthMedium,
			SuggestedQty:    s.cfg.OrderQty,
			OrderPreference: OrderPreferEither,
			Reason:          "threshold: price moved up past entry distance",
		}
	case -move >= s.cfg.EntryMoveTicks:
		s.inPosition = true
		s.entrySide = ActionSell
		s.extremeMid = m
		return Signal{
			Action:          ActionSell,
			Strength:        StrengthMedium,
			SuggestedQty:    s.cfg.OrderQty,
			OrderPreference: OrderPreferEither,
			Reason:          "threshold: price moved down past entry distance",
		}
	default:
		return NoSignal
	}
}
