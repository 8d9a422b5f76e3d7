package risk

// Manager is the pre-trade risk checker (spec §4.4 "Risk manager").
type Manager struct {
	cfg    EnhancedRiskConfig
	states []symbolState

	halted bool

	currentPnL     int64
	dailyStartPnL  int64
	currentEquity  int64
	peakEquity     int64
	totalNotional  int64

	dailyLimitBreached bool
	drawdownBreached   bool
}

// NewManager constructs a risk manager sized for numSymbols dense slots,
// all initially unlimited (zero SymbolLimit means "no symbol-specific
// cap" per spec §4.4 steps 3-4: "when non-zero").
func NewManager(cfg EnhancedRiskConfig, numSymbols int) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:           cfg,
		states:        make([]symbolState, numSymbols),
		currentEquity: cfg.InitialCapital,
		peakEquity:    cfg.InitialCapital,
	}
}

// SetSymbolLimit installs a per-symbol override (spec §4.4 "a per-symbol
// limit record").
func (m *Manager) SetSymbolLimit(idx SymbolIndex, limit SymbolLimit) {
	m.states[idx].limit = limit
}

// Halted reports whether the manager currently blocks all new orders.
func (m *Manager) Halted() bool { return m.halted }

// SetHalted allows an external controller (the halt/flatten controller,
// spec §4.6) to force the halted flag.
func (m *Manager) SetHalted(halted bool) { m.halted = halted }

func notionalOf(qty, price uint32, priceScale uint32) int64 {
	return int64(qty) * int64(price) / int64(priceScale)
}

// CheckOrder runs the ordered sequence of checks spec §4.4 names,
// returning the first violated reason or acceptance.
func (m *Manager) CheckOrder(idx SymbolIndex, side Side, qty, price uint32) CheckResult {
	if m.halted {
		return CheckResult{Reason: RejectHalted}
	}
	if qty > m.cfg.MaxOrderSize {
		return CheckResult{Reason: RejectMaxOrderSize}
	}

	st := &m.states[idx]
	newPosition := st.position + signedQty(side, qty)
	if st.limit.MaxPosition != 0 {
		abs := newPosition
		if abs < 0 {
			abs = -abs
		}
		if abs > st.limit.MaxPosition {
			return CheckResult{Reason: RejectMaxPosition}
		}
	}

	orderNotional := notionalOf(qty, price, m.cfg.PriceScale)
	newSymbolNotional := st.notional + orderNotional
	if st.limit.MaxNotional != 0 && newSymbolNotional > st.limit.MaxNotional {
		return CheckResult{Reason: RejectSymbolNotional}
	}

	globalCap := int64(float64(m.cfg.InitialCapital) * m.cfg.MaxNotionalPct)
	if m.totalNotional+orderNotional > globalCap {
		return CheckResult{Reason: RejectGlobalNotional}
	}

	return CheckResult{Accepted: true}
}

// OnFill applies a fill's effect on position and notional (spec §4.4
// "on_fill"): the signed position delta, the symbol's recomputed
// notional, and the global total as the sum over symbols.
func (m *Manager) OnFill(idx SymbolIndex, side Side, qty, price uint32) {
	st := &m.states[idx]
	st.position += signedQty(side, qty)
	st.lastPrice = price

	abs := st.position
	if abs < 0 {
		abs = -abs
	}
	st.notional = abs * int64(price) / int64(m.cfg.PriceScale)

	var total int64
	for i := range m.states {
		total += m.states[i].notional
	}
	m.totalNotional = total
}

// UpdatePnL recomputes equity and checks the daily-loss and drawdown
// breach conditions (spec §4.4 "update_pnl").
func (m *Manager) UpdatePnL(currentPnL int64) {
	m.currentPnL = currentPnL
	m.currentEquity = m.cfg.InitialCapital + currentPnL
	if m.currentEquity > m.peakEquity {
		m.peakEquity = m.currentEquity
	}

	dailyLossLimit := int64(float64(m.cfg.InitialCapital) * m.cfg.DailyLossPct)
	if currentPnL-m.dailyStartPnL < -dailyLossLimit {
		m.dailyLimitBreached = true
		m.halted = true
	}

	if m.peakEquity > 0 {
		drawdown := float64(m.peakEquity-m.currentEquity) / float64(m.peakEquity)
		if drawdown > m.cfg.MaxDrawdownPct {
			m.drawdownBreached = true
			m.halted = true
		}
	}
}

// NewTradingDay resets the daily-loss baseline but preserves any
// existing drawdown breach (spec §4.4 "new_trading_day").
func (m *Manager) NewTradingDay() {
	m.dailyStartPnL = m.currentPnL
	m.dailyLimitBreached = false
}

// DailyLimitBreached reports whether the daily loss limit is currently
// tripped.
func (m *Manager) DailyLimitBreached() bool { return m.dailyLimitBreached }

// DrawdownBreached reports whether the max-drawdown limit is currently
// tripped.
func (m *Manager) DrawdownBreached() bool { return m.drawdownBreached }

// Position returns a symbol's current net signed position.
func (m *Manager) Position(idx SymbolIndex) int64 { return m.states[idx].position }

// TotalNotional returns the current aggregate notional across symbols.
func (m *Manager) TotalNotional() int64 { return m.totalNotional }
