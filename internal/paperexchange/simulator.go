package paperexchange

import "time"

type pendingOrder struct {
	id         uint64
	symbol     uint32
	side       Side
	limitPrice uint32
	qty        float64
	live       bool

	// Queue-position model bookkeeping (spec §4.3, optional).
	queueAhead      uint64
	originalAhead   uint64
	expectedNextSeq uint64
	hasExpectedSeq  bool
}

// Simulator is the paper-exchange venue: pre-allocated pending-order
// table, slippage/commission cost model, and an optional queue-position
// fill estimator.
type Simulator struct {
	cfg      Config
	onReport ReportFunc
	Clock    func() int64

	nextOrderID   uint64
	totalSlippage int64

	pending   [MaxPendingOrders]pendingOrder
	freeSlots []uint32
	index     map[uint64]uint32

	queues map[queueKey]uint64
}

// NewSimulator constructs a simulator with a pre-sized pending-order
// table; onReport may be nil.
func NewSimulator(cfg Config, onReport ReportFunc) *Simulator {
	cfg = cfg.withDefaults()
	s := &Simulator{
		cfg:       cfg,
		onReport:  onReport,
		Clock:     func() int64 { return time.Now().UnixNano() },
		nextOrderID: 1,
		freeSlots: make([]uint32, MaxPendingOrders),
		index:     make(map[uint64]uint32, MaxPendingOrders),
		queues:    make(map[queueKey]uint64),
	}
	for i := range s.freeSlots {
		s.freeSlots[i] = uint32(MaxPendingOrders - 1 - i)
	}
	return s
}

func (s *Simulator) allocOrderID() uint64 {
	id := s.nextOrderID
	s.nextOrderID++
	return id
}

func (s *Simulator) emit(r ExecutionReport) ExecutionReport {
	if s.onReport != nil {
		s.onReport(r)
	}
	return r
}

func (s *Simulator) fillPrice(side Side, base uint32) uint32 {
	delta := applyBps(uint64(base), s.cfg.SlippageBps)
	if side == Buy {
		return base + uint32(delta)
	}
	if uint64(base) < delta {
		return 0
	}
	return base - uint32(delta)
}

// commission computes notional × commission_rate (spec §4.3). qty is a
// float64 so fractional crypto sizes (e.g. 0.01 BTC) contribute their
// exact notional rather than being truncated to a whole unit first.
func (s *Simulator) commission(price uint32, qty float64) uint32 {
	notional := float64(price) * qty / float64(s.cfg.PriceScale)
	return uint32(applyBpsFloat(notional, s.cfg.CommissionBps))
}

func slippagePaid(side Side, basePrice, fillPrice uint32, qty float64) int64 {
	delta := float64(fillPrice) - float64(basePrice)
	if side == Sell {
		delta = -delta
	}
	return int64(delta * qty)
}

// PlaceMarketOrder fills immediately at the quoted side (ask for buys,
// bid for sells) with adverse slippage applied (spec §4.3). qty is a
// float64 to accommodate fractional crypto sizes (spec §3); equity
// callers pass whole-number quantities.
func (s *Simulator) PlaceMarketOrder(symbol uint32, side Side, qty float64, quote uint32) ExecutionReport {
	now := s.Clock()
	fill := s.fillPrice(side, quote)
	comm := s.commission(fill, qty)
	slip := slippagePaid(side, quote, fill, qty)
	s.totalSlippage += slip

	return s.emit(ExecutionReport{
		OrderID:      s.allocOrderID(),
		Symbol:       symbol,
		Side:         side,
		Type:         Market,
		Status:       StatusFilled,
		FillPrice:    fill,
		Quantity:     qty,
		Commission:   comm,
		SlippagePaid: slip,
		Timestamp:    now,
	})
}

// PlaceLimitOrder registers a resting limit order in the pending table,
// emitting New, or Rejected with MAX_PENDING_EXCEEDED if the table is
// full (spec §4.3). qty is a float64 to preserve fractional crypto sizes
// exactly through to the eventual fill report.
func (s *Simulator) PlaceLimitOrder(symbol uint32, side Side, limitPrice uint32, qty float64) ExecutionReport {
	now := s.Clock()
	id := s.allocOrderID()

	if len(s.freeSlots) == 0 {
		return s.emit(ExecutionReport{
			OrderID:    id,
			Symbol:     symbol,
			Side:       side,
			Type:       Limit,
			Status:     StatusRejected,
			Reason:     RejectMaxPendingExceeded,
			LimitPrice: limitPrice,
			Quantity:   qty,
			Timestamp:  now,
		})
	}

	slot := s.freeSlots[len(s.freeSlots)-1]
	s.freeSlots = s.freeSlots[:len(s.freeSlots)-1]

	s.pending[slot] = pendingOrder{
		id:         id,
		symbol:     symbol,
		side:       side,
		limitPrice: limitPrice,
		qty:        qty,
		live:       true,
	}
	s.index[id] = slot

	return s.emit(ExecutionReport{
		OrderID:    id,
		Symbol:     symbol,
		Side:       side,
		Type:       Limit,
		Status:     StatusNew,
		LimitPrice: limitPrice,
		Quantity:   qty,
		Timestamp:  now,
	})
}

func (s *Simulator) releaseSlot(slot uint32) {
	s.pending[slot] = pendingOrder{}
	s.freeSlots = append(s.freeSlots, slot)
}

// CancelOrder cancels a resting limit order.
func (s *Simulator) CancelOrder(id uint64) (ExecutionReport, error) {
	slot, ok := s.index[id]
	if !ok || !s.pending[slot].live {
		return ExecutionReport{}, ErrOrderNotFound
	}
	order := s.pending[slot]
	delete(s.index, id)
	delete(s.queues, queueKey{order.symbol, order.side, order.limitPrice})
	s.releaseSlot(slot)

	return s.emit(ExecutionReport{
		OrderID:    id,
		Symbol:     order.symbol,
		Side:       order.side,
		Type:       Limit,
		Status:     StatusCancelled,
		LimitPrice: order.limitPrice,
		Quantity:   order.qty,
		Timestamp:  s.Clock(),
	}), nil
}

// OnPriceUpdate matches resting limit orders against a fresh quote using
// pessimistic fill semantics (spec §4.3): a buy only fills when the ask
// has moved strictly below its limit, filling at the (worse) ask; a sell
// only fills when the bid has moved strictly above its limit, filling at
// the (worse) bid. Adverse slippage is applied on top.
func (s *Simulator) OnPriceUpdate(symbol uint32, bid, ask uint32, ts int64) []ExecutionReport {
	var reports []ExecutionReport
	for id, slot := range s.index {
		order := &s.pending[slot]
		if !order.live || order.symbol != symbol {
			continue
		}

		var crosses bool
		var quote uint32
		switch order.side {
		case Buy:
			crosses = ask < order.limitPrice
			quote = ask
		case Sell:
			crosses = bid > order.limitPrice
			quote = bid
		}
		if !crosses {
			continue
		}

		fill := s.fillPrice(order.side, quote)
		comm := s.commission(fill, order.qty)
		slip := slippagePaid(order.side, quote, fill, order.qty)
		s.totalSlippage += slip

		reports = append(reports, s.emit(ExecutionReport{
			OrderID:      id,
			Symbol:       order.symbol,
			Side:         order.side,
			Type:         Limit,
			Status:       StatusFilled,
			LimitPrice:   order.limitPrice,
			FillPrice:    fill,
			Quantity:     order.qty,
			Commission:   comm,
			SlippagePaid: slip,
			Timestamp:    ts,
		}))

		delete(s.index, id)
		delete(s.queues, queueKey{order.symbol, order.side, order.limitPrice})
		s.releaseSlot(slot)
	}
	return reports
}

// TotalSlippage reports the running slippage accumulator.
func (s *Simulator) TotalSlippage() int64 { return s.totalSlippage }

// PendingCount reports how many limit orders are currently resting.
func (s *Simulator) PendingCount() int { return len(s.index) }
