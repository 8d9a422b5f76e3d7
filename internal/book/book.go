package book

import "time"

// Config sizes and bounds a new OrderBook. PriceBase/PriceRange fix the
// dense lookup window shared by both sides (spec §3: "a price is in range"
// is checked against a single configured window per book).
type Config struct {
	Symbol     uint32
	PriceBase  uint32
	PriceRange uint32
	MaxOrders  int
	MaxLevels  int
}

func (c Config) withDefaults() Config {
	if c.MaxOrders <= 0 {
		c.MaxOrders = DefaultMaxOrders
	}
	if c.MaxLevels <= 0 {
		c.MaxLevels = DefaultMaxLevels
	}
	return c
}

// OrderBook is a single symbol's limit order book: two BookSides sharing a
// pre-allocated order pool and price-level pool. OrderBook itself never
// matches crossed prices — that is MatchingEngine's job (spec §3, §4.1).
type OrderBook struct {
	Symbol uint32

	bid *bookSide
	ask *bookSide

	orders *orderPool
	levels *levelPool

	index map[uint64]uint32

	// Clock supplies CreatedAt timestamps; overridable in tests.
	Clock func() int64
}

// NewOrderBook allocates a book with the given capacity. All memory is
// pre-sized here; AddOrder/CancelOrder/ExecuteOrder never allocate.
func NewOrderBook(cfg Config) *OrderBook {
	cfg = cfg.withDefaults()
	return &OrderBook{
		Symbol: cfg.Symbol,
		bid:    newBookSide(Buy, cfg.PriceBase, cfg.PriceRange),
		ask:    newBookSide(Sell, cfg.PriceBase, cfg.PriceRange),
		orders: newOrderPool(cfg.MaxOrders),
		levels: newLevelPool(cfg.MaxLevels),
		index:  make(map[uint64]uint32, cfg.MaxOrders),
		Clock:  func() int64 { return time.Now().UnixNano() },
	}
}

func (ob *OrderBook) sideFor(side Side) *bookSide {
	if side == Buy {
		return ob.bid
	}
	return ob.ask
}

// AddOrder rests a new order on the book (spec §4.1 OrderBook.add_order).
// traderID of 0 means anonymous.
func (ob *OrderBook) AddOrder(id uint64, traderID uint64, side Side, price, qty uint32) error {
	if id == 0 {
		return ErrInvalidOrderID
	}
	if qty == 0 {
		return ErrInvalidQuantity
	}
	bs := ob.sideFor(side)
	if !bs.inRange(price) {
		return ErrInvalidPrice
	}
	if _, exists := ob.index[id]; exists {
		return ErrDuplicateOrderID
	}

	orderSlot, ok := ob.orders.alloc()
	if !ok {
		return ErrOrderPoolExhausted
	}

	levelSlot, err := ob.findOrCreateLevel(bs, price)
	if err != nil {
		ob.orders.release(orderSlot)
		return err
	}

	n := &ob.orders.nodes[orderSlot]
	n.id = id
	n.traderID = traderID
	n.symbol = ob.Symbol
	n.price = price
	n.qty = qty
	n.side = side
	n.createdAt = ob.Clock()
	n.live = true

	ob.appendOrderToLevel(levelSlot, orderSlot)
	ob.index[id] = orderSlot
	return nil
}

// CancelOrder removes a live order in O(1), returning false if the id is
// unknown (already cancelled or never existed) — spec invariant: a second
// CancelOrder call on the same id is a no-op that changes no state.
func (ob *OrderBook) CancelOrder(id uint64) bool {
	slot, ok := ob.index[id]
	if !ok {
		return false
	}
	ob.removeOrder(slot)
	delete(ob.index, id)
	return true
}

// removeOrder unsplices an order from its level's FIFO queue, deallocates
// the level if it becomes empty, and returns the order slot to the pool.
func (ob *OrderBook) removeOrder(slot uint32) {
	n := &ob.orders.nodes[slot]
	levelSlot := n.level
	bs := ob.sideFor(n.side)

	lvl := &ob.levels.nodes[levelSlot]
	if n.prevOrder != noSlot {
		ob.orders.nodes[n.prevOrder].nextOrder = n.nextOrder
	} else {
		lvl.headOrder = n.nextOrder
	}
	if n.nextOrder != noSlot {
		ob.orders.nodes[n.nextOrder].prevOrder = n.prevOrder
	} else {
		lvl.tailOrder = n.prevOrder
	}
	lvl.totalQty -= uint64(n.qty)

	if lvl.headOrder == noSlot {
		bs.remove(ob.levels, levelSlot)
		bs.clearLookup(lvl.price)
		ob.levels.release(levelSlot)
	}

	ob.orders.release(slot)
}

// ExecuteOrder reduces a resting order by qty. If qty consumes the entire
// remaining quantity the order is removed (spec §4.1 execute_order).
func (ob *OrderBook) ExecuteOrder(id uint64, qty uint32) (removed bool, err error) {
	slot, ok := ob.index[id]
	if !ok {
		return false, ErrOrderNotFound
	}
	n := &ob.orders.nodes[slot]
	if qty >= n.qty {
		ob.removeOrder(slot)
		delete(ob.index, id)
		return true, nil
	}
	n.qty -= qty
	ob.levels.nodes[n.level].totalQty -= uint64(qty)
	return false, nil
}

func (ob *OrderBook) findOrCreateLevel(bs *bookSide, price uint32) (uint32, error) {
	if slot := bs.lookupSlot(price); slot != noSlot {
		return slot, nil
	}
	slot, ok := ob.levels.alloc()
	if !ok {
		return noSlot, ErrLevelPoolExhausted
	}
	n := &ob.levels.nodes[slot]
	n.price = price
	n.headOrder = noSlot
	n.tailOrder = noSlot
	n.live = true
	bs.setLookup(price, slot)
	bs.insert(ob.levels, slot)
	return slot, nil
}

func (ob *OrderBook) appendOrderToLevel(levelSlot, orderSlot uint32) {
	lvl := &ob.levels.nodes[levelSlot]
	n := &ob.orders.nodes[orderSlot]
	n.level = levelSlot
	n.prevOrder = lvl.tailOrder
	n.nextOrder = noSlot
	if lvl.tailOrder != noSlot {
		ob.orders.nodes[lvl.tailOrder].nextOrder = orderSlot
	} else {
		lvl.headOrder = orderSlot
	}
	lvl.tailOrder = orderSlot
	lvl.totalQty += uint64(n.qty)
}

// ValidateNewOrder runs the same precondition checks AddOrder applies,
// without mutating the book. The matching engine calls this before
// attempting to walk the opposite side, so a rejected order never
// triggers partial matching.
func (ob *OrderBook) ValidateNewOrder(id uint64, side Side, price, qty uint32) error {
	if id == 0 {
		return ErrInvalidOrderID
	}
	if qty == 0 {
		return ErrInvalidQuantity
	}
	if !ob.sideFor(side).inRange(price) {
		return ErrInvalidPrice
	}
	if _, exists := ob.index[id]; exists {
		return ErrDuplicateOrderID
	}
	return nil
}

// BestPrice returns the best price resting on the given side.
func (ob *OrderBook) BestPrice(side Side) (uint32, bool) {
	if side == Buy {
		return ob.BestBid()
	}
	return ob.BestAsk()
}

// BestBid returns the highest resting bid price, if any.
func (ob *OrderBook) BestBid() (uint32, bool) {
	slot := ob.bid.bestSlot()
	if slot == noSlot {
		return 0, false
	}
	return ob.levels.nodes[slot].price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (ob *OrderBook) BestAsk() (uint32, bool) {
	slot := ob.ask.bestSlot()
	if slot == noSlot {
		return 0, false
	}
	return ob.levels.nodes[slot].price, true
}

// QuantityAt returns the aggregate resting quantity at a price on one
// side, or 0 if there is no such level.
func (ob *OrderBook) QuantityAt(side Side, price uint32) uint64 {
	bs := ob.sideFor(side)
	if !bs.inRange(price) {
		return 0
	}
	slot := bs.lookupSlot(price)
	if slot == noSlot {
		return 0
	}
	return ob.levels.nodes[slot].totalQty
}

func (ob *OrderBook) BidQuantityAt(price uint32) uint64 { return ob.QuantityAt(Buy, price) }
func (ob *OrderBook) AskQuantityAt(price uint32) uint64 { return ob.QuantityAt(Sell, price) }

// PeekHead returns the order at the head of the FIFO queue of the best
// level on the given side, without removing it. Used by the matching
// engine to walk the opposite side.
func (ob *OrderBook) PeekHead(side Side) (Order, bool) {
	bs := ob.sideFor(side)
	levelSlot := bs.bestSlot()
	if levelSlot == noSlot {
		return Order{}, false
	}
	headSlot := ob.levels.nodes[levelSlot].headOrder
	if headSlot == noSlot {
		return Order{}, false
	}
	return ob.orderView(headSlot), true
}

// GetOrder returns a live order by id.
func (ob *OrderBook) GetOrder(id uint64) (Order, bool) {
	slot, ok := ob.index[id]
	if !ok {
		return Order{}, false
	}
	return ob.orderView(slot), true
}

func (ob *OrderBook) orderView(slot uint32) Order {
	n := &ob.orders.nodes[slot]
	return Order{
		ID:        n.id,
		TraderID:  n.traderID,
		Symbol:    n.symbol,
		Price:     n.price,
		Quantity:  n.qty,
		Side:      n.side,
		CreatedAt: n.createdAt,
	}
}

// OrderPoolStats reports order-pool occupancy for the halt controller's
// PoolWarning/PoolCritical thresholds (spec §4.1).
func (ob *OrderBook) OrderPoolStats() PoolStats { return ob.orders.stats() }

// LevelPoolStats reports price-level-pool occupancy.
func (ob *OrderBook) LevelPoolStats() PoolStats { return ob.levels.stats() }

// Snapshot produces an immutable view of up to maxLevels per side.
func (ob *OrderBook) Snapshot(maxLevels int) BookSnapshot {
	snap := BookSnapshot{Symbol: ob.Symbol}
	if p, ok := ob.BestBid(); ok {
		snap.BestBid = p
	}
	if p, ok := ob.BestAsk(); ok {
		snap.BestAsk = p
	}
	snap.BidLevels = ob.levelViews(ob.bid, maxLevels)
	snap.AskLevels = ob.levelViews(ob.ask, maxLevels)
	return snap
}

func (ob *OrderBook) levelViews(bs *bookSide, maxLevels int) []PriceLevelView {
	out := make([]PriceLevelView, 0, maxLevels)
	slot := bs.head
	for slot != noSlot && len(out) < maxLevels {
		lvl := &ob.levels.nodes[slot]
		count := 0
		for o := lvl.headOrder; o != noSlot; o = ob.orders.nodes[o].nextOrder {
			count++
		}
		out = append(out, PriceLevelView{Price: lvl.price, Quantity: lvl.totalQty, Orders: count})
		slot = lvl.nextLevel
	}
	return out
}
