package marketdata

import (
	"github.com/abdoElHodaky/tradSys/internal/book"
)

// BookFactory builds the per-symbol book.Config the handler uses the
// first time it sees a symbol, mirroring matching.BookFactory so the
// same sizing policy can serve both the matching engine and book
// reconstruction.
type BookFactory func(symbol uint32) book.Config

// symbolState is everything the handler tracks for one reconstructed
// symbol book: the book itself, its top-of-book projection, and the
// synthetic order ids standing in for depth-update aggregate levels
// (spec §4.2: aggregated feeds carry no order id, so reconstruction
// synthesizes one per price level to reuse the same OrderBook).
type symbolState struct {
	ob          *book.OrderBook
	top         book.TopOfBook
	bidLevels   map[uint32]uint64
	askLevels   map[uint32]uint64
	snapshotSeq uint64
}

// Handler is the book-reconstruction EventSink (spec §4.2): it replays
// order-level or aggregated feed events into a per-symbol book.OrderBook
// and keeps a book.TopOfBook projection current for strategies that only
// need the best few levels.
type Handler struct {
	factory         BookFactory
	states          map[uint32]*symbolState
	orderSymbol     map[uint64]uint32
	orderSide       map[uint64]book.Side
	nextSyntheticID uint64
	Clock           func() int64
}

// NewHandler constructs a reconstruction handler. factory sizes a new
// symbol's book the first time an event for it arrives.
func NewHandler(factory BookFactory) *Handler {
	return &Handler{
		factory:     factory,
		states:      make(map[uint32]*symbolState),
		orderSymbol: make(map[uint64]uint32),
		orderSide:   make(map[uint64]book.Side),
	}
}

func (h *Handler) stateFor(symbol uint32) *symbolState {
	st, ok := h.states[symbol]
	if ok {
		return st
	}
	st = &symbolState{
		ob:        book.NewOrderBook(h.factory(symbol)),
		bidLevels: make(map[uint32]uint64),
		askLevels: make(map[uint32]uint64),
	}
	st.top.Symbol = symbol
	h.states[symbol] = st
	return st
}

// Book returns the reconstructed book for a symbol, or nil if no event
// for it has arrived yet.
func (h *Handler) Book(symbol uint32) *book.OrderBook {
	st, ok := h.states[symbol]
	if !ok {
		return nil
	}
	return st.ob
}

// TopOfBook returns the live top-of-book projection for a symbol. The
// returned pointer is owned by the handler and updated in place on every
// event — callers that need a stable copy should dereference it.
func (h *Handler) TopOfBook(symbol uint32) *book.TopOfBook {
	st, ok := h.states[symbol]
	if !ok {
		return nil
	}
	return &st.top
}

func (h *Handler) touch(st *symbolState, now int64) {
	st.top.Project(st.ob, now)
}

func (h *Handler) OnOrderAdd(orderID uint64, symbol uint32, side book.Side, price, qty uint32, ts int64) {
	st := h.stateFor(symbol)
	if err := st.ob.AddOrder(orderID, 0, side, price, qty); err != nil {
		return
	}
	h.orderSymbol[orderID] = symbol
	h.orderSide[orderID] = side
	h.touch(st, ts)
}

func (h *Handler) OnOrderExecute(orderID uint64, execQty uint32, ts int64) {
	symbol, ok := h.orderSymbol[orderID]
	if !ok {
		return
	}
	st := h.states[symbol]
	removed, err := st.ob.ExecuteOrder(orderID, execQty)
	if err != nil {
		return
	}
	if removed {
		delete(h.orderSymbol, orderID)
		delete(h.orderSide, orderID)
	}
	h.touch(st, ts)
}

func (h *Handler) OnOrderReduce(orderID uint64, reduceBy uint32, ts int64) {
	// A cancel-with-remaining-quantity message reduces resting size the
	// same way a partial execution does, without reporting a trade.
	h.OnOrderExecute(orderID, reduceBy, ts)
}

func (h *Handler) OnOrderDelete(orderID uint64, ts int64) {
	symbol, ok := h.orderSymbol[orderID]
	if !ok {
		return
	}
	st := h.states[symbol]
	st.ob.CancelOrder(orderID)
	delete(h.orderSymbol, orderID)
	delete(h.orderSide, orderID)
	h.touch(st, ts)
}

// OnOrderReplace implements cancel-replace semantics. The wire message
// carries no side (spec §9 open question), so the handler looks the
// original order's side up from its own index before re-adding at the
// new id, price and quantity.
func (h *Handler) OnOrderReplace(oldOrderID, newOrderID uint64, qty, price uint32, ts int64) {
	symbol, ok := h.orderSymbol[oldOrderID]
	if !ok {
		return
	}
	side, ok := h.orderSide[oldOrderID]
	if !ok {
		return
	}
	st := h.states[symbol]
	st.ob.CancelOrder(oldOrderID)
	delete(h.orderSymbol, oldOrderID)
	delete(h.orderSide, oldOrderID)

	if err := st.ob.AddOrder(newOrderID, 0, side, price, qty); err == nil {
		h.orderSymbol[newOrderID] = symbol
		h.orderSide[newOrderID] = side
	}
	h.touch(st, ts)
}

func (h *Handler) OnTrade(symbol uint32, price, qty uint32, ts int64) {
	// Prints/trade ticks carry no order-book-mutating effect of their own
	// under order-level feeds (the OrderExecuted messages already moved
	// the book); the handler only needs to keep the projection's
	// timestamp current.
	st := h.stateFor(symbol)
	h.touch(st, ts)
}

func (h *Handler) OnQuote(symbol uint32, bidPrice, askPrice uint32, ts int64) {
	// A top-of-book quote message (bookTicker) is informational only when
	// full depth reconstruction is also running; it does not replace
	// OnBookLevel's aggregate-level tracking.
	st := h.stateFor(symbol)
	h.touch(st, ts)
}

// OnBookLevel applies one aggregated price-level update (spec §4.2
// depthUpdate): aggregateQty of 0 removes the level, anything else sets
// it to exactly that size. Since OrderBook only exposes add/execute/
// cancel on order ids, one synthetic order per level stands in for the
// level's aggregate quantity, recreated whenever the size changes.
func (h *Handler) OnBookLevel(symbol uint32, side book.Side, price, aggregateQty uint32, ts int64) {
	st := h.stateFor(symbol)
	levels := st.bidLevels
	if side == book.Sell {
		levels = st.askLevels
	}

	if existingID, ok := levels[price]; ok {
		st.ob.CancelOrder(existingID)
		delete(h.orderSymbol, existingID)
		delete(levels, price)
	}

	if aggregateQty > 0 {
		h.nextSyntheticID++
		id := h.nextSyntheticID
		if err := st.ob.AddOrder(id, 0, side, price, aggregateQty); err == nil {
			levels[price] = id
			h.orderSymbol[id] = symbol
		}
	}

	h.touch(st, ts)
}

// ApplySnapshot replaces a symbol's book wholesale with a depth snapshot,
// discarding any prior state, and marks the top-of-book projection
// Building until the first delta lands on top of it (spec §4.2
// snapshot-then-delta: "a fresh snapshot always starts the state machine
// over").
func (h *Handler) ApplySnapshot(symbol uint32, snap Snapshot, now int64) {
	st := &symbolState{
		ob:          book.NewOrderBook(h.factory(symbol)),
		bidLevels:   make(map[uint32]uint64),
		askLevels:   make(map[uint32]uint64),
		snapshotSeq: snap.Sequence,
	}
	st.top.Symbol = symbol
	h.states[symbol] = st

	for _, lvl := range snap.Bids {
		h.OnBookLevel(symbol, book.Buy, lvl.Price, uint32(lvl.Quantity), now)
	}
	for _, lvl := range snap.Asks {
		h.OnBookLevel(symbol, book.Sell, lvl.Price, uint32(lvl.Quantity), now)
	}

	st.top.State = book.TopOfBookBuilding
	st.top.Sequence = snap.Sequence
}

// ApplyDepthDelta gates an incremental depth update against the last
// applied snapshot sequence (spec §4.2, §8 scenario "snapshot/delta
// resync"): deltas at or before the snapshot sequence are stale and
// discarded; the first delta past it promotes the projection to Ready.
// Returns false when the delta was discarded.
func (h *Handler) ApplyDepthDelta(symbol uint32, sequence uint64, bids, asks []book.PriceLevelView, now int64) bool {
	st, ok := h.states[symbol]
	if !ok || st.top.State == book.TopOfBookEmpty {
		return false
	}
	if sequence <= st.snapshotSeq {
		return false
	}

	for _, lvl := range bids {
		h.OnBookLevel(symbol, book.Buy, lvl.Price, uint32(lvl.Quantity), now)
	}
	for _, lvl := range asks {
		h.OnBookLevel(symbol, book.Sell, lvl.Price, uint32(lvl.Quantity), now)
	}

	st.snapshotSeq = sequence
	st.top.State = book.TopOfBookReady
	return true
}
