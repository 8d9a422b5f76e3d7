package book

// TopOfBookState is the lifecycle of a TopOfBook projection during
// snapshot-then-delta synchronization (spec §3, §4.2).
type TopOfBookState uint8

const (
	TopOfBookEmpty TopOfBookState = iota
	TopOfBookBuilding
	TopOfBookReady
)

// TopOfBookDepth is the number of levels carried per side (spec §3: "best
// five levels").
const TopOfBookDepth = 5

// TopOfBook is the compact projection strategies consume on the hot path
// in lieu of the full book. With five 24-byte levels per side plus its
// counters it occupies 288 bytes on 64-bit platforms, so it spans five
// 64-byte cache lines, not two. It is not the source of truth — the full
// OrderBook is.
type TopOfBook struct {
	Symbol        uint32
	Bids          [TopOfBookDepth]PriceLevelView
	BidCount      int
	Asks          [TopOfBookDepth]PriceLevelView
	AskCount      int
	LastUpdate    int64
	Sequence      uint64
	State         TopOfBookState
}

// BestBid returns the best bid level, if any.
func (t *TopOfBook) BestBid() (PriceLevelView, bool) {
	if t.BidCount == 0 {
		return PriceLevelView{}, false
	}
	return t.Bids[0], true
}

// BestAsk returns the best ask level, if any.
func (t *TopOfBook) BestAsk() (PriceLevelView, bool) {
	if t.AskCount == 0 {
		return PriceLevelView{}, false
	}
	return t.Asks[0], true
}

// Project recomputes the top-of-book projection from the full book, bumps
// the sequence counter, and marks the projection Ready. Called by the
// market-data reconstruction handler after every applied event (spec
// §4.2: "A companion projection into TopOfBook is updated on every
// event").
func (t *TopOfBook) Project(ob *OrderBook, now int64) {
	t.Symbol = ob.Symbol

	bidViews := ob.levelViews(ob.bid, TopOfBookDepth)
	t.BidCount = copy(t.Bids[:], bidViews)

	askViews := ob.levelViews(ob.ask, TopOfBookDepth)
	t.AskCount = copy(t.Asks[:], askViews)

	t.LastUpdate = now
	t.Sequence++
	t.State = TopOfBookReady
}
