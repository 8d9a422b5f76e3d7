// Package book implements the in-process limit order book: an intrusive,
// pool-backed price-time-priority structure per symbol. No heap allocation
// happens after construction — orders and price levels live in pre-sized
// arenas addressed by slot index, not by pointer, so the book can be driven
// from the single-threaded trading hot path without triggering the GC.
package book

// Side identifies which side of the book an order rests on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// PriceScale is the fixed-point scale for all prices in the book: a stored
// price of 10000 represents 1.0000 (4 decimal places, spec §3).
const PriceScale = 10000

// Default capacities (spec §3): compile-time maxima bounding the order
// index and the pools.
const (
	DefaultMaxOrders = 1_000_000
	DefaultMaxLevels = 100_000
)

// slot sentinels. Slot 0 is never allocated to a live order or level, so it
// doubles as the "no slot" marker for prev/next/head/tail links — this
// keeps the zero value of an index field meaningfully "empty" without a
// separate boolean per link.
const noSlot uint32 = 0

// Order is an immutable view of a resting order, returned by queries. The
// live representation lives in the pool arena; this is a copy.
type Order struct {
	ID        uint64
	TraderID  uint64
	Symbol    uint32
	Price     uint32
	Quantity  uint32
	Side      Side
	CreatedAt int64
}

// PriceLevelView is an immutable view of one price level, used by
// snapshots and the top-of-book projection.
type PriceLevelView struct {
	Price    uint32
	Quantity uint64
	Orders   int
}

// BookSnapshot is an immutable, on-demand view of the full book (spec §3
// MarketSnapshot/BookSnapshot).
type BookSnapshot struct {
	Symbol    uint32
	BestBid   uint32
	BestAsk   uint32
	BidLevels []PriceLevelView
	AskLevels []PriceLevelView
}

// PoolStats reports free-list occupancy so callers (the halt controller)
// can apply the warning/critical thresholds from spec §4.1.
type PoolStats struct {
	Capacity int
	InUse    int
}

// FreeFraction returns the fraction of the pool that is still free, in
// [0,1].
func (s PoolStats) FreeFraction() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.Capacity-s.InUse) / float64(s.Capacity)
}
