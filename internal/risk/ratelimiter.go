package risk

import "sync/atomic"

// MaxTraders bounds the dense rate-limiter table (spec §4.4
// MAX_TRADERS). Trader id 0 means anonymous and bypasses rate limiting.
const MaxTraders = 10000

// RateLimitReject enumerates why allow_order rejected an order.
type RateLimitReject uint8

const (
	RateAccept RateLimitReject = iota
	RateRejectGlobal
	RateRejectPerTrader
	RateRejectActiveOrders
)

func (r RateLimitReject) String() string {
	switch r {
	case RateRejectGlobal:
		return "global_rate"
	case RateRejectPerTrader:
		return "trader_rate"
	case RateRejectActiveOrders:
		return "active_orders"
	default:
		return "accept"
	}
}

type traderSlot struct {
	ordersThisSecond int64
	activeOrders     int64
	lastReset        int64
}

// RateLimiterConfig bounds order flow (spec §4.4 "Rate limiter").
type RateLimiterConfig struct {
	Enabled             bool
	GlobalPerSecond     int64
	PerTraderPerSecond  int64
	MaxActiveOrders     int64
}

// RateLimiter is a dense, fixed-size, atomics-based order-flow limiter
// indexed by trader id ∈ [1, MaxTraders) — no map, no allocation, no
// lock, matching spec §4.4's hot-path constraint directly.
type RateLimiter struct {
	cfg RateLimiterConfig

	globalOrdersThisSecond int64
	globalLastReset        int64

	traders [MaxTraders]traderSlot
}

// NewRateLimiter constructs a limiter with all counters zeroed.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg}
}

// AllowOrder runs the four-step admission check (spec §4.4
// "allow_order"). now is the current unix second.
func (l *RateLimiter) AllowOrder(trader uint32, now int64) RateLimitReject {
	if !l.cfg.Enabled || trader == 0 {
		return RateAccept
	}

	if now > atomic.LoadInt64(&l.globalLastReset) {
		atomic.StoreInt64(&l.globalLastReset, now)
		atomic.StoreInt64(&l.globalOrdersThisSecond, 0)
	}
	if atomic.AddInt64(&l.globalOrdersThisSecond, 1) > l.cfg.GlobalPerSecond {
		return RateRejectGlobal
	}

	if trader >= MaxTraders {
		return RateRejectPerTrader
	}
	slot := &l.traders[trader]

	if now > atomic.LoadInt64(&slot.lastReset) {
		atomic.StoreInt64(&slot.lastReset, now)
		atomic.StoreInt64(&slot.ordersThisSecond, 0)
	}
	if atomic.AddInt64(&slot.ordersThisSecond, 1) > l.cfg.PerTraderPerSecond {
		return RateRejectPerTrader
	}

	if atomic.LoadInt64(&slot.activeOrders) >= l.cfg.MaxActiveOrders {
		return RateRejectActiveOrders
	}

	return RateAccept
}

// OnOrderAdded increments a trader's active-order count.
func (l *RateLimiter) OnOrderAdded(trader uint32) {
	if trader == 0 || trader >= MaxTraders {
		return
	}
	atomic.AddInt64(&l.traders[trader].activeOrders, 1)
}

// OnOrderRemoved decrements a trader's active-order count.
func (l *RateLimiter) OnOrderRemoved(trader uint32) {
	if trader == 0 || trader >= MaxTraders {
		return
	}
	atomic.AddInt64(&l.traders[trader].activeOrders, -1)
}

// ActiveOrders reports a trader's current active-order count.
func (l *RateLimiter) ActiveOrders(trader uint32) int64 {
	if trader == 0 || trader >= MaxTraders {
		return 0
	}
	return atomic.LoadInt64(&l.traders[trader].activeOrders)
}
