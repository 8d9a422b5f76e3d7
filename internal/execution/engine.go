// Package execution turns a Strategy's Signal into an order sent to an
// Exchange, gating every intent through the pre-trade risk manager and
// rate limiter and reserving buying power against it first (spec §4.4,
// §6). It also owns the adaptive-order-type policy: an outstanding
// limit order whose limit_timeout_ms has elapsed is cancelled and
// resent as a market order (spec §5).
package execution

import (
	"errors"
	"math"

	"github.com/segmentio/ksuid"

	"github.com/abdoElHodaky/tradSys/internal/account"
	"github.com/abdoElHodaky/tradSys/internal/exchange"
	"github.com/abdoElHodaky/tradSys/internal/paperexchange"
	"github.com/abdoElHodaky/tradSys/internal/risk"
	"github.com/abdoElHodaky/tradSys/internal/strategy"
)

// ErrHalted is returned when the halt controller has disallowed new
// order submission (spec §4.6 "can_trade()").
var ErrHalted = errors.New("execution: trading halted")

// ErrRiskRejected wraps a risk-manager rejection with its reason.
type ErrRiskRejected struct{ Reason risk.RejectReason }

func (e ErrRiskRejected) Error() string { return "execution: risk rejected order: " + e.Reason.String() }

// ErrRateLimited wraps a rate-limiter rejection with its reason.
type ErrRateLimited struct{ Reason risk.RateLimitReject }

func (e ErrRateLimited) Error() string { return "execution: rate limited: " + e.Reason.String() }

// Intent is the fully-resolved order the engine is about to submit,
// derived from a Strategy Signal.
type Intent struct {
	// ClientOrderID is a K-sortable id stamped at decision time, so a
	// fill, rejection, or log line can be traced back to the exact
	// signal that produced it even after the exchange assigns its own
	// order id.
	ClientOrderID  string
	Trader         uint32
	SymbolIndex    risk.SymbolIndex
	Symbol         uint32
	Side           paperexchange.Side
	// Quantity is the exact size sent to the exchange (spec §3: float64
	// so fractional crypto sizes survive; equity callers pass whole
	// numbers). Risk checks and buying-power reservation round it to the
	// nearest whole unit — the risk manager's limits are specified in
	// integer terms (spec §4.4).
	Quantity       float64
	Price          uint32 // limit price; ignored for market orders
	Market         bool
	LimitTimeoutMs int64
}

type pendingLimit struct {
	intent    Intent
	submitted int64
}

// Engine wires risk, rate limiting, buying power, and the exchange
// together. CanTrade is consulted on every Submit call (spec §4.6).
type Engine struct {
	risk     *risk.Manager
	limiter  *risk.RateLimiter
	ledger   *account.Ledger
	exch     exchange.Exchange
	canTrade func() bool
	// clock returns the current time in milliseconds (spec §5
	// limit_timeout_ms is ms-scale); it drives both CheckTimeouts and
	// pendingLimit.submitted directly, and is divided down to whole
	// seconds for the rate limiter's per-second accounting.
	clock func() int64
	pnl   *pnlTracker

	pending map[uint64]pendingLimit
}

// NewEngine constructs an Engine. canTrade is typically
// halt.Controller.CanTrade. clock must return milliseconds (e.g.
// time.Now().UnixMilli).
func NewEngine(riskMgr *risk.Manager, limiter *risk.RateLimiter, ledger *account.Ledger, exch exchange.Exchange, canTrade func() bool, clock func() int64) *Engine {
	return &Engine{
		risk:     riskMgr,
		limiter:  limiter,
		ledger:   ledger,
		exch:     exch,
		canTrade: canTrade,
		clock:    clock,
		pnl:      newPnLTracker(),
		pending:  make(map[uint64]pendingLimit),
	}
}

func signalSide(action strategy.Action) (paperexchange.Side, bool) {
	switch action {
	case strategy.ActionBuy:
		return paperexchange.Buy, true
	case strategy.ActionSell, strategy.ActionExit:
		return paperexchange.Sell, true
	default:
		return 0, false
	}
}

// BuildIntent resolves a Strategy Signal into an Intent ready for
// Submit, given the reference quote to price a market order or size a
// buying-power reservation from.
func BuildIntent(sig strategy.Signal, trader uint32, symbolIdx risk.SymbolIndex, symbol uint32, referenceQuote uint32, limitTimeoutMs int64) (Intent, bool) {
	side, ok := signalSide(sig.Action)
	if !ok {
		return Intent{}, false
	}
	qty := sig.SuggestedQty
	if qty <= 0 {
		qty = 1
	}

	intent := Intent{
		ClientOrderID:  ksuid.New().String(),
		Trader:         trader,
		SymbolIndex:    symbolIdx,
		Symbol:         symbol,
		Side:           side,
		Quantity:       qty,
		LimitTimeoutMs: limitTimeoutMs,
	}

	switch sig.OrderPreference {
	case strategy.OrderPreferMarket:
		intent.Market = true
		intent.Price = referenceQuote
	case strategy.OrderPreferLimit, strategy.OrderPreferEither:
		if sig.HasLimitPrice {
			intent.Price = uint32(sig.LimitPrice)
		} else {
			intent.Price = referenceQuote
		}
	}
	return intent, true
}

func riskSide(side paperexchange.Side) risk.Side {
	if side == paperexchange.Sell {
		return risk.Sell
	}
	return risk.Buy
}

// Submit runs an Intent through the risk manager and rate limiter,
// reserves buying power, and sends it to the exchange. The order id
// returned is the exchange's id; on any rejection the reservation (if
// made) is released and an error describing the rejection stage is
// returned.
func (e *Engine) Submit(intent Intent) (uint64, error) {
	if e.canTrade != nil && !e.canTrade() {
		return 0, ErrHalted
	}

	// The risk manager and rate limiter work in whole-unit quantities
	// (spec §4.4); round the exact order size to the nearest unit for
	// those checks while the exchange still receives the exact value.
	riskQty := uint32(math.Round(intent.Quantity))

	check := e.risk.CheckOrder(intent.SymbolIndex, riskSide(intent.Side), riskQty, intent.Price)
	if !check.Accepted {
		return 0, ErrRiskRejected{Reason: check.Reason}
	}

	nowMs := e.clock()
	if reject := e.limiter.AllowOrder(intent.Trader, nowMs/1000); reject != risk.RateAccept {
		return 0, ErrRateLimited{Reason: reject}
	}

	notional := uint64(riskQty) * uint64(intent.Price)

	var orderID uint64
	var err error
	if intent.Market {
		orderID, err = e.exch.SubmitMarketOrder(intent.Symbol, intent.Side, intent.Quantity, intent.Price)
	} else {
		orderID, err = e.exch.SubmitLimitOrder(intent.Symbol, intent.Side, intent.Price, intent.Quantity)
	}
	if err != nil {
		return 0, err
	}

	if reserveErr := e.ledger.Reserve(orderID, notional); reserveErr != nil {
		_ = e.exch.CancelOrder(orderID)
		return 0, reserveErr
	}
	e.limiter.OnOrderAdded(intent.Trader)

	if !intent.Market && intent.LimitTimeoutMs > 0 {
		e.pending[orderID] = pendingLimit{intent: intent, submitted: nowMs}
	}

	return orderID, nil
}

// CheckTimeouts cancels and resubmits as a market order every tracked
// limit order whose limit_timeout_ms has elapsed as of now, a
// millisecond timestamp on the same scale as Intent.LimitTimeoutMs and
// the clock passed to NewEngine (spec §5: "the execution engine is
// responsible for converting an outstanding limit order to a market
// order if the timeout elapses").
func (e *Engine) CheckTimeouts(now int64) {
	for orderID, p := range e.pending {
		if now-p.submitted < p.intent.LimitTimeoutMs {
			continue
		}
		delete(e.pending, orderID)

		_ = e.exch.CancelOrder(orderID)
		_ = e.ledger.Release(orderID)
		e.limiter.OnOrderRemoved(p.intent.Trader)

		marketIntent := p.intent
		marketIntent.Market = true
		_, _ = e.Submit(marketIntent)
	}
}

// Settle releases or debits a reservation once a fill report arrives
// and clears any timeout tracking for the order, forwarding the
// symbol-dense fill to the risk manager's OnFill accounting and the
// fill's realized P&L to UpdatePnL so the post-fill daily-loss and
// drawdown halt checks (spec §4.4 "update_pnl") run on every fill.
func (e *Engine) Settle(orderID uint64, symbolIdx risk.SymbolIndex, side paperexchange.Side, qty float64, fillPrice uint32, commission uint64) {
	delete(e.pending, orderID)

	riskQty := uint32(math.Round(qty))
	cost := uint64(riskQty)*uint64(fillPrice) + commission
	_ = e.ledger.Settle(orderID, cost)

	e.risk.OnFill(symbolIdx, riskSide(side), riskQty, fillPrice)

	signedQty := int64(riskQty)
	if side == paperexchange.Sell {
		signedQty = -signedQty
	}
	cumulativePnL := e.pnl.onFill(symbolIdx, signedQty, fillPrice, commission)
	e.risk.UpdatePnL(cumulativePnL)
}

// CancelReject releases a reservation for an order that was rejected
// or cancelled without filling.
func (e *Engine) CancelReject(orderID uint64, trader uint32) {
	delete(e.pending, orderID)
	_ = e.ledger.Release(orderID)
	e.limiter.OnOrderRemoved(trader)
}
