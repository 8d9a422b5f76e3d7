// Package matching implements the price-time-priority matching engine: a
// thin wrapper around one book.OrderBook per symbol that adds crossing,
// self-trade prevention, and trade reporting on top of the plain book
// (spec §4.1 "Matching engine contract").
package matching

import (
	"errors"
	"time"

	"github.com/abdoElHodaky/tradSys/internal/book"
)

// ErrSymbolUnknown is returned by operations addressed at a symbol the
// engine has never seen an order for.
var ErrSymbolUnknown = errors.New("matching: unknown symbol")

// Trade is delivered to the trade callback for every fill (spec §4.1 step
// 3: "carrying both order IDs, both trader IDs, fill price, fill
// quantity, aggressor side, and current timestamp").
type Trade struct {
	Symbol            uint32
	Price             uint32
	Quantity          uint32
	AggressorOrderID  uint64
	PassiveOrderID    uint64
	AggressorTraderID uint64
	PassiveTraderID   uint64
	AggressorSide     book.Side
	Timestamp         int64
}

// TradeFunc is invoked synchronously for every trade produced by AddOrder,
// on the caller's goroutine — the matching engine never spawns a
// goroutine to deliver a fill (spec §5: hot path is single-threaded).
type TradeFunc func(Trade)

// AddOrderResult reports what happened to an aggressing order.
type AddOrderResult struct {
	FilledQuantity     uint32
	RestingQuantity    uint32
	SelfTradeCancelled bool
	Trades             []Trade
}

// BookFactory builds the OrderBook for a symbol the engine hasn't seen
// before, so callers can size per-symbol price ranges independently.
type BookFactory func(symbol uint32) book.Config

// Engine is the matching engine: one OrderBook per symbol plus the
// crossing logic spec §4.1 describes.
type Engine struct {
	factory BookFactory
	books   map[uint32]*book.OrderBook
	onTrade TradeFunc
	clock   func() int64
}

// NewEngine constructs a matching engine. onTrade may be nil.
func NewEngine(factory BookFactory, onTrade TradeFunc) *Engine {
	return &Engine{
		factory: factory,
		books:   make(map[uint32]*book.OrderBook),
		onTrade: onTrade,
		clock:   func() int64 { return time.Now().UnixNano() },
	}
}

func (e *Engine) bookFor(symbol uint32) *book.OrderBook {
	ob, ok := e.books[symbol]
	if ok {
		return ob
	}
	ob = book.NewOrderBook(e.factory(symbol))
	e.books[symbol] = ob
	return ob
}

// Book returns the underlying OrderBook for a symbol, for read-only
// queries (snapshots, pool stats). Returns nil if the symbol is unknown.
func (e *Engine) Book(symbol uint32) *book.OrderBook {
	return e.books[symbol]
}

func opposite(side book.Side) book.Side {
	if side == book.Buy {
		return book.Sell
	}
	return book.Buy
}

func eligible(side book.Side, limitPrice, bestOpposite uint32) bool {
	if side == book.Buy {
		return bestOpposite <= limitPrice
	}
	return bestOpposite >= limitPrice
}

// AddOrder submits a new order with price-time priority and self-trade
// prevention (spec §4.1 steps 1-4).
func (e *Engine) AddOrder(id uint64, traderID uint64, symbol uint32, side book.Side, price, qty uint32) (AddOrderResult, error) {
	ob := e.bookFor(symbol)
	if err := ob.ValidateNewOrder(id, side, price, qty); err != nil {
		return AddOrderResult{}, err
	}

	oppSide := opposite(side)
	remaining := qty
	var trades []Trade
	selfTrade := false

	for remaining > 0 {
		bestOpp, ok := ob.BestPrice(oppSide)
		if !ok || !eligible(side, price, bestOpp) {
			break
		}
		head, ok := ob.PeekHead(oppSide)
		if !ok {
			break
		}

		if traderID != 0 && head.TraderID == traderID {
			selfTrade = true
			break
		}

		fillQty := remaining
		if head.Quantity < fillQty {
			fillQty = head.Quantity
		}

		now := e.clock()
		trade := Trade{
			Symbol:            symbol,
			Price:             head.Price, // price improvement: passive's price, not the aggressor's limit
			Quantity:          fillQty,
			AggressorOrderID:  id,
			PassiveOrderID:    head.ID,
			AggressorTraderID: traderID,
			PassiveTraderID:   head.TraderID,
			AggressorSide:     side,
			Timestamp:         now,
		}

		if _, err := ob.ExecuteOrder(head.ID, fillQty); err != nil {
			break
		}
		remaining -= fillQty
		trades = append(trades, trade)
		if e.onTrade != nil {
			e.onTrade(trade)
		}
	}

	result := AddOrderResult{
		FilledQuantity:     qty - remaining,
		SelfTradeCancelled: selfTrade,
		Trades:             trades,
	}

	if selfTrade || remaining == 0 {
		return result, nil
	}

	if err := ob.AddOrder(id, traderID, side, price, remaining); err != nil {
		return result, err
	}
	result.RestingQuantity = remaining
	return result, nil
}

// CancelOrder cancels a resting order on a symbol's book.
func (e *Engine) CancelOrder(symbol uint32, id uint64) bool {
	ob, ok := e.books[symbol]
	if !ok {
		return false
	}
	return ob.CancelOrder(id)
}
