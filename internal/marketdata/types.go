// Package marketdata implements the feed decoders and the book
// reconstruction pipeline: binary order-level messages, JSON depth/trade
// messages, and the handler that replays both into per-symbol
// book.OrderBook instances plus a TopOfBook projection (spec §4.2).
package marketdata

import (
	"errors"

	"github.com/abdoElHodaky/tradSys/internal/book"
)

// ErrMalformedMessage is returned (never panicked) when a decoder
// encounters a message whose length doesn't match its type tag — spec
// §4.2 "out-of-range message lengths are rejected silently" at the
// protocol layer; callers count rejects via a telemetry counter (spec §7
// "Protocol / parse errors").
var ErrMalformedMessage = errors.New("marketdata: malformed message")

// EventSink receives canonical market events decoded from either wire
// dialect (spec §4.2: "The decoder is a template/trait parameterized over
// a callback interface"). A concrete sink decides which events it cares
// about; Handler is the reconstruction sink used by this package.
type EventSink interface {
	OnOrderAdd(orderID uint64, symbol uint32, side book.Side, price, qty uint32, ts int64)
	OnOrderExecute(orderID uint64, execQty uint32, ts int64)
	OnOrderReduce(orderID uint64, reduceBy uint32, ts int64)
	OnOrderDelete(orderID uint64, ts int64)
	OnOrderReplace(oldOrderID, newOrderID uint64, qty, price uint32, ts int64)
	OnTrade(symbol uint32, price, qty uint32, ts int64)
	OnQuote(symbol uint32, bidPrice, askPrice uint32, ts int64)
	OnBookLevel(symbol uint32, side book.Side, price, aggregateQty uint32, ts int64)
}

// SymbolResolver maps a venue's wire symbol representation to this
// system's dense uint32 SymbolID (spec §3: "Symbol IDs are 32-bit
// unsigned, dense from 0").
type SymbolResolver interface {
	Resolve(raw []byte) (uint32, bool)
}

// SymbolTable is a simple map-backed SymbolResolver populated at startup
// (symbol registration never happens on the hot path).
type SymbolTable struct {
	byName map[string]uint32
}

// NewSymbolTable builds a resolver from a name list; index in the slice
// is the assigned SymbolID.
func NewSymbolTable(names []string) *SymbolTable {
	t := &SymbolTable{byName: make(map[string]uint32, len(names))}
	for i, n := range names {
		t.byName[n] = uint32(i)
	}
	return t
}

func (t *SymbolTable) Resolve(raw []byte) (uint32, bool) {
	id, ok := t.byName[trimNulls(raw)]
	return id, ok
}

func trimNulls(raw []byte) string {
	n := len(raw)
	for n > 0 && (raw[n-1] == 0 || raw[n-1] == ' ') {
		n--
	}
	return string(raw[:n])
}
