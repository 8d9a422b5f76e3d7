package book

import "errors"

// Hot-path errors are sentinel values, never exceptions: the trading thread
// cannot unwind (spec §9, "exception-free error returns").
var (
	ErrInvalidOrderID   = errors.New("book: invalid order id")
	ErrInvalidPrice     = errors.New("book: price out of range")
	ErrInvalidQuantity  = errors.New("book: invalid quantity")
	ErrDuplicateOrderID = errors.New("book: duplicate order id")
	ErrOrderPoolExhausted = errors.New("book: order pool exhausted")
	ErrLevelPoolExhausted = errors.New("book: price level pool exhausted")
	ErrOrderNotFound    = errors.New("book: order not found")
)
