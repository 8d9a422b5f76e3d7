// Package account tracks buying power against the capital the risk
// manager is configured with: an order intent reserves notional before
// it reaches the exchange, and the reservation is released or debited
// once the fill (or rejection/cancel) comes back.
package account

import (
	"errors"
	"sync"
)

// ErrInsufficientBuyingPower is returned when a reservation would
// exceed the account's available balance.
var ErrInsufficientBuyingPower = errors.New("account: insufficient buying power")

// ErrReservationNotFound is returned when releasing or settling a
// reservation id that was never made, or was already settled.
var ErrReservationNotFound = errors.New("account: reservation not found")

// Ledger is a single-account buying-power tracker. It is safe for
// concurrent use: reservations can be made from the trading thread
// while settlement arrives from an exchange's own IO thread (spec §5).
type Ledger struct {
	mu sync.Mutex

	balance          uint64
	availableBalance uint64
	marginUsed       uint64

	reservations map[uint64]uint64
}

// NewLedger constructs a Ledger with the full starting balance
// available.
func NewLedger(startingBalance uint64) *Ledger {
	return &Ledger{
		balance:          startingBalance,
		availableBalance: startingBalance,
		reservations:     make(map[uint64]uint64),
	}
}

// Balance returns the account's total balance.
func (l *Ledger) Balance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// AvailableBalance returns the balance not currently reserved against
// an outstanding order.
func (l *Ledger) AvailableBalance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.availableBalance
}

// MarginUsed returns the sum of all outstanding reservations.
func (l *Ledger) MarginUsed() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.marginUsed
}

// Reserve holds notional against an order intent before it is sent to
// the exchange. Returns ErrInsufficientBuyingPower if the reservation
// would exceed availableBalance.
func (l *Ledger) Reserve(orderID uint64, notional uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if notional > l.availableBalance {
		return ErrInsufficientBuyingPower
	}
	l.availableBalance -= notional
	l.marginUsed += notional
	l.reservations[orderID] = notional
	return nil
}

// Release returns a reservation to available balance without
// affecting the account's total balance, for a cancel or reject.
func (l *Ledger) Release(orderID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	notional, ok := l.reservations[orderID]
	if !ok {
		return ErrReservationNotFound
	}
	delete(l.reservations, orderID)
	l.availableBalance += notional
	l.marginUsed -= notional
	return nil
}

// Settle resolves a reservation against the order's actual fill cost
// (fill notional plus commission), debiting the full actual cost from the
// account's total balance. Any unused portion of the reservation returns
// to available balance; a cost above the reservation is taken from
// available balance, which stops at zero.
func (l *Ledger) Settle(orderID uint64, actualCost uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	reserved, ok := l.reservations[orderID]
	if !ok {
		return ErrReservationNotFound
	}
	delete(l.reservations, orderID)
	l.marginUsed -= reserved

	l.balance -= actualCost
	if actualCost <= reserved {
		l.availableBalance += reserved - actualCost
	} else {
		over := actualCost - reserved
		if over > l.availableBalance {
			l.availableBalance = 0
		} else {
			l.availableBalance -= over
		}
	}
	return nil
}
