// Package halt implements the halt/flatten controller (spec §4.6): the
// single authority that can stop the trading engine from submitting new
// orders, cancel everything outstanding, and flatten every open
// position, reachable safely from any thread.
package halt

import (
	"sync/atomic"
)

// State is the controller's state machine.
type State uint32

const (
	Running State = iota
	Halting
	Halted
	Error
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halting:
		return "halting"
	case Halted:
		return "halted"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Position is one non-zero holding to flatten, reported by the
// positions callback.
type Position struct {
	Symbol   uint32
	Quantity int64 // signed: positive long, negative short
}

// PositionsFunc enumerates every currently non-zero position.
type PositionsFunc func() []Position

// CancelAllFunc cancels every open order. Returns false if any
// cancellation failed.
type CancelAllFunc func() bool

// FlattenFunc issues a market order that would flatten one position.
// Returns false if the send failed.
type FlattenFunc func(pos Position) bool

// AlertFunc notifies observers that a halt was triggered.
type AlertFunc func(reason, message string)

// Config wires the controller to the engine's cancel/position/flatten
// surfaces.
type Config struct {
	CancelAll     CancelAllFunc
	Positions     PositionsFunc
	Flatten       FlattenFunc
	Alert         AlertFunc
	MaxRetries    int
}

// Controller is the halt/flatten state machine (spec §4.6). can_trade()
// is a single atomic load so every entry point on the trading hot path
// can gate on it cheaply (spec §4.6, §5: "can_trade() is a single
// atomic load").
type Controller struct {
	cfg Config

	state   uint32 // atomic State
	reason  string
	message string
	retries int
}

// NewController constructs a controller in the Running state.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, state: uint32(Running)}
}

// CanTrade is the hot-path gate: a single atomic load (spec §4.6).
func (c *Controller) CanTrade() bool {
	return State(atomic.LoadUint32(&c.state)) == Running
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return State(atomic.LoadUint32(&c.state))
}

// Halt attempts a CAS Running→Halting; on success it alerts observers,
// cancels all open orders, flattens every non-zero position, and
// transitions to Halted if every send succeeded or Error otherwise
// (spec §4.6 "halt(reason, message)"). Safe to call from any thread
// (spec §5 "HaltManager callbacks may be invoked from any thread").
func (c *Controller) Halt(reason, message string) bool {
	if !atomic.CompareAndSwapUint32(&c.state, uint32(Running), uint32(Halting)) {
		return false
	}
	c.reason = reason
	c.message = message
	if c.cfg.Alert != nil {
		c.cfg.Alert(reason, message)
	}
	c.runFlattenSequence()
	return true
}

func (c *Controller) runFlattenSequence() {
	ok := true
	if c.cfg.CancelAll != nil {
		ok = c.cfg.CancelAll()
	}
	if ok && c.cfg.Positions != nil && c.cfg.Flatten != nil {
		for _, pos := range c.cfg.Positions() {
			if pos.Quantity == 0 {
				continue
			}
			if !c.cfg.Flatten(pos) {
				ok = false
			}
		}
	}

	if ok {
		atomic.StoreUint32(&c.state, uint32(Halted))
	} else {
		atomic.StoreUint32(&c.state, uint32(Error))
	}
}

// RetryFlatten re-attempts the flatten sequence from the Error state, up
// to Config.MaxRetries times (spec §4.6 "retry_flatten re-attempts up to
// a configured maximum").
func (c *Controller) RetryFlatten() bool {
	if c.State() != Error {
		return false
	}
	if c.retries >= c.cfg.MaxRetries {
		return false
	}
	c.retries++
	c.runFlattenSequence()
	return true
}

// Reset returns the controller to Running. Spec §4.6: "operator action
// only" — callers are expected to gate this behind an explicit operator
// command, not invoke it automatically.
func (c *Controller) Reset() {
	atomic.StoreUint32(&c.state, uint32(Running))
	c.retries = 0
	c.reason = ""
	c.message = ""
}

// Reason returns the reason and message passed to the most recent Halt
// call.
func (c *Controller) Reason() (reason, message string) {
	return c.reason, c.message
}
