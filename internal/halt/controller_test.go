package halt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaltFlattensAndTransitionsToHalted(t *testing.T) {
	var cancelled, flattened []uint32
	cfg := Config{
		CancelAll: func() bool { cancelled = append(cancelled, 1); return true },
		Positions: func() []Position {
			return []Position{{Symbol: 1, Quantity: 100}, {Symbol: 2, Quantity: -50}, {Symbol: 3, Quantity: 0}}
		},
		Flatten: func(pos Position) bool { flattened = append(flattened, pos.Symbol); return true },
		MaxRetries: 3,
	}
	c := NewController(cfg)

	ok := c.Halt("disconnect", "venue connection lost")
	assert.True(t, ok)
	assert.Equal(t, Halted, c.State())
	assert.False(t, c.CanTrade())
	assert.Len(t, cancelled, 1)
	assert.Equal(t, []uint32{1, 2}, flattened)

	reason, msg := c.Reason()
	assert.Equal(t, "disconnect", reason)
	assert.Equal(t, "venue connection lost", msg)
}

func TestHaltIsIdempotentUnderRepeatedCalls(t *testing.T) {
	calls := 0
	cfg := Config{
		CancelAll: func() bool { calls++; return true },
		MaxRetries: 1,
	}
	c := NewController(cfg)

	first := c.Halt("a", "")
	second := c.Halt("b", "")

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, 1, calls)
}

func TestHaltTransitionsToErrorOnFailedFlatten(t *testing.T) {
	cfg := Config{
		CancelAll: func() bool { return true },
		Positions: func() []Position { return []Position{{Symbol: 1, Quantity: 10}} },
		Flatten:   func(pos Position) bool { return false },
		MaxRetries: 2,
	}
	c := NewController(cfg)
	c.Halt("risk", "drawdown breached")
	assert.Equal(t, Error, c.State())
}

func TestRetryFlattenRecoversToHalted(t *testing.T) {
	attempt := 0
	cfg := Config{
		CancelAll: func() bool { return true },
		Positions: func() []Position { return []Position{{Symbol: 1, Quantity: 10}} },
		Flatten: func(pos Position) bool {
			attempt++
			return attempt > 1
		},
		MaxRetries: 2,
	}
	c := NewController(cfg)
	c.Halt("risk", "")
	require.Equal(t, Error, c.State())

	ok := c.RetryFlatten()
	assert.True(t, ok)
	assert.Equal(t, Halted, c.State())
}

func TestRetryFlattenRespectsMaxRetries(t *testing.T) {
	cfg := Config{
		CancelAll:  func() bool { return true },
		Positions:  func() []Position { return []Position{{Symbol: 1, Quantity: 10}} },
		Flatten:    func(pos Position) bool { return false },
		MaxRetries: 1,
	}
	c := NewController(cfg)
	c.Halt("risk", "")
	require.Equal(t, Error, c.State())

	assert.True(t, c.RetryFlatten())
	assert.Equal(t, Error, c.State())
	assert.False(t, c.RetryFlatten())
}

func TestResetReturnsToRunning(t *testing.T) {
	cfg := Config{CancelAll: func() bool { return true }, MaxRetries: 1}
	c := NewController(cfg)
	c.Halt("op", "manual")
	c.Reset()
	assert.Equal(t, Running, c.State())
	assert.True(t, c.CanTrade())
}
