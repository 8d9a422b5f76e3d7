package strategy

import (
	"testing"

	"github.com/abdoElHodaky/tradSys/internal/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotAt(bidPrice, askPrice uint32) *book.TopOfBook {
	snap := &book.TopOfBook{}
	snap.Bids[0] = book.PriceLevelView{Price: bidPrice, Quantity: 10, Orders: 1}
	snap.BidCount = 1
	snap.Asks[0] = book.PriceLevelView{Price: askPrice, Quantity: 10, Orders: 1}
	snap.AskCount = 1
	return snap
}

func warmUp(s *ThresholdStrategy, n int, bid, ask uint32) {
	for i := 0; i < n; i++ {
		s.OnTick(snapshotAt(bid, ask))
	}
}

func TestThresholdStrategyNotReadyBeforeWarmup(t *testing.T) {
	s := NewThresholdStrategy(ThresholdConfig{WarmupTicks: 3})
	snap := snapshotAt(10000, 10002)
	s.OnTick(snap)
	assert.False(t, s.Ready())
	sig := s.Generate(snap, Position{}, RegimeUnknown)
	assert.Equal(t, ActionNone, sig.Action)
}

func TestThresholdStrategySignalsBuyOnUpwardMove(t *testing.T) {
	s := NewThresholdStrategy(ThresholdConfig{EntryMoveTicks: 50, ExitMoveTicks: 20, WarmupTicks: 2})
	warmUp(s, 2, 10000, 10002)
	require.True(t, s.Ready())

	sig := s.Generate(snapshotAt(10060, 10062), Position{}, RegimeTrending)
	assert.Equal(t, ActionBuy, sig.Action)
	assert.Equal(t, StrengthMedium, sig.Strength)
}

func TestThresholdStrategySignalsSellOnDownwardMove(t *testing.T) {
	s := NewThresholdStrategy(ThresholdConfig{EntryMoveTicks: 50, ExitMoveTicks: 20, WarmupTicks: 2})
	warmUp(s, 2, 10000, 10002)

	sig := s.Generate(snapshotAt(9940, 9942), Position{}, RegimeTrending)
	assert.Equal(t, ActionSell, sig.Action)
}

func TestThresholdStrategyExitsOnGiveback(t *testing.T) {
	s := NewThresholdStrategy(ThresholdConfig{EntryMoveTicks: 50, ExitMoveTicks: 20, WarmupTicks: 2})
	warmUp(s, 2, 10000, 10002)

	entry := s.Generate(snapshotAt(10060, 10062), Position{}, RegimeTrending)
	require.Equal(t, ActionBuy, entry.Action)

	s.OnTick(snapshotAt(10100, 10102))

	exit := s.Generate(snapshotAt(10078, 10080), Position{Quantity: 1}, RegimeTrending)
	assert.Equal(t, ActionExit, exit.Action)
}

func TestThresholdStrategyUnsuitableForVolatileRegime(t *testing.T) {
	s := NewThresholdStrategy(ThresholdConfig{WarmupTicks: 1})
	warmUp(s, 1, 10000, 10002)
	assert.False(t, s.SuitableForRegime(RegimeVolatile))
	sig := s.Generate(snapshotAt(10100, 10102), Position{}, RegimeVolatile)
	assert.Equal(t, ActionNone, sig.Action)
}

func TestThresholdStrategyResetClearsState(t *testing.T) {
	s := NewThresholdStrategy(ThresholdConfig{WarmupTicks: 1})
	warmUp(s, 1, 10000, 10002)
	require.True(t, s.Ready())
	s.Reset()
	assert.False(t, s.Ready())
}
