package execution

import "github.com/abdoElHodaky/tradSys/internal/risk"

// pnlState tracks one symbol's signed position and running average
// entry cost, the same average-cost bookkeeping a position inventory
// keeps per instrument, generalized to a signed (long or short)
// position instead of separate long/short legs.
type pnlState struct {
	qty     int64 // signed, whole units
	avgCost int64 // same price scale as Settle's fillPrice
}

// pnlTracker accumulates realized P&L per symbol and in aggregate —
// the cumulative figure execution.Engine.Settle feeds to
// risk.Manager.UpdatePnL after every fill so the mandatory post-fill
// daily-loss and drawdown halt checks (spec §4.4 "update_pnl") see a
// real number instead of never firing.
type pnlTracker struct {
	states   map[risk.SymbolIndex]*pnlState
	realized int64
}

func newPnLTracker() *pnlTracker {
	return &pnlTracker{states: make(map[risk.SymbolIndex]*pnlState)}
}

// onFill applies a signed-quantity fill at fillPrice to the symbol's
// average cost, realizing P&L on whatever portion of the existing
// position the fill closes, and returns the new cumulative realized
// P&L across all symbols net of commission.
func (t *pnlTracker) onFill(idx risk.SymbolIndex, signedQty int64, fillPrice uint32, commission uint64) int64 {
	st, ok := t.states[idx]
	if !ok {
		st = &pnlState{}
		t.states[idx] = st
	}

	price := int64(fillPrice)

	if st.qty == 0 || sameSign(st.qty, signedQty) {
		// Opening or adding to a position: roll the average cost
		// forward over the combined size.
		totalCost := st.avgCost*abs64(st.qty) + price*abs64(signedQty)
		st.qty += signedQty
		if st.qty != 0 {
			st.avgCost = totalCost / abs64(st.qty)
		} else {
			st.avgCost = 0
		}
	} else {
		// Reducing, fully closing, or flipping through zero: realize
		// P&L on the portion that closes the existing position at its
		// average cost.
		closing := abs64(signedQty)
		var opening int64
		if closing > abs64(st.qty) {
			opening = closing - abs64(st.qty)
			closing = abs64(st.qty)
		}
		if st.qty > 0 {
			t.realized += (price - st.avgCost) * closing
		} else {
			t.realized += (st.avgCost - price) * closing
		}
		st.qty += signedQty
		switch {
		case opening > 0:
			st.avgCost = price
		case st.qty == 0:
			st.avgCost = 0
		}
	}

	t.realized -= int64(commission)
	return t.realized
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
