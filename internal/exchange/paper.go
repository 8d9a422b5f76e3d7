package exchange

import (
	"github.com/abdoElHodaky/tradSys/internal/paperexchange"
)

// SymbolNamer resolves a symbol index to its display name for the
// FillCallback signature spec §6 specifies in terms of symbol_name
// rather than the dense index the rest of the hot path uses.
type SymbolNamer func(symbol uint32) string

// PaperExchange adapts paperexchange.Simulator to the Exchange
// interface and translates its ExecutionReport callback into the
// fill/slippage callback pair spec §6 describes.
type PaperExchange struct {
	sim    *paperexchange.Simulator
	namer  SymbolNamer
	onFill FillCallback
	onSlip SlippageCallback
}

// NewPaperExchange constructs a PaperExchange over a freshly built
// paperexchange.Simulator, wiring the simulator's report callback to
// split fills and slippage into the two exchange-level callbacks.
func NewPaperExchange(cfg paperexchange.Config, namer SymbolNamer) *PaperExchange {
	pe := &PaperExchange{namer: namer}
	pe.sim = paperexchange.NewSimulator(cfg, pe.handleReport)
	return pe
}

func (pe *PaperExchange) handleReport(report paperexchange.ExecutionReport) {
	if report.Status == paperexchange.StatusFilled {
		if pe.onFill != nil {
			name := ""
			if pe.namer != nil {
				name = pe.namer(report.Symbol)
			}
			pe.onFill(report.OrderID, name, report.Side, report.Quantity, report.FillPrice, uint64(report.Commission))
		}
		if report.SlippagePaid != 0 && pe.onSlip != nil {
			pe.onSlip(report.OrderID, report.SlippagePaid)
		}
	}
}

func (pe *PaperExchange) SubmitMarketOrder(symbol uint32, side paperexchange.Side, qty float64, referenceQuote uint32) (uint64, error) {
	report := pe.sim.PlaceMarketOrder(symbol, side, qty, referenceQuote)
	return report.OrderID, nil
}

func (pe *PaperExchange) SubmitLimitOrder(symbol uint32, side paperexchange.Side, limitPrice uint32, qty float64) (uint64, error) {
	report := pe.sim.PlaceLimitOrder(symbol, side, limitPrice, qty)
	if report.Status == paperexchange.StatusRejected {
		return 0, paperexchange.ErrPendingTableFull
	}
	return report.OrderID, nil
}

func (pe *PaperExchange) CancelOrder(orderID uint64) error {
	_, err := pe.sim.CancelOrder(orderID)
	return err
}

// OnPriceUpdate forwards a price tick to the underlying simulator so
// resting limit orders can fill (spec §4.3 "on_price_update").
func (pe *PaperExchange) OnPriceUpdate(symbol uint32, bid, ask uint32, ts int64) {
	pe.sim.OnPriceUpdate(symbol, bid, ask, ts)
}

func (pe *PaperExchange) SetFillCallback(fn FillCallback)         { pe.onFill = fn }
func (pe *PaperExchange) SetSlippageCallback(fn SlippageCallback) { pe.onSlip = fn }

// Connected is always true for the paper exchange: there is no venue
// connection to lose.
func (pe *PaperExchange) Connected() bool { return true }

// Simulator exposes the underlying simulator for callers (execution
// engine) that need TotalSlippage/PendingCount or the queue-position
// model, which are outside the Exchange interface's scope.
func (pe *PaperExchange) Simulator() *paperexchange.Simulator { return pe.sim }
