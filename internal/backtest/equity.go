package backtest

import (
	"fmt"
	"math"
	"time"
)

// equityEpsilon bounds float drift in the exit reclassification check.
const equityEpsilon = 1e-6

// EquityTracker maintains cash, realized P&L, and end-of-day
// mark-to-market snapshots for one run. Unrealized P&L is derived in
// MarkToMarket and nowhere else, so realized value can never be counted
// a second time after a position closes.
type EquityTracker struct {
	cash     float64
	realized float64

	// position is read from the manager, never mutated here.
	position *Position

	lastMark   float64 // last price passed to MarkToMarket
	lastEquity float64 // equity at last mark

	trades       []Trade
	daily        []DailyMTM
	lastRealized float64 // realized P&L at the previous daily snapshot
}

// NewEquityTracker starts a run with the given initial capital.
func NewEquityTracker(initialBalance float64) *EquityTracker {
	return &EquityTracker{
		cash:       initialBalance,
		lastEquity: initialBalance,
		trades:     make([]Trade, 0),
		daily:      make([]DailyMTM, 0),
	}
}

// OnEntry applies an entry fill: cash moves by the executed notional
// plus commission, the position is recorded, and realized P&L is left
// untouched. Long entries debit cash, short entries credit the sale
// proceeds.
func (et *EquityTracker) OnEntry(pos *Position, fill Fill) error {
	if et.position != nil {
		return &InvariantError{
			Op:     "EquityTracker.OnEntry",
			Detail: "entry fill while a position is already tracked",
		}
	}
	if pos == nil {
		return &InvariantError{Op: "EquityTracker.OnEntry", Detail: "nil position"}
	}

	if pos.Side == Long {
		et.cash -= fill.Notional + fill.Commission
	} else {
		et.cash += fill.Notional - fill.Commission
	}
	if !isFinite(et.cash) {
		return &InvariantError{Op: "EquityTracker.OnEntry", Detail: "cash became non-finite"}
	}
	et.position = pos
	return nil
}

// OnExit applies an exit fill: cash moves by the proceeds net of
// commission, realized P&L is accumulated exactly once, the position is
// cleared, and a completed Trade is appended to the ledger.
//
// Closing a position only reclassifies value from unrealized to
// realized; with zero costs and an exit at the last marked price, total
// equity is unchanged. That property is enforced here at runtime.
func (et *EquityTracker) OnExit(fill Fill, exitTime time.Time, entrySlippage, entryCommission float64) (Trade, error) {
	pos := et.position
	if pos == nil {
		return Trade{}, &InvariantError{
			Op:     "EquityTracker.OnExit",
			Detail: "exit fill with no tracked open position",
		}
	}

	equityBefore := et.cash + pos.MarketValue(fill.Price)

	if pos.Side == Long {
		et.cash += fill.Notional - fill.Commission
	} else {
		et.cash -= fill.Notional + fill.Commission
	}

	realized := (fill.Price - pos.EntryPrice) * pos.Quantity * pos.Side.Sign()
	et.realized += realized
	et.position = nil

	if delta := math.Abs(et.cash - (equityBefore - fill.Commission)); delta > equityEpsilon*math.Max(1, math.Abs(equityBefore)) {
		return Trade{}, &InvariantError{
			Op:     "EquityTracker.OnExit",
			Detail: fmt.Sprintf("closing changed equity by %v beyond commission", delta),
		}
	}

	entryNotional := pos.EntryPrice * pos.Quantity
	pnlPercent := 0.0
	if entryNotional > 0 {
		pnlPercent = realized / entryNotional * 100
	}

	trade := Trade{
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		SideLabel:  pos.Side.String(),
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		EntryTime:  pos.EntryTime,
		ExitPrice:  fill.Price,
		ExitTime:   exitTime,
		PnL:        realized,
		PnLPercent: pnlPercent,
		Commission: entryCommission + fill.Commission,
		Slippage:   entrySlippage + fill.Slippage,
	}
	if !isFinite(trade.PnL) {
		return Trade{}, &InvariantError{Op: "EquityTracker.OnExit", Detail: "realized pnl is non-finite"}
	}
	et.trades = append(et.trades, trade)
	return trade, nil
}

// MarkToMarket recomputes unrealized P&L and total equity at the given
// price. It never mutates cash or realized P&L. This is the only place
// unrealized P&L is computed; it is never additionally summed from the
// trade ledger.
func (et *EquityTracker) MarkToMarket(price float64) float64 {
	et.lastMark = price
	et.lastEquity = et.cash
	if et.position != nil {
		et.lastEquity += et.position.MarketValue(price)
	}
	return et.lastEquity
}

// SnapshotEndOfDay appends one DailyMTM record from the latest
// mark-to-market state. The engine calls it once per calendar-date
// transition and once at the final candle.
func (et *EquityTracker) SnapshotEndOfDay(date time.Time) {
	posValue := 0.0
	unrealized := 0.0
	if et.position != nil {
		posValue = et.position.MarketValue(et.lastMark)
		unrealized = et.position.UnrealizedPnL(et.lastMark)
	}
	et.daily = append(et.daily, DailyMTM{
		Date:           date,
		Equity:         et.lastEquity,
		Cash:           et.cash,
		PositionsValue: posValue,
		UnrealizedPnL:  unrealized,
		RealizedPnL:    et.realized,
		RealizedDelta:  et.realized - et.lastRealized,
	})
	et.lastRealized = et.realized
}

// Cash returns the current cash balance.
func (et *EquityTracker) Cash() float64 { return et.cash }

// RealizedPnL returns the accumulated realized profit and loss.
func (et *EquityTracker) RealizedPnL() float64 { return et.realized }

// UnrealizedPnL returns the open P&L at the last marked price.
func (et *EquityTracker) UnrealizedPnL() float64 {
	if et.position == nil {
		return 0
	}
	return et.position.UnrealizedPnL(et.lastMark)
}

// TotalEquity returns cash plus open-position market value at the last
// marked price.
func (et *EquityTracker) TotalEquity() float64 { return et.lastEquity }

// Trades returns the closed-trade ledger in completion order.
func (et *EquityTracker) Trades() []Trade { return et.trades }

// Daily returns the end-of-day mark-to-market series.
func (et *EquityTracker) Daily() []DailyMTM { return et.daily }
