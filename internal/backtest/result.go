package backtest

import (
	"fmt"
	"time"
)

// Trade is an immutable closed-trade record, created the instant an
// exit fill completes and never mutated afterwards. The ordered
// sequence of trades is the ledger the metrics calculator consumes.
type Trade struct {
	Symbol     string       `json:"symbol"`
	Side       PositionSide `json:"-"`
	SideLabel  string       `json:"side"`
	Quantity   float64      `json:"quantity"`
	EntryPrice float64      `json:"entry_price"`
	EntryTime  time.Time    `json:"entry_time"`
	ExitPrice  float64      `json:"exit_price"`
	ExitTime   time.Time    `json:"exit_time"`
	PnL        float64      `json:"pnl"`
	PnLPercent float64      `json:"pnl_percent"`
	Commission float64      `json:"commission"`
	Slippage   float64      `json:"slippage"`
}

// DailyMTM is one end-of-day mark-to-market record. The series is
// append-only, one entry per calendar day boundary crossed during the
// run plus one at the final candle.
type DailyMTM struct {
	Date           time.Time `json:"date"`
	Equity         float64   `json:"equity"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	UnrealizedPnL  float64   `json:"unrealized_pnl"`
	RealizedPnL    float64   `json:"realized_pnl"`
	RealizedDelta  float64   `json:"realized_delta"`
}

// Metrics are the summary statistics derived from the trade ledger and
// the daily equity series. Every field is finite; ratios degrade to 0
// rather than NaN or Inf.
type Metrics struct {
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	BreakevenTrades int     `json:"breakeven_trades"`
	WinRate         float64 `json:"win_rate"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	ProfitFactor    float64 `json:"profit_factor"`
	TotalReturn     float64 `json:"total_return"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	DailyVolatility float64 `json:"daily_volatility"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	SortinoRatio    float64 `json:"sortino_ratio"`
}

// BacktestResults is the complete output of one run. A run either
// publishes a full result with every numeric field finite, or fails
// with a classified error and publishes nothing.
type BacktestResults struct {
	Symbol       string          `json:"symbol"`
	Interval     string          `json:"interval"`
	StartBalance float64         `json:"start_balance"`
	EndBalance   float64         `json:"end_balance"`
	Trades       []Trade         `json:"trades"`
	Daily        []DailyMTM      `json:"daily"`
	Metrics      Metrics         `json:"metrics"`
	Warnings     []SizingWarning `json:"warnings,omitempty"`
}

// validateFinite guards the engine's output contract: callers may
// assume finiteness without re-validating.
func (r *BacktestResults) validateFinite() error {
	checks := map[string]float64{
		"start_balance":    r.StartBalance,
		"end_balance":      r.EndBalance,
		"total_return":     r.Metrics.TotalReturn,
		"max_drawdown":     r.Metrics.MaxDrawdown,
		"daily_volatility": r.Metrics.DailyVolatility,
		"sharpe_ratio":     r.Metrics.SharpeRatio,
		"sortino_ratio":    r.Metrics.SortinoRatio,
		"win_rate":         r.Metrics.WinRate,
		"avg_win":          r.Metrics.AvgWin,
		"avg_loss":         r.Metrics.AvgLoss,
		"profit_factor":    r.Metrics.ProfitFactor,
	}
	for name, v := range checks {
		if !isFinite(v) {
			return &InvariantError{
				Op:     "BacktestResults",
				Detail: fmt.Sprintf("non-finite %s crossed the result boundary", name),
			}
		}
	}
	for i := range r.Trades {
		t := &r.Trades[i]
		if !isFinite(t.PnL) || !isFinite(t.Commission) || !isFinite(t.Slippage) {
			return &InvariantError{
				Op:     "BacktestResults",
				Detail: fmt.Sprintf("non-finite value in trade %d", i),
			}
		}
	}
	for i := range r.Daily {
		d := &r.Daily[i]
		if !isFinite(d.Equity) || !isFinite(d.Cash) || !isFinite(d.UnrealizedPnL) {
			return &InvariantError{
				Op:     "BacktestResults",
				Detail: fmt.Sprintf("non-finite value in daily record %d", i),
			}
		}
	}
	return nil
}
