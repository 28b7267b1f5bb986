package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tradesWithPnL(pnls ...float64) []Trade {
	trades := make([]Trade, len(pnls))
	for i, pnl := range pnls {
		trades[i] = Trade{PnL: pnl}
	}
	return trades
}

func dailyWithEquity(equities ...float64) []DailyMTM {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	daily := make([]DailyMTM, len(equities))
	for i, eq := range equities {
		daily[i] = DailyMTM{Date: start.AddDate(0, 0, i), Equity: eq}
	}
	return daily
}

// TestComputeMetrics_TradeStatistics tests the ledger-derived counters
func TestComputeMetrics_TradeStatistics(t *testing.T) {
	trades := tradesWithPnL(500, -200, 300)
	m := ComputeMetrics(trades, nil, 100000, 365)

	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.Equal(t, 0, m.BreakevenTrades)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-9)
	assert.InDelta(t, 400, m.AvgWin, 1e-9)
	assert.InDelta(t, -200, m.AvgLoss, 1e-9)
	assert.InDelta(t, 800.0/200.0, m.ProfitFactor, 1e-9)
}

// TestComputeMetrics_BreakevenTrades tests that zero-P&L trades are
// counted separately and never dilute win/loss averages
func TestComputeMetrics_BreakevenTrades(t *testing.T) {
	m := ComputeMetrics(tradesWithPnL(100, 0, 0, -100), nil, 100000, 365)

	assert.Equal(t, 2, m.BreakevenTrades)
	assert.InDelta(t, 0.25, m.WinRate, 1e-9)
	assert.InDelta(t, 100, m.AvgWin, 1e-9)
	assert.InDelta(t, -100, m.AvgLoss, 1e-9)
}

// TestComputeMetrics_EmptyInputs tests the no-trades, no-days run
func TestComputeMetrics_EmptyInputs(t *testing.T) {
	m := ComputeMetrics(nil, nil, 100000, 365)

	assert.Equal(t, 0, m.TotalTrades)
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, 0.0, m.ProfitFactor)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.SortinoRatio)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.TotalReturn)
}

// TestComputeMetrics_DrawdownFromDailySeries tests peak-to-trough
// drawdown over the equity curve
func TestComputeMetrics_DrawdownFromDailySeries(t *testing.T) {
	// Peak 120000, trough 90000 after the peak: drawdown 25%
	daily := dailyWithEquity(100000, 120000, 90000, 110000)
	m := ComputeMetrics(nil, daily, 100000, 365)

	assert.InDelta(t, 0.25, m.MaxDrawdown, 1e-9)
	assert.GreaterOrEqual(t, m.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, m.MaxDrawdown, 1.0)
}

// TestComputeMetrics_DrawdownCappedAtFullLoss tests that a day with
// negative equity reports a 100% drawdown, never more
func TestComputeMetrics_DrawdownCappedAtFullLoss(t *testing.T) {
	// An underwater short can take equity below zero before the exit
	daily := dailyWithEquity(100000, -50000)
	m := ComputeMetrics(nil, daily, 100000, 365)

	assert.Equal(t, 1.0, m.MaxDrawdown)
}

// TestComputeMetrics_MonotonicCurveHasZeroDrawdown tests the lower bound
func TestComputeMetrics_MonotonicCurveHasZeroDrawdown(t *testing.T) {
	daily := dailyWithEquity(100000, 101000, 102000, 105000)
	m := ComputeMetrics(nil, daily, 100000, 365)
	assert.Equal(t, 0.0, m.MaxDrawdown)
}

// TestComputeMetrics_ZeroVolatilityRatios tests that a flat equity curve
// reports zero ratios instead of dividing by zero
func TestComputeMetrics_ZeroVolatilityRatios(t *testing.T) {
	daily := dailyWithEquity(100000, 100000, 100000, 100000)
	m := ComputeMetrics(nil, daily, 100000, 365)

	assert.Equal(t, 0.0, m.DailyVolatility)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.SortinoRatio)
}

// TestComputeMetrics_NoLossesProfitFactor tests the gross-loss-free run:
// profit factor reports zero rather than infinity
func TestComputeMetrics_NoLossesProfitFactor(t *testing.T) {
	m := ComputeMetrics(tradesWithPnL(100, 200), nil, 100000, 365)
	assert.Equal(t, 0.0, m.ProfitFactor)
}

// TestComputeMetrics_TotalReturnFromInitialBalance tests that total
// return is anchored on the starting balance, not the first daily close
func TestComputeMetrics_TotalReturnFromInitialBalance(t *testing.T) {
	daily := dailyWithEquity(105000, 110000)
	m := ComputeMetrics(nil, daily, 100000, 365)
	assert.InDelta(t, 0.10, m.TotalReturn, 1e-9)
}

// TestComputeMetrics_SortinoUsesDownsideOnly tests that upside moves do
// not contribute to the Sortino denominator
func TestComputeMetrics_SortinoUsesDownsideOnly(t *testing.T) {
	// Large positive swings, one small negative day
	daily := dailyWithEquity(100000, 110000, 109000, 120000, 132000)
	m := ComputeMetrics(nil, daily, 100000, 365)

	assert.Greater(t, m.SortinoRatio, m.SharpeRatio)
}

// TestComputeMetrics_Deterministic tests that repeated runs over the
// same inputs agree bit for bit
func TestComputeMetrics_Deterministic(t *testing.T) {
	trades := tradesWithPnL(500, -200, 300, -50, 125)
	daily := dailyWithEquity(100000, 101000, 99500, 102500, 101800, 103000)

	first := ComputeMetrics(trades, daily, 100000, 365)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComputeMetrics(trades, daily, 100000, 365))
	}
}
