package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/backtest-engine/internal/strategy"
	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

// scriptedStrategy replays a fixed sequence of signals, one per candle.
// It makes engine runs fully deterministic in tests.
type scriptedStrategy struct {
	script   []strategy.SignalAction
	stopLoss float64
	calls    int
}

func (s *scriptedStrategy) Evaluate(data []types.OHLCV) (*strategy.Signal, error) {
	action := strategy.SignalHold
	if s.calls < len(s.script) {
		action = s.script[s.calls]
	}
	s.calls++
	return &strategy.Signal{Action: action, StopLoss: s.stopLoss}, nil
}

func (s *scriptedStrategy) GetName() string { return "Scripted" }

func (s *scriptedStrategy) ResetForNewPeriod() { s.calls = 0 }

type erroringStrategy struct{}

func (erroringStrategy) Evaluate(data []types.OHLCV) (*strategy.Signal, error) {
	return nil, errors.New("indicator not ready")
}
func (erroringStrategy) GetName() string { return "Erroring" }

func (erroringStrategy) ResetForNewPeriod() {}

// hourlyCandles builds a clean ascending series with one candle per
// hour at the given closes.
func hourlyCandles(start time.Time, closes ...float64) []types.OHLCV {
	candles := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		candles[i] = types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    10000,
		}
	}
	return candles
}

func engineTestConfig() *BacktestConfig {
	cfg := testConfig()
	cfg.WindowSize = 0
	return cfg
}

// TestEngine_RoundTrip tests one full long trade through the whole
// pipeline: signal, sizing, fill, ledger, daily snapshot, metrics
func TestEngine_RoundTrip(t *testing.T) {
	strat := &scriptedStrategy{
		script:   []strategy.SignalAction{strategy.SignalEnterLong, strategy.SignalHold, strategy.SignalExitLong, strategy.SignalHold},
		stopLoss: 95,
	}
	engine, err := NewEngine(engineTestConfig(), strat)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	results, err := engine.Run(hourlyCandles(start, 100, 105, 110, 110))
	require.NoError(t, err)

	// Stop 5 below entry: qty = 100000 * 0.01 / 5 = 200
	require.Len(t, results.Trades, 1)
	trade := results.Trades[0]
	assert.Equal(t, Long, trade.Side)
	assert.InDelta(t, 200, trade.Quantity, 1e-9)
	assert.InDelta(t, 100, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 110, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 2000, trade.PnL, 1e-9)

	assert.InDelta(t, 102000, results.EndBalance, 1e-9)
	assert.Equal(t, 1, results.Metrics.TotalTrades)
	assert.InDelta(t, 0.02, results.Metrics.TotalReturn, 1e-9)

	// All candles fall on one calendar day
	require.Len(t, results.Daily, 1)
	assert.InDelta(t, 102000, results.Daily[0].Equity, 1e-9)
	assert.Empty(t, results.Warnings)
}

// TestEngine_OppositeSignalClosesOnly tests that an opposite-direction
// entry while a position is open closes it and does not flip on the
// same candle
func TestEngine_OppositeSignalClosesOnly(t *testing.T) {
	strat := &scriptedStrategy{
		script:   []strategy.SignalAction{strategy.SignalEnterLong, strategy.SignalEnterShort, strategy.SignalHold},
		stopLoss: 95,
	}
	engine, err := NewEngine(engineTestConfig(), strat)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	results, err := engine.Run(hourlyCandles(start, 100, 102, 102))
	require.NoError(t, err)

	// One closed long, no short opened afterwards
	require.Len(t, results.Trades, 1)
	assert.Equal(t, Long, results.Trades[0].Side)
	assert.InDelta(t, 100400, results.EndBalance, 1e-9)
}

// TestEngine_DailySnapshots tests the day-boundary rule: each day is
// snapshotted at its last candle's close
func TestEngine_DailySnapshots(t *testing.T) {
	strat := &scriptedStrategy{script: nil}
	engine, err := NewEngine(engineTestConfig(), strat)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	// Hourly candles from 22:00 spanning three calendar days
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	results, err := engine.Run(hourlyCandles(start, closes...))
	require.NoError(t, err)

	require.Len(t, results.Daily, 3)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), results.Daily[0].Date)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), results.Daily[1].Date)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), results.Daily[2].Date)
}

// TestEngine_WarmupDaysSnapshotted tests that calendar days crossed
// before the first tradable candle still produce daily records
func TestEngine_WarmupDaysSnapshotted(t *testing.T) {
	cfg := testConfig()
	cfg.WindowSize = 100
	engine, err := NewEngine(cfg, &scriptedStrategy{script: []strategy.SignalAction{strategy.SignalEnterLong}})
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	results, err := engine.Run(hourlyCandles(start, closes...))
	require.NoError(t, err)

	// The whole series sits inside the warmup window: no trades, but the
	// three calendar days it spans are all in the daily series, flat at
	// the initial balance
	assert.Empty(t, results.Trades)
	require.Len(t, results.Daily, 3)
	for _, day := range results.Daily {
		assert.InDelta(t, 100000, day.Equity, 1e-9)
	}
}

// TestEngine_DuplicateTimestamps tests the input data contract
func TestEngine_DuplicateTimestamps(t *testing.T) {
	engine, err := NewEngine(engineTestConfig(), &scriptedStrategy{})
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data := hourlyCandles(start, 100, 101, 102)
	data[2].Timestamp = data[1].Timestamp

	_, err = engine.Run(data)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

// TestEngine_InvalidConfig tests fail-fast construction
func TestEngine_InvalidConfig(t *testing.T) {
	_, err := NewEngine(nil, &scriptedStrategy{})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = NewEngine(engineTestConfig(), nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	cfg := engineTestConfig()
	cfg.InitialBalance = -100
	_, err = NewEngine(cfg, &scriptedStrategy{})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

// TestEngine_StrategyErrorDegradesToHold tests that a per-candle
// strategy failure never aborts the run
func TestEngine_StrategyErrorDegradesToHold(t *testing.T) {
	engine, err := NewEngine(engineTestConfig(), erroringStrategy{})
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	results, err := engine.Run(hourlyCandles(start, 100, 101, 102))
	require.NoError(t, err)

	assert.Empty(t, results.Trades)
	assert.InDelta(t, 100000, results.EndBalance, 1e-9)
}

// TestEngine_EmptyData tests the degenerate run: no candles, flat result
func TestEngine_EmptyData(t *testing.T) {
	engine, err := NewEngine(engineTestConfig(), &scriptedStrategy{})
	require.NoError(t, err)

	results, err := engine.Run(nil)
	require.NoError(t, err)
	assert.Empty(t, results.Trades)
	assert.Empty(t, results.Daily)
	assert.InDelta(t, 100000, results.EndBalance, 1e-9)
}

// TestEngine_WindowLargerThanData tests that a warmup window longer
// than the series produces a flat result, not an index error
func TestEngine_WindowLargerThanData(t *testing.T) {
	cfg := testConfig()
	cfg.WindowSize = 100
	engine, err := NewEngine(cfg, &scriptedStrategy{script: []strategy.SignalAction{strategy.SignalEnterLong}})
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	results, err := engine.Run(hourlyCandles(start, 100, 101, 102))
	require.NoError(t, err)
	assert.Empty(t, results.Trades)
	assert.InDelta(t, 100000, results.EndBalance, 1e-9)
}

// TestEngine_Deterministic tests that identical inputs give identical
// ledgers, daily series, and metrics across repeated runs
func TestEngine_Deterministic(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 103, 101, 107, 104, 109, 102, 111, 108, 113}
	script := []strategy.SignalAction{
		strategy.SignalEnterLong, strategy.SignalHold, strategy.SignalExitLong,
		strategy.SignalEnterShort, strategy.SignalHold, strategy.SignalExitShort,
		strategy.SignalEnterLong, strategy.SignalHold, strategy.SignalHold, strategy.SignalExitLong,
	}

	cfg := engineTestConfig()
	cfg.CommissionRate = 0.001
	cfg.Slippage = SlippageFixed
	cfg.SlippageBps = 10

	run := func() *BacktestResults {
		engine, err := NewEngine(cfg, &scriptedStrategy{script: script, stopLoss: 0})
		require.NoError(t, err)
		results, err := engine.Run(hourlyCandles(start, closes...))
		require.NoError(t, err)
		return results
	}

	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		assert.Equal(t, first.Trades, again.Trades)
		assert.Equal(t, first.Daily, again.Daily)
		assert.Equal(t, first.Metrics, again.Metrics)
		assert.Equal(t, first.EndBalance, again.EndBalance)
	}
}
