package backtest

import (
	"fmt"

	"github.com/ducminhle1904/backtest-engine/internal/strategy"
	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

// Engine drives one deterministic, single-threaded backtest run.
// Candles are processed strictly in ascending timestamp order; every
// fill is priced through one cost model and applied to one equity
// tracker, per candle:
//
//	candle -> strategy signal -> position lifecycle -> cost model
//	       -> equity tracker -> (day boundary) mark-to-market snapshot
//
// The metrics calculator consumes the finished ledger after the loop.
type Engine struct {
	cfg   *BacktestConfig
	strat strategy.Strategy
	costs *CostModel
}

// NewEngine validates the config and builds an engine. An invalid
// config fails here, before any candle is processed.
func NewEngine(cfg *BacktestConfig, strat strategy.Strategy) (*Engine, error) {
	if cfg == nil {
		return nil, &ConfigError{Field: "config", Reason: "must not be nil"}
	}
	if strat == nil {
		return nil, &ConfigError{Field: "strategy", Reason: "must not be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:   cfg,
		strat: strat,
		costs: NewCostModel(cfg),
	}, nil
}

// Run executes the backtest over the candle series. It either returns
// a complete, internally consistent result with every numeric field
// finite, or a classified error and no result.
func (e *Engine) Run(data []types.OHLCV) (*BacktestResults, error) {
	if err := validateSeries(data); err != nil {
		return nil, err
	}

	pm := NewPositionManager(e.cfg.Symbol)
	et := NewEquityTracker(e.cfg.InitialBalance)
	loc := e.cfg.Location()
	cutoff := e.cfg.DayCutoff()

	var warnings []SizingWarning
	var entryFill Fill // costs of the fill that opened the current position

	start := e.cfg.WindowSize
	if start >= len(data) {
		start = len(data) // no tradable candles, result is flat
	}

	for i := 0; i < len(data); i++ {
		candle := data[i]

		// A new calendar day started: the previous candle closed the
		// prior day, snapshot it before touching state for this one.
		// Warmup days count too; the series covers every date transition
		// in the candle stream, not just the tradable region.
		if i > 0 {
			prev := data[i-1]
			if !prev.Day(loc, cutoff).Equal(candle.Day(loc, cutoff)) {
				et.MarkToMarket(prev.Close)
				et.SnapshotEndOfDay(prev.Day(loc, cutoff))
			}
		}

		if i < start {
			continue
		}

		sig, err := e.strat.Evaluate(data[i-e.windowStart(i) : i+1])
		if err != nil {
			// Strategy errors on a single candle degrade to HOLD.
			sig = &strategy.Signal{Action: strategy.SignalHold}
		}

		switch pm.EvaluateSignal(sig) {
		case ActionClose:
			pos := pm.Current()
			fill, err := e.costs.PriceFill(candle.Close, exitFillSide(pos.Side), pos.Quantity, candle.Volume)
			if err != nil {
				return nil, err
			}
			if _, err := et.OnExit(fill, candle.Timestamp, entryFill.Slippage, entryFill.Commission); err != nil {
				return nil, err
			}
			if _, err := pm.Close(); err != nil {
				return nil, err
			}
			entryFill = Fill{}

		case ActionOpenLong, ActionOpenShort:
			side := Long
			if sig.Action == strategy.SignalEnterShort {
				side = Short
			}
			capital := et.MarkToMarket(candle.Close)
			qty, err := ComputePositionSize(capital, candle.Close, sig.StopLoss, e.cfg)
			if err != nil {
				warnings = append(warnings, SizingWarning{
					Timestamp: candle.Timestamp,
					Price:     candle.Close,
					Reason:    err.Error(),
				})
				break
			}
			fill, err := e.costs.PriceFill(candle.Close, entryFillSide(side), qty, candle.Volume)
			if err != nil {
				return nil, err
			}
			pos, err := pm.Open(side, qty, fill.Price, candle.Timestamp)
			if err != nil {
				return nil, err
			}
			if err := et.OnEntry(pos, fill); err != nil {
				return nil, err
			}
			entryFill = fill
		}

		et.MarkToMarket(candle.Close)
	}

	// Final snapshot regardless of whether the last day is complete.
	if len(data) > 0 {
		last := data[len(data)-1]
		et.MarkToMarket(last.Close)
		et.SnapshotEndOfDay(last.Day(loc, cutoff))
	}

	results := &BacktestResults{
		Symbol:       e.cfg.Symbol,
		Interval:     e.cfg.Interval,
		StartBalance: e.cfg.InitialBalance,
		EndBalance:   et.TotalEquity(),
		Trades:       et.Trades(),
		Daily:        et.Daily(),
		Warnings:     warnings,
	}
	results.Metrics = ComputeMetrics(results.Trades, results.Daily, e.cfg.InitialBalance, e.cfg.AnnualizationFactor)

	if err := results.validateFinite(); err != nil {
		return nil, err
	}
	return results, nil
}

// windowStart bounds the strategy window to the configured size without
// reaching before the series start.
func (e *Engine) windowStart(i int) int {
	if i < e.cfg.WindowSize {
		return i
	}
	return e.cfg.WindowSize
}

func entryFillSide(side PositionSide) FillSide {
	if side == Short {
		return FillSell
	}
	return FillBuy
}

func exitFillSide(side PositionSide) FillSide {
	if side == Short {
		return FillBuy // covering a short
	}
	return FillSell
}

// validateSeries enforces the input data contract: ascending
// timestamps, no duplicates. Gaps are accepted as-is.
func validateSeries(data []types.OHLCV) error {
	for i := 1; i < len(data); i++ {
		if !data[i].Timestamp.After(data[i-1].Timestamp) {
			return &ConfigError{
				Field:  "data",
				Reason: fmt.Sprintf("timestamps must be strictly ascending, violation at index %d (%s)", i, data[i].Timestamp),
			}
		}
	}
	return nil
}
