package strategy

import (
	"fmt"

	"github.com/ducminhle1904/backtest-engine/internal/indicators"
	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

// SMACrossover is a long/short moving-average crossover strategy. A
// fast-over-slow cross signals a long entry, a fast-under-slow cross a
// short entry. Entries carry an ATR-derived protective stop so the
// engine's risk-based sizing has a real stop distance to work with.
type SMACrossover struct {
	fastPeriod int
	slowPeriod int
	atrPeriod  int
	atrMult    float64
}

// NewSMACrossover creates the strategy; atrMult scales the stop
// distance in ATR units.
func NewSMACrossover(fastPeriod, slowPeriod, atrPeriod int, atrMult float64) (*SMACrossover, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || atrPeriod <= 0 {
		return nil, fmt.Errorf("periods must be positive, got fast=%d slow=%d atr=%d", fastPeriod, slowPeriod, atrPeriod)
	}
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("fast period %d must be below slow period %d", fastPeriod, slowPeriod)
	}
	if atrMult <= 0 {
		atrMult = 2.0
	}
	return &SMACrossover{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		atrPeriod:  atrPeriod,
		atrMult:    atrMult,
	}, nil
}

// Evaluate inspects the window ending at the current candle and emits
// a signal when the averages crossed on this candle.
func (s *SMACrossover) Evaluate(data []types.OHLCV) (*Signal, error) {
	cur := len(data) - 1
	if cur < 1 {
		return &Signal{Action: SignalHold}, nil
	}

	fastNow, err := indicators.SMA(data, cur, s.fastPeriod)
	if err != nil {
		return &Signal{Action: SignalHold}, nil
	}
	slowNow, err := indicators.SMA(data, cur, s.slowPeriod)
	if err != nil {
		return &Signal{Action: SignalHold}, nil
	}
	fastPrev, err := indicators.SMA(data, cur-1, s.fastPeriod)
	if err != nil {
		return &Signal{Action: SignalHold}, nil
	}
	slowPrev, err := indicators.SMA(data, cur-1, s.slowPeriod)
	if err != nil {
		return &Signal{Action: SignalHold}, nil
	}

	candle := data[cur]
	sig := &Signal{Action: SignalHold, Timestamp: candle.Timestamp}

	crossedUp := fastPrev <= slowPrev && fastNow > slowNow
	crossedDown := fastPrev >= slowPrev && fastNow < slowNow

	switch {
	case crossedUp:
		sig.Action = SignalEnterLong
		sig.Reason = fmt.Sprintf("SMA(%d) crossed above SMA(%d)", s.fastPeriod, s.slowPeriod)
		if atr, err := indicators.ATR(data, cur, s.atrPeriod); err == nil {
			sig.StopLoss = candle.Close - s.atrMult*atr
		}
	case crossedDown:
		sig.Action = SignalEnterShort
		sig.Reason = fmt.Sprintf("SMA(%d) crossed below SMA(%d)", s.fastPeriod, s.slowPeriod)
		if atr, err := indicators.ATR(data, cur, s.atrPeriod); err == nil {
			sig.StopLoss = candle.Close + s.atrMult*atr
		}
	}

	return sig, nil
}

// GetName returns the strategy name.
func (s *SMACrossover) GetName() string {
	return fmt.Sprintf("SMA Crossover (%d/%d)", s.fastPeriod, s.slowPeriod)
}

// ResetForNewPeriod is a no-op: the strategy keeps no state between
// candles, which is what makes runs reproducible.
func (s *SMACrossover) ResetForNewPeriod() {}
