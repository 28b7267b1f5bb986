package strategy

import (
	"time"

	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

// Strategy defines the interface for signal-producing trading strategies
type Strategy interface {
	// Evaluate analyzes a window of market data ending at the current candle
	// and returns a trading signal for it
	Evaluate(data []types.OHLCV) (*Signal, error)

	// GetName returns the name of the strategy
	GetName() string

	// ResetForNewPeriod resets strategy state between independent runs
	// so parameter sweeps never leak indicator state across runs
	ResetForNewPeriod()
}

// Signal represents a per-candle trading signal produced by a strategy
type Signal struct {
	Action    SignalAction
	StopLoss  float64 // optional protective stop for entries, 0 means unset
	Reason    string
	Timestamp time.Time
}

// SignalAction represents the type of trading signal
type SignalAction int

const (
	SignalHold SignalAction = iota
	SignalEnterLong
	SignalEnterShort
	SignalExitLong
	SignalExitShort
)

func (sa SignalAction) String() string {
	switch sa {
	case SignalHold:
		return "HOLD"
	case SignalEnterLong:
		return "ENTER_LONG"
	case SignalEnterShort:
		return "ENTER_SHORT"
	case SignalExitLong:
		return "EXIT_LONG"
	case SignalExitShort:
		return "EXIT_SHORT"
	default:
		return "UNKNOWN"
	}
}

// IsEntry reports whether the action opens exposure.
func (sa SignalAction) IsEntry() bool {
	return sa == SignalEnterLong || sa == SignalEnterShort
}

// IsExit reports whether the action closes exposure.
func (sa SignalAction) IsExit() bool {
	return sa == SignalExitLong || sa == SignalExitShort
}
