package backtest

import (
	"math"
	"time"

	"github.com/ducminhle1904/backtest-engine/internal/strategy"
)

// PositionSide is the direction of an open position.
type PositionSide int

const (
	Long PositionSide = iota
	Short
)

func (s PositionSide) String() string {
	if s == Short {
		return "SHORT"
	}
	return "LONG"
}

// Sign returns +1 for long exposure and -1 for short exposure.
func (s PositionSide) Sign() float64 {
	if s == Short {
		return -1
	}
	return 1
}

// Position is an open exposure in exactly one symbol. It is owned
// exclusively by the PositionManager; the equity tracker reads it but
// never mutates it.
type Position struct {
	Symbol     string
	Side       PositionSide
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
}

// MarketValue returns the signed market value of the position at price.
func (p *Position) MarketValue(price float64) float64 {
	return p.Side.Sign() * p.Quantity * price
}

// UnrealizedPnL returns the open profit or loss at price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity * p.Side.Sign()
}

// Action is the lifecycle decision for one candle.
type Action int

const (
	ActionNone Action = iota
	ActionOpenLong
	ActionOpenShort
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionOpenLong:
		return "OPEN_LONG"
	case ActionOpenShort:
		return "OPEN_SHORT"
	case ActionClose:
		return "CLOSE"
	default:
		return "NONE"
	}
}

// PositionManager owns the FLAT -> OPEN -> FLAT state machine for one
// symbol. Its single position slot is the only source of truth for
// "is there something to exit"; callers never hand it a shadow copy.
type PositionManager struct {
	symbol   string
	position *Position
}

// NewPositionManager creates a manager with no open position.
func NewPositionManager(symbol string) *PositionManager {
	return &PositionManager{symbol: symbol}
}

// Current returns the open position, or nil when flat.
func (pm *PositionManager) Current() *Position {
	return pm.position
}

// EvaluateSignal maps a strategy signal onto a lifecycle action given
// the manager's own position state, read once per candle.
//
// No pyramiding: an entry signal in the direction of the open position
// is a no-op. An opposite-direction entry closes the position now and
// may only re-enter on a later candle. An exit signal while flat, or
// for the wrong side, is a no-op.
func (pm *PositionManager) EvaluateSignal(sig *strategy.Signal) Action {
	if sig == nil {
		return ActionNone
	}

	pos := pm.position

	switch sig.Action {
	case strategy.SignalEnterLong:
		if pos == nil {
			return ActionOpenLong
		}
		if pos.Side == Short {
			return ActionClose
		}
		return ActionNone

	case strategy.SignalEnterShort:
		if pos == nil {
			return ActionOpenShort
		}
		if pos.Side == Long {
			return ActionClose
		}
		return ActionNone

	case strategy.SignalExitLong:
		if pos != nil && pos.Side == Long {
			return ActionClose
		}
		return ActionNone

	case strategy.SignalExitShort:
		if pos != nil && pos.Side == Short {
			return ActionClose
		}
		return ActionNone

	default:
		return ActionNone
	}
}

// Open records a new position. Opening while one is already open is an
// engine wiring defect and fails with an InvariantError.
func (pm *PositionManager) Open(side PositionSide, quantity, entryPrice float64, entryTime time.Time) (*Position, error) {
	if pm.position != nil {
		return nil, &InvariantError{
			Op:     "PositionManager.Open",
			Detail: "position already open for " + pm.symbol,
		}
	}
	if quantity <= 0 || !isFinite(quantity) {
		return nil, &InvariantError{
			Op:     "PositionManager.Open",
			Detail: "non-positive or non-finite quantity",
		}
	}
	pm.position = &Position{
		Symbol:     pm.symbol,
		Side:       side,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		EntryTime:  entryTime,
	}
	return pm.position, nil
}

// Close clears the position slot and returns the closed position.
// Closing while flat is an engine wiring defect.
func (pm *PositionManager) Close() (*Position, error) {
	if pm.position == nil {
		return nil, &InvariantError{
			Op:     "PositionManager.Close",
			Detail: "no open position for " + pm.symbol,
		}
	}
	pos := pm.position
	pm.position = nil
	return pos, nil
}

// ComputePositionSize returns a risk-based quantity for a new entry.
//
// The stop-loss distance is |entry - stop|, with the stop defaulting to
// entry * (1 - DefaultStopLossPercent) when unset (stopLoss <= 0). The
// distance is floored at entry * MinStopLossPercent so a stop at or
// near the entry price cannot blow the division up. The result is
// capped at MaxPositionPercent of capital.
//
// Rejections wrap ErrSizingRejected and are recoverable: the caller
// records a warning and skips the candle.
func ComputePositionSize(capital, entryPrice, stopLoss float64, cfg *BacktestConfig) (float64, error) {
	if !isFinite(capital) || capital <= 0 {
		return 0, sizingRejectedf("capital must be positive and finite, got %v", capital)
	}
	if !isFinite(entryPrice) || entryPrice <= 0 {
		return 0, sizingRejectedf("entry price must be positive and finite, got %v", entryPrice)
	}

	effectiveStop := stopLoss
	if !isFinite(effectiveStop) || effectiveStop <= 0 {
		effectiveStop = entryPrice * (1 - cfg.DefaultStopLossPercent)
	}

	distance := math.Abs(entryPrice - effectiveStop)
	if floor := entryPrice * cfg.MinStopLossPercent; distance < floor {
		distance = floor
	}

	quantity := capital * cfg.RiskPerTrade / distance
	if maxQty := capital * cfg.MaxPositionPercent / entryPrice; quantity > maxQty {
		quantity = maxQty
	}

	if !isFinite(quantity) || quantity <= 0 {
		return 0, sizingRejectedf("computed quantity %v is not usable", quantity)
	}
	return quantity, nil
}
