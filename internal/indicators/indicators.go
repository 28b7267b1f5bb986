package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

var ErrInsufficientData = errors.New("insufficient data points")

// SMA returns the simple moving average of the closes of the last
// period candles ending at index end (inclusive).
func SMA(data []types.OHLCV, end, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if end+1 < period || end >= len(data) {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := end - period + 1; i <= end; i++ {
		sum += data[i].Close
	}
	return sum / float64(period), nil
}

// ATR returns the average true range over the last period candles
// ending at index end, using a plain average of true ranges.
func ATR(data []types.OHLCV, end, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if end < period || end >= len(data) {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := end - period + 1; i <= end; i++ {
		sum += trueRange(data[i], data[i-1].Close)
	}
	return sum / float64(period), nil
}

// trueRange is max(High-Low, |High-PrevClose|, |Low-PrevClose|).
func trueRange(c types.OHLCV, prevClose float64) float64 {
	hl := c.High - c.Low
	hc := math.Abs(c.High - prevClose)
	lc := math.Abs(c.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
