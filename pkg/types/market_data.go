package types

import "time"

// OHLCV is one candlestick of market data. Candles are immutable once
// produced by a data provider.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Day returns the calendar date of the candle in the given location,
// shifted back by cutoff so non-midnight session boundaries group
// correctly. Used for daily mark-to-market boundary detection.
func (c OHLCV) Day(loc *time.Location, cutoff time.Duration) time.Time {
	t := c.Timestamp.In(loc).Add(-cutoff)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
