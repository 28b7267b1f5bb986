package data

import (
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

// ParseTrailingPeriod parses period strings like "7d", "30d", "365d"
// into a duration.
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(s, "d") {
		return 0, false
	}
	days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || days <= 0 {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// FilterTrailingPeriod keeps only the candles within the trailing
// period measured back from the last candle. A zero period returns the
// input unchanged.
func FilterTrailingPeriod(data []types.OHLCV, period time.Duration) []types.OHLCV {
	if period <= 0 || len(data) == 0 {
		return data
	}
	cutoff := data[len(data)-1].Timestamp.Add(-period)
	for i, candle := range data {
		if !candle.Timestamp.Before(cutoff) {
			return data[i:]
		}
	}
	return data[len(data)-1:]
}
