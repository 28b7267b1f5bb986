package data

import "github.com/ducminhle1904/backtest-engine/pkg/types"

// Provider loads a time-ordered candle series for one symbol. The
// engine's contract on the returned data is ascending timestamps with
// no duplicates; gaps are accepted as-is.
type Provider interface {
	// LoadData loads candles from the given source (file path, URL, ...)
	LoadData(source string) ([]types.OHLCV, error)

	// ValidateData checks the integrity of a loaded series
	ValidateData(data []types.OHLCV) error

	// GetName returns the provider name
	GetName() string
}
