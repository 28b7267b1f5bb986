package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVProvider_LoadData(t *testing.T) {
	path := writeTempCSV(t, `timestamp,open,high,low,close,volume
2024-03-01T00:00:00Z,100,102,99,101,5000
2024-03-01T01:00:00Z,101,103,100,102,6000
2024-03-01T02:00:00Z,102,104,101,103,7000
`)

	provider := NewCSVProvider()
	data, err := provider.LoadData(path)
	require.NoError(t, err)
	require.Len(t, data, 3)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), data[0].Timestamp)
	assert.Equal(t, 100.0, data[0].Open)
	assert.Equal(t, 102.0, data[0].High)
	assert.Equal(t, 99.0, data[0].Low)
	assert.Equal(t, 101.0, data[0].Close)
	assert.Equal(t, 5000.0, data[0].Volume)
}

func TestCSVProvider_SkipsMalformedRows(t *testing.T) {
	path := writeTempCSV(t, `timestamp,open,high,low,close,volume
2024-03-01T00:00:00Z,100,102,99,101,5000
not-a-timestamp,100,102,99,101,5000
2024-03-01T01:00:00Z,abc,103,100,102,6000
2024-03-01T02:00:00Z,102,104,101,-5,7000
2024-03-01T03:00:00Z,102,90,101,103,7000
2024-03-01T04:00:00Z,103,105,102,104,8000
`)

	provider := NewCSVProvider()
	data, err := provider.LoadData(path)
	require.NoError(t, err)

	// Only the first and last rows survive
	require.Len(t, data, 2)
	assert.Equal(t, 101.0, data[0].Close)
	assert.Equal(t, 104.0, data[1].Close)
}

func TestCSVProvider_MissingFile(t *testing.T) {
	provider := NewCSVProvider()
	_, err := provider.LoadData(filepath.Join(t.TempDir(), "does_not_exist.csv"))
	assert.Error(t, err)
}

func TestCSVProvider_ValidateData(t *testing.T) {
	provider := NewCSVProvider()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	good := []types.OHLCV{
		{Timestamp: base, Open: 100, High: 102, Low: 99, Close: 101},
		{Timestamp: base.Add(time.Hour), Open: 101, High: 103, Low: 100, Close: 102},
	}
	assert.NoError(t, provider.ValidateData(good))

	assert.Error(t, provider.ValidateData(nil))

	duplicate := []types.OHLCV{good[0], good[0]}
	assert.Error(t, provider.ValidateData(duplicate))

	inverted := []types.OHLCV{{Timestamp: base, Open: 100, High: 99, Low: 102, Close: 101}}
	assert.Error(t, provider.ValidateData(inverted))
}

func TestParseTrailingPeriod(t *testing.T) {
	d, ok := ParseTrailingPeriod("30d")
	require.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, d)

	d, ok = ParseTrailingPeriod(" 7D ")
	require.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, d)

	for _, bad := range []string{"", "30", "30h", "-5d", "0d", "d"} {
		_, ok := ParseTrailingPeriod(bad)
		assert.False(t, ok, "expected rejection of %q", bad)
	}
}

func TestFilterTrailingPeriod(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data := make([]types.OHLCV, 10)
	for i := range data {
		data[i] = types.OHLCV{Timestamp: base.AddDate(0, 0, i), Close: 100}
	}

	// Last 3 days measured back from the final candle
	filtered := FilterTrailingPeriod(data, 3*24*time.Hour)
	require.Len(t, filtered, 4)
	assert.Equal(t, data[6].Timestamp, filtered[0].Timestamp)

	// Zero period is a no-op
	assert.Len(t, FilterTrailingPeriod(data, 0), len(data))

	// Period longer than the series keeps everything
	assert.Len(t, FilterTrailingPeriod(data, 365*24*time.Hour), len(data))
}
