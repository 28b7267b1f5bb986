package bybit

import (
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseKlineResponse tests that the newest-first API payload comes
// out as an ascending candle series
func TestParseKlineResponse(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"symbol":   "BTCUSDT",
			"category": "spot",
			"list": [][]string{
				{"1709290800000", "101", "103", "100", "102", "6000", "612000"},
				{"1709287200000", "100", "102", "99", "101", "5000", "505000"},
			},
		},
	}

	candles, err := parseKlineResponse(resp)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))
	assert.Equal(t, time.UnixMilli(1709287200000), candles[0].Timestamp)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 102.0, candles[1].Close)
	assert.Equal(t, 6000.0, candles[1].Volume)
}

func TestParseKlineResponse_APIError(t *testing.T) {
	resp := &bybit_api.ServerResponse{RetCode: 10001, RetMsg: "params error"}
	_, err := parseKlineResponse(resp)
	assert.Error(t, err)
}

func TestParseKlineResponse_WrongType(t *testing.T) {
	_, err := parseKlineResponse("not a response")
	assert.Error(t, err)
}

// TestParseKlineResponse_SkipsShortRows tests lenient handling of rows
// without the full column set
func TestParseKlineResponse_SkipsShortRows(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"list": [][]string{
				{"1709287200000", "100", "102", "99", "101", "5000"},
				{"1709290800000", "101"},
			},
		},
	}

	candles, err := parseKlineResponse(resp)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}
