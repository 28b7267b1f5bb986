package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

// CSVColumnMapping describes where each candle field lives in a CSV row.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
	HasHeader    bool
}

// DefaultCSVFormat matches the layout written by cmd/download-data:
// timestamp,open,high,low,close,volume with an RFC 3339 timestamp.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   time.RFC3339,
	HasHeader:    true,
}

// CSVProvider implements Provider for CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a CSV data provider with the default format.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a CSV data provider with a custom format.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the data provider.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads a candle series from a CSV file. Malformed rows are
// skipped with a warning; structural problems fail the load.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("could not open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	if p.format.HasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("could not read CSV header: %w", err)
		}
	}

	var data []types.OHLCV
	lineNum := 0
	if p.format.HasHeader {
		lineNum = 1
	}

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum+1, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, p.format.MinColumns, len(record))
			continue
		}

		timestamp, err := time.Parse(p.format.DateFormat, record[p.format.TimestampCol])
		if err != nil {
			log.Printf("⚠️ Invalid timestamp '%s' at line %d, skipping: %v", record[p.format.TimestampCol], lineNum, err)
			continue
		}

		open, err1 := strconv.ParseFloat(record[p.format.OpenCol], 64)
		high, err2 := strconv.ParseFloat(record[p.format.HighCol], 64)
		low, err3 := strconv.ParseFloat(record[p.format.LowCol], 64)
		closePrice, err4 := strconv.ParseFloat(record[p.format.CloseCol], 64)
		volume, err5 := strconv.ParseFloat(record[p.format.VolumeCol], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			log.Printf("⚠️ Unparseable numeric field at line %d, skipping", lineNum)
			continue
		}

		if open <= 0 || high <= 0 || low <= 0 || closePrice <= 0 {
			log.Printf("⚠️ Invalid price data (negative or zero) at line %d, skipping", lineNum)
			continue
		}
		if high < open || high < closePrice || high < low {
			log.Printf("⚠️ High price is lower than other prices at line %d, skipping", lineNum)
			continue
		}
		if low > open || low > closePrice {
			log.Printf("⚠️ Low price is higher than other prices at line %d, skipping", lineNum)
			continue
		}

		data = append(data, types.OHLCV{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return data, nil
}

// ValidateData validates the integrity of a loaded series against the
// engine's input contract.
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, candle := range data {
		if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
			return fmt.Errorf("invalid price data at index %d: prices must be positive", i)
		}
		if candle.High < candle.Low {
			return fmt.Errorf("invalid price data at index %d: high (%.4f) cannot be less than low (%.4f)",
				i, candle.High, candle.Low)
		}
		if i > 0 && !candle.Timestamp.After(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be strictly ascending", i)
		}
	}

	return nil
}
