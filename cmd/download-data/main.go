package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/backtest-engine/internal/exchange/bybit"
	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

func main() {
	var (
		symbol   = flag.String("symbol", "BTCUSDT", "Trading symbol (e.g. BTCUSDT)")
		interval = flag.String("interval", "60", "Kline interval (1, 5, 15, 30, 60, 240, D)")
		category = flag.String("category", "spot", "Market category (spot, linear, inverse)")
		outdir   = flag.String("outdir", "data", "Directory to write CSV files")
		output   = flag.String("output", "", "Explicit output file path")

		startDate = flag.String("start", "", "Start date (YYYY-MM-DD)")
		endDate   = flag.String("end", "", "End date (YYYY-MM-DD)")
		limit     = flag.Int("limit", 1000, "Number of klines per request (max 1000)")
		envFile   = flag.String("env", ".env", "Environment file to load")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", *envFile, err)
	}

	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	if *startDate != "" {
		parsed, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			log.Fatalf("❌ Invalid start date format: %v", err)
		}
		start = parsed
	}
	if *endDate != "" {
		parsed, err := time.Parse("2006-01-02", *endDate)
		if err != nil {
			log.Fatalf("❌ Invalid end date format: %v", err)
		}
		end = parsed
	}

	client := bybit.NewClient(bybit.Config{
		APIKey:    os.Getenv("BYBIT_API_KEY"),
		APISecret: os.Getenv("BYBIT_API_SECRET"),
	})

	sym := strings.ToUpper(strings.TrimSpace(*symbol))
	fmt.Printf("📥 Downloading %s %s (%s) from %s to %s\n",
		sym, *interval, *category, start.Format("2006-01-02"), end.Format("2006-01-02"))

	candles, err := downloadRange(client, *category, sym, bybit.KlineInterval(*interval), start, end, *limit)
	if err != nil {
		log.Fatalf("❌ Download failed: %v", err)
	}
	if len(candles) == 0 {
		log.Fatalf("❌ No data returned for %s", sym)
	}

	outPath := *output
	if outPath == "" {
		outPath = filepath.Join(*outdir, *category, sym, strings.ToLower(*interval), "candles.csv")
	}
	if err := writeCSV(outPath, candles); err != nil {
		log.Fatalf("❌ Could not write CSV: %v", err)
	}
	fmt.Printf("💾 Wrote %d candles to %s\n", len(candles), outPath)
}

// downloadRange pages through the kline endpoint until the requested
// window is covered. Bybit caps each response at 1000 candles.
func downloadRange(client *bybit.Client, category, symbol string, interval bybit.KlineInterval, start, end time.Time, limit int) ([]types.OHLCV, error) {
	ctx := context.Background()
	var all []types.OHLCV
	cursor := start

	for cursor.Before(end) {
		windowEnd := end
		batch, err := client.GetKlines(ctx, bybit.KlineParams{
			Category: category,
			Symbol:   symbol,
			Interval: interval,
			Start:    &cursor,
			End:      &windowEnd,
			Limit:    limit,
		})
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		// Drop overlap with the previous page.
		for _, candle := range batch {
			if len(all) > 0 && !candle.Timestamp.After(all[len(all)-1].Timestamp) {
				continue
			}
			all = append(all, candle)
		}

		last := batch[len(batch)-1].Timestamp
		if !last.After(cursor) {
			break
		}
		cursor = last.Add(time.Millisecond)

		// Be polite to the public endpoint.
		time.Sleep(100 * time.Millisecond)
	}

	return all, nil
}

func writeCSV(path string, candles []types.OHLCV) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		record := []string{
			c.Timestamp.UTC().Format(time.RFC3339),
			fmt.Sprintf("%g", c.Open),
			fmt.Sprintf("%g", c.High),
			fmt.Sprintf("%g", c.Low),
			fmt.Sprintf("%g", c.Close),
			fmt.Sprintf("%g", c.Volume),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
