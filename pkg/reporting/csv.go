package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ducminhle1904/backtest-engine/internal/backtest"
)

// WriteTradesCSV writes the closed-trade ledger to a CSV file.
func WriteTradesCSV(results *backtest.BacktestResults, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create trades file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"symbol", "side", "quantity", "entry_time", "entry_price", "exit_time", "exit_price", "pnl", "pnl_percent", "commission", "slippage"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, trade := range results.Trades {
		record := []string{
			trade.Symbol,
			trade.SideLabel,
			formatFloat(trade.Quantity),
			trade.EntryTime.Format(time.RFC3339),
			formatFloat(trade.EntryPrice),
			trade.ExitTime.Format(time.RFC3339),
			formatFloat(trade.ExitPrice),
			formatFloat(trade.PnL),
			formatFloat(trade.PnLPercent),
			formatFloat(trade.Commission),
			formatFloat(trade.Slippage),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
