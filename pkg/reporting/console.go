package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/backtest-engine/internal/backtest"
)

// ConsoleReporter renders backtest results as terminal tables.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// OutputResults prints the run summary and, when verbose, the trade
// ledger.
func (r *ConsoleReporter) OutputResults(results *backtest.BacktestResults, verbose bool) {
	m := results.Metrics

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("📊 BACKTEST RESULTS — %s %s", results.Symbol, results.Interval)
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Initial Balance", fmt.Sprintf("$%.2f", results.StartBalance)},
		{"💰 Final Balance", fmt.Sprintf("$%.2f", results.EndBalance)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", m.TotalReturn*100)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100)},
		{"📊 Daily Volatility", fmt.Sprintf("%.4f", m.DailyVolatility)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio)},
		{"📊 Sortino Ratio", fmt.Sprintf("%.2f", m.SortinoRatio)},
		{"💹 Profit Factor", fmt.Sprintf("%.2f", m.ProfitFactor)},
		{"🔄 Total Trades", fmt.Sprintf("%d", m.TotalTrades)},
		{"✅ Winning Trades", fmt.Sprintf("%d (%.1f%%)", m.WinningTrades, m.WinRate*100)},
		{"❌ Losing Trades", fmt.Sprintf("%d", m.LosingTrades)},
		{"➖ Breakeven Trades", fmt.Sprintf("%d", m.BreakevenTrades)},
		{"📐 Avg Win / Avg Loss", fmt.Sprintf("$%.2f / $%.2f", m.AvgWin, m.AvgLoss)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignRight},
	})

	t.Render()

	if len(results.Warnings) > 0 {
		fmt.Printf("\n⚠️  %d entries skipped due to sizing rejections\n", len(results.Warnings))
	}

	if verbose && len(results.Trades) > 0 {
		r.printTrades(results)
	}
	fmt.Println()
}

func (r *ConsoleReporter) printTrades(results *backtest.BacktestResults) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("📋 TRADE HISTORY")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Side", "Entry Time", "Entry", "Exit Time", "Exit", "Qty", "PnL", "Fees"})

	for i, trade := range results.Trades {
		t.AppendRow(table.Row{
			i + 1,
			trade.SideLabel,
			trade.EntryTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.4f", trade.EntryPrice),
			trade.ExitTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.4f", trade.ExitPrice),
			fmt.Sprintf("%.4f", trade.Quantity),
			fmt.Sprintf("%+.2f", trade.PnL),
			fmt.Sprintf("%.2f", trade.Commission+trade.Slippage),
		})
	}

	t.Render()
}

// OutputConsole is a package-level convenience wrapper.
func OutputConsole(results *backtest.BacktestResults, verbose bool) {
	NewConsoleReporter().OutputResults(results, verbose)
}
