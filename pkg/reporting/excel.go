package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/backtest-engine/internal/backtest"
)

// ExcelReporter writes a full backtest workbook: summary metrics, the
// closed-trade ledger, and the daily mark-to-market equity series.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteWorkbook writes the results to an .xlsx file at path.
func (r *ExcelReporter) WriteWorkbook(results *backtest.BacktestResults, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const dailySheet = "Daily Equity"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(dailySheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, results, headerStyle); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, results, headerStyle); err != nil {
		return err
	}
	if err := r.writeDailySheet(fx, dailySheet, results, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, results *backtest.BacktestResults, headerStyle int) error {
	m := results.Metrics
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Symbol", results.Symbol},
		{"Interval", results.Interval},
		{"Initial Balance", results.StartBalance},
		{"Final Balance", results.EndBalance},
		{"Total Return %", m.TotalReturn * 100},
		{"Max Drawdown %", m.MaxDrawdown * 100},
		{"Daily Volatility", m.DailyVolatility},
		{"Sharpe Ratio", m.SharpeRatio},
		{"Sortino Ratio", m.SortinoRatio},
		{"Profit Factor", m.ProfitFactor},
		{"Total Trades", m.TotalTrades},
		{"Winning Trades", m.WinningTrades},
		{"Losing Trades", m.LosingTrades},
		{"Breakeven Trades", m.BreakevenTrades},
		{"Win Rate %", m.WinRate * 100},
		{"Avg Win", m.AvgWin},
		{"Avg Loss", m.AvgLoss},
		{"Sizing Rejections", len(results.Warnings)},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	fx.SetCellStyle(sheet, "A1", "B1", headerStyle)
	fx.SetColWidth(sheet, "A", "A", 22)
	fx.SetColWidth(sheet, "B", "B", 16)
	return nil
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, results *backtest.BacktestResults, headerStyle int) error {
	header := []interface{}{"#", "Side", "Quantity", "Entry Time", "Entry Price", "Exit Time", "Exit Price", "PnL", "PnL %", "Commission", "Slippage"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, trade := range results.Trades {
		row := []interface{}{
			i + 1,
			trade.SideLabel,
			trade.Quantity,
			trade.EntryTime.Format("2006-01-02 15:04:05"),
			trade.EntryPrice,
			trade.ExitTime.Format("2006-01-02 15:04:05"),
			trade.ExitPrice,
			trade.PnL,
			trade.PnLPercent,
			trade.Commission,
			trade.Slippage,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	fx.SetCellStyle(sheet, "A1", "K1", headerStyle)
	fx.SetColWidth(sheet, "D", "D", 19)
	fx.SetColWidth(sheet, "F", "F", 19)
	return nil
}

func (r *ExcelReporter) writeDailySheet(fx *excelize.File, sheet string, results *backtest.BacktestResults, headerStyle int) error {
	header := []interface{}{"Date", "Equity", "Cash", "Positions Value", "Unrealized PnL", "Realized PnL", "Realized Delta"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, day := range results.Daily {
		row := []interface{}{
			day.Date.Format("2006-01-02"),
			day.Equity,
			day.Cash,
			day.PositionsValue,
			day.UnrealizedPnL,
			day.RealizedPnL,
			day.RealizedDelta,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	fx.SetCellStyle(sheet, "A1", "G1", headerStyle)
	fx.SetColWidth(sheet, "A", "G", 15)
	return nil
}
