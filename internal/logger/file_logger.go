package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/backtest-engine/internal/backtest"
)

// Logger writes a per-run log file with warnings and closed trades so
// a sweep's individual runs stay auditable after the fact.
type Logger struct {
	symbol   string
	interval string
	logFile  *os.File
	logger   *log.Logger
	mu       sync.Mutex
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
)

// NewLogger creates a file logger for the given symbol and interval
// under the logs directory.
func NewLogger(symbol, interval string) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("backtest_%s_%s_%s.log", symbol, interval, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		symbol:   symbol,
		interval: interval,
		logFile:  file,
		logger:   log.New(file, "", 0),
	}
	l.Log(LogLevelInfo, "🚀 backtest session started for %s %s", symbol, interval)
	return l, nil
}

// Log writes a formatted entry with the given level.
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s", timestamp, level, message)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// LogTrade logs one closed trade from the ledger.
func (l *Logger) LogTrade(t backtest.Trade) {
	l.Log(LogLevelTrade, "%s %s qty=%.6f entry=%.4f@%s exit=%.4f@%s pnl=%+.2f fees=%.2f",
		t.Symbol, t.SideLabel, t.Quantity,
		t.EntryPrice, t.EntryTime.Format("2006-01-02 15:04"),
		t.ExitPrice, t.ExitTime.Format("2006-01-02 15:04"),
		t.PnL, t.Commission+t.Slippage)
}

// LogResults writes the run's warnings and trades to the log file.
func (l *Logger) LogResults(results *backtest.BacktestResults) {
	for _, w := range results.Warnings {
		l.Warn("sizing rejected at %s (price %.4f): %s", w.Timestamp.Format(time.RFC3339), w.Price, w.Reason)
	}
	for _, t := range results.Trades {
		l.LogTrade(t)
	}
	l.Info("run complete: balance %.2f -> %.2f, %d trades, max drawdown %.2f%%",
		results.StartBalance, results.EndBalance, results.Metrics.TotalTrades, results.Metrics.MaxDrawdown*100)
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}
