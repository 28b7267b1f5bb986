package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/backtest-engine/internal/backtest"
	"github.com/ducminhle1904/backtest-engine/internal/logger"
	"github.com/ducminhle1904/backtest-engine/internal/monitoring"
	"github.com/ducminhle1904/backtest-engine/internal/strategy"
	"github.com/ducminhle1904/backtest-engine/pkg/config"
	datamanager "github.com/ducminhle1904/backtest-engine/pkg/data"
	"github.com/ducminhle1904/backtest-engine/pkg/reporting"
	"github.com/ducminhle1904/backtest-engine/pkg/types"
)

const (
	AppName    = "Backtest Engine"
	AppVersion = "1.0.0"
)

func main() {
	flags := NewFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	if err := flags.Validate(); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	data, err := loadData(cfg.DataFile, *flags.Period)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}
	fmt.Printf("📊 Loaded %d candles for %s\n\n", len(data), cfg.Backtest.Symbol)

	risks, err := flags.ParseSweepRisks()
	if err != nil {
		log.Fatalf("❌ Sweep error: %v", err)
	}

	if *flags.MetricsAddr != "" {
		go serveMetrics(*flags.MetricsAddr)
	}

	if len(risks) > 0 {
		runSweep(cfg, data, risks, *flags.Workers, *flags.Verbose)
		return
	}
	runSingle(cfg, data, flags)
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", envFile, err)
	}
}

// loadConfiguration builds the run configuration from the config file,
// then applies command line overrides for the most common knobs.
func loadConfiguration(flags *Flags) (*config.Config, error) {
	var cfg *config.Config
	if *flags.ConfigFile != "" {
		loaded, err := config.Load(*flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.NewDefaultConfig(*flags.Symbol)
		cfg.Backtest.Interval = *flags.Interval
		cfg.Backtest.InitialBalance = *flags.InitialBalance
		cfg.Backtest.CommissionRate = *flags.Commission
		cfg.Backtest.Slippage = backtest.SlippageModel(*flags.SlippageModel)
		cfg.Backtest.SlippageBps = *flags.SlippageBps
		cfg.Backtest.RiskPerTrade = *flags.RiskPerTrade
	}

	if *flags.DataFile != "" {
		cfg.DataFile = *flags.DataFile
	}
	if cfg.DataFile == "" {
		return nil, fmt.Errorf("no data file configured")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadData(dataFile, period string) ([]types.OHLCV, error) {
	provider := datamanager.NewCSVProvider()
	data, err := provider.LoadData(dataFile)
	if err != nil {
		return nil, err
	}
	if err := provider.ValidateData(data); err != nil {
		return nil, err
	}
	if period != "" {
		d, ok := datamanager.ParseTrailingPeriod(period)
		if !ok {
			return nil, fmt.Errorf("invalid period format: %s (use 7d, 30d, 180d, 365d)", period)
		}
		data = datamanager.FilterTrailingPeriod(data, d)
	}
	return data, nil
}

func newStrategy(cfg *config.Config) (strategy.Strategy, error) {
	return strategy.NewSMACrossover(
		cfg.Strategy.FastPeriod,
		cfg.Strategy.SlowPeriod,
		cfg.Strategy.ATRPeriod,
		cfg.Strategy.ATRMult,
	)
}

func runSingle(cfg *config.Config, data []types.OHLCV, flags *Flags) {
	strat, err := newStrategy(cfg)
	if err != nil {
		log.Fatalf("❌ Strategy error: %v", err)
	}

	engine, err := backtest.NewEngine(&cfg.Backtest, strat)
	if err != nil {
		log.Fatalf("❌ Engine error: %v", err)
	}

	results, err := engine.Run(data)
	if err != nil {
		log.Fatalf("❌ Backtest failed: %v", err)
	}

	reporting.OutputConsole(results, *flags.Verbose)

	if !*flags.ConsoleOnly {
		writeReports(results, cfg, flags)
		writeRunLog(results, cfg)
	}
}

func writeReports(results *backtest.BacktestResults, cfg *config.Config, flags *Flags) {
	outFile := *flags.OutputFile
	switch *flags.OutputFormat {
	case "json":
		if outFile == "" {
			outFile = defaultOutputPath(cfg, "results.json")
		}
		if err := reporting.WriteJSON(results, outFile); err != nil {
			log.Printf("⚠️  Could not write JSON report: %v", err)
		} else {
			fmt.Printf("💾 Results written to %s\n", outFile)
		}
	case "csv":
		if outFile == "" {
			outFile = defaultOutputPath(cfg, "trades.csv")
		}
		if err := reporting.WriteTradesCSV(results, outFile); err != nil {
			log.Printf("⚠️  Could not write CSV report: %v", err)
		} else {
			fmt.Printf("💾 Trades written to %s\n", outFile)
		}
	case "excel":
		if outFile == "" {
			outFile = defaultOutputPath(cfg, "report.xlsx")
		}
		if err := reporting.NewExcelReporter().WriteWorkbook(results, outFile); err != nil {
			log.Printf("⚠️  Could not write Excel report: %v", err)
		} else {
			fmt.Printf("💾 Workbook written to %s\n", outFile)
		}
	}
}

func writeRunLog(results *backtest.BacktestResults, cfg *config.Config) {
	runLog, err := logger.NewLogger(cfg.Backtest.Symbol, cfg.Backtest.Interval)
	if err != nil {
		log.Printf("⚠️  Could not open run log: %v", err)
		return
	}
	defer runLog.Close()
	runLog.LogResults(results)
}

func defaultOutputPath(cfg *config.Config, name string) string {
	symbol := strings.ToUpper(cfg.Backtest.Symbol)
	interval := strings.ToLower(cfg.Backtest.Interval)
	if interval == "" {
		interval = "unknown"
	}
	return filepath.Join("results", fmt.Sprintf("%s_%s", symbol, interval), name)
}

// runSweep runs one backtest per risk fraction in parallel and prints a
// comparison. Each run owns an independent engine and ledger; a failed
// run reports its error and publishes nothing.
func runSweep(cfg *config.Config, data []types.OHLCV, risks []float64, workers int, verbose bool) {
	fmt.Printf("🔄 Sweeping %d risk settings\n\n", len(risks))

	pool := backtest.NewWorkerPool(workers, len(risks))
	pool.Start()

	submitted := 0
	for i, risk := range risks {
		runCfg := cfg.Backtest // copy per run
		runCfg.RiskPerTrade = risk

		strat, err := newStrategy(cfg)
		if err != nil {
			log.Printf("⚠️  Skipping risk %.4f: %v", risk, err)
			continue
		}

		job := backtest.Job{
			ID:       fmt.Sprintf("%s_risk_%d", cfg.Backtest.Symbol, i),
			Config:   &runCfg,
			Data:     data,
			Strategy: strat,
		}
		if err := pool.Submit(job); err != nil {
			log.Printf("⚠️  Could not submit job: %v", err)
			break
		}
		submitted++
	}

	tracker := backtest.NewProgressTracker(submitted)
	best := struct {
		id     string
		ret    float64
		sharpe float64
	}{ret: -1 << 30}

	for i := 0; i < submitted; i++ {
		result := <-pool.Results()
		tracker.Increment()
		done, total, percent, _ := tracker.Progress()

		if result.Err != nil {
			fmt.Printf("[%d/%d %.0f%%] ❌ %s failed: %v\n", done, total, percent, result.ID, result.Err)
			continue
		}

		m := result.Results.Metrics
		fmt.Printf("[%d/%d %.0f%%] ✅ %s: return %.2f%%, drawdown %.2f%%, sharpe %.2f, trades %d (%s)\n",
			done, total, percent, result.ID,
			m.TotalReturn*100, m.MaxDrawdown*100, m.SharpeRatio, m.TotalTrades, result.Duration.Round(1e6))

		if m.TotalReturn > best.ret {
			best.id = result.ID
			best.ret = m.TotalReturn
			best.sharpe = m.SharpeRatio
		}

		if verbose {
			reporting.OutputConsole(result.Results, false)
		}
	}
	pool.Stop()

	if best.id != "" {
		fmt.Printf("\n🏆 Best run: %s (return %.2f%%, sharpe %.2f)\n", best.id, best.ret*100, best.sharpe)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	log.Printf("📡 Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️  Metrics server stopped: %v", err)
	}
}
