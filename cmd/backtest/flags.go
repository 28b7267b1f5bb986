package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Flags groups the command line options of the backtester.
type Flags struct {
	ConfigFile *string
	DataFile   *string
	Symbol     *string
	Interval   *string

	InitialBalance *float64
	Commission     *float64
	SlippageModel  *string
	SlippageBps    *float64
	RiskPerTrade   *float64

	Period *string

	SweepRisk *string
	Workers   *int

	OutputFormat *string
	OutputFile   *string
	ConsoleOnly  *bool
	Verbose      *bool

	EnvFile     *string
	MetricsAddr *string

	ShowVersion *bool
}

// NewFlags registers all command line flags.
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "Path to JSON or YAML configuration file"),
		DataFile:   flag.String("data", "", "Path to historical data CSV file"),
		Symbol:     flag.String("symbol", "BTCUSDT", "Trading symbol"),
		Interval:   flag.String("interval", "60", "Candle interval label (for reports and file naming)"),

		InitialBalance: flag.Float64("balance", 10000, "Initial balance"),
		Commission:     flag.Float64("commission", 0.0005, "Commission rate (0.0005 = 0.05%)"),
		SlippageModel:  flag.String("slippage-model", "fixed", "Slippage model: none, fixed, proportional"),
		SlippageBps:    flag.Float64("slippage-bps", 5, "Slippage in basis points"),
		RiskPerTrade:   flag.Float64("risk", 0.01, "Risk per trade as a fraction of equity"),

		Period: flag.String("period", "", "Trailing data period filter (e.g. 30d, 180d, 365d)"),

		SweepRisk: flag.String("sweep-risk", "", "Comma-separated risk fractions to sweep in parallel (e.g. 0.005,0.01,0.02)"),
		Workers:   flag.Int("workers", 0, "Worker count for sweeps (0 = NumCPU)"),

		OutputFormat: flag.String("output", "console", "Output format: console, json, csv, excel"),
		OutputFile:   flag.String("output-file", "", "Output file path (defaults under results/)"),
		ConsoleOnly:  flag.Bool("console-only", false, "Skip file reports"),
		Verbose:      flag.Bool("verbose", false, "Print the trade ledger"),

		EnvFile:     flag.String("env", ".env", "Environment file to load"),
		MetricsAddr: flag.String("metrics-addr", "", "Address to serve Prometheus metrics on during sweeps (e.g. :9090)"),

		ShowVersion: flag.Bool("version", false, "Show version and exit"),
	}
}

// Validate performs sanity checks that don't depend on the engine's own
// config validation.
func (f *Flags) Validate() error {
	switch *f.OutputFormat {
	case "console", "json", "csv", "excel":
	default:
		return fmt.Errorf("unknown output format %q", *f.OutputFormat)
	}
	if *f.ConfigFile == "" && *f.DataFile == "" {
		return fmt.Errorf("either -config or -data is required")
	}
	return nil
}

// ParseSweepRisks parses the -sweep-risk list.
func (f *Flags) ParseSweepRisks() ([]float64, error) {
	raw := strings.TrimSpace(*f.SweepRisk)
	if raw == "" {
		return nil, nil
	}
	var risks []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid risk value %q: %w", part, err)
		}
		risks = append(risks, v)
	}
	return risks, nil
}
