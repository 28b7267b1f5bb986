package backtest

import (
	"fmt"
	"math"
	"time"
)

// SlippageModel selects how fill prices deviate from the raw candle price.
// Exactly one model applies per run, to both entries and exits.
type SlippageModel string

const (
	SlippageNone         SlippageModel = "none"
	SlippageFixed        SlippageModel = "fixed"
	SlippageProportional SlippageModel = "proportional"
)

const (
	DefaultCommissionRate     = 0.0005 // 0.05%
	DefaultSlippageBps        = 5.0
	DefaultRiskPerTrade       = 0.01
	DefaultStopLossPercent    = 0.02
	DefaultMinStopLossPercent = 0.005
	DefaultMaxPositionPercent = 0.5
	DefaultAnnualizationDays  = 252.0
	DefaultWindowSize         = 50

	maxSlippageBps = 1000.0 // 10%, anything above is a config mistake
)

// BacktestConfig holds the immutable parameters of one run. It is
// validated once before the first candle; an invalid config fails the
// run fast with a ConfigError.
type BacktestConfig struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Interval string `json:"interval" yaml:"interval"`

	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`

	Slippage    SlippageModel `json:"slippage_model" yaml:"slippage_model"`
	SlippageBps float64       `json:"slippage_bps" yaml:"slippage_bps"`

	RiskPerTrade           float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
	DefaultStopLossPercent float64 `json:"default_stop_loss_percent" yaml:"default_stop_loss_percent"`
	MinStopLossPercent     float64 `json:"min_stop_loss_percent" yaml:"min_stop_loss_percent"`
	MaxPositionPercent     float64 `json:"max_position_percent" yaml:"max_position_percent"`

	// AnnualizationFactor scales daily Sharpe/Sortino to annual figures.
	AnnualizationFactor float64 `json:"annualization_factor" yaml:"annualization_factor"`

	// WindowSize is the number of warmup candles handed to the strategy
	// before the first tradable candle.
	WindowSize int `json:"window_size" yaml:"window_size"`

	// TimeZone and DayCutoffHour define the daily mark-to-market boundary
	// for markets whose sessions do not end at UTC midnight.
	TimeZone      string `json:"time_zone" yaml:"time_zone"`
	DayCutoffHour int    `json:"day_cutoff_hour" yaml:"day_cutoff_hour"`
}

// NewDefaultConfig returns a config with conventional defaults applied.
func NewDefaultConfig(symbol string) *BacktestConfig {
	return &BacktestConfig{
		Symbol:                 symbol,
		InitialBalance:         10000,
		CommissionRate:         DefaultCommissionRate,
		Slippage:               SlippageFixed,
		SlippageBps:            DefaultSlippageBps,
		RiskPerTrade:           DefaultRiskPerTrade,
		DefaultStopLossPercent: DefaultStopLossPercent,
		MinStopLossPercent:     DefaultMinStopLossPercent,
		MaxPositionPercent:     DefaultMaxPositionPercent,
		AnnualizationFactor:    DefaultAnnualizationDays,
		WindowSize:             DefaultWindowSize,
		TimeZone:               "UTC",
	}
}

// Validate checks all run parameters and returns a ConfigError on the
// first violation.
func (c *BacktestConfig) Validate() error {
	if c.Symbol == "" {
		return &ConfigError{Field: "symbol", Reason: "must not be empty"}
	}
	if !isFinite(c.InitialBalance) || c.InitialBalance <= 0 {
		return &ConfigError{Field: "initial_balance", Reason: fmt.Sprintf("must be positive, got %v", c.InitialBalance)}
	}
	if !isFinite(c.CommissionRate) || c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return &ConfigError{Field: "commission_rate", Reason: fmt.Sprintf("must be in [0, 1), got %v", c.CommissionRate)}
	}
	switch c.Slippage {
	case SlippageNone, SlippageFixed, SlippageProportional:
	case "":
		c.Slippage = SlippageNone
	default:
		return &ConfigError{Field: "slippage_model", Reason: fmt.Sprintf("unknown model %q", c.Slippage)}
	}
	if !isFinite(c.SlippageBps) || c.SlippageBps < 0 || c.SlippageBps > maxSlippageBps {
		return &ConfigError{Field: "slippage_bps", Reason: fmt.Sprintf("must be in [0, %v], got %v", maxSlippageBps, c.SlippageBps)}
	}
	if !isFinite(c.RiskPerTrade) || c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return &ConfigError{Field: "risk_per_trade", Reason: fmt.Sprintf("must be in (0, 1], got %v", c.RiskPerTrade)}
	}
	if !isFinite(c.DefaultStopLossPercent) || c.DefaultStopLossPercent <= 0 || c.DefaultStopLossPercent >= 1 {
		return &ConfigError{Field: "default_stop_loss_percent", Reason: fmt.Sprintf("must be in (0, 1), got %v", c.DefaultStopLossPercent)}
	}
	if !isFinite(c.MinStopLossPercent) || c.MinStopLossPercent <= 0 || c.MinStopLossPercent >= 1 {
		return &ConfigError{Field: "min_stop_loss_percent", Reason: fmt.Sprintf("must be in (0, 1), got %v", c.MinStopLossPercent)}
	}
	if !isFinite(c.MaxPositionPercent) || c.MaxPositionPercent <= 0 || c.MaxPositionPercent > 1 {
		return &ConfigError{Field: "max_position_percent", Reason: fmt.Sprintf("must be in (0, 1], got %v", c.MaxPositionPercent)}
	}
	if c.AnnualizationFactor == 0 {
		c.AnnualizationFactor = DefaultAnnualizationDays
	}
	if !isFinite(c.AnnualizationFactor) || c.AnnualizationFactor <= 0 {
		return &ConfigError{Field: "annualization_factor", Reason: fmt.Sprintf("must be positive, got %v", c.AnnualizationFactor)}
	}
	if c.WindowSize < 0 {
		return &ConfigError{Field: "window_size", Reason: fmt.Sprintf("must be >= 0, got %d", c.WindowSize)}
	}
	if c.DayCutoffHour < 0 || c.DayCutoffHour > 23 {
		return &ConfigError{Field: "day_cutoff_hour", Reason: fmt.Sprintf("must be in [0, 23], got %d", c.DayCutoffHour)}
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return &ConfigError{Field: "time_zone", Reason: err.Error()}
		}
	}
	return nil
}

// Location resolves the configured mark-to-market time zone, defaulting
// to UTC. Validate must have accepted the config first.
func (c *BacktestConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DayCutoff returns the session cutoff as a duration past midnight.
func (c *BacktestConfig) DayCutoff() time.Duration {
	return time.Duration(c.DayCutoffHour) * time.Hour
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
