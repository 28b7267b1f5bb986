package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/backtest-engine/internal/backtest"
)

// StrategyConfig holds parameters of the reference SMA crossover
// strategy.
type StrategyConfig struct {
	FastPeriod int     `json:"fast_period" yaml:"fast_period"`
	SlowPeriod int     `json:"slow_period" yaml:"slow_period"`
	ATRPeriod  int     `json:"atr_period" yaml:"atr_period"`
	ATRMult    float64 `json:"atr_multiplier" yaml:"atr_multiplier"`
}

// Config is the file-level configuration of a backtest: where the data
// lives, the run parameters, and the strategy parameters.
type Config struct {
	DataFile string                  `json:"data_file" yaml:"data_file"`
	Backtest backtest.BacktestConfig `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig          `json:"strategy" yaml:"strategy"`
}

// NewDefaultConfig returns a config with conventional defaults.
func NewDefaultConfig(symbol string) *Config {
	return &Config{
		Backtest: *backtest.NewDefaultConfig(symbol),
		Strategy: StrategyConfig{
			FastPeriod: 10,
			SlowPeriod: 30,
			ATRPeriod:  14,
			ATRMult:    2.0,
		},
	}
}

// Load reads a configuration file, JSON or YAML by extension, on top of
// the defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig("")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("could not parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("could not parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .json, .yaml or .yml)", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the full configuration, delegating run parameters to
// the engine's own validation.
func (c *Config) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if c.Strategy.FastPeriod <= 0 || c.Strategy.SlowPeriod <= 0 {
		return fmt.Errorf("strategy periods must be positive, got fast=%d slow=%d", c.Strategy.FastPeriod, c.Strategy.SlowPeriod)
	}
	if c.Strategy.FastPeriod >= c.Strategy.SlowPeriod {
		return fmt.Errorf("strategy fast period %d must be below slow period %d", c.Strategy.FastPeriod, c.Strategy.SlowPeriod)
	}
	if c.Strategy.ATRPeriod <= 0 {
		return fmt.Errorf("strategy ATR period must be positive, got %d", c.Strategy.ATRPeriod)
	}
	// The strategy needs one candle beyond the slow period to detect a
	// cross, so the warmup window must cover it.
	if c.Backtest.WindowSize <= c.Strategy.SlowPeriod {
		c.Backtest.WindowSize = c.Strategy.SlowPeriod + 1
	}
	return nil
}
