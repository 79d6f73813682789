package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the trading parameters. The API token is deliberately not part
// of the document; it comes from the ALOR_TOKEN environment variable so that
// config files stay shareable.
type Config struct {
	Symbol       string  `yaml:"symbol"`
	Exchange     string  `yaml:"exchange"`
	Timeframe    string  `yaml:"timeframe"` // broker timeframe notation, minutes
	CandleLimit  int     `yaml:"candle_limit"`
	PositionSize float64 `yaml:"position_size"`
	InitialCash  float64 `yaml:"initial_cash"`
	// Exit levels as a percentage offset from the fill price.
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
	TradeLog      string  `yaml:"trade_log"`

	Strategy string `yaml:"strategy"` // sma_cross, rsi or breakout

	SMA struct {
		Fast int `yaml:"fast"`
		Slow int `yaml:"slow"`
	} `yaml:"sma"`
	RSI struct {
		Period int     `yaml:"period"`
		Lower  float64 `yaml:"lower"`
		Upper  float64 `yaml:"upper"`
	} `yaml:"rsi"`
	Breakout struct {
		Lookback int `yaml:"lookback"`
	} `yaml:"breakout"`

	Stream struct {
		ReconnectAttempts int    `yaml:"reconnect_attempts"`
		ReconnectDelay    string `yaml:"reconnect_delay"` // e.g. "1s", "500ms"
		MaxMessages       int    `yaml:"max_messages"`    // 0 = run until stopped
	} `yaml:"stream"`

	MetricsAddr string `yaml:"metrics_addr"` // empty disables the /metrics endpoint
}

// ReconnectDelay parses the configured delay.
func (c *Config) ReconnectDelay() (time.Duration, error) {
	if c.Stream.ReconnectDelay == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Stream.ReconnectDelay)
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	c := &Config{
		Symbol:        "SBER",
		Exchange:      "MOEX",
		Timeframe:     "5",
		CandleLimit:   50,
		PositionSize:  10,
		InitialCash:   100000,
		StopLossPct:   2.0,
		TakeProfitPct: 4.0,
		TradeLog:      "logs/trades.csv",
		Strategy:      "sma_cross",
	}
	c.SMA.Fast = 9
	c.SMA.Slow = 21
	c.RSI.Period = 14
	c.RSI.Lower = 30
	c.RSI.Upper = 70
	c.Breakout.Lookback = 20
	c.Stream.ReconnectAttempts = 3
	c.Stream.ReconnectDelay = "1s"
	return c
}

// Load reads and validates a YAML config, filling unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Exchange == "" {
		return fmt.Errorf("exchange is required")
	}
	if c.PositionSize <= 0 {
		return fmt.Errorf("position_size must be positive")
	}
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be positive")
	}
	if c.StopLossPct <= 0 || c.TakeProfitPct <= 0 {
		return fmt.Errorf("stop_loss_pct and take_profit_pct must be positive")
	}
	if c.StopLossPct >= 100 {
		return fmt.Errorf("stop_loss_pct must be below 100")
	}
	if c.CandleLimit <= 0 {
		return fmt.Errorf("candle_limit must be positive")
	}
	switch c.Strategy {
	case "sma_cross":
		if c.SMA.Fast <= 0 || c.SMA.Slow <= 0 || c.SMA.Fast >= c.SMA.Slow {
			return fmt.Errorf("sma.fast must be positive and below sma.slow")
		}
	case "rsi":
		if c.RSI.Period <= 0 {
			return fmt.Errorf("rsi.period must be positive")
		}
		if c.RSI.Lower >= c.RSI.Upper {
			return fmt.Errorf("rsi.lower must be below rsi.upper")
		}
	case "breakout":
		if c.Breakout.Lookback <= 0 {
			return fmt.Errorf("breakout.lookback must be positive")
		}
	default:
		return fmt.Errorf("strategy must be 'sma_cross', 'rsi' or 'breakout', got %q", c.Strategy)
	}
	if c.Stream.ReconnectAttempts < 0 {
		return fmt.Errorf("stream.reconnect_attempts must not be negative")
	}
	if _, err := c.ReconnectDelay(); err != nil {
		return fmt.Errorf("stream.reconnect_delay: %w", err)
	}
	if c.TradeLog == "" {
		return fmt.Errorf("trade_log is required")
	}
	return nil
}
