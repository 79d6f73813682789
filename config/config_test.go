package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
symbol: GAZP
initial_cash: 50000
strategy: rsi
rsi:
  period: 7
  lower: 25
  upper: 75
stream:
  reconnect_attempts: 5
  reconnect_delay: 500ms
  max_messages: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GAZP", cfg.Symbol)
	assert.Equal(t, "MOEX", cfg.Exchange, "unset fields keep their defaults")
	assert.InDelta(t, 50000, cfg.InitialCash, 1e-9)
	assert.Equal(t, "rsi", cfg.Strategy)
	assert.Equal(t, 7, cfg.RSI.Period)
	assert.Equal(t, 5, cfg.Stream.ReconnectAttempts)
	assert.Equal(t, 100, cfg.Stream.MaxMessages)

	delay, err := cfg.ReconnectDelay()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, delay)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "symbol: [unclosed"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"empty symbol":           func(c *Config) { c.Symbol = "" },
		"empty exchange":         func(c *Config) { c.Exchange = "" },
		"zero position size":     func(c *Config) { c.PositionSize = 0 },
		"zero initial cash":      func(c *Config) { c.InitialCash = 0 },
		"zero stop loss":         func(c *Config) { c.StopLossPct = 0 },
		"stop loss over 100":     func(c *Config) { c.StopLossPct = 150 },
		"zero candle limit":      func(c *Config) { c.CandleLimit = 0 },
		"unknown strategy":       func(c *Config) { c.Strategy = "martingale" },
		"fast sma not below":     func(c *Config) { c.SMA.Fast = 21; c.SMA.Slow = 21 },
		"rsi bands inverted":     func(c *Config) { c.Strategy = "rsi"; c.RSI.Lower = 80 },
		"zero breakout lookback": func(c *Config) { c.Strategy = "breakout"; c.Breakout.Lookback = 0 },
		"negative reconnects":    func(c *Config) { c.Stream.ReconnectAttempts = -1 },
		"bad reconnect delay":    func(c *Config) { c.Stream.ReconnectDelay = "soon" },
		"empty trade log":        func(c *Config) { c.TradeLog = "" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestReconnectDelayEmptyMeansZero(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Stream.ReconnectDelay = ""
	delay, err := cfg.ReconnectDelay()
	require.NoError(t, err)
	assert.Zero(t, delay)
}
