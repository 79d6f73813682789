package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"alortrader/config"
)

var (
	cfgFile  string
	logLevel string
	log      zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "alor-trader",
	Short: "Paper trading against Alor OpenAPI market data",
	Long: `alor-trader streams quotes from the Alor OpenAPI, evaluates a configured
strategy and simulates order execution against a paper ledger.

No real orders are ever routed; every simulated fill is appended to a CSV
trade log that the report command summarizes.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; the token can come from the environment directly.
		_ = godotenv.Load()

		lvl, err := zerolog.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		log = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig reads the configured file, falling back to defaults when it does
// not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

// apiToken fetches the bearer token from the environment.
func apiToken() (string, error) {
	token := os.Getenv("ALOR_TOKEN")
	if token == "" {
		return "", fmt.Errorf("ALOR_TOKEN is not set")
	}
	return token, nil
}
