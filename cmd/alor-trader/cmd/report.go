package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"alortrader/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the trade log: balance, P/L, return and drawdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rep, err := report.Generate(cfg.InitialCash, cfg.TradeLog)
		if err != nil {
			return err
		}
		report.Print(os.Stdout, cfg.InitialCash, rep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
