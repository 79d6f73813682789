package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"alortrader/alor"
	"alortrader/market"
)

var candlesLimit int

var candlesCmd = &cobra.Command{
	Use:   "candles [symbol]",
	Short: "Fetch recent historical candles and print them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := apiToken()
		if err != nil {
			return err
		}
		symbol := cfg.Symbol
		if len(args) == 1 {
			symbol = args[0]
		}
		limit := cfg.CandleLimit
		if candlesLimit > 0 {
			limit = candlesLimit
		}

		client, err := alor.NewClient(token, alor.WithLogger(log))
		if err != nil {
			return err
		}
		raw, err := client.GetHistoricalCandles(cmd.Context(), market.CandleQuery{
			Symbol:   symbol,
			Exchange: cfg.Exchange,
			Interval: cfg.Timeframe,
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		candles, err := market.DecodeCandles(raw)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME")
		for _, c := range candles {
			fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%g\n",
				c.Time.Format(time.RFC3339), c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		return w.Flush()
	},
}

func init() {
	candlesCmd.Flags().IntVar(&candlesLimit, "limit", 0, "number of candles (default from config)")
	rootCmd.AddCommand(candlesCmd)
}
