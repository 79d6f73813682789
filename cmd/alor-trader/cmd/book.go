package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"alortrader/alor"
	"alortrader/market"
)

var bookDepth int

var bookCmd = &cobra.Command{
	Use:   "book [symbol]",
	Short: "Fetch the current order book and print it as JSON",
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

		client, err := alor.NewClient(token, alor.WithLogger(log))
		if err != nil {
			return err
		}
		book, err := client.GetOrderBook(cmd.Context(), market.BookQuery{
			Symbol:   symbol,
			Exchange: cfg.Exchange,
			Depth:    bookDepth,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(book))
		return nil
	},
}

func init() {
	bookCmd.Flags().IntVar(&bookDepth, "depth", 10, "order book depth")
	rootCmd.AddCommand(bookCmd)
}
