package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"alortrader/alor"
	"alortrader/config"
	"alortrader/market"
	"alortrader/metrics"
	"alortrader/paper"
	"alortrader/report"
	"alortrader/strategies"
)

// maxSeriesLen bounds the in-memory price history kept for signal evaluation.
const maxSeriesLen = 500

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream quotes and trade the configured strategy on paper",
	RunE:  runTrader,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTrader(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	token, err := apiToken()
	if err != nil {
		return err
	}

	client, err := alor.NewClient(token, alor.WithLogger(log))
	if err != nil {
		return err
	}
	ledger, err := paper.NewLedger(cfg.InitialCash, cfg.TradeLog, paper.WithLogger(log))
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr)
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics endpoint up")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed the series with recent history so the strategy has context from
	// the first quote on.
	raw, err := client.GetHistoricalCandles(ctx, market.CandleQuery{
		Symbol:   cfg.Symbol,
		Exchange: cfg.Exchange,
		Interval: cfg.Timeframe,
		Limit:    cfg.CandleLimit,
	})
	if err != nil {
		ledger.Close()
		return err
	}
	candles, err := market.DecodeCandles(raw)
	if err != nil {
		ledger.Close()
		return err
	}
	log.Info().Str("symbol", cfg.Symbol).Int("candles", len(candles)).Msg("seeded price history")

	delay, err := cfg.ReconnectDelay()
	if err != nil {
		ledger.Close()
		return err
	}

	streamErr := client.SubscribeQuotes(ctx, cfg.Symbol, cfg.Exchange, func(msg map[string]any) error {
		price, ok := market.LastPrice(msg)
		if !ok {
			return nil // heartbeat or acknowledgement frame
		}
		candles = appendTick(candles, price)

		if exit := ledger.CheckStopTake(cfg.Symbol, price); exit != nil {
			if err := ledger.ProcessOrder(*exit); err != nil {
				log.Warn().Err(err).Msg("forced exit rejected")
			}
			return nil
		}

		sig, err := evaluate(cfg, candles)
		if err != nil {
			return err
		}
		placeOrder(ledger, cfg, sig, price)
		return nil
	}, alor.StreamOptions{
		ReconnectAttempts: cfg.Stream.ReconnectAttempts,
		ReconnectDelay:    delay,
		MaxMessages:       cfg.Stream.MaxMessages,
	})

	if err := ledger.Close(); err != nil {
		log.Warn().Err(err).Msg("trade log close failed")
	}
	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		return streamErr
	}

	rep, err := report.Generate(cfg.InitialCash, cfg.TradeLog)
	if err != nil {
		return err
	}
	report.Print(os.Stdout, cfg.InitialCash, rep)
	return nil
}

// appendTick extends the candle series with a quote-derived point, trimming
// the series to a bounded window.
func appendTick(candles []market.Candle, price float64) []market.Candle {
	candles = append(candles, market.Candle{
		Time:  time.Now().UTC(),
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
	})
	if len(candles) > maxSeriesLen {
		candles = candles[len(candles)-maxSeriesLen:]
	}
	return candles
}

func evaluate(cfg *config.Config, candles []market.Candle) (strategies.Signal, error) {
	closes := market.Closes(candles)
	switch cfg.Strategy {
	case "rsi":
		return strategies.RSILevels(closes, cfg.RSI.Period, cfg.RSI.Lower, cfg.RSI.Upper)
	case "breakout":
		return strategies.Breakout(candles, cfg.Breakout.Lookback)
	default:
		return strategies.SMACross(closes, cfg.SMA.Fast, cfg.SMA.Slow)
	}
}

// placeOrder turns a signal into a ledger order. Rejections are logged and
// swallowed: a failed buy or sell must not kill the stream.
func placeOrder(ledger *paper.Ledger, cfg *config.Config, sig strategies.Signal, price float64) {
	switch sig {
	case strategies.Buy:
		order := paper.NewOrder(cfg.Symbol, paper.Buy, cfg.PositionSize, price)
		sl := price * (1 - cfg.StopLossPct/100)
		tp := price * (1 + cfg.TakeProfitPct/100)
		order.StopLoss = &sl
		order.TakeProfit = &tp
		if err := ledger.ProcessOrder(order); err != nil {
			log.Warn().Err(err).Float64("price", price).Msg("buy rejected")
		}
	case strategies.Sell:
		pos, ok := ledger.Position(cfg.Symbol)
		if !ok {
			return
		}
		order := paper.NewOrder(cfg.Symbol, paper.Sell, pos.Quantity, price)
		if err := ledger.ProcessOrder(order); err != nil {
			log.Warn().Err(err).Float64("price", price).Msg("sell rejected")
		}
	}
}
