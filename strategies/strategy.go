// Package strategies turns candle data into trading signals. Every strategy
// is a pure function: it inspects the series and answers BUY, SELL or HOLD
// without touching the ledger or the market-data client.
package strategies

import (
	"fmt"

	"alortrader/indicators"
	"alortrader/market"
)

// Signal is a trading recommendation.
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// SMACross signals when the fast moving average crosses the slow one: BUY on
// an upward cross, SELL on a downward cross. Until the series is long enough
// to observe both the current and previous averages it holds.
func SMACross(closes []float64, fastPeriod, slowPeriod int) (Signal, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 {
		return Hold, fmt.Errorf("periods must be positive, got fast=%d slow=%d", fastPeriod, slowPeriod)
	}
	if fastPeriod >= slowPeriod {
		return Hold, fmt.Errorf("fast period %d must be below slow period %d", fastPeriod, slowPeriod)
	}
	if len(closes) < slowPeriod+1 {
		return Hold, nil
	}

	currFast, err := indicators.SMA(closes, fastPeriod)
	if err != nil {
		return Hold, err
	}
	currSlow, err := indicators.SMA(closes, slowPeriod)
	if err != nil {
		return Hold, err
	}
	prev := closes[:len(closes)-1]
	prevFast, err := indicators.SMA(prev, fastPeriod)
	if err != nil {
		return Hold, err
	}
	prevSlow, err := indicators.SMA(prev, slowPeriod)
	if err != nil {
		return Hold, err
	}

	switch {
	case currFast > currSlow && prevFast <= prevSlow:
		return Buy, nil
	case currFast < currSlow && prevFast >= prevSlow:
		return Sell, nil
	}
	return Hold, nil
}

// RSILevels signals on oversold/overbought RSI readings: BUY at or below the
// lower threshold, SELL at or above the upper one.
func RSILevels(closes []float64, period int, lower, upper float64) (Signal, error) {
	if period <= 0 {
		return Hold, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(closes) < period+1 {
		return Hold, nil
	}
	rsi, err := indicators.RSI(closes, period)
	if err != nil {
		return Hold, err
	}
	switch {
	case rsi <= lower:
		return Buy, nil
	case rsi >= upper:
		return Sell, nil
	}
	return Hold, nil
}

// Breakout signals when the latest close escapes the prior lookback window:
// BUY above its highest high, SELL below its lowest low.
func Breakout(candles []market.Candle, lookback int) (Signal, error) {
	if lookback <= 0 {
		return Hold, fmt.Errorf("lookback must be positive, got %d", lookback)
	}
	if len(candles) <= lookback {
		return Hold, nil
	}

	last := candles[len(candles)-1]
	window := candles[len(candles)-1-lookback : len(candles)-1]

	highest := window[0].High
	lowest := window[0].Low
	for _, c := range window[1:] {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	switch {
	case last.Close > highest:
		return Buy, nil
	case last.Close < lowest:
		return Sell, nil
	}
	return Hold, nil
}
