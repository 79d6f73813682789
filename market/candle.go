package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// Candle is a single OHLC price/volume bucket.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// rawCandle mirrors the Alor history payload, where time is unix seconds.
type rawCandle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// DecodeCandles converts raw history records into typed candles.
//
// The market-data client hands back raw JSON on purpose; callers that want the
// usual OHLC view opt in here.
func DecodeCandles(records []json.RawMessage) ([]Candle, error) {
	candles := make([]Candle, 0, len(records))
	for i, rec := range records {
		var rc rawCandle
		if err := json.Unmarshal(rec, &rc); err != nil {
			return nil, fmt.Errorf("decode candle %d: %w", i, err)
		}
		candles = append(candles, Candle{
			Time:   time.Unix(rc.Time, 0).UTC(),
			Open:   rc.Open,
			High:   rc.High,
			Low:    rc.Low,
			Close:  rc.Close,
			Volume: rc.Volume,
		})
	}
	return candles, nil
}

// Closes extracts the close-price series, oldest first.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
