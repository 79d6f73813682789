// Package report summarizes a trading session from the trade log's cash
// column, which is the durable record of the account's cash history.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Report holds the account-level result metrics.
type Report struct {
	FinalBalance   float64
	PnL            float64
	ReturnPct      float64
	MaxDrawdownPct float64
}

// Generate reads the trade log at logPath and computes the session summary.
// A missing log file yields the zero-activity report for initialCash.
func Generate(initialCash float64, logPath string) (Report, error) {
	if initialCash <= 0 {
		return Report{}, fmt.Errorf("initial cash must be positive, got %.2f", initialCash)
	}
	series, err := readCashSeries(logPath, initialCash)
	if err != nil {
		return Report{}, err
	}

	final := series[len(series)-1]
	pnl := final - initialCash
	return Report{
		FinalBalance:   final,
		PnL:            pnl,
		ReturnPct:      pnl / initialCash * 100,
		MaxDrawdownPct: maxDrawdown(series),
	}, nil
}

// Print writes a human-readable summary.
func Print(w io.Writer, initialCash float64, r Report) {
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", initialCash)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.FinalBalance)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.PnL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdownPct)
}

// readCashSeries returns the cash balances over time, seeded with the initial
// cash. Rows without a parsable cash value are skipped rather than failing
// the whole report.
func readCashSeries(path string, initialCash float64) ([]float64, error) {
	series := []float64{initialCash}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return series, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return series, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read trade log header: %w", err)
	}

	cashCol := -1
	for i, name := range header {
		if name == "cash" {
			cashCol = i
		}
	}
	if cashCol < 0 {
		return series, nil
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trade log row: %w", err)
		}
		if cashCol >= len(rec) {
			continue
		}
		cash, err := strconv.ParseFloat(rec[cashCol], 64)
		if err != nil {
			continue
		}
		series = append(series, cash)
	}
	return series, nil
}

// maxDrawdown measures the largest percentage fall from a running peak of the
// cash series.
func maxDrawdown(values []float64) float64 {
	peak := values[0]
	maxDD := 0.0
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
