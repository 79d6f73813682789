package paper

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Header is the first row of every trade log. It is written exactly once: a
// log that already exists is appended to, never rewritten.
var Header = []string{"timestamp", "symbol", "side", "quantity", "price", "stop_loss", "take_profit", "cash"}

// TradeLog is the append-only CSV record of processed orders. The cash column
// makes it the durable source of truth for the account's cash history.
type TradeLog struct {
	f *os.File
	w *csv.Writer
}

// OpenTradeLog opens path for appending, creating parent directories and the
// file as needed. The header row is only written when the file is empty, so
// reopening after a restart never duplicates it.
func OpenTradeLog(path string) (*TradeLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	tl := &TradeLog{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := tl.w.Write(Header); err != nil {
			f.Close()
			return nil, err
		}
		tl.w.Flush()
		if err := tl.w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return tl, nil
}

// Append writes one row for a processed order, reflecting the resulting
// position's exit levels and the resulting cash balance.
func (tl *TradeLog) Append(order Order, pos *Position, cash float64) error {
	row := []string{
		order.CreatedAt.UTC().Format(time.RFC3339Nano),
		order.Symbol,
		string(order.Side),
		f(order.Quantity),
		f(order.Price),
		opt(pos.StopLoss),
		opt(pos.TakeProfit),
		f(cash),
	}
	if err := tl.w.Write(row); err != nil {
		return err
	}
	tl.w.Flush()
	return tl.w.Error()
}

// Close flushes buffered rows and closes the file.
func (tl *TradeLog) Close() error {
	tl.w.Flush()
	if err := tl.w.Error(); err != nil {
		tl.f.Close()
		return err
	}
	return tl.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func opt(x *float64) string {
	if x == nil {
		return ""
	}
	return f(*x)
}
