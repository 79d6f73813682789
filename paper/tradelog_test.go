package paper

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestTradeLogHeaderWrittenOnce(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trades.csv")

	tl, err := OpenTradeLog(path)
	require.NoError(t, err)
	require.NoError(t, tl.Close())

	// Reopening an existing log must append, not rewrite.
	tl, err = OpenTradeLog(path)
	require.NoError(t, err)
	order := NewOrder("SBER", Buy, 2, 100)
	require.NoError(t, tl.Append(order, &Position{Symbol: "SBER", Quantity: 2, AvgPrice: 100}, 800))
	require.NoError(t, tl.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
}

func TestTradeLogCreatesParentDirectories(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "nested", "trades.csv")

	tl, err := OpenTradeLog(path)
	require.NoError(t, err)
	require.NoError(t, tl.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestTradeLogRowFields(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trades.csv")

	tl, err := OpenTradeLog(path)
	require.NoError(t, err)

	order := NewOrder("SBER", Buy, 2.5, 101.25)
	pos := &Position{
		Symbol:     "SBER",
		Quantity:   2.5,
		AvgPrice:   101.25,
		StopLoss:   fp(99),
		TakeProfit: fp(105.5),
	}
	require.NoError(t, tl.Append(order, pos, 746.875))
	require.NoError(t, tl.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	row := rows[1]
	ts, err := time.Parse(time.RFC3339Nano, row[0])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)
	assert.Equal(t, []string{"SBER", "BUY", "2.5", "101.25", "99", "105.5", "746.875"}, row[1:])
}

func TestTradeLogEmptyLevelFields(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trades.csv")

	tl, err := OpenTradeLog(path)
	require.NoError(t, err)

	order := NewOrder("SBER", Sell, 1, 100)
	require.NoError(t, tl.Append(order, &Position{Symbol: "SBER"}, 1100))
	require.NoError(t, tl.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[1][5], "stop_loss column")
	assert.Empty(t, rows[1][6], "take_profit column")
}

func TestLedgerReopenAppendsToExistingLog(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trades.csv")

	l, err := NewLedger(1000, path)
	require.NoError(t, err)
	require.NoError(t, l.ProcessOrder(NewOrder("SBER", Buy, 1, 100)))
	require.NoError(t, l.Close())

	l, err = NewLedger(1000, path)
	require.NoError(t, err)
	require.NoError(t, l.ProcessOrder(NewOrder("SBER", Buy, 1, 100)))
	require.NoError(t, l.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 3, "one header, two trades")
	assert.Equal(t, Header, rows[0])
	assert.NotEqual(t, Header, rows[1])
}
