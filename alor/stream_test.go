package alor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quoteServer upgrades every request and hands the connection to fn. It closes
// the connection when fn returns.
func quoteServer(t *testing.T, fn func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func newStreamClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("test-token", WithStreamURL(wsURL(ts)))
	require.NoError(t, err)
	return c
}

// readSubscribe consumes and decodes the subscription frame a client must send
// first on every connection.
func readSubscribe(t *testing.T, conn *websocket.Conn) subscribeFrame {
	t.Helper()
	var frame subscribeFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestSubscribeQuotesDeliversAndStopsAtLimit(t *testing.T) {
	t.Parallel()
	ts := quoteServer(t, func(conn *websocket.Conn, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		frame := readSubscribe(t, conn)
		assert.Equal(t, subscribeFrame{
			Opcode: "QuotesSubscribe", Code: "SBER", Exchange: "MOEX", Format: "Simple",
		}, frame)

		for i := 0; i < 5; i++ {
			if err := conn.WriteJSON(map[string]any{"data": map[string]any{"last_price": 100.0 + float64(i)}}); err != nil {
				return
			}
		}
		// Keep the connection open; the client stops on its own.
		conn.ReadMessage()
	})

	var got []map[string]any
	err := newStreamClient(t, ts).SubscribeQuotes(context.Background(), "SBER", "MOEX",
		func(msg map[string]any) error {
			got = append(got, msg)
			return nil
		},
		StreamOptions{ReconnectAttempts: 3, ReconnectDelay: time.Minute, MaxMessages: 2})

	require.NoError(t, err, "reaching the message limit is a graceful stop")
	assert.Len(t, got, 2)
}

func TestSubscribeQuotesUnauthorizedFrameNeverRetried(t *testing.T) {
	t.Parallel()
	var conns atomic.Int32
	ts := quoteServer(t, func(conn *websocket.Conn, r *http.Request) {
		conns.Add(1)
		readSubscribe(t, conn)
		conn.WriteJSON(map[string]any{"status": 401, "message": "invalid token"})
		conn.ReadMessage()
	})

	handled := 0
	start := time.Now()
	err := newStreamClient(t, ts).SubscribeQuotes(context.Background(), "SBER", "MOEX",
		func(msg map[string]any) error { handled++; return nil },
		StreamOptions{ReconnectAttempts: 5, ReconnectDelay: time.Minute})

	assert.ErrorIs(t, err, ErrAuth)
	assert.Zero(t, handled, "the unauthorized frame must not reach the handler")
	assert.Equal(t, int32(1), conns.Load())
	assert.Less(t, time.Since(start), 5*time.Second, "auth failure must not wait out the reconnect delay")
}

func TestSubscribeQuotesHandshakeRejected(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	err := newStreamClient(t, ts).SubscribeQuotes(context.Background(), "SBER", "MOEX",
		func(msg map[string]any) error { return nil },
		StreamOptions{ReconnectAttempts: 5, ReconnectDelay: time.Minute})
	assert.ErrorIs(t, err, ErrAuth)
}

func TestSubscribeQuotesNonObjectFrameIsFatal(t *testing.T) {
	t.Parallel()
	var conns atomic.Int32
	ts := quoteServer(t, func(conn *websocket.Conn, r *http.Request) {
		conns.Add(1)
		readSubscribe(t, conn)
		conn.WriteMessage(websocket.TextMessage, []byte(`[1,2,3]`))
		conn.ReadMessage()
	})

	err := newStreamClient(t, ts).SubscribeQuotes(context.Background(), "SBER", "MOEX",
		func(msg map[string]any) error { return nil },
		StreamOptions{ReconnectAttempts: 5, ReconnectDelay: time.Minute})

	assert.ErrorIs(t, err, ErrAPI)
	assert.Equal(t, int32(1), conns.Load(), "protocol violations are not retried")
}

func TestSubscribeQuotesReconnectsAndResubscribes(t *testing.T) {
	t.Parallel()
	var conns atomic.Int32
	ts := quoteServer(t, func(conn *websocket.Conn, r *http.Request) {
		n := conns.Add(1)
		frame := readSubscribe(t, conn)
		assert.Equal(t, "SBER", frame.Code, "every connection must re-subscribe")
		if n == 1 {
			return // drop the first connection before sending anything
		}
		conn.WriteJSON(map[string]any{"last_price": 250.5})
		conn.ReadMessage()
	})

	var prices []float64
	err := newStreamClient(t, ts).SubscribeQuotes(context.Background(), "SBER", "MOEX",
		func(msg map[string]any) error {
			if p, ok := msg["last_price"].(float64); ok {
				prices = append(prices, p)
			}
			return nil
		},
		StreamOptions{ReconnectAttempts: 3, ReconnectDelay: 10 * time.Millisecond, MaxMessages: 1})

	require.NoError(t, err)
	assert.Equal(t, int32(2), conns.Load())
	assert.Equal(t, []float64{250.5}, prices)
}

func TestSubscribeQuotesRetriesExhausted(t *testing.T) {
	t.Parallel()
	var conns atomic.Int32
	ts := quoteServer(t, func(conn *websocket.Conn, r *http.Request) {
		conns.Add(1)
		readSubscribe(t, conn)
		// Drop every connection without delivering a message.
	})

	err := newStreamClient(t, ts).SubscribeQuotes(context.Background(), "SBER", "MOEX",
		func(msg map[string]any) error { return nil },
		StreamOptions{ReconnectAttempts: 2, ReconnectDelay: 5 * time.Millisecond})

	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, int32(3), conns.Load(), "initial connection plus two retries")
}

func TestSubscribeQuotesHandlerErrorClassification(t *testing.T) {
	t.Parallel()
	ts := quoteServer(t, func(conn *websocket.Conn, r *http.Request) {
		readSubscribe(t, conn)
		conn.WriteJSON(map[string]any{"last_price": 100.0})
		conn.ReadMessage()
	})

	err := newStreamClient(t, ts).SubscribeQuotes(context.Background(), "SBER", "MOEX",
		func(msg map[string]any) error { return assert.AnError },
		StreamOptions{ReconnectAttempts: 3, ReconnectDelay: time.Minute})

	assert.ErrorIs(t, err, ErrAPI, "plain handler errors are fatal application errors")
}

func TestSubscribeQuotesContextCancel(t *testing.T) {
	t.Parallel()
	ts := quoteServer(t, func(conn *websocket.Conn, r *http.Request) {
		readSubscribe(t, conn)
		for {
			if err := conn.WriteJSON(map[string]any{"last_price": 100.0}); err != nil {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	err := newStreamClient(t, ts).SubscribeQuotes(ctx, "SBER", "MOEX",
		func(msg map[string]any) error {
			cancel()
			return nil
		},
		StreamOptions{ReconnectAttempts: 3, ReconnectDelay: time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseStreamMessage(t *testing.T) {
	t.Parallel()

	msg, err := parseStreamMessage([]byte(`{"data":{"last_price":101.5}}`))
	require.NoError(t, err)
	assert.Contains(t, msg, "data")

	_, err = parseStreamMessage([]byte(`{"status":"401"}`))
	assert.ErrorIs(t, err, ErrAuth, "string status codes count too")

	_, err = parseStreamMessage([]byte(`{"status":200,"message":"ok"}`))
	assert.NoError(t, err)

	_, err = parseStreamMessage([]byte(`not json`))
	assert.ErrorIs(t, err, ErrAPI)

	_, err = parseStreamMessage([]byte(`"quoted string"`))
	assert.ErrorIs(t, err, ErrAPI)
}

func TestSubscribeFrameWireFormat(t *testing.T) {
	t.Parallel()
	raw, err := json.Marshal(subscribeFrame{
		Opcode: "QuotesSubscribe", Code: "GAZP", Exchange: "MOEX", Format: "Simple",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"opcode":"QuotesSubscribe","code":"GAZP","exchange":"MOEX","format":"Simple"}`, string(raw))
}
