package alor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"alortrader/metrics"
)

// StreamState tracks where a quote subscription is in its lifecycle.
type StreamState int

const (
	StateDisconnected StreamState = iota
	StateConnecting
	StateSubscribed
	StateStreaming
	StateCompleted
	StateAuthFailed
	StateFailed
)

func (s StreamState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAuthFailed:
		return "auth_failed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// QuoteHandler receives each decoded quote message. Dispatch is strictly
// sequential: the next frame is not read until the handler returns, so a slow
// handler stalls the stream but never loses or reorders messages. A returned
// error stops the subscription; errors wrapping ErrAuth or ErrConnection keep
// their classification, anything else is treated as ErrAPI.
type QuoteHandler func(msg map[string]any) error

// StreamOptions bounds a quote subscription.
type StreamOptions struct {
	// ReconnectAttempts is how many times a dropped connection is re-dialed
	// before the subscription fails.
	ReconnectAttempts int
	// ReconnectDelay is the fixed pause between reconnect attempts. The
	// backoff is deliberately linear, not exponential.
	ReconnectDelay time.Duration
	// MaxMessages stops the subscription cleanly after that many messages
	// have been dispatched on one connection. Zero means unlimited.
	MaxMessages int
}

// DefaultReconnectDelay is used when StreamOptions.ReconnectDelay is unset.
const DefaultReconnectDelay = time.Second

// subscribeFrame is sent once per successful connection, before the receive
// loop starts. A reconnect therefore always re-subscribes.
type subscribeFrame struct {
	Opcode   string `json:"opcode"`
	Code     string `json:"code"`
	Exchange string `json:"exchange"`
	Format   string `json:"format"`
}

// SubscribeQuotes subscribes to the instrument's quote feed and dispatches
// every message to handler until the context is cancelled, MaxMessages is
// reached, an unrecoverable error occurs, or the reconnect budget runs out.
//
// Transport failures are retried with a fixed delay; an authorization failure
// terminates immediately and is never retried.
func (c *Client) SubscribeQuotes(ctx context.Context, symbol, exchange string, handler QuoteHandler, opts StreamOptions) error {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}

	state := StateDisconnected
	advance := func(next StreamState) {
		c.log.Debug().Stringer("from", state).Stringer("to", next).Str("symbol", symbol).Msg("quote stream transition")
		state = next
	}

	attempts := 0
	for {
		advance(StateConnecting)
		err := c.streamOnce(ctx, symbol, exchange, handler, opts, advance)
		switch {
		case err == nil:
			advance(StateCompleted)
			return nil
		case errors.Is(err, ErrAuth):
			advance(StateAuthFailed)
			return err
		case errors.Is(err, ErrConnection):
			attempts++
			if attempts > opts.ReconnectAttempts {
				advance(StateFailed)
				return fmt.Errorf("%w: quote stream not recovered after %d attempts: %v", ErrConnection, attempts, err)
			}
			metrics.StreamReconnects.WithLabelValues(symbol).Inc()
			c.log.Warn().Err(err).Int("attempt", attempts).Dur("delay", opts.ReconnectDelay).
				Msg("quote stream disconnected, retrying")
			advance(StateDisconnected)
			select {
			case <-time.After(opts.ReconnectDelay):
			case <-ctx.Done():
				advance(StateFailed)
				return ctx.Err()
			}
		default:
			advance(StateFailed)
			return err
		}
	}
}

// streamOnce runs one connect → subscribe → receive cycle. It returns nil only
// for the MaxMessages graceful stop.
func (c *Client) streamOnce(ctx context.Context, symbol, exchange string, handler QuoteHandler, opts StreamOptions, advance func(StreamState)) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	c.authorize(header)

	conn, resp, err := dialer.DialContext(ctx, c.streamURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: stream handshake rejected (http 401)", ErrAuth)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, c.streamURL, err)
	}
	defer conn.Close()

	frame := subscribeFrame{Opcode: "QuotesSubscribe", Code: symbol, Exchange: exchange, Format: "Simple"}
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("%w: send subscription: %v", ErrConnection, err)
	}
	advance(StateSubscribed)
	advance(StateStreaming)

	received := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: read quote frame: %v", ErrConnection, err)
		}

		msg, err := parseStreamMessage(raw)
		if err != nil {
			return err
		}
		if err := dispatchQuote(handler, msg); err != nil {
			return err
		}
		metrics.StreamMessages.WithLabelValues(symbol).Inc()

		received++
		if opts.MaxMessages > 0 && received >= opts.MaxMessages {
			c.log.Info().Str("symbol", symbol).Int("messages", received).Msg("quote stream reached message limit")
			return nil
		}
	}
}

// parseStreamMessage decodes a frame and enforces the channel contract: the
// payload must be a JSON object, and an unauthorized status terminates the
// subscription without retry.
func parseStreamMessage(raw []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: invalid json in quote frame", ErrAPI)
	}
	msg, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: quote frame is not a json object", ErrAPI)
	}
	if status, ok := msg["status"]; ok && isUnauthorized(status) {
		return nil, fmt.Errorf("%w: stream reported unauthorized", ErrAuth)
	}
	return msg, nil
}

func isUnauthorized(status any) bool {
	switch s := status.(type) {
	case float64:
		return int(s) == http.StatusUnauthorized
	case string:
		return s == "401"
	}
	return false
}

// dispatchQuote invokes the handler and classifies its error. Auth and
// connection errors pass through unwrapped; everything else becomes ErrAPI.
func dispatchQuote(handler QuoteHandler, msg map[string]any) error {
	err := handler(msg)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrConnection) {
		return err
	}
	return fmt.Errorf("%w: quote handler: %v", ErrAPI, err)
}
