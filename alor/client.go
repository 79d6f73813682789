package alor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"alortrader/market"
)

const (
	// DefaultRESTURL is the Alor OpenAPI production REST endpoint.
	DefaultRESTURL = "https://api.alor.ru"
	// DefaultStreamURL is the Alor OpenAPI websocket endpoint.
	DefaultStreamURL = "wss://api.alor.ru/ws"

	defaultRESTTimeout = 10 * time.Second
	maxErrBodyLen      = 200
)

// Client talks to the Alor OpenAPI: one-shot REST queries for history and
// order books, plus a long-lived quote subscription over websocket.
type Client struct {
	restURL   string
	streamURL string
	token     string
	http      *http.Client
	log       zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRESTURL overrides the REST base URL.
func WithRESTURL(u string) Option { return func(c *Client) { c.restURL = u } }

// WithStreamURL overrides the websocket URL.
func WithStreamURL(u string) Option { return func(c *Client) { c.streamURL = u } }

// WithHTTPClient injects the HTTP client used for REST calls.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option { return func(c *Client) { c.log = log } }

// NewClient builds a client for the given bearer token. An empty token is
// rejected up front: nothing the client does can succeed without one.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrAuth)
	}
	c := &Client{
		restURL:   DefaultRESTURL,
		streamURL: DefaultStreamURL,
		token:     token,
		http:      &http.Client{Timeout: defaultRESTTimeout},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetHistoricalCandles fetches up to q.Limit candles for the instrument and
// returns the raw records untouched; schema interpretation is left to the
// caller (see market.DecodeCandles for the typed view).
func (c *Client) GetHistoricalCandles(ctx context.Context, q market.CandleQuery) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/md/v2/history/%s/%s", c.restURL, q.Exchange, q.Symbol)
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("timeframe", q.Interval)

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	// The history endpoint wraps records in {"candles": [...]}, but a bare
	// array is accepted too.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		var bare []json.RawMessage
		if err := json.Unmarshal(body, &bare); err != nil {
			return nil, fmt.Errorf("%w: invalid json in history response", ErrAPI)
		}
		return bare, nil
	}
	raw, ok := envelope["candles"]
	if !ok {
		return nil, fmt.Errorf("%w: history response has no candle data", ErrAPI)
	}
	var candles []json.RawMessage
	if err := json.Unmarshal(raw, &candles); err != nil {
		return nil, fmt.Errorf("%w: malformed candle data", ErrAPI)
	}
	c.log.Debug().Str("symbol", q.Symbol).Int("count", len(candles)).Msg("fetched historical candles")
	return candles, nil
}

// GetOrderBook fetches the current bid/ask ladder and returns the raw book
// object.
func (c *Client) GetOrderBook(ctx context.Context, q market.BookQuery) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/md/v2/orderBook/%s/%s", c.restURL, q.Exchange, q.Symbol)
	params := url.Values{}
	params.Set("depth", strconv.Itoa(q.Depth))

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json in order book response", ErrAPI)
	}
	return json.RawMessage(body), nil
}

// get issues a single authorized GET with the client's fixed timeout and maps
// failures onto the error taxonomy. There is no retry here; callers that need
// resilience retry externally.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnection, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrConnection, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: token rejected (http 401)", ErrAuth)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http %d: %s", ErrAPI, resp.StatusCode, truncate(string(body)))
	}
	return body, nil
}

// authorize attaches the bearer token and accept headers used on every REST
// call and websocket handshake.
func (c *Client) authorize(h http.Header) {
	h.Set("Authorization", "Bearer "+c.token)
	h.Set("Accept", "application/json")
}

func truncate(s string) string {
	if len(s) <= maxErrBodyLen {
		return s
	}
	return s[:maxErrBodyLen] + "..."
}
