package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StreamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alor_stream_messages_total", Help: "Quote messages dispatched to handlers"},
		[]string{"symbol"},
	)
	StreamReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alor_stream_reconnects_total", Help: "Quote stream reconnect attempts"},
		[]string{"symbol"},
	)
	OrdersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "paper_orders_processed_total", Help: "Orders applied to the ledger"},
		[]string{"symbol", "side"},
	)
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "paper_orders_rejected_total", Help: "Orders rejected by ledger validation"},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(StreamMessages, StreamReconnects, OrdersProcessed, OrdersRejected)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
