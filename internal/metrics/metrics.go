// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuoteRequests counts live quote lookups made while valuing holdings
	QuoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_quote_requests_total",
		Help: "Quote lookups made while valuing holdings, by result.",
	}, []string{"result"})

	// QuoteFallbacks counts holdings valued at purchase price because no quote was available
	QuoteFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_quote_fallbacks_total",
		Help: "Holdings valued at their purchase price because no live quote was available.",
	})

	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_ledger_operations_total",
		Help: "Ledger operations by operation and result.",
	}, []string{"operation", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_http_request_duration_seconds",
		Help:    "HTTP request latency by route template, method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency labelled with the matched mux route
// template, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tmpl, err := cr.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
