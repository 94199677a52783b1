package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request counts and latencies labelled by route pattern.
// Middleware belongs at the outside of the chain so rejected and recovered
// requests are counted; Route must wrap the ServeMux to report the pattern
// it matched.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "libraryapi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests served.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "libraryapi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

type routeKey struct{}

type routeLabel struct {
	pattern string
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		label := &routeLabel{}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), routeKey{}, label)))

		// Requests the mux never matched share one label to keep
		// cardinality bounded.
		route := label.pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Route copies the pattern the mux matched into the label Middleware reads.
// The mux sets r.Pattern on the request it was handed, so Route must wrap it
// directly.
func (m *Metrics) Route(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if label, ok := r.Context().Value(routeKey{}).(*routeLabel); ok {
				label.pattern = r.Pattern
			}
		}()
		mux.ServeHTTP(w, r)
	})
}
