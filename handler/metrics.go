package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.latency,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware labels requests with the route template routes matches, so
// "/api/products/{id:[0-9]+}" is one series rather than one per product.
// It wraps the router from outside, so requests that match no route are
// counted as "unmatched". A request whose handler panics is counted as 500.
func (m *Metrics) Middleware(routes *mux.Router) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeTemplate(routes, r)
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			panicked := true
			defer func() {
				code := rec.code()
				if panicked {
					code = http.StatusInternalServerError
				}
				m.requests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
				m.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			}()
			next.ServeHTTP(rec, r)
			panicked = false
		})
	}
}

func routeTemplate(routes *mux.Router, r *http.Request) string {
	var match mux.RouteMatch
	if !routes.Match(r, &match) || match.MatchErr != nil || match.Route == nil {
		return "unmatched"
	}
	tpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tpl
}
