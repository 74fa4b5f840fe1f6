// Package metrics exposes Prometheus metrics for the API and worker.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScryfallRequestsTotal counts upstream card data requests by endpoint and status.
	ScryfallRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glimpse_scryfall_requests_total",
			Help: "Total number of requests made to the card data API",
		},
		[]string{"endpoint", "status"},
	)

	// ScryfallRequestDuration observes upstream latency, limiter wait excluded.
	ScryfallRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glimpse_scryfall_request_duration_seconds",
			Help:    "Card data API request latencies",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// CardCacheLookupsTotal counts price summary cache hits and misses.
	CardCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glimpse_card_cache_lookups_total",
			Help: "Card price cache lookups by result",
		},
		[]string{"result"},
	)

	// CardRefreshesTotal counts worker re-prices by outcome.
	CardRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glimpse_card_refreshes_total",
			Help: "Total number of stored cards re-priced",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal counts API requests by route and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glimpse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes API latencies by route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glimpse_http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ScryfallRequestsTotal,
			ScryfallRequestDuration,
			CardCacheLookupsTotal,
			CardRefreshesTotal,
			HTTPRequestsTotal,
			HTTPRequestDuration,
		)
	})
}

// Handler serves the default registry on a Fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// ServeHTTP serves the default registry on its own listener, for processes without an API.
func ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// Middleware records request counts and latencies per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordScryfallRequest records one upstream call.
func RecordScryfallRequest(endpoint string, status int, duration time.Duration) {
	ScryfallRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	ScryfallRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a price summary cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CardCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRefresh records a stored card re-price.
func RecordRefresh(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	CardRefreshesTotal.WithLabelValues(status).Inc()
}
