// Package metrics exposes Prometheus collectors for the listing tool server.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	toolCallsTotal             *prometheus.CounterVec
	toolCallDurationSeconds    *prometheus.HistogramVec
	listingsExtractedTotal     *prometheus.CounterVec
	upstreamFetchesTotal       *prometheus.CounterVec
	upstreamBytesTotal         *prometheus.CounterVec
	robotsLoadsTotal           *prometheus.CounterVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		toolCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayscout_tool_calls_total",
				Help: "Total number of tool calls, labeled by tool and outcome kind.",
			},
			[]string{"tool", "outcome"},
		)

		toolCallDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stayscout_tool_call_duration_seconds",
				Help:    "Histogram of tool call latencies, labeled by tool.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"tool"},
		)

		listingsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayscout_records_extracted_total",
				Help: "Total number of records extracted from fetched pages, labeled by shape.",
			},
			[]string{"shape"},
		)

		upstreamFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayscout_upstream_fetches_total",
				Help: "Total number of outbound page fetches, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		upstreamBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayscout_upstream_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		robotsLoadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayscout_robots_loads_total",
				Help: "Total robots.txt load attempts, labeled by result.",
			},
			[]string{"result"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stayscout_rate_limit_delays_seconds",
				Help:    "Histogram of outbound rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveToolCall records one dispatched tool call. outcome is "ok" or an error kind.
func ObserveToolCall(tool, outcome string, duration time.Duration) {
	Init()
	toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	toolCallDurationSeconds.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveRecords adds n extracted records of the given shape.
func ObserveRecords(shape string, n int) {
	Init()
	if n > 0 {
		listingsExtractedTotal.WithLabelValues(shape).Add(float64(n))
	}
}

// ObserveFetch records an outbound fetch. status is the HTTP code or "error".
func ObserveFetch(site string, status string, bytesFetched int) {
	Init()
	sanitizedSite := SanitizeSite(site)
	upstreamFetchesTotal.WithLabelValues(sanitizedSite, status).Inc()
	if bytesFetched > 0 {
		upstreamBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
}

// ObserveRobotsLoad records a robots.txt load attempt ("loaded" or "failed").
func ObserveRobotsLoad(result string) {
	Init()
	robotsLoadsTotal.WithLabelValues(result).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
