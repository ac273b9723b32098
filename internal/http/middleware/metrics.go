// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic: request
// counts, latencies, in-flight concurrency, and response sizes. Labels:
//
//   - method: HTTP method verb
//   - path:   the registered Gin route (e.g. /api/records/:id), or
//     "unmatched" when no route matched so that scans of random URLs cannot
//     grow the series count
//   - status: numeric status code as a string
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedPath labels requests that did not hit a registered route.
const unmatchedPath = "unmatched"

// Response size buckets, tuned for record JSON: a single record is a few
// hundred bytes and a full list grows from there.
var sizeBuckets = []float64{
	128, 256, 512, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20,
}

// httpMetrics bundles the HTTP collectors so tests can build an isolated set.
type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	size     *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		// No status label on latency, to keep histogram cardinality low.
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP response bodies in bytes.",
			Buckets: sizeBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(m.requests, m.latency, m.inflight, m.size)
	return m
}

var defaultHTTPMetrics = newHTTPMetrics(prometheus.DefaultRegisterer)

// Metrics instruments every request against the default registry.
// Method-not-allowed responses keep the raw method but are labeled
// unmatched like 404s.
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return defaultHTTPMetrics.handler()
}

func (m *httpMetrics) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method
		status := c.Writer.Status()

		m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written (e.g. 204); 304 carries no body.
		if size := c.Writer.Size(); size >= 0 && status != http.StatusNotModified {
			m.size.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
