package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seenimoa/macrolens/internal/infra"
)

var (
	// metricsRegistry holds the application-specific Prometheus collectors.
	metricsRegistry = prometheus.NewRegistry()

	toolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macrolens",
			Subsystem: "tools",
			Name:      "executions_total",
			Help:      "Total number of tool executions.",
		},
		[]string{"tool", "outcome"},
	)

	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "macrolens",
			Subsystem: "tools",
			Name:      "execution_duration_seconds",
			Help:      "Duration of tool executions.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"tool"},
	)

	upstreamStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macrolens",
			Subsystem: "upstream",
			Name:      "http_status_total",
			Help:      "HTTP error statuses returned by the FRED API.",
		},
		[]string{"code"},
	)

	snapshotWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "macrolens",
			Subsystem: "snapshots",
			Name:      "writes_total",
			Help:      "Total number of snapshot files written.",
		},
	)

	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "macrolens",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Current number of connected WebSocket clients.",
		},
	)
)

func init() {
	metricsRegistry.MustRegister(
		toolExecutions,
		toolDuration,
		upstreamStatus,
		snapshotWrites,
		wsClients,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// metricsHandler returns an HTTP handler exposing the registered
// Prometheus metrics.
func metricsHandler() http.Handler {
	return promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})
}

// observeToolExecution records the outcome and latency of one tool call.
// Upstream HTTP failures additionally feed the per-status counter.
func observeToolExecution(tool string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		var httpErr *infra.ErrHTTP
		if errors.As(err, &httpErr) {
			upstreamStatus.WithLabelValues(strconv.Itoa(httpErr.StatusCode)).Inc()
		}
	}
	toolExecutions.WithLabelValues(tool, outcome).Inc()
	toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// countEvent feeds hub events into the counters that track them.
func countEvent(event string) {
	if event == "snapshot_saved" {
		snapshotWrites.Inc()
	}
}
