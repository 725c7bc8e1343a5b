// Package metrics exposes Prometheus counters/histograms for the crawl
// engine and an optional /metrics HTTP endpoint, started when --metrics-port
// is nonzero.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seocrawl_fetches_total",
			Help: "Total number of page fetches executed",
		},
		[]string{"host", "status", "challenge_detected", "challenge_source"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seocrawl_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seocrawl_fetch_bytes_total",
			Help: "Total bytes downloaded across all fetches",
		},
		[]string{"host"},
	)

	ProxyFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seocrawl_proxy_failures_total",
			Help: "Total number of outbound proxy failures",
		},
		[]string{"proxy_url"},
	)

	FrontierQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seocrawl_frontier_queue_depth",
			Help: "Number of frontier rows currently queued",
		},
	)
)

// RecordFetch updates the fetch counters/histogram for one completed
// request. challengeSource is "" when no bot-challenge was detected.
func RecordFetch(host string, statusCode int, durationSeconds float64, bodyBytes int, challengeSource string) {
	detected := "false"
	if challengeSource != "" {
		detected = "true"
	}
	statusStr := strconv.Itoa(statusCode)
	if statusCode == 0 {
		statusStr = "error"
	}

	FetchesTotal.WithLabelValues(host, statusStr, detected, challengeSource).Inc()
	FetchDuration.WithLabelValues(host).Observe(durationSeconds)
	FetchBytesTotal.WithLabelValues(host).Add(float64(bodyBytes))
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the given port and exposes /metrics. It runs in
// a background goroutine and must be stopped via Server.Stop to release
// resources and avoid leaks.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
