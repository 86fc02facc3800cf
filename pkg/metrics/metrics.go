package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts Weibo API calls by endpoint path and outcome (ok, http_error, network_error, bad_json)
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbscraper_api_requests_total",
			Help: "Total number of Weibo API requests issued",
		},
		[]string{"endpoint", "outcome"},
	)

	// APIRequestDuration measures request latency per endpoint
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wbscraper_api_request_duration_seconds",
			Help:    "Duration of Weibo API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// GovernorPauses counts the pauses forced by the call-count governor
	GovernorPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wbscraper_governor_pauses_total",
			Help: "Total number of rate governor pauses",
		},
	)

	// MembersAdmitted counts reciprocal followers admitted to a network
	MembersAdmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wbscraper_members_admitted_total",
			Help: "Total number of members admitted to discovered networks",
		},
	)

	// CandidatesSkipped counts followers rejected before or by the reciprocity check
	CandidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbscraper_candidates_skipped_total",
			Help: "Total number of follower candidates that were not admitted",
		},
		[]string{"reason"},
	)
)

// ObserveRequest records one API call
func ObserveRequest(endpoint, outcome string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
