package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/pairpoints/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCreated *prometheus.CounterVec
	TransferPoints   prometheus.Histogram
	TransferErrors   *prometheus.CounterVec

	// Timeout metrics
	TimeoutsRequested prometheus.Counter
	TimeoutsDenied    *prometheus.CounterVec
	TimeoutsExpired   prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBRetries     prometheus.Counter
	DBConnections prometheus.Gauge

	// Stream metrics
	StreamPublished   *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransfersCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairpoints_transfers_created_total",
			Help: "Total number of point transfers applied, by kind",
		}, []string{"kind"}),
		TransferPoints: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pairpoints_transfer_points",
			Help:    "Signed point values of applied transfers",
			Buckets: []float64{-10, -5, -1, 1, 5, 10},
		}),
		TransferErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairpoints_transfer_errors_total",
			Help: "Total number of rejected transfers, by reason",
		}, []string{"reason"}),
		TimeoutsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairpoints_timeouts_requested_total",
			Help: "Total number of timeouts successfully requested",
		}),
		TimeoutsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairpoints_timeouts_denied_total",
			Help: "Total number of denied timeout requests, by reason",
		}, []string{"reason"}),
		TimeoutsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairpoints_timeouts_expired_total",
			Help: "Total number of observed timeout expiries",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairpoints_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pairpoints_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		DBRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairpoints_db_retries_total",
			Help: "Total number of retried store operations",
		}),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pairpoints_db_connections",
			Help: "Current number of database connections",
		}),
		StreamPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairpoints_stream_published_total",
			Help: "Total number of snapshots published on the change stream",
		}, []string{"status"}),
		StreamSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pairpoints_stream_subscribers",
			Help: "Current number of change stream subscriptions",
		}),
	}
}

// ErrorLabel returns a stable low-cardinality label for a rejected transfer.
func ErrorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrPointsOutOfRange):
		return "out_of_range"
	case errors.Is(err, domain.ErrMessageTooLong):
		return "message_too_long"
	case errors.Is(err, domain.ErrTimeoutActive):
		return "timeout_active"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrConnectionNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "other"
	}
}
