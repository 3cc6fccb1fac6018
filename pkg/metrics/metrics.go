// Package metrics exposes Prometheus instrumentation for the ripple
// runtime. Metrics are off until Enable is called; the Record* helpers are
// no-ops before that, so library code can call them unconditionally.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FetchOutcome labels the terminal state of one resource fetch attempt.
type FetchOutcome string

const (
	FetchSuccess    FetchOutcome = "success"
	FetchError      FetchOutcome = "error"
	FetchCanceled   FetchOutcome = "canceled"
	FetchSuperseded FetchOutcome = "superseded"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "ripple").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for fetch duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the fetch duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "ripple",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// collectors holds the Prometheus metrics for the runtime.
type collectors struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	activeFeeds   prometheus.Gauge
	feedMessages  prometheus.Counter
	feedErrors    *prometheus.CounterVec
}

var (
	global   *collectors
	globalMu sync.Mutex
)

func initCollectors(config Config) *collectors {
	factory := promauto.With(config.Registry)

	return &collectors{
		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "resource_fetches_total",
			Help:        "Total resource fetch attempts by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "resource_fetch_duration_seconds",
			Help:        "Resource fetch duration in seconds by outcome",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),

		activeFeeds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "live_active_feeds",
			Help:        "Number of connected live feed clients",
			ConstLabels: config.ConstLabels,
		}),

		feedMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "live_feed_messages_total",
			Help:        "Total frames pushed to live feed clients",
			ConstLabels: config.ConstLabels,
		}),

		feedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "live_feed_errors_total",
			Help:        "Total live feed errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Enable initializes the collectors and registers them with the configured
// registry. Subsequent calls are no-ops.
func Enable(opts ...Option) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = initCollectors(config)
	}
}

// RecordFetch records one resource fetch attempt.
func RecordFetch(outcome FetchOutcome, d time.Duration) {
	if global != nil {
		global.fetchesTotal.WithLabelValues(string(outcome)).Inc()
		global.fetchDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
	}
}

// RecordFeedOpen records a live feed client connecting.
func RecordFeedOpen() {
	if global != nil {
		global.activeFeeds.Inc()
	}
}

// RecordFeedClose records a live feed client disconnecting.
func RecordFeedClose() {
	if global != nil {
		global.activeFeeds.Dec()
	}
}

// RecordFeedMessage records a frame pushed to a live feed client.
func RecordFeedMessage() {
	if global != nil {
		global.feedMessages.Inc()
	}
}

// RecordFeedError records a live feed error by type.
func RecordFeedError(errorType string) {
	if global != nil {
		global.feedErrors.WithLabelValues(errorType).Inc()
	}
}
