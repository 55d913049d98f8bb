package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// ProgressEventsTotal counts progression events by app, kind and outcome
	ProgressEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_progress_events_total",
			Help: "Total number of progression events",
		},
		[]string{"app", "kind", "outcome"},
	)

	// LockRejectionsTotal counts writes refused because the workshop is completed
	LockRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_lock_rejections_total",
			Help: "Total number of writes rejected by the workshop lock",
		},
		[]string{"app"},
	)

	ResetCategoriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_reset_categories_total",
			Help: "Total number of reset category operations",
		},
		[]string{"category", "mode", "outcome"},
	)

	InviteRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_invite_redemptions_total",
			Help: "Total number of invite redemption attempts",
		},
		[]string{"outcome"},
	)

	// HTTPRequestDurationSeconds measures request latency by route pattern
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workshop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"method", "route", "status"},
	)

	registerOnce sync.Once
)

// NewRegistry returns a registry with the runtime collectors and every
// workshop metric registered.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Register(registry)
	return registry
}

// Register registers the workshop metrics once per process.
func Register(registry prometheus.Registerer) {
	registerOnce.Do(func() {
		registry.MustRegister(
			ProgressEventsTotal,
			LockRejectionsTotal,
			ResetCategoriesTotal,
			InviteRedemptionsTotal,
			HTTPRequestDurationSeconds,
		)
	})
}

func RecordProgressEvent(app, kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ProgressEventsTotal.WithLabelValues(app, kind, outcome).Inc()
}

func RecordLockRejection(app string) {
	LockRejectionsTotal.WithLabelValues(app).Inc()
}

func RecordResetCategory(category, mode string, success bool) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	ResetCategoriesTotal.WithLabelValues(category, mode, outcome).Inc()
}

func RecordInviteRedemption(outcome string) {
	InviteRedemptionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDurationSeconds.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
