// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"donation-flow/internal/storage"
)

const namespace = "donation"

// Metrics groups the collectors registered for one process.
type Metrics struct {
	Transitions         *prometheus.CounterVec
	DonationsCompleted  *prometheus.CounterVec
	DonatedAmount       *prometheus.CounterVec
	StorageFailures     *prometheus.CounterVec
	CertificateRequests *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard step changes, by origin and destination step.",
		}, []string{"from", "to"}),
		DonationsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completed_total",
			Help:      "Submitted donations, by donation type.",
		}, []string{"type"}),
		DonatedAmount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "amount_won_total",
			Help:      "Sum of submitted donation amounts in won, by donation type.",
		}, []string{"type"}),
		StorageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "failures_total",
			Help:      "Failed storage operations, by component and operation.",
		}, []string{"component", "op"}),
		CertificateRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificate",
			Name:      "requests_total",
			Help:      "Certificate downloads, by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// TrackSessions exposes the live session count through fn.
func (m *Metrics) TrackSessions(reg prometheus.Registerer, fn func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "wizard",
		Name:      "active_sessions",
		Help:      "Donation sessions currently held in memory.",
	}, func() float64 { return float64(fn()) })
}

// ObserveTransition counts a step change. Equal steps are not counted.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

// ObserveDonation counts one submitted donation.
func (m *Metrics) ObserveDonation(donationType string, amount int64) {
	if m == nil {
		return
	}
	m.DonationsCompleted.WithLabelValues(donationType).Inc()
	m.DonatedAmount.WithLabelValues(donationType).Add(float64(amount))
}

// ObserveCertificate counts a certificate download outcome.
func (m *Metrics) ObserveCertificate(outcome string) {
	if m == nil {
		return
	}
	m.CertificateRequests.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// InstrumentStore wraps store so failed operations are counted under component.
func (m *Metrics) InstrumentStore(store storage.Store, component string) storage.Store {
	if m == nil {
		return store
	}
	return &instrumentedStore{store: store, component: component, failures: m.StorageFailures}
}

type instrumentedStore struct {
	store     storage.Store
	component string
	failures  *prometheus.CounterVec
}

func (s *instrumentedStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.store.GetItem(ctx, key)
	s.count("get", err)
	return v, ok, err
}

func (s *instrumentedStore) SetItem(ctx context.Context, key, value string) error {
	err := s.store.SetItem(ctx, key, value)
	s.count("set", err)
	return err
}

func (s *instrumentedStore) RemoveItem(ctx context.Context, key string) error {
	err := s.store.RemoveItem(ctx, key)
	s.count("remove", err)
	return err
}

func (s *instrumentedStore) count(op string, err error) {
	if err != nil {
		s.failures.WithLabelValues(s.component, op).Inc()
	}
}
