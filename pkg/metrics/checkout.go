package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records session lifecycle counters. The lifetime totals are
// kept in-process so the stats endpoint can report them without a registry
// round trip; the prometheus counters expose the same values for scraping.
type CheckoutMetrics struct {
	createdTotal   atomic.Int64
	completedTotal atomic.Int64
	failedTotal    atomic.Int64

	created   prometheus.Counter
	completed prometheus.Counter
	failed    prometheus.Counter
}

// Snapshot is a point-in-time read of the lifetime counters.
type Snapshot struct {
	TotalCreated   int64
	TotalCompleted int64
	TotalFailed    int64
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a recorder that only keeps the in-process totals.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{}
	if reg == nil {
		return m
	}
	m.created = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Checkout sessions created since process start.",
	})
	m.completed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_completed_total",
		Help: "Checkout sessions that reached completed.",
	})
	m.failed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_failed_total",
		Help: "Checkout sessions that reached failed.",
	})
	reg.MustRegister(m.created, m.completed, m.failed)
	return m
}

// IncCreated records a newly created session.
func (m *CheckoutMetrics) IncCreated() {
	if m == nil {
		return
	}
	m.createdTotal.Add(1)
	if m.created != nil {
		m.created.Inc()
	}
}

// IncCompleted records a session reaching the completed state.
func (m *CheckoutMetrics) IncCompleted() {
	if m == nil {
		return
	}
	m.completedTotal.Add(1)
	if m.completed != nil {
		m.completed.Inc()
	}
}

// IncFailed records a session reaching the failed state.
func (m *CheckoutMetrics) IncFailed() {
	if m == nil {
		return
	}
	m.failedTotal.Add(1)
	if m.failed != nil {
		m.failed.Inc()
	}
}

// Read returns the current lifetime totals.
func (m *CheckoutMetrics) Read() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalCreated:   m.createdTotal.Load(),
		TotalCompleted: m.completedTotal.Load(),
		TotalFailed:    m.failedTotal.Load(),
	}
}
