// Package metrics holds the Prometheus collectors exported on /metrics.
// All helpers are safe to call on a nil *Metrics so that services built
// in tests do not need a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "community_hub"

// Metrics groups the collectors.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	BookingsCreated  *prometheus.CounterVec
	BookingConflicts prometheus.Counter
	BookingsDeleted  prometheus.Counter
	Registrations    *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
	SuggestAttempts  *prometheus.CounterVec
	OnlineUsers      prometheus.Gauge
	BrokerPublished  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		BookingsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created, by guard mode.",
		}, []string{"mode"}),

		BookingConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot overlaps.",
		}),

		BookingsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_deleted_total",
			Help:      "Bookings removed by their owner.",
		}),

		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_registrations_total",
			Help:      "Event RSVPs by action (rsvp, cancel).",
		}, []string{"action"}),

		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Email dispatch attempts by outcome.",
		}, []string{"outcome"}),

		SuggestAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggest_attempts_total",
			Help:      "Generation attempts by model and outcome.",
		}, []string{"model", "outcome"}),

		OnlineUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Users whose last heartbeat is inside the online window.",
		}),

		BrokerPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_messages_published_total",
			Help:      "Domain events handed to the broker, by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) IncBookingCreated(mode string) {
	if m != nil {
		m.BookingsCreated.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) IncBookingConflict() {
	if m != nil {
		m.BookingConflicts.Inc()
	}
}

func (m *Metrics) IncBookingDeleted() {
	if m != nil {
		m.BookingsDeleted.Inc()
	}
}

func (m *Metrics) IncRegistration(action string) {
	if m != nil {
		m.Registrations.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncEmail(outcome string) {
	if m != nil {
		m.EmailsSent.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncSuggestAttempt(model, outcome string) {
	if m != nil {
		m.SuggestAttempts.WithLabelValues(model, outcome).Inc()
	}
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m != nil {
		m.OnlineUsers.Set(float64(n))
	}
}

func (m *Metrics) IncPublished(outcome string) {
	if m != nil {
		m.BrokerPublished.WithLabelValues(outcome).Inc()
	}
}
