package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the application. A nil
// *Metrics is valid everywhere; services skip instrumentation when none is
// wired (unit tests mostly run without it).
type Metrics struct {
	AccountsCreated        prometheus.Counter
	RegistrationsCreated   prometheus.Counter
	RegistrationsCancelled prometheus.Counter
	CertificatesIssued     prometheus.Counter
	RequestDuration        *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sgea_accounts_created_total",
			Help: "Total number of accounts created.",
		}),
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sgea_registrations_created_total",
			Help: "Total number of event registrations created.",
		}),
		RegistrationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sgea_registrations_cancelled_total",
			Help: "Total number of event registrations cancelled.",
		}),
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sgea_certificates_issued_total",
			Help: "Total number of certificates issued.",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sgea_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncAccountsCreated bumps the account counter; safe on nil.
func (m *Metrics) IncAccountsCreated() {
	if m != nil {
		m.AccountsCreated.Inc()
	}
}

// IncRegistrationsCreated bumps the registration counter; safe on nil.
func (m *Metrics) IncRegistrationsCreated() {
	if m != nil {
		m.RegistrationsCreated.Inc()
	}
}

// IncRegistrationsCancelled bumps the cancellation counter; safe on nil.
func (m *Metrics) IncRegistrationsCancelled() {
	if m != nil {
		m.RegistrationsCancelled.Inc()
	}
}

// IncCertificatesIssued bumps the certificate counter; safe on nil.
func (m *Metrics) IncCertificatesIssued() {
	if m != nil {
		m.CertificatesIssued.Inc()
	}
}

// ObserveRequest records one request's latency; safe on nil.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
	}
}
