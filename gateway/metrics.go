package gateway

import (
	"strconv"
	"time"

	"github.com/alovak/cardflow-gateway/gateway/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	payments     *prometheus.CounterVec
	bankAttempts *prometheus.CounterVec
	bankRetries  *prometheus.CounterVec
	bankLatency  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is not
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		payments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_payments_total",
				Help: "Payments processed, by final status.",
			},
			[]string{"status"},
		),
		bankAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_bank_attempts_total",
				Help: "Individual requests made to the acquiring bank, by outcome.",
			},
			[]string{"outcome"},
		),
		bankRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_bank_retries_total",
				Help: "Retries of bank requests, by retry number.",
			},
			[]string{"attempt"},
		),
		bankLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_bank_request_duration_seconds",
				Help:    "Duration of single bank requests.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.payments, m.bankAttempts, m.bankRetries, m.bankLatency)
	}

	return m
}

func (m *Metrics) PaymentProcessed(status models.PaymentStatus) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(string(status)).Inc()
}

// ObserveBankAttempt implements bank.Observer.
func (m *Metrics) ObserveBankAttempt(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.bankAttempts.WithLabelValues(outcome).Inc()
	m.bankLatency.Observe(elapsed.Seconds())
}

// ObserveBankRetry implements bank.Observer.
func (m *Metrics) ObserveBankRetry(attempt int, _ time.Duration) {
	if m == nil {
		return
	}
	m.bankRetries.WithLabelValues(strconv.Itoa(attempt)).Inc()
}
