package gateway

import (
	"strings"
	"testing"
	"time"

	"github.com/alovak/cardflow-gateway/gateway/models"
	"github.com/alovak/cardflow-gateway/internal/bank"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var _ bank.Observer = (*Metrics)(nil)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.PaymentProcessed(models.PaymentStatusAuthorized)
	m.PaymentProcessed(models.PaymentStatusAuthorized)
	m.PaymentProcessed(models.PaymentStatusRejected)
	m.ObserveBankAttempt("unavailable", 20*time.Millisecond)
	m.ObserveBankAttempt("ok", 10*time.Millisecond)
	m.ObserveBankRetry(1, time.Second)

	require.Equal(t, 2.0, testutil.ToFloat64(m.payments.WithLabelValues("Authorized")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues("Rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.bankAttempts.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.bankRetries.WithLabelValues("1")))

	expected := `
# HELP gateway_bank_attempts_total Individual requests made to the acquiring bank, by outcome.
# TYPE gateway_bank_attempts_total counter
gateway_bank_attempts_total{outcome="ok"} 1
gateway_bank_attempts_total{outcome="unavailable"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gateway_bank_attempts_total"))
	require.Equal(t, 1, testutil.CollectAndCount(m.bankLatency))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.PaymentProcessed(models.PaymentStatusDeclined)
		m.ObserveBankAttempt("ok", time.Millisecond)
		m.ObserveBankRetry(1, time.Millisecond)
	})
}
