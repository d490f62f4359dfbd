package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"nftlend-backend/internal/domain/loan"
)

// LoanMetrics counts lifecycle operations by outcome. The result label is
// "ok" or the error kind.
type LoanMetrics struct {
	operations *prometheus.CounterVec
	events     *prometheus.CounterVec
}

func NewLoanMetrics(reg prometheus.Registerer) *LoanMetrics {
	m := &LoanMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nftlend_operations_total",
			Help: "Loan lifecycle operations by operation and result.",
		}, []string{"op", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nftlend_events_published_total",
			Help: "Committed events handed to the publisher, by type and delivery result.",
		}, []string{"type", "result"}),
	}
	reg.MustRegister(m.operations, m.events)
	return m
}

func (m *LoanMetrics) Observe(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = loan.Kind(err).String()
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *LoanMetrics) ObservePublish(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.events.WithLabelValues(eventType, result).Inc()
}

// Operations exposes the counter for tests.
func (m *LoanMetrics) Operations() *prometheus.CounterVec { return m.operations }

func (m *LoanMetrics) Events() *prometheus.CounterVec { return m.events }
