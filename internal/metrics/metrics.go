// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutOutcomes число завершённых попыток оплаты по исходу.
	CheckoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minigestor",
		Subsystem: "checkout",
		Name:      "outcomes_total",
		Help:      "Checkout attempts by terminal outcome.",
	}, []string{"outcome", "method", "plan_type"})

	// GatewayDuration длительность обращений к платёжному шлюзу.
	GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "minigestor",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Payment gateway request latency by step and result.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"step", "result"})

	// GateDenials число действий, отклонённых из-за закрытого доступа.
	GateDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minigestor",
		Subsystem: "gate",
		Name:      "denials_total",
		Help:      "Actions rejected because the user has no full access.",
	}, []string{"action", "stage"})

	// Reconciliations число списаний, требующих ручной сверки.
	Reconciliations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minigestor",
		Subsystem: "checkout",
		Name:      "reconciliations_total",
		Help:      "Charges that succeeded while the profile update failed.",
	})
)
