package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeAbandoned = "abandoned" // 调用方放弃等待，不计入错误
)

// AdapterMetrics 适配器生命周期指标
type AdapterMetrics struct {
	// 生命周期调用次数，按结果区分
	Operations *prometheus.CounterVec
	// 失败按错误类型区分
	Errors *prometheus.CounterVec

	// 延迟相关指标
	Latency *prometheus.HistogramVec

	// 等待合作方回调的请求数
	PendingOperations *prometheus.GaugeVec
	// 被丢弃的重复或迟到回调
	DroppedCallbacks *prometheus.CounterVec
}

// NewAdapterMetrics registers the adapter metrics with reg. Passing a fresh
// registry per adapter keeps tests independent of the global one.
func NewAdapterMetrics(reg prometheus.Registerer, namespace, subsystem string) *AdapterMetrics {
	factory := promauto.With(reg)
	return &AdapterMetrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Lifecycle operations by partner, operation and outcome",
		}, []string{"partner", "operation", "outcome"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Failed lifecycle operations by error kind",
		}, []string{"partner", "operation", "kind"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_latency_seconds",
			Help:      "Time from request to partner callback in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"partner", "operation"}),
		PendingOperations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending_operations",
			Help:      "Operations waiting for a partner callback",
		}, []string{"partner"}),
		DroppedCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dropped_callbacks_total",
			Help:      "Partner callbacks discarded after the operation resolved or was abandoned",
		}, []string{"partner", "operation"}),
	}
}

// RecordOperation 记录一次生命周期调用
func (m *AdapterMetrics) RecordOperation(partner, operation string, err error, latencySeconds float64) {
	if m == nil {
		return
	}
	m.Latency.WithLabelValues(partner, operation).Observe(latencySeconds)

	switch {
	case err == nil:
		m.Operations.WithLabelValues(partner, operation, OutcomeSuccess).Inc()
		return
	case bridge.IsAbandoned(err):
		m.Operations.WithLabelValues(partner, operation, OutcomeAbandoned).Inc()
		return
	}
	m.Operations.WithLabelValues(partner, operation, OutcomeFailure).Inc()
	kind, _ := mediation.KindOf(err)
	m.Errors.WithLabelValues(partner, operation, kind.String()).Inc()
}

// SetPending 更新等待回调的请求数
func (m *AdapterMetrics) SetPending(partner string, n int) {
	if m == nil {
		return
	}
	m.PendingOperations.WithLabelValues(partner).Set(float64(n))
}

// RecordDroppedCallback 记录被丢弃的回调
func (m *AdapterMetrics) RecordDroppedCallback(partner, operation string) {
	if m == nil {
		return
	}
	m.DroppedCallbacks.WithLabelValues(partner, operation).Inc()
}
