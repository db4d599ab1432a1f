package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PlatformMetrics records workflow activity for the moderation ledger.
type PlatformMetrics struct {
	workflows     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	feesCollected prometheus.Counter
	currentMAU    prometheus.Gauge
}

var (
	platformOnce     sync.Once
	platformRegistry *PlatformMetrics
)

// Platform returns the lazily-initialised platform metrics registry.
func Platform() *PlatformMetrics {
	platformOnce.Do(func() {
		platformRegistry = &PlatformMetrics{
			workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "platform_workflows_total",
				Help: "Count of completed workflows by name.",
			}, []string{"workflow"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "platform_workflow_failures_total",
				Help: "Count of rejected workflows by name.",
			}, []string{"workflow"}),
			feesCollected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "platform_fees_collected_total",
				Help: "Cumulative fee volume settled against the token ledger, in base units.",
			}),
			currentMAU: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "platform_current_period_mau",
				Help: "Trailing closed-period monthly active user count.",
			}),
		}
		prometheus.MustRegister(
			platformRegistry.workflows,
			platformRegistry.failures,
			platformRegistry.feesCollected,
			platformRegistry.currentMAU,
		)
	})
	return platformRegistry
}

// ObserveWorkflow records a completed workflow.
func (m *PlatformMetrics) ObserveWorkflow(name string) {
	if m == nil {
		return
	}
	m.workflows.WithLabelValues(name).Inc()
}

// ObserveFailure records a rejected workflow.
func (m *PlatformMetrics) ObserveFailure(name string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(name).Inc()
}

// ObserveFee accumulates settled fee volume.
func (m *PlatformMetrics) ObserveFee(baseUnits float64) {
	if m == nil {
		return
	}
	m.feesCollected.Add(baseUnits)
}

// SetCurrentMAU publishes the trailing-period MAU used for pricing.
func (m *PlatformMetrics) SetCurrentMAU(mau float64) {
	if m == nil {
		return
	}
	m.currentMAU.Set(mau)
}
