package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers trainer provisioning. All methods are safe on a nil receiver.
type Metrics struct {
	Approvals        *prometheus.CounterVec
	ProvisionLatency prometheus.Histogram
	GateOutcomes     *prometheus.CounterVec
	DriftFound       prometheus.Gauge
	DriftRepairs     *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	Reminders        *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Approvals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_approvals_total",
			Help: "Application approvals by outcome",
		}, []string{"outcome"}), // outcome: "provisioned", "reentrant", "failed"

		ProvisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainer_provision_duration_seconds",
			Help:    "Duration of identity resolution plus profile provisioning",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		GateOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_compliance_gate_total",
			Help: "Compliance gate evaluations on activation",
		}, []string{"result"}), // result: "allowed", "refused", "overridden"

		DriftFound: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trainer_drift_identities",
			Help: "Trainer-tagged identities without a profile at the last scan",
		}),

		DriftRepairs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_drift_repairs_total",
			Help: "Drift repair attempts by outcome",
		}, []string{"outcome"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_status_transitions_total",
			Help: "Trainer lifecycle transitions",
		}, []string{"from", "to"}),

		Reminders: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_compliance_reminders_total",
			Help: "Compliance reminder tasks by outcome",
		}, []string{"outcome"}), // outcome: "sent", "skipped", "retried"
	}
}

func (m *Metrics) IncApproval(outcome string) {
	if m != nil {
		m.Approvals.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveProvision(d time.Duration) {
	if m != nil {
		m.ProvisionLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncGate(result string) {
	if m != nil {
		m.GateOutcomes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SetDrift(n int) {
	if m != nil {
		m.DriftFound.Set(float64(n))
	}
}

func (m *Metrics) IncRepair(outcome string) {
	if m != nil {
		m.DriftRepairs.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncReminder(outcome string) {
	if m != nil {
		m.Reminders.WithLabelValues(outcome).Inc()
	}
}
