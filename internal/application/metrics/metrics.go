package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application module.
type Metrics struct {
	Submitted       prometheus.Counter
	Approved        prometheus.Counter
	Rejected        prometheus.Counter
	BlockedByDebt   prometheus.Counter
	ApproveDuration prometheus.Histogram
}

// New creates a new Metrics instance with all application module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_applications_submitted_total",
			Help: "Total number of permit applications submitted",
		}),
		Approved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_applications_approved_total",
			Help: "Total number of permit applications approved",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_applications_rejected_total",
			Help: "Total number of permit applications rejected",
		}),
		BlockedByDebt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_applications_blocked_by_debt_total",
			Help: "Total number of approvals blocked by the debt eligibility gate",
		}),
		ApproveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fop_application_approve_duration_seconds",
			Help:    "Duration of Approve operations including the issuance gate",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveApprove records the duration of an Approve operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApprove(start time.Time) {
	m.ApproveDuration.Observe(time.Since(start).Seconds())
}
