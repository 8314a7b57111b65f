package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the revenue module.
type Metrics struct {
	InvoicesFinalized prometheus.Counter
	PaymentsRecorded  prometheus.Counter
	InvoicesOverdue   prometheus.Counter
	InterestCharges   prometheus.Counter
}

// New creates a new Metrics instance with all revenue module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		InvoicesFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_invoices_finalized_total",
			Help: "Total number of invoices finalized",
		}),
		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_ledger_payments_recorded_total",
			Help: "Total number of ledger payments recorded",
		}),
		InvoicesOverdue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_invoices_marked_overdue_total",
			Help: "Total number of invoices marked overdue by the reconciliation job",
		}),
		InterestCharges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fop_interest_charges_total",
			Help: "Total number of interest line items appended to overdue invoices",
		}),
	}
}
