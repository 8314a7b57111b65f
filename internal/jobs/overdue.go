package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	revmodels "github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/pkg/requestcontext"
)

// interestCadence is the minimum age of the latest interest line before
// another accrues.
const interestCadence = 30 * 24 * time.Hour

// InvoiceLister is the overdue job's read view of the invoice store.
type InvoiceLister interface {
	ListPastDue(ctx context.Context, now time.Time) ([]*revmodels.Invoice, error)
	ListOverdue(ctx context.Context) ([]*revmodels.Invoice, error)
}

// Ledger is the subset of the revenue service the overdue job drives.
type Ledger interface {
	MarkOverdue(ctx context.Context, id uuid.UUID) (*revmodels.Invoice, error)
	AccrueInterest(ctx context.Context, id uuid.UUID) (*revmodels.Invoice, error)
}

// OverdueJob marks past-due invoices Overdue and accrues interest on invoices
// overdue beyond the grace period, at most once per cadence period. Running
// the batch twice in a day is a no-op: marking skips already-Overdue invoices
// and the latest-interest-line age guard blocks a second accrual.
type OverdueJob struct {
	invoices  InvoiceLister
	ledger    Ledger
	graceDays int

	schedule Schedule
	backoff  time.Duration
	clock    Clock
	after    After
	logger   *log.Logger
}

func NewOverdueJob(invoices InvoiceLister, ledger Ledger, graceDays int,
	schedule Schedule, backoff time.Duration, logger *log.Logger) *OverdueJob {

	if logger == nil {
		logger = log.Default()
	}
	return &OverdueJob{
		invoices:  invoices,
		ledger:    ledger,
		graceDays: graceDays,
		schedule:  schedule,
		backoff:   backoff,
		clock:     time.Now,
		after:     time.After,
		logger:    logger,
	}
}

// WithClock overrides the time source, for tests.
func (j *OverdueJob) WithClock(clock Clock, after After) *OverdueJob {
	j.clock = clock
	j.after = after
	return j
}

// Run blocks, running the batch at each schedule boundary until ctx ends.
func (j *OverdueJob) Run(ctx context.Context) error {
	return runLoop(ctx, "invoice overdue", j.schedule, j.clock, j.after, j.backoff, j.logger, j.RunOnce)
}

// RunOnce executes a single reconciliation pass. The whole batch observes one
// consistent time.
func (j *OverdueJob) RunOnce(ctx context.Context) error {
	now := j.clock()
	ctx = requestcontext.WithTime(ctx, now)

	pastDue, err := j.invoices.ListPastDue(ctx, now)
	if err != nil {
		return fmt.Errorf("list past-due invoices: %w", err)
	}
	for _, inv := range pastDue {
		if _, err := j.ledger.MarkOverdue(ctx, inv.ID); err != nil {
			j.logger.Printf("mark invoice %s overdue: %v", inv.Number, err)
			continue
		}
		j.logger.Printf("invoice %s marked overdue (%d days past due)", inv.Number, inv.DaysOverdue(now))
	}

	overdue, err := j.invoices.ListOverdue(ctx)
	if err != nil {
		return fmt.Errorf("list overdue invoices: %w", err)
	}
	for _, inv := range overdue {
		if !j.interestDue(inv, now) {
			continue
		}
		if _, err := j.ledger.AccrueInterest(ctx, inv.ID); err != nil {
			j.logger.Printf("accrue interest on invoice %s: %v", inv.Number, err)
			continue
		}
		j.logger.Printf("interest accrued on invoice %s (%d days past due)", inv.Number, inv.DaysOverdue(now))
	}
	return nil
}

// interestDue applies the grace period and the accrual cadence guard.
func (j *OverdueJob) interestDue(inv *revmodels.Invoice, now time.Time) bool {
	if inv.DaysOverdue(now) <= j.graceDays {
		return false
	}
	latest := inv.LatestInterestCharge()
	if latest == nil {
		return true
	}
	return now.Sub(latest.CreatedAt) >= interestCadence
}
