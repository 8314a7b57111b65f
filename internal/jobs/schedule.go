// Package jobs runs the two daily reconciliation loops: permit expiry with
// insurance-expiry warnings, and invoice overdue marking with interest
// accrual. Both loops are clock-injected so tests drive time directly.
package jobs

import (
	"context"
	"log"
	"time"
)

// Clock supplies the current time. Production passes time.Now.
type Clock func() time.Time

// After waits for a duration. Production passes time.After.
type After func(d time.Duration) <-chan time.Time

// Schedule is a fixed daily run boundary in a fixed UTC offset.
type Schedule struct {
	Hour      int
	Minute    int
	UTCOffset int // hours east of UTC, negative west
}

// Location returns the schedule's fixed-offset zone.
func (s Schedule) Location() *time.Location {
	return time.FixedZone("local", s.UTCOffset*3600)
}

// NextRun returns the next boundary strictly after now.
func (s Schedule) NextRun(now time.Time) time.Time {
	local := now.In(s.Location())
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, s.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runLoop sleeps to each boundary and runs the batch. A failed batch is
// retried after a fixed backoff instead of waiting for the next boundary.
func runLoop(ctx context.Context, name string, sched Schedule, clock Clock, after After,
	backoff time.Duration, logger *log.Logger, runOnce func(ctx context.Context) error) error {

	for {
		next := sched.NextRun(clock())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(next.Sub(clock())):
		}

		for {
			err := runOnce(ctx)
			if err == nil {
				break
			}
			logger.Printf("%s job failed, retrying in %s: %v", name, backoff, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-after(backoff):
			}
		}
	}
}
