package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/JRosan/fop-system-sub004/internal/notification"
	permitmodels "github.com/JRosan/fop-system-sub004/internal/permit/models"
	"github.com/JRosan/fop-system-sub004/pkg/requestcontext"
)

// warnThresholds are the exact days-until-expiry at which one insurance-expiry
// warning is sent per permit. A permit seen at 29 days (because the job was
// down at 30) does not get a catch-up warning.
var warnThresholds = []int{30, 14, 7, 1}

// warningTTL keeps a sent marker long enough to cover the same threshold day,
// including a job rerun after a backoff retry.
const warningTTL = 48 * time.Hour

// PermitLister is the expiry job's read view of the permit store.
type PermitLister interface {
	ListActiveExpiredBy(ctx context.Context, cutoff time.Time) ([]*permitmodels.Permit, error)
	ListActive(ctx context.Context) ([]*permitmodels.Permit, error)
}

// PermitExpirer transitions a lapsed permit to Expired.
type PermitExpirer interface {
	Expire(ctx context.Context, id uuid.UUID) (*permitmodels.Permit, error)
}

// ExpiryJob expires lapsed permits and sends expiry warnings at the exact
// threshold days. One failed permit is logged and skipped; the batch
// continues.
type ExpiryJob struct {
	permits  PermitLister
	expirer  PermitExpirer
	notifier notification.Notifier
	dedupe   Deduper

	schedule Schedule
	backoff  time.Duration
	clock    Clock
	after    After
	logger   *log.Logger
}

func NewExpiryJob(permits PermitLister, expirer PermitExpirer, notifier notification.Notifier,
	dedupe Deduper, schedule Schedule, backoff time.Duration, logger *log.Logger) *ExpiryJob {

	if logger == nil {
		logger = log.Default()
	}
	return &ExpiryJob{
		permits:  permits,
		expirer:  expirer,
		notifier: notifier,
		dedupe:   dedupe,
		schedule: schedule,
		backoff:  backoff,
		clock:    time.Now,
		after:    time.After,
		logger:   logger,
	}
}

// WithClock overrides the time source, for tests.
func (j *ExpiryJob) WithClock(clock Clock, after After) *ExpiryJob {
	j.clock = clock
	j.after = after
	return j
}

// Run blocks, running the batch at each schedule boundary until ctx ends.
func (j *ExpiryJob) Run(ctx context.Context) error {
	return runLoop(ctx, "permit expiry", j.schedule, j.clock, j.after, j.backoff, j.logger, j.RunOnce)
}

// RunOnce executes a single reconciliation pass. The whole batch observes one
// consistent time.
func (j *ExpiryJob) RunOnce(ctx context.Context) error {
	now := j.clock()
	ctx = requestcontext.WithTime(ctx, now)

	lapsed, err := j.permits.ListActiveExpiredBy(ctx, now)
	if err != nil {
		return fmt.Errorf("list lapsed permits: %w", err)
	}
	for _, p := range lapsed {
		if _, err := j.expirer.Expire(ctx, p.ID); err != nil {
			j.logger.Printf("expire permit %s (%s): %v", p.Number, p.ID, err)
			continue
		}
		j.logger.Printf("permit %s expired (validity ended %s)", p.Number, p.ValidUntil.Format("2006-01-02"))
	}

	active, err := j.permits.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active permits: %w", err)
	}
	for _, p := range active {
		j.warnIfAtThreshold(ctx, p, now)
	}
	return nil
}

// warnIfAtThreshold sends one warning when days-until-expiry lands exactly on
// a threshold, deduplicated per permit per threshold day.
func (j *ExpiryJob) warnIfAtThreshold(ctx context.Context, p *permitmodels.Permit, now time.Time) {
	days := p.DaysUntilExpiry(now)
	if !isThreshold(days) {
		return
	}

	key := fmt.Sprintf("fop:expiry-warning:%s:%d:%s",
		p.ID, days, now.In(j.schedule.Location()).Format("2006-01-02"))
	acquired, err := j.dedupe.Acquire(ctx, key, warningTTL)
	if err != nil {
		j.logger.Printf("expiry-warning dedupe for permit %s: %v", p.Number, err)
		return
	}
	if !acquired {
		return
	}

	if err := j.notifier.InsuranceExpiryWarning(ctx, notification.InsuranceExpiryWarningParams{
		PermitID:      p.ID,
		PermitNumber:  p.Number,
		OperatorEmail: p.OperatorEmail,
		ExpiresAt:     p.ValidUntil,
		DaysRemaining: days,
	}); err != nil {
		j.logger.Printf("expiry warning for permit %s: %v", p.Number, err)
	}
}

func isThreshold(days int) bool {
	for _, t := range warnThresholds {
		if days == t {
			return true
		}
	}
	return false
}
