package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmodels "github.com/JRosan/fop-system-sub004/internal/application/models"
	"github.com/JRosan/fop-system-sub004/internal/jobs"
	"github.com/JRosan/fop-system-sub004/internal/notification"
	permitmodels "github.com/JRosan/fop-system-sub004/internal/permit/models"
	permitservice "github.com/JRosan/fop-system-sub004/internal/permit/service"
	permitstore "github.com/JRosan/fop-system-sub004/internal/permit/store"
	revmodels "github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/internal/revenue/schedule"
	revservice "github.com/JRosan/fop-system-sub004/internal/revenue/service"
	revstore "github.com/JRosan/fop-system-sub004/internal/revenue/store"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/tx"
)

var jobNow = time.Date(2026, 8, 1, 0, 5, 0, 0, time.UTC)

func fixedClock(at time.Time) jobs.Clock {
	return func() time.Time { return at }
}

var midnightUTC = jobs.Schedule{Hour: 0, Minute: 0, UTCOffset: 0}

// capturingNotifier records expiry warnings and ignores the rest.
type capturingNotifier struct {
	notification.Notifier
	warnings []notification.InsuranceExpiryWarningParams
}

func newCapturingNotifier() *capturingNotifier {
	return &capturingNotifier{Notifier: notification.NewLogNotifier(nil)}
}

func (n *capturingNotifier) InsuranceExpiryWarning(_ context.Context, p notification.InsuranceExpiryWarningParams) error {
	n.warnings = append(n.warnings, p)
	return nil
}

func TestScheduleNextRun(t *testing.T) {
	sched := jobs.Schedule{Hour: 1, Minute: 30, UTCOffset: -4}

	t.Run("before today's boundary", func(t *testing.T) {
		// 04:00 UTC is 00:00 local (UTC-4), before the 01:30 boundary.
		now := time.Date(2026, 8, 1, 4, 0, 0, 0, time.UTC)
		next := sched.NextRun(now)
		assert.Equal(t, time.Date(2026, 8, 1, 5, 30, 0, 0, time.UTC), next.UTC())
	})

	t.Run("after today's boundary rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
		next := sched.NextRun(now)
		assert.Equal(t, time.Date(2026, 8, 2, 5, 30, 0, 0, time.UTC), next.UTC())
	})

	t.Run("exactly at the boundary rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 5, 30, 0, 0, time.UTC)
		next := sched.NextRun(now)
		assert.Equal(t, time.Date(2026, 8, 2, 5, 30, 0, 0, time.UTC), next.UTC())
	})
}

func TestMemoryDeduper(t *testing.T) {
	at := jobNow
	dedupe := jobs.NewMemoryDeduper(func() time.Time { return at })

	ok, err := dedupe.Acquire(context.Background(), "k1", 48*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = dedupe.Acquire(context.Background(), "k1", 48*time.Hour)
	assert.False(t, ok)

	// Past the TTL the key is free again.
	at = jobNow.Add(49 * time.Hour)
	ok, _ = dedupe.Acquire(context.Background(), "k1", 48*time.Hour)
	assert.True(t, ok)
}

// expiryFixture wires a real permit store and service under the expiry job.
type expiryFixture struct {
	permits  *permitstore.InMemory
	notifier *capturingNotifier
	job      *jobs.ExpiryJob
}

func newExpiryFixture(t *testing.T, at time.Time) *expiryFixture {
	t.Helper()
	permits := permitstore.NewInMemory()
	svc := permitservice.New(permits, nil, revmodels.EligibilityPolicy{MaxOverdueAmount: money.Zero(money.USD)}, nil)
	notifier := newCapturingNotifier()
	dedupe := jobs.NewMemoryDeduper(fixedClock(at))
	job := jobs.NewExpiryJob(permits, svc, notifier, dedupe, midnightUTC, time.Minute, nil).
		WithClock(fixedClock(at), nil)
	return &expiryFixture{permits: permits, notifier: notifier, job: job}
}

func (f *expiryFixture) addPermit(t *testing.T, validUntil time.Time) *permitmodels.Permit {
	t.Helper()
	p := &permitmodels.Permit{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		Number:        permitmodels.FormatNumber(appmodels.TypeOneTime, 1),
		Type:          appmodels.TypeOneTime,
		Status:        permitmodels.StatusActive,
		OperatorID:    uuid.New(),
		OperatorEmail: "ops@example.aero",
		ValidFrom:     validUntil.AddDate(0, -1, 0),
		ValidUntil:    validUntil,
		FeesPaid:      money.MustNew("875.00", money.USD),
	}
	require.NoError(t, f.permits.Create(context.Background(), p))
	return p
}

func TestExpiryJobExpiresLapsedPermits(t *testing.T) {
	f := newExpiryFixture(t, jobNow)
	lapsed := f.addPermit(t, jobNow.AddDate(0, 0, -1))
	current := f.addPermit(t, jobNow.AddDate(0, 0, 90))

	require.NoError(t, f.job.RunOnce(context.Background()))

	got, err := f.permits.FindByID(context.Background(), lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, permitmodels.StatusExpired, got.Status)

	got, err = f.permits.FindByID(context.Background(), current.ID)
	require.NoError(t, err)
	assert.Equal(t, permitmodels.StatusActive, got.Status)
}

func TestExpiryJobWarnsAtExactThresholds(t *testing.T) {
	f := newExpiryFixture(t, jobNow)
	at30 := f.addPermit(t, jobNow.Add(30*24*time.Hour))
	f.addPermit(t, jobNow.Add(29*24*time.Hour)) // missed threshold, no catch-up
	f.addPermit(t, jobNow.Add(15*24*time.Hour))
	at7 := f.addPermit(t, jobNow.Add(7*24*time.Hour))
	at1 := f.addPermit(t, jobNow.Add(24*time.Hour))

	require.NoError(t, f.job.RunOnce(context.Background()))

	require.Len(t, f.notifier.warnings, 3)
	warned := map[uuid.UUID]int{}
	for _, w := range f.notifier.warnings {
		warned[w.PermitID] = w.DaysRemaining
		assert.Equal(t, "ops@example.aero", w.OperatorEmail)
	}
	assert.Equal(t, 30, warned[at30.ID])
	assert.Equal(t, 7, warned[at7.ID])
	assert.Equal(t, 1, warned[at1.ID])
}

func TestExpiryJobRerunDoesNotResend(t *testing.T) {
	f := newExpiryFixture(t, jobNow)
	f.addPermit(t, jobNow.Add(14*24*time.Hour))

	require.NoError(t, f.job.RunOnce(context.Background()))
	require.NoError(t, f.job.RunOnce(context.Background()))

	assert.Len(t, f.notifier.warnings, 1)
}

// overdueFixture wires the real revenue service under the overdue job.
type overdueFixture struct {
	invoices *revstore.InMemoryInvoiceStore
	balances *revstore.InMemoryBalanceStore
	svc      *revservice.Service
}

func newOverdueFixture(t *testing.T) *overdueFixture {
	t.Helper()
	invoices := revstore.NewInMemoryInvoiceStore()
	balances := revstore.NewInMemoryBalanceStore()
	engine := schedule.NewEngine(schedule.NewInMemoryRateStore(), decimal.RequireFromString("0.015"))
	svc := revservice.New(invoices, balances, engine, tx.NewManager(nil, nil), money.USD, 30)
	return &overdueFixture{invoices: invoices, balances: balances, svc: svc}
}

// addPendingInvoice stores a finalized invoice for 1000.00 due at the given
// date.
func (f *overdueFixture) addPendingInvoice(t *testing.T, dueDate time.Time) *revmodels.Invoice {
	t.Helper()
	created := dueDate.AddDate(0, 0, -30)
	inv, err := revmodels.NewInvoice(uuid.New(), uuid.New(), "INV-000777", revmodels.FlightInfo{
		Airport:       "TAPA",
		OperationType: revmodels.OpCharter,
		MTOW:          money.WeightFromKg(68000),
	}, money.USD, created)
	require.NoError(t, err)
	require.NoError(t, inv.AddLineItem(revmodels.CategoryLanding, "landing fee",
		decimal.NewFromInt(1), "", money.MustNew("1000.00", money.USD), created))
	require.NoError(t, inv.Finalize("officer-1", 30, created))
	require.NoError(t, f.invoices.Create(context.Background(), inv))
	return inv
}

func (f *overdueFixture) job(at time.Time) *jobs.OverdueJob {
	return jobs.NewOverdueJob(f.invoices, f.svc, 30, midnightUTC, time.Minute, nil).
		WithClock(fixedClock(at), nil)
}

func TestOverdueJobMarksPastDueInvoices(t *testing.T) {
	f := newOverdueFixture(t)
	due := f.addPendingInvoice(t, jobNow.AddDate(0, 0, -1))
	notDue := f.addPendingInvoice(t, jobNow.AddDate(0, 0, 10))

	require.NoError(t, f.job(jobNow).RunOnce(context.Background()))

	got, err := f.invoices.FindByID(context.Background(), due.ID)
	require.NoError(t, err)
	assert.Equal(t, revmodels.InvoiceOverdue, got.Status)
	assert.Equal(t, "1000.00 USD", got.OverdueRecorded.String())

	got, err = f.invoices.FindByID(context.Background(), notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, revmodels.InvoicePending, got.Status)
}

func TestOverdueJobAccruesInterestPastGrace(t *testing.T) {
	f := newOverdueFixture(t)
	inv := f.addPendingInvoice(t, jobNow.AddDate(0, 0, -31))

	require.NoError(t, f.job(jobNow).RunOnce(context.Background()))

	got, err := f.invoices.FindByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, revmodels.InvoiceOverdue, got.Status)
	// 1000 × (1.015 − 1) = 15.00 on the same pass that marks it overdue.
	assert.Equal(t, "15.00 USD", got.TotalInterest.String())
}

func TestOverdueJobWithinGraceAccruesNothing(t *testing.T) {
	f := newOverdueFixture(t)
	inv := f.addPendingInvoice(t, jobNow.AddDate(0, 0, -10))

	require.NoError(t, f.job(jobNow).RunOnce(context.Background()))

	got, err := f.invoices.FindByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, revmodels.InvoiceOverdue, got.Status)
	assert.True(t, got.TotalInterest.IsZero())
}

func TestOverdueJobDoubleRunIsIdempotent(t *testing.T) {
	f := newOverdueFixture(t)
	inv := f.addPendingInvoice(t, jobNow.AddDate(0, 0, -31))

	job := f.job(jobNow)
	require.NoError(t, job.RunOnce(context.Background()))
	require.NoError(t, job.RunOnce(context.Background()))

	got, err := f.invoices.FindByID(context.Background(), inv.ID)
	require.NoError(t, err)
	// One interest line, not two: the cadence guard blocks the second pass.
	assert.Equal(t, "15.00 USD", got.TotalInterest.String())

	b, err := f.balances.FindByOperator(context.Background(), inv.OperatorID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.OverdueInvoiceCount)
	assert.Equal(t, "1015.00 USD", b.TotalOverdue.String())
}

func TestOverdueJobSecondAccrualAfterCadence(t *testing.T) {
	f := newOverdueFixture(t)
	inv := f.addPendingInvoice(t, jobNow.AddDate(0, 0, -31))

	require.NoError(t, f.job(jobNow).RunOnce(context.Background()))
	require.NoError(t, f.job(jobNow.AddDate(0, 0, 30)).RunOnce(context.Background()))

	got, err := f.invoices.FindByID(context.Background(), inv.ID)
	require.NoError(t, err)

	// Two periods on a 1000.00 principal: 15.00 at day 31, then the
	// cumulative 1000 × (1.015² − 1) = 30.23 minus the 15.00 already charged.
	var charges []string
	for _, item := range got.LineItems {
		if item.IsInterestCharge {
			charges = append(charges, item.Amount.String())
		}
	}
	assert.Equal(t, []string{"15.00 USD", "15.23 USD"}, charges)
	assert.Equal(t, "30.23 USD", got.TotalInterest.String())

	b, err := f.balances.FindByOperator(context.Background(), inv.OperatorID)
	require.NoError(t, err)
	assert.Equal(t, "1030.23 USD", b.TotalOverdue.String())
}
