//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/internal/revenue/store"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
	"github.com/JRosan/fop-system-sub004/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	invoices *store.PostgresInvoiceStore
	balances *store.PostgresBalanceStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), store.Schema)
	s.invoices = store.NewPostgresInvoiceStore(s.postgres.DB)
	s.balances = store.NewPostgresBalanceStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "invoices", "operator_balances")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newTestInvoice(now time.Time) *models.Invoice {
	inv, err := models.NewInvoice(uuid.New(), uuid.New(), "INV-000042", models.FlightInfo{
		Airport:       "TVSA",
		OperationType: models.OpCharter,
		FlightDate:    now,
		MTOW:          money.WeightFromKg(5700),
		SeatCount:     9,
	}, money.USD, now)
	s.Require().NoError(err)
	return inv
}

func (s *PostgresStoreSuite) TestInvoiceRoundTrip() {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	inv := s.newTestInvoice(now)
	err := inv.AddLineItem(models.CategoryLanding, "landing fee", decimal.NewFromInt(1), "", money.MustNew("150.00", money.USD), now)
	s.Require().NoError(err)
	s.Require().NoError(s.invoices.Create(ctx, inv))

	found, err := s.invoices.FindByID(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(inv.Number, found.Number)
	s.Equal(models.InvoiceDraft, found.Status)
	s.Len(found.LineItems, 1)
	s.True(found.TotalAmount.Equal(money.MustNew("150.00", money.USD)))
	s.True(found.Flight.MTOW.Kg().Equal(decimal.NewFromInt(5700)))
}

func (s *PostgresStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	now := time.Now().UTC()
	inv := s.newTestInvoice(now)
	s.Require().NoError(s.invoices.Create(ctx, inv))
	s.ErrorIs(s.invoices.Create(ctx, inv), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindMissingInvoice() {
	_, err := s.invoices.FindByID(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecutePersistsMutation() {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	inv := s.newTestInvoice(now)
	err := inv.AddLineItem(models.CategoryNavigation, "nav charge", decimal.NewFromInt(2), "tonne", money.MustNew("30.00", money.USD), now)
	s.Require().NoError(err)
	s.Require().NoError(s.invoices.Create(ctx, inv))

	updated, err := s.invoices.Execute(ctx, inv.ID, func(i *models.Invoice) error {
		return i.Finalize("officer", 30, now)
	})
	s.Require().NoError(err)
	s.Equal(models.InvoicePending, updated.Status)

	found, err := s.invoices.FindByID(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(models.InvoicePending, found.Status)
	s.Require().NotNil(found.DueDate)
	s.Equal(now.AddDate(0, 0, 30), found.DueDate.UTC())
}

func (s *PostgresStoreSuite) TestExecuteRollsBackOnError() {
	ctx := context.Background()
	now := time.Now().UTC()
	inv := s.newTestInvoice(now)
	s.Require().NoError(s.invoices.Create(ctx, inv))

	// Finalizing with no line items fails; the stored invoice must be untouched.
	_, err := s.invoices.Execute(ctx, inv.ID, func(i *models.Invoice) error {
		return i.Finalize("officer", 30, now)
	})
	s.Require().Error(err)

	found, err := s.invoices.FindByID(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(models.InvoiceDraft, found.Status)
}

func (s *PostgresStoreSuite) TestListPastDueExcludesOverdue() {
	ctx := context.Background()
	invoiceDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := invoiceDate.AddDate(0, 0, 45)

	pastDue := s.newTestInvoice(invoiceDate)
	err := pastDue.AddLineItem(models.CategoryLanding, "landing fee", decimal.NewFromInt(1), "", money.MustNew("100.00", money.USD), invoiceDate)
	s.Require().NoError(err)
	s.Require().NoError(pastDue.Finalize("officer", 30, invoiceDate))
	s.Require().NoError(s.invoices.Create(ctx, pastDue))

	alreadyOverdue := s.newTestInvoice(invoiceDate)
	err = alreadyOverdue.AddLineItem(models.CategoryLanding, "landing fee", decimal.NewFromInt(1), "", money.MustNew("100.00", money.USD), invoiceDate)
	s.Require().NoError(err)
	s.Require().NoError(alreadyOverdue.Finalize("officer", 30, invoiceDate))
	s.Require().NoError(alreadyOverdue.MarkOverdue(now))
	s.Require().NoError(s.invoices.Create(ctx, alreadyOverdue))

	listed, err := s.invoices.ListPastDue(ctx, now)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(pastDue.ID, listed[0].ID)

	overdue, err := s.invoices.ListOverdue(ctx)
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(alreadyOverdue.ID, overdue[0].ID)
}

func (s *PostgresStoreSuite) TestNextSequenceMonotonic() {
	ctx := context.Background()
	first, err := s.invoices.NextSequence(ctx)
	s.Require().NoError(err)
	second, err := s.invoices.NextSequence(ctx)
	s.Require().NoError(err)
	s.Greater(second, first)
}

func (s *PostgresStoreSuite) TestBalanceLazyCreationAndMutation() {
	ctx := context.Background()
	now := time.Now().UTC()
	tenantID, operatorID := uuid.New(), uuid.New()

	_, err := s.balances.FindByOperator(ctx, operatorID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	updated, err := s.balances.Execute(ctx, tenantID, operatorID, money.USD, now, func(b *models.OperatorAccountBalance) error {
		return b.RecordInvoiceFinalized(money.MustNew("500.00", money.USD), now)
	})
	s.Require().NoError(err)
	s.True(updated.CurrentBalance.Equal(money.MustNew("500.00", money.USD)))

	found, err := s.balances.FindByOperator(ctx, operatorID)
	s.Require().NoError(err)
	s.True(found.CurrentBalance.Equal(money.MustNew("500.00", money.USD)))
	s.Equal(0, found.OverdueInvoiceCount)
}

func (s *PostgresStoreSuite) TestBalanceExecuteRollsBackOnError() {
	ctx := context.Background()
	now := time.Now().UTC()
	tenantID, operatorID := uuid.New(), uuid.New()

	_, err := s.balances.Execute(ctx, tenantID, operatorID, money.USD, now, func(b *models.OperatorAccountBalance) error {
		return b.RecordInvoiceFinalized(money.MustNew("100.00", money.USD), now)
	})
	s.Require().NoError(err)

	// Clearing overdue exposure with none recorded fails and must not persist.
	_, err = s.balances.Execute(ctx, tenantID, operatorID, money.USD, now, func(b *models.OperatorAccountBalance) error {
		return b.RecordOverdueCleared(money.MustNew("50.00", money.USD), now)
	})
	s.Require().Error(err)

	found, err := s.balances.FindByOperator(ctx, operatorID)
	s.Require().NoError(err)
	s.True(found.TotalOverdue.IsZero())
	s.Equal(0, found.OverdueInvoiceCount)
}
