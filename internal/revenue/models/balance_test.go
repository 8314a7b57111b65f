package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/testutil"
)

var balNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newBalance() *models.OperatorAccountBalance {
	return models.NewOperatorAccountBalance(uuid.New(), uuid.New(), money.USD, balNow)
}

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	return money.MustNew(amount, money.USD)
}

func TestBalanceLifecycle(t *testing.T) {
	b := newBalance()

	testutil.Given(t, "an operator with a finalized invoice", func(t *testing.T) {
		assert.True(t, b.CurrentBalance.IsZero())
		assert.True(t, b.TotalOverdue.IsZero())

		require.NoError(t, b.RecordInvoiceFinalized(usd(t, "1000.00"), balNow))
		assert.Equal(t, "1000.00 USD", b.CurrentBalance.String())
	})

	testutil.When(t, "the invoice goes overdue and accrues interest", func(t *testing.T) {
		require.NoError(t, b.RecordInvoiceOverdue(usd(t, "1000.00"), balNow))
		assert.Equal(t, "1000.00 USD", b.TotalOverdue.String())
		assert.Equal(t, 1, b.OverdueInvoiceCount)

		require.NoError(t, b.RecordInterestCharge(usd(t, "15.00"), balNow))
		assert.Equal(t, "1015.00 USD", b.CurrentBalance.String())
		assert.Equal(t, "1015.00 USD", b.TotalOverdue.String())
	})

	testutil.Then(t, "full settlement zeroes the balance and the exposure", func(t *testing.T) {
		require.NoError(t, b.RecordPayment(usd(t, "1015.00"), balNow))
		assert.True(t, b.CurrentBalance.IsZero())

		require.NoError(t, b.RecordOverdueCleared(usd(t, "1015.00"), balNow))
		assert.True(t, b.TotalOverdue.IsZero())
		assert.Equal(t, 0, b.OverdueInvoiceCount)
	})
}

func TestRecordOverdueClearedGuards(t *testing.T) {
	t.Run("cannot clear below zero", func(t *testing.T) {
		b := newBalance()
		require.NoError(t, b.RecordInvoiceOverdue(usd(t, "500.00"), balNow))

		err := b.RecordOverdueCleared(usd(t, "600.00"), balNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		// The failed clear leaves the exposure untouched.
		assert.Equal(t, "500.00 USD", b.TotalOverdue.String())
		assert.Equal(t, 1, b.OverdueInvoiceCount)
	})

	t.Run("cannot clear with no overdue invoices", func(t *testing.T) {
		b := newBalance()
		err := b.RecordOverdueCleared(money.Zero(money.USD), balNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestEligibilityPolicy(t *testing.T) {
	strict := models.EligibilityPolicy{
		MaxOverdueAmount:   money.Zero(money.USD),
		MaxOverdueInvoices: 0,
	}

	t.Run("clean balance is eligible", func(t *testing.T) {
		decision := strict.Evaluate(newBalance())
		assert.True(t, decision.Eligible)
		assert.Empty(t, decision.BlockReasons)
	})

	t.Run("outstanding but not overdue is eligible", func(t *testing.T) {
		b := newBalance()
		require.NoError(t, b.RecordInvoiceFinalized(usd(t, "5000.00"), balNow))

		decision := strict.Evaluate(b)
		assert.True(t, decision.Eligible)
	})

	t.Run("overdue debt blocks with both reasons", func(t *testing.T) {
		b := newBalance()
		require.NoError(t, b.RecordInvoiceOverdue(usd(t, "5000.00"), balNow))

		decision := strict.Evaluate(b)
		assert.False(t, decision.Eligible)
		require.Len(t, decision.BlockReasons, 2)
		assert.Contains(t, decision.BlockReasons[0], "5000.00 USD")
	})

	t.Run("lenient thresholds tolerate small debt", func(t *testing.T) {
		lenient := models.EligibilityPolicy{
			MaxOverdueAmount:   usd(t, "1000.00"),
			MaxOverdueInvoices: 2,
		}
		b := newBalance()
		require.NoError(t, b.RecordInvoiceOverdue(usd(t, "800.00"), balNow))

		assert.True(t, lenient.Evaluate(b).Eligible)

		require.NoError(t, b.RecordInvoiceOverdue(usd(t, "300.00"), balNow))
		decision := lenient.Evaluate(b)
		assert.False(t, decision.Eligible)
		require.Len(t, decision.BlockReasons, 1)
	})
}
