package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JRosan/fop-system-sub004/internal/application/models"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

var testNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newDraft(t *testing.T) *models.Application {
	t.Helper()
	app, err := models.New(
		uuid.New(), uuid.New(), uuid.New(),
		models.TypeOneTime,
		models.FlightDetails{
			DepartureAirport: "TAPA",
			ArrivalAirport:   "TVSA",
			Purpose:          "charter",
			SeatCount:        9,
			PassengerCount:   7,
			MTOW:             money.WeightFromKg(5700),
		},
		testNow.AddDate(0, 0, 7), testNow.AddDate(0, 1, 7),
		money.MustNew("1000.00", money.USD),
		testNow,
	)
	require.NoError(t, err)
	return app
}

func attachRequiredDocuments(t *testing.T, app *models.Application) {
	t.Helper()
	for _, docType := range models.RequiredDocumentTypes {
		_, err := app.AttachDocument(docType, "https://docs.example/"+string(docType), nil, testNow)
		require.NoError(t, err)
	}
}

func verifyAllDocuments(t *testing.T, app *models.Application) {
	t.Helper()
	for _, doc := range app.Documents {
		require.NoError(t, app.VerifyDocument(doc.ID, "officer-1", testNow))
	}
}

// advanceToPendingPayment walks a fresh draft through the happy path up to the
// payment request.
func advanceToPendingPayment(t *testing.T, app *models.Application) {
	t.Helper()
	attachRequiredDocuments(t, app)
	require.NoError(t, app.Submit("ops@example.aero", testNow))
	require.NoError(t, app.StartReview("officer-1", testNow))
	verifyAllDocuments(t, app)
	require.NoError(t, app.RequestPayment(models.PaymentCard, testNow))
}

func TestNewValidation(t *testing.T) {
	valid := func() (uuid.UUID, uuid.UUID, uuid.UUID, models.Type, time.Time, time.Time) {
		return uuid.New(), uuid.New(), uuid.New(), models.TypeOneTime, testNow, testNow.AddDate(0, 1, 0)
	}

	t.Run("rejects zero tenant", func(t *testing.T) {
		_, _, aircraft, typ, from, until := valid()
		_, err := models.New(uuid.UUID{}, uuid.New(), aircraft, typ, models.FlightDetails{}, from, until, money.Zero(money.USD), testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
	t.Run("rejects unknown type", func(t *testing.T) {
		tenant, operator, aircraft, _, from, until := valid()
		_, err := models.New(tenant, operator, aircraft, "seasonal", models.FlightDetails{}, from, until, money.Zero(money.USD), testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
	t.Run("rejects inverted validity window", func(t *testing.T) {
		tenant, operator, aircraft, typ, from, _ := valid()
		_, err := models.New(tenant, operator, aircraft, typ, models.FlightDetails{}, from, from, money.Zero(money.USD), testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
	t.Run("freezes fee on both fields", func(t *testing.T) {
		app := newDraft(t)
		assert.True(t, app.OriginalFee.Equal(app.CalculatedFee))
		assert.Equal(t, models.StatusDraft, app.Status)
	})
}

func TestSubmitRequiresAllRequiredDocuments(t *testing.T) {
	app := newDraft(t)

	err := app.Submit("ops@example.aero", testNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, models.CodeInvalidOperation))

	// Three of four is still not enough.
	for _, docType := range models.RequiredDocumentTypes[:3] {
		_, err := app.AttachDocument(docType, "https://docs.example/x", nil, testNow)
		require.NoError(t, err)
	}
	require.Error(t, app.Submit("ops@example.aero", testNow))

	_, err = app.AttachDocument(models.DocInsurance, "https://docs.example/ins", nil, testNow)
	require.NoError(t, err)
	require.NoError(t, app.Submit("ops@example.aero", testNow))
	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.Equal(t, "ops@example.aero", app.ContactEmail)
}

func TestStateMachineRejectsSkips(t *testing.T) {
	tests := []struct {
		name string
		run  func(app *models.Application) error
	}{
		{"review before submit", func(app *models.Application) error {
			return app.StartReview("officer-1", testNow)
		}},
		{"payment before review", func(app *models.Application) error {
			attachRequiredDocuments(t, app)
			if err := app.Submit("ops@example.aero", testNow); err != nil {
				return err
			}
			return app.RequestPayment(models.PaymentCard, testNow)
		}},
		{"double submit", func(app *models.Application) error {
			attachRequiredDocuments(t, app)
			if err := app.Submit("ops@example.aero", testNow); err != nil {
				return err
			}
			return app.Submit("ops@example.aero", testNow)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(newDraft(t))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, models.CodeInvalidOperation))
		})
	}
}

func TestRequestPaymentRequiresVerifiedDocuments(t *testing.T) {
	app := newDraft(t)
	attachRequiredDocuments(t, app)
	require.NoError(t, app.Submit("ops@example.aero", testNow))
	require.NoError(t, app.StartReview("officer-1", testNow))

	err := app.RequestPayment(models.PaymentCard, testNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, models.CodeDocumentsNotVerified))

	verifyAllDocuments(t, app)
	require.NoError(t, app.RequestPayment(models.PaymentCard, testNow))
	assert.Equal(t, models.StatusPendingPayment, app.Status)
	require.NotNil(t, app.Payment)
	assert.True(t, app.Payment.Amount.Equal(app.CalculatedFee))
	assert.Equal(t, models.PaymentPending, app.Payment.Status)
}

func TestRejectDocumentDropsToPendingDocuments(t *testing.T) {
	app := newDraft(t)
	attachRequiredDocuments(t, app)
	require.NoError(t, app.Submit("ops@example.aero", testNow))
	require.NoError(t, app.StartReview("officer-1", testNow))

	require.Error(t, app.RejectDocument(app.Documents[0].ID, "officer-1", "", testNow))

	require.NoError(t, app.RejectDocument(app.Documents[0].ID, "officer-1", "illegible scan", testNow))
	assert.Equal(t, models.StatusPendingDocuments, app.Status)
	assert.Equal(t, models.DocumentRejected, app.Documents[0].Status)

	// Operator re-uploads, review resumes.
	_, err := app.AttachDocument(app.Documents[0].Type, "https://docs.example/retry", nil, testNow)
	require.NoError(t, err)
	require.NoError(t, app.StartReview("officer-1", testNow))
	assert.Equal(t, models.StatusUnderReview, app.Status)
}

func TestApprovalRequiresCompletedPayment(t *testing.T) {
	app := newDraft(t)
	advanceToPendingPayment(t, app)

	err := app.CanApprove()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, models.CodePaymentInvalidOperation))

	require.NoError(t, app.CompletePayment("TX-1", "RCPT-1", testNow))
	require.NoError(t, app.CanApprove())

	app.ApplyApproval("director", "routine", testNow)
	assert.Equal(t, models.StatusApproved, app.Status)
	assert.Equal(t, "director", app.ApprovedBy)
}

func TestCompletePaymentGuards(t *testing.T) {
	app := newDraft(t)

	err := app.CompletePayment("TX-1", "RCPT-1", testNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, models.CodePaymentInvalidOperation))

	advanceToPendingPayment(t, app)
	require.NoError(t, app.CompletePayment("TX-1", "RCPT-1", testNow))

	// Completing twice fails.
	require.Error(t, app.CompletePayment("TX-2", "RCPT-2", testNow))
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	app := newDraft(t)
	require.NoError(t, app.Cancel(testNow))
	assert.Equal(t, models.StatusCancelled, app.Status)

	// Terminal states refuse further transitions.
	err := app.Cancel(testNow)
	require.Error(t, err)
	err = app.Expire(testNow)
	require.Error(t, err)
}

func TestOverrideFee(t *testing.T) {
	app := newDraft(t)

	err := app.OverrideFee(money.MustNew("750.00", money.USD), "director", "", testNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	require.NoError(t, app.OverrideFee(money.MustNew("750.00", money.USD), "director", "bilateral agreement rate", testNow))
	assert.True(t, app.CalculatedFee.Equal(money.MustNew("750.00", money.USD)))
	assert.True(t, app.OriginalFee.Equal(money.MustNew("750.00", money.USD)))
	require.NotNil(t, app.Override)
	assert.True(t, app.Override.PreviousFee.Equal(money.MustNew("1000.00", money.USD)))
}

func TestWaiverLifecycle(t *testing.T) {
	t.Run("full waiver zeroes the fee", func(t *testing.T) {
		app := newDraft(t)
		waiver, err := app.RequestWaiver(models.WaiverHumanitarian, "disaster relief flight", "operator", testNow)
		require.NoError(t, err)

		require.NoError(t, app.ApproveWaiver(waiver.ID, "director", decimal.NewFromInt(100), testNow))
		assert.True(t, app.CalculatedFee.IsZero())
		assert.True(t, waiver.WaivedAmount.Equal(money.MustNew("1000.00", money.USD)))
	})

	t.Run("half waiver halves the fee from the original", func(t *testing.T) {
		app := newDraft(t)
		waiver, err := app.RequestWaiver(models.WaiverGovernment, "state flight", "operator", testNow)
		require.NoError(t, err)

		require.NoError(t, app.ApproveWaiver(waiver.ID, "director", decimal.NewFromInt(50), testNow))
		assert.True(t, app.CalculatedFee.Equal(money.MustNew("500.00", money.USD)))
	})

	t.Run("only one pending waiver at a time", func(t *testing.T) {
		app := newDraft(t)
		_, err := app.RequestWaiver(models.WaiverEmergency, "medevac", "operator", testNow)
		require.NoError(t, err)

		_, err = app.RequestWaiver(models.WaiverOther, "second request", "operator", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, models.CodeWaiverInvalidOperation))
	})

	t.Run("rejection requires a substantive reason", func(t *testing.T) {
		app := newDraft(t)
		waiver, err := app.RequestWaiver(models.WaiverEmergency, "medevac", "operator", testNow)
		require.NoError(t, err)

		err = app.RejectWaiver(waiver.ID, "director", "no", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		require.NoError(t, app.RejectWaiver(waiver.ID, "director", "not an eligible operation", testNow))
		assert.Equal(t, models.WaiverRejected, waiver.Status)
		assert.True(t, app.CalculatedFee.Equal(money.MustNew("1000.00", money.USD)))
	})

	t.Run("percentage bounds", func(t *testing.T) {
		app := newDraft(t)
		waiver, err := app.RequestWaiver(models.WaiverEmergency, "medevac", "operator", testNow)
		require.NoError(t, err)

		require.Error(t, app.ApproveWaiver(waiver.ID, "director", decimal.NewFromInt(101), testNow))
		require.Error(t, app.ApproveWaiver(waiver.ID, "director", decimal.NewFromInt(-1), testNow))
	})

	t.Run("waiver applies to the overridden fee", func(t *testing.T) {
		app := newDraft(t)
		require.NoError(t, app.OverrideFee(money.MustNew("800.00", money.USD), "director", "negotiated", testNow))

		waiver, err := app.RequestWaiver(models.WaiverDiplomatic, "state visit", "operator", testNow)
		require.NoError(t, err)
		require.NoError(t, app.ApproveWaiver(waiver.ID, "director", decimal.NewFromInt(25), testNow))
		assert.True(t, app.CalculatedFee.Equal(money.MustNew("600.00", money.USD)))
	})
}

func TestStatusTransitionTable(t *testing.T) {
	assert.True(t, models.StatusDraft.CanTransitionTo(models.StatusSubmitted))
	assert.False(t, models.StatusDraft.CanTransitionTo(models.StatusApproved))
	assert.True(t, models.StatusUnderReview.CanTransitionTo(models.StatusPendingDocuments))
	assert.True(t, models.StatusPendingDocuments.CanTransitionTo(models.StatusUnderReview))
	assert.False(t, models.StatusApproved.CanTransitionTo(models.StatusCancelled))
	assert.True(t, models.StatusPendingPayment.CanTransitionTo(models.StatusExpired))
	assert.True(t, models.StatusApproved.Terminal())
	assert.False(t, models.StatusPendingPayment.Terminal())
}
