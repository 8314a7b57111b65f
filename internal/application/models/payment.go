package models

import (
	"time"

	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// PaymentMethod identifies how the application fee is settled.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "bank_transfer"
	PaymentCash     PaymentMethod = "cash"
)

// PaymentStatus is the application payment lifecycle.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

// Payment is the single fee payment owned by an application. The per-flight
// ledger has its own payment type; the two never mix.
type Payment struct {
	Amount         money.Money
	Method         PaymentMethod
	Status         PaymentStatus
	TransactionRef string
	ReceiptNumber  string
	RequestedAt    time.Time
	CompletedAt    *time.Time
}
