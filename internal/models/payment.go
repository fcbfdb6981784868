package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CardDetails is the masked, display-only view of the card used.
type CardDetails struct {
	LastFour string `json:"last_four"`
	Brand    string `json:"brand"`
}

type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID            string        `bun:"id,pk" json:"id"`
	OrderID       string        `bun:"order_id,notnull" json:"order_id"`
	UserID        string        `bun:"user_id,notnull" json:"user_id"`
	Amount        float64       `bun:"amount,notnull" json:"amount"`
	Method        PaymentMethod `bun:"method,notnull" json:"method"`
	Status        PaymentStatus `bun:"status,notnull" json:"status"`
	TransactionID string        `bun:"transaction_id,unique,notnull" json:"transaction_id"`
	ReceiptID     string        `bun:"receipt_id,notnull" json:"receipt_id"`
	Card          *CardDetails  `bun:"card" json:"card,omitempty"`
	CreatedAt     time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time     `bun:"updated_at,notnull" json:"updated_at"`
}

type CardInput struct {
	Number     string `json:"number"`
	CVV        string `json:"cvv"`
	Expiry     string `json:"expiry"`
	HolderName string `json:"holder_name"`
}

type PaymentRequest struct {
	OrderID string        `json:"order_id" validate:"required"`
	Method  PaymentMethod `json:"method" validate:"required,oneof=card paypal voucher cash"`
	Card    *CardInput    `json:"card"`
}

type CardPaymentRequest struct {
	OrderID    string `json:"order_id" validate:"required"`
	CardNumber string `json:"card_number" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
	Expiry     string `json:"expiry" validate:"required"`
	HolderName string `json:"holder_name" validate:"required"`
}

type UpdatePaymentStatusRequest struct {
	Status PaymentStatus `json:"status" validate:"required,oneof=pending processing completed failed refunded"`
}

type PaymentFilter struct {
	UserID string
	Status PaymentStatus
	Method PaymentMethod
}

type MethodBreakdown struct {
	Method PaymentMethod `bun:"method" json:"method"`
	Count  int           `bun:"count" json:"count"`
	Total  float64       `bun:"total" json:"total"`
}

type PaymentStatistics struct {
	TotalCompletedPayments int               `json:"total_completed_payments"`
	TotalAmount            float64           `json:"total_amount"`
	ByMethod               []MethodBreakdown `json:"by_method"`
}

// PaymentResult is what a successful payment returns: the payment and the order it settled.
type PaymentResult struct {
	Payment *Payment `json:"payment"`
	Order   *Order   `json:"order"`
}
