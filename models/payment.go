package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AttemptKind string

const (
	AttemptKindOrder AttemptKind = "order"
	AttemptKindRetry AttemptKind = "retry"
)

type AttemptStatus string

const (
	AttemptCreated  AttemptStatus = "created"
	AttemptVerified AttemptStatus = "verified"
	AttemptFailed   AttemptStatus = "failed"
)

// PaymentAttempt is one hosted-widget payment kept in the local ledger.
type PaymentAttempt struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	OrderID          string          `json:"order_id,omitempty"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Kind             AttemptKind     `json:"kind"`
	Status           AttemptStatus   `json:"status"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
