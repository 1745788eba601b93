package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"mocca-storefront/models"
)

// PendingPayment is a gateway order waiting for the widget callback.
type PendingPayment struct {
	Kind           models.AttemptKind `json:"kind"`
	UserID         string             `json:"userId"`
	Email          string             `json:"email,omitempty"`
	Name           string             `json:"name,omitempty"`
	GatewayOrderID string             `json:"gatewayOrderId"`
	OrderID        string             `json:"orderId,omitempty"`
	Amount         decimal.Decimal    `json:"amount"`
	Draft          *models.OrderDraft `json:"draft,omitempty"`
}

func pendingKey(userID, gatewayOrderID string) string {
	return fmt.Sprintf("checkout:pending:%s:%s", userID, gatewayOrderID)
}

func (s *Service) savePending(ctx context.Context, p *PendingPayment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pending payment: %w", err)
	}
	if err := s.redis.Set(ctx, pendingKey(p.UserID, p.GatewayOrderID), data, s.pendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to store pending payment: %w", err)
	}
	return nil
}

// takePending removes and returns the pending payment. Exactly one caller
// gets it; everyone else sees ErrPaymentNotPending.
func (s *Service) takePending(ctx context.Context, userID, gatewayOrderID string) (*PendingPayment, error) {
	if userID == "" || gatewayOrderID == "" {
		return nil, ErrPaymentNotPending
	}
	data, err := s.redis.GetDel(ctx, pendingKey(userID, gatewayOrderID)).Bytes()
	if err == redis.Nil {
		return nil, ErrPaymentNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payment: %w", err)
	}
	var p PendingPayment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending payment: %w", err)
	}
	return &p, nil
}

const defaultPendingTTL = 30 * time.Minute
