package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mocca-storefront/models"
)

type Transaction struct {
	tx *sql.Tx
}

func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// lockAttempt returns the current status of the attempt and holds its row
// until the transaction ends.
func (t *Transaction) lockAttempt(ctx context.Context, gatewayOrderID string) (models.AttemptStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var status string
	err := t.tx.QueryRowContext(ctx, lockAttemptQuery, gatewayOrderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrAttemptNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock payment attempt: %w", err)
	}
	return models.AttemptStatus(status), nil
}

func (t *Transaction) settleAttempt(ctx context.Context, gatewayOrderID string, u AttemptUpdate, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := t.tx.ExecContext(ctx, settleAttemptQuery,
		string(u.Status), u.PaymentID, u.OrderID, u.Reason, now, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("failed to update payment attempt: %w", err)
	}
	return nil
}
