package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mocca-storefront/models"
)

var (
	ErrAttemptNotFound = errors.New("payment attempt not found")
	ErrAttemptSettled  = errors.New("payment attempt already settled")
)

// AttemptUpdate settles a created attempt.
type AttemptUpdate struct {
	Status    models.AttemptStatus
	PaymentID string
	OrderID   string
	Reason    string
}

// Ledger records every hosted-widget payment so verified and failed
// payments can be reconciled against backend orders.
type Ledger struct {
	conn   *Connection
	logger *zap.Logger
	now    func() time.Time
}

func NewLedger(conn *Connection, logger *zap.Logger) *Ledger {
	return &Ledger{conn: conn, logger: logger, now: time.Now}
}

func (l *Ledger) CreateAttempt(ctx context.Context, a *models.PaymentAttempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := l.now().UTC()
	a.Status = models.AttemptCreated
	a.CreatedAt, a.UpdatedAt = now, now

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := l.conn.db.ExecContext(ctx, insertAttemptQuery,
		a.ID, a.UserID, a.OrderID, a.GatewayOrderID, a.Amount, a.Currency,
		string(a.Kind), string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save payment attempt: %w", err)
	}

	l.logger.Info("payment attempt recorded",
		zap.String("attempt_id", a.ID),
		zap.String("gateway_order_id", a.GatewayOrderID),
		zap.String("kind", string(a.Kind)))
	return nil
}

// MarkAttempt settles the attempt for gatewayOrderID. Only created attempts
// can be settled; settling twice returns ErrAttemptSettled.
func (l *Ledger) MarkAttempt(ctx context.Context, gatewayOrderID string, u AttemptUpdate) error {
	tx, err := l.conn.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var status models.AttemptStatus
	status, err = tx.lockAttempt(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if status != models.AttemptCreated {
		err = ErrAttemptSettled
		return err
	}
	if err = tx.settleAttempt(ctx, gatewayOrderID, u, l.now().UTC()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment attempt: %w", err)
	}

	l.logger.Info("payment attempt settled",
		zap.String("gateway_order_id", gatewayOrderID),
		zap.String("status", string(u.Status)),
		zap.String("order_id", u.OrderID))
	return nil
}

func (l *Ledger) ListAttempts(ctx context.Context, limit, offset int) ([]models.PaymentAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return l.query(ctx, listAttemptsQuery, limit, offset)
}

func (l *Ledger) AttemptsForOrder(ctx context.Context, orderID string) ([]models.PaymentAttempt, error) {
	return l.query(ctx, attemptsForOrderQuery, orderID)
}

func (l *Ledger) query(ctx context.Context, query string, args ...interface{}) ([]models.PaymentAttempt, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := l.conn.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.PaymentAttempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func scanAttempt(rows *sql.Rows) (models.PaymentAttempt, error) {
	var a models.PaymentAttempt
	var kind, status string
	err := rows.Scan(
		&a.ID,
		&a.UserID,
		&a.OrderID,
		&a.GatewayOrderID,
		&a.GatewayPaymentID,
		&a.Amount,
		&a.Currency,
		&kind,
		&status,
		&a.FailureReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return a, fmt.Errorf("failed to scan payment attempt: %w", err)
	}
	a.Kind = models.AttemptKind(kind)
	a.Status = models.AttemptStatus(status)
	return a, nil
}
