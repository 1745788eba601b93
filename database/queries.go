package database

const (
	attemptColumns = `id, user_id, COALESCE(order_id, ''), gateway_order_id,
        COALESCE(gateway_payment_id, ''), amount, currency, kind, status,
        COALESCE(failure_reason, ''), created_at, updated_at`

	insertAttemptQuery = `
        INSERT INTO payment_attempts (
            id, user_id, order_id, gateway_order_id, amount, currency,
            kind, status, created_at, updated_at
        ) VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?)`

	lockAttemptQuery = `
        SELECT status FROM payment_attempts
        WHERE gateway_order_id = ?
        FOR UPDATE`

	settleAttemptQuery = `
        UPDATE payment_attempts
        SET status = ?,
            gateway_payment_id = COALESCE(NULLIF(?, ''), gateway_payment_id),
            order_id = COALESCE(NULLIF(?, ''), order_id),
            failure_reason = NULLIF(?, ''),
            updated_at = ?
        WHERE gateway_order_id = ?`

	listAttemptsQuery = `SELECT ` + attemptColumns + `
        FROM payment_attempts
        ORDER BY created_at DESC
        LIMIT ? OFFSET ?`

	attemptsForOrderQuery = `SELECT ` + attemptColumns + `
        FROM payment_attempts
        WHERE order_id = ?
        ORDER BY created_at ASC`
)
