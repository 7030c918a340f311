package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PointsRepository credits reward points through an idempotent ledger.
type PointsRepository struct {
	db *sqlx.DB
}

// NewPointsRepository creates a new instance of PointsRepository.
func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Credit adds amount to the user's balance unless a transaction with the same
// idempotency key already exists. It reports whether points were added.
func (r *PointsRepository) Credit(ctx context.Context, userID string, amount int, reason, key string) (bool, error) {
	const insertQuery = `INSERT INTO point_transactions (id, user_id, amount, reason, idempotency_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (idempotency_key) DO NOTHING`
	const balanceQuery = `UPDATE users SET points = points + $2 WHERE id = $1`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin credit tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, insertQuery, uuid.NewString(), userID, amount, reason, key, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert point transaction: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("point transaction rows: %w", err)
	}
	if inserted == 0 {
		err = tx.Commit()
		if err != nil {
			return false, fmt.Errorf("commit credit tx: %w", err)
		}
		return false, nil
	}

	res, err = tx.ExecContext(ctx, balanceQuery, userID, amount)
	if err != nil {
		return false, fmt.Errorf("update user points: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("user points rows: %w", err)
	}
	if updated == 0 {
		err = fmt.Errorf("credit points: user %s not found", userID)
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit credit tx: %w", err)
	}
	return true, nil
}
