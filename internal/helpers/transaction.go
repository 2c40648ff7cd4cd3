package helpers

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionFunc is a function that executes within a database transaction
type TransactionFunc func(tx pgx.Tx) error

// WithTransactionOptions executes fn within a database transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
func WithTransactionOptions(ctx context.Context, db TxBeginner, opts pgx.TxOptions, fn TransactionFunc) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		// Rollback after a successful commit returns ErrTxClosed
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			logger.Log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if err := fn(tx); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithTransactionRetry retries the transaction up to maxRetries times on serialization failures.
func WithTransactionRetry(ctx context.Context, db TxBeginner, maxRetries int, fn TransactionFunc) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = WithTransactionOptions(ctx, db, opts, fn)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "40001" && attempt < maxRetries {
			logger.Log.Warn("Transaction failed due to serialization error, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", maxRetries),
				zap.Error(err),
			)
			continue
		}
		break
	}

	return err
}
