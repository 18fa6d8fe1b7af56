package iostore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes signalling lock contention between concurrent
// upserts and merges.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// isConflict reports whether the error is a transient transaction
// conflict worth retrying.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure ||
		pgErr.Code == codeDeadlockDetected
}

// WithRetry runs op, retrying transaction conflicts with exponential
// backoff up to the given number of attempts. Other errors, and
// conflicts past the bound, surface to the caller.
func WithRetry(ctx context.Context, attempts int, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := 50 * time.Millisecond
	var err error
	for i := 0; i < attempts; i++ {
		err = op()
		if err == nil || !isConflict(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		backoff *= 2
	}
	return TxConflictError(attempts, err)
}
