package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// TxBeginner is satisfied by *sqlx.DB.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// RetryPolicy controls how transient transaction failures are retried.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy retries a failed transaction once.
var DefaultRetryPolicy = RetryPolicy{Attempts: 2, Backoff: 50 * time.Millisecond}

var transientCodes = map[pq.ErrorCode]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IsTransient reports whether err is a retryable Postgres concurrency failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if appErrors.HasCode(err, appErrors.ErrTransientStore.Code) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := transientCodes[pqErr.Code]
		return ok
	}
	return false
}

// WithTx runs fn inside a read-committed transaction, committing on success.
// Transient failures restart the whole transaction per policy; when retries are
// exhausted the failure is surfaced as an internal error.
func WithTx(ctx context.Context, db TxBeginner, policy RetryPolicy, fn func(tx *sqlx.Tx) error) error {
	if db == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}

	var err error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err = runTx(ctx, db, fn)
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == policy.Attempts {
			break
		}
		timer := time.NewTimer(policy.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transaction aborted")
		case <-timer.C:
		}
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transaction failed after retry")
}

func runTx(ctx context.Context, db TxBeginner, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		if IsTransient(err) {
			return appErrors.Wrap(err, appErrors.ErrTransientStore.Code, appErrors.ErrTransientStore.Status, appErrors.ErrTransientStore.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		if IsTransient(err) {
			return appErrors.Wrap(err, appErrors.ErrTransientStore.Code, appErrors.ErrTransientStore.Status, appErrors.ErrTransientStore.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}
