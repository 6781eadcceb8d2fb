package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrValidation indicates malformed input, such as an inverted time window.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a missing slot, appointment, or provider.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the requester does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a lost slot race or a uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrTransient indicates a connection or lock timeout; callers may retry.
	ErrTransient = errors.New("transient store error")
)

// Postgres error codes the stores translate into the domain taxonomy.
const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeLockNotAvailable    = "55P03"
	pgCodeQueryCanceled       = "57014"
)

// classifyPgError maps low-level pgx failures onto the domain error taxonomy.
// Anything unrecognized is wrapped as transient so callers treat it as
// retryable rather than a business-rule rejection.
func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeUniqueViolation:
			return fmt.Errorf("scheduling: %s: %w", op, ErrConflict)
		case pgCodeForeignKeyViolation:
			return fmt.Errorf("scheduling: %s: %w", op, ErrNotFound)
		case pgCodeLockNotAvailable, pgCodeQueryCanceled:
			return fmt.Errorf("scheduling: %s: %w", op, ErrTransient)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduling: %s: %w", op, ErrTransient)
	}
	return fmt.Errorf("scheduling: %s: %v: %w", op, err, ErrTransient)
}
