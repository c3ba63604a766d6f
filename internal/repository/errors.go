package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/symbohub-api/pkg/database"
)

var (
	// ErrDuplicate is matched by every unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStatusMismatch is returned by guarded status updates that matched no row
	// in the expected prior state.
	ErrStatusMismatch = errors.New("status precondition not met")
)

// DuplicateError names the violated constraint.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record violates %s", e.Constraint)
}

// Is lets errors.Is(err, ErrDuplicate) match.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// writeErr classifies a failed write, keeping unique violations matchable.
func writeErr(op string, err error) error {
	if constraint, ok := database.UniqueViolation(err); ok {
		return fmt.Errorf("%s: %w", op, &DuplicateError{Constraint: constraint})
	}
	return fmt.Errorf("%s: %w", op, err)
}

// findErr classifies a failed lookup. A malformed identifier can never match a
// row, so it is reported as sql.ErrNoRows like a missing one.
func findErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) || database.InvalidText(err) {
		return sql.ErrNoRows
	}
	return fmt.Errorf("%s: %w", op, err)
}

// listErr classifies a failed list query. A malformed identifier filters
// every row out, so it yields an empty result instead of an error.
func listErr(op string, err error) error {
	if database.InvalidText(err) {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func execer(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}
