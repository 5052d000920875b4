package queue

import (
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"
)

// ErrConstraint reports a job whose timestamps violate the table's ordering
// constraints (created_at <= starts_at <= expires_at). Callers should treat
// a matching error as a rejected submission, not something to retry.
var ErrConstraint = errors.New("job timing constraint violated")

// wrapConstraintErr tags SQLite constraint failures with ErrConstraint so
// callers can classify them with errors.Is. Other errors pass through.
func wrapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	// Extended result codes carry the base code in the lower 8 bits.
	const sqliteConstraint = 19
	if sqliteErr.Code()&0xff != sqliteConstraint {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConstraint, err)
}
