package journal

import (
	"errors"
	"fmt"

	"tableflip.dev/spreads/pkg/spread"
)

var (
	ErrNotFound      = errors.New("journal: not found")
	ErrNotTask       = errors.New("journal: entry is not a task")
	ErrPastDate      = errors.New("journal: date is in the past")
	ErrInvalidRange  = errors.New("journal: range ends before it starts")
	ErrInvalidPeriod = errors.New("journal: period cannot hold entries")

	ErrDuplicateSpread = errors.New("journal: spread already exists")
	ErrWouldOrphan     = errors.New("journal: deleting the spread would orphan its entries")

	ErrEventMigrationNotSupported = errors.New("journal: events cannot be migrated")
	ErrTaskCancelled              = errors.New("journal: task is cancelled")
	ErrNoSourceAssignment         = errors.New("journal: nothing to migrate from that spread")
	ErrDestinationNotAssignable   = errors.New("journal: entries cannot be assigned to multiday spreads")
	ErrNotDescendant              = errors.New("journal: destination is outside the source period")
)

// verdictError turns a creation-policy refusal into an error for callers
// that submit rather than query.
func verdictError(v spread.Verdict, what string) error {
	switch v {
	case spread.Allowed:
		return nil
	case spread.Duplicate:
		return fmt.Errorf("%w: %s", ErrDuplicateSpread, what)
	case spread.PastDate:
		return fmt.Errorf("%w: %s", ErrPastDate, what)
	case spread.InvalidRange:
		return fmt.Errorf("%w: %s", ErrInvalidRange, what)
	}
	return fmt.Errorf("%w: %s", ErrInvalidPeriod, what)
}
