package quality

import (
	"errors"
	"fmt"
)

// Failure kinds reported by the checker. Use errors.Is against a *CheckError
// to branch on the kind.
var (
	ErrNoResults = errors.New("no results")
	ErrZeroRows  = errors.New("zero rows")
)

// CheckError reports the table that failed the quality check.
type CheckError struct {
	Table string
	Kind  error
}

func (e *CheckError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrNoResults):
		return fmt.Sprintf("Data quality check failed. %s returned no results", e.Table)
	case errors.Is(e.Kind, ErrZeroRows):
		return fmt.Sprintf("Data quality check failed. %s contained 0 rows", e.Table)
	default:
		return fmt.Sprintf("Data quality check failed. %s: %v", e.Table, e.Kind)
	}
}

// Unwrap returns the failure kind.
func (e *CheckError) Unwrap() error {
	return e.Kind
}
