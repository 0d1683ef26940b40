package solver

import (
	"fmt"
	"time"
)

// InfeasibleError reports that no legal assignment exists for the input. It
// names the constraint that blocked completion so dispatchers see a reason,
// never silent partial coverage.
type InfeasibleError struct {
	Blocking string // constraint that blocked completion
	Day      int
	Detail   string
}

func (e *InfeasibleError) Error() string {
	if e.Day > 0 {
		return fmt.Sprintf("infeasible input: day %d: %s (%s)", e.Day, e.Detail, e.Blocking)
	}
	return fmt.Sprintf("infeasible input: %s (%s)", e.Detail, e.Blocking)
}

// TimeoutError reports that the solve did not finish within its time budget.
// The partial state is discarded; callers never observe an ambiguous result.
type TimeoutError struct {
	Budget time.Duration
	Stage  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no result within budget %s (stage %s)", e.Budget, e.Stage)
}
