package audit

import "fmt"

// FailedError reports that a plan solved (or repaired) correctly but one or
// more checks failed. The full report rides along for human presentation.
type FailedError struct {
	Report Report
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("audit failed: %d violations in checks %v", e.Report.Violations, e.Report.FailedChecks())
}
