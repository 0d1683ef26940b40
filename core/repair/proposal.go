package repair

import (
	"github.com/fleetroster/rosterd/core/audit"
	"github.com/fleetroster/rosterd/core/model"
)

// Proposal describes a constrained re-assignment against a locked plan. It is
// ephemeral until confirmed. Legal is never hand-set: it derives exclusively
// from the attached audit engine run over the simulated set.
type Proposal struct {
	ParentID      string             `json:"parent_id"`
	DraftID       string             `json:"draft_id"`
	ImpactedTours []string           `json:"impacted_tours"`
	Added         []model.Assignment `json:"added"`
	Removed       []model.Assignment `json:"removed"`
	BudgetUsed    Usage              `json:"budget_used"`
	Legal         bool               `json:"legal"`
	Audit         audit.Report       `json:"audit"`
}

// Summary condenses the proposal for human presentation.
type Summary struct {
	ImpactedTours  int      `json:"impacted_tours"`
	ChangedDrivers []string `json:"changed_drivers"`
	Legal          bool     `json:"legal"`
	Violations     int      `json:"violations"`
}

// Summarize produces the human-facing digest.
func (p Proposal) Summarize() Summary {
	seen := make(map[string]struct{})
	var changed []string
	for _, a := range p.Added {
		if _, ok := seen[a.DriverID]; !ok {
			seen[a.DriverID] = struct{}{}
			changed = append(changed, a.DriverID)
		}
	}
	return Summary{
		ImpactedTours:  len(p.ImpactedTours),
		ChangedDrivers: changed,
		Legal:          p.Legal,
		Violations:     p.Audit.Violations,
	}
}
