package repair

import "fmt"

// Budget caps the blast radius a repair proposal may consume.
type Budget struct {
	MaxChangedTours   int `json:"max_changed_tours"`
	MaxChangedDrivers int `json:"max_changed_drivers"`
	MaxChainDepth     int `json:"max_chain_depth"`
	MaxSplits         int `json:"max_splits"`
}

// SetDefaults applies the default change budget.
func (b *Budget) SetDefaults() {
	if b.MaxChangedTours == 0 {
		b.MaxChangedTours = 5
	}
	if b.MaxChangedDrivers == 0 {
		b.MaxChangedDrivers = 3
	}
	if b.MaxChainDepth == 0 {
		b.MaxChainDepth = 2
	}
	if b.MaxSplits == 0 {
		b.MaxSplits = 2
	}
}

// Usage is the budget actually consumed by a proposal.
type Usage struct {
	ChangedTours   int `json:"changed_tours"`
	ChangedDrivers int `json:"changed_drivers"`
	ChainDepth     int `json:"chain_depth"`
	Splits         int `json:"splits"`
}

// Within reports whether the usage fits the budget.
func (u Usage) Within(b Budget) bool {
	return u.ChangedTours <= b.MaxChangedTours &&
		u.ChangedDrivers <= b.MaxChangedDrivers &&
		u.ChainDepth <= b.MaxChainDepth &&
		u.Splits <= b.MaxSplits
}

// BudgetExceededError reports a proposal that cannot fit the change budget.
type BudgetExceededError struct {
	Used   Usage
	Budget Budget
	Detail string
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("repair exceeds change budget: %s (used %+v, budget %+v)", e.Detail, e.Used, e.Budget)
}
