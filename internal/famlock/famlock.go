// Package famlock provides an advisory exclusive lock per plan family.
// Mutating operations (solve, repair) acquire the family before touching the
// store; a second concurrent operation fails fast instead of queuing.
package famlock

import (
	"fmt"
	"sync"
)

// ConcurrentOperationError reports that another operation already holds the
// family.
type ConcurrentOperationError struct {
	FamilyID string
	Holder   string
}

func (e *ConcurrentOperationError) Error() string {
	return fmt.Sprintf("plan family %s: operation %q already in progress", e.FamilyID, e.Holder)
}

// Guard hands out at most one token per family at a time.
type Guard struct {
	mu   sync.Mutex
	held map[string]string
}

// New creates an empty guard.
func New() *Guard {
	return &Guard{held: make(map[string]string)}
}

// Acquire takes the family for the named operation. It never blocks: when the
// family is already held, a ConcurrentOperationError identifies the holder.
func (g *Guard) Acquire(familyID, operation string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if holder, ok := g.held[familyID]; ok {
		return &ConcurrentOperationError{FamilyID: familyID, Holder: holder}
	}
	g.held[familyID] = operation
	return nil
}

// Release frees the family. Releasing a family held by a different operation
// is a no-op, so a late release cannot steal someone else's lock.
func (g *Guard) Release(familyID, operation string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[familyID] == operation {
		delete(g.held, familyID)
	}
}
