package plan

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a plan version does not exist.
var ErrNotFound = errors.New("plan version not found")

// TransitionError reports an illegal lifecycle transition request.
type TransitionError struct {
	VersionID string
	From, To  Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("plan %s: illegal transition %s -> %s", e.VersionID, e.From, e.To)
}

// LockedImmutableError reports an attempt to mutate a non-draft plan version.
// Correct state-machine gating makes this unreachable; seeing it is a
// programming-level bug and is logged loudly by callers.
type LockedImmutableError struct {
	VersionID string
	Status    Status
}

func (e *LockedImmutableError) Error() string {
	return fmt.Sprintf("plan %s is %s and immutable", e.VersionID, e.Status)
}

// MachineOriginError reports a lock or publish attempt by an automated caller.
type MachineOriginError struct {
	VersionID string
	ActorID   string
}

func (e *MachineOriginError) Error() string {
	return fmt.Sprintf("plan %s: lock requires human approval, actor %s is machine-originated", e.VersionID, e.ActorID)
}

// StaleStateError reports that a repair confirm found the world changed since
// prepare, typically because the parent version was superseded meanwhile.
type StaleStateError struct {
	VersionID string
	Reason    string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("plan %s: stale state: %s", e.VersionID, e.Reason)
}
