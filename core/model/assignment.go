package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Assignment binds a driver to a tour instance within a block, for a specific
// plan version. Assignments under a locked version are never mutated; change
// happens by superseding the whole version.
type Assignment struct {
	DriverID  string       `json:"driver_id"`
	Tour      TourInstance `json:"tour"`
	Day       int          `json:"day"`
	BlockKind BlockKind    `json:"block_kind"`
}

// AssignmentSet is the full assignment output of one plan version. The order
// is not significant; consumers sort as needed.
type AssignmentSet []Assignment

// ByDriver groups assignments per driver id.
func (s AssignmentSet) ByDriver() map[string][]Assignment {
	out := make(map[string][]Assignment)
	for _, a := range s {
		out[a.DriverID] = append(out[a.DriverID], a)
	}
	return out
}

// ByTour indexes assignments by tour id. Duplicates keep every entry so the
// coverage check can report them.
func (s AssignmentSet) ByTour() map[string][]Assignment {
	out := make(map[string][]Assignment)
	for _, a := range s {
		out[a.Tour.ID] = append(out[a.Tour.ID], a)
	}
	return out
}

// Drivers returns the distinct driver ids in ascending order.
func (s AssignmentSet) Drivers() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, a := range s {
		if _, ok := seen[a.DriverID]; !ok {
			seen[a.DriverID] = struct{}{}
			ids = append(ids, a.DriverID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy, used to build simulated overlays without
// touching a persisted set.
func (s AssignmentSet) Clone() AssignmentSet {
	out := make(AssignmentSet, len(s))
	copy(out, s)
	return out
}

// OutputHash computes the content hash of the sorted (driver, tour) pairs.
// Two solves that place the same drivers on the same tours share a hash
// regardless of internal ordering, which is what the reproducibility check
// compares across runs.
func (s AssignmentSet) OutputHash() string {
	pairs := make([]string, len(s))
	for i, a := range s {
		pairs[i] = a.DriverID + "|" + a.Tour.ID
	}
	sort.Strings(pairs)
	h := sha256.New()
	for _, p := range pairs {
		fmt.Fprintln(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// WeeklyHours sums assigned working hours per driver, on top of the external
// accumulator value supplied in base.
func (s AssignmentSet) WeeklyHours(base map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base))
	for id, h := range base {
		out[id] = h
	}
	for _, a := range s {
		out[a.DriverID] += a.Tour.Duration().Hours()
	}
	return out
}
