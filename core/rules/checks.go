package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/fleetroster/rosterd/core/model"
)

// Input bundles everything the checks observe. Callers hand either a stable
// persisted snapshot or an immutable simulated overlay; the checks never see a
// partially written set.
type Input struct {
	Tours []model.TourInstance
	Set   model.AssignmentSet

	// OutputHash is the hash of this run; RefHash is the hash of a previous
	// run over the same input. Reproducibility is skipped when RefHash is
	// empty, since only the caller can compare across runs.
	OutputHash string
	RefHash    string
}

// Evaluate runs all seven checks and returns one result per check, in
// AllChecks order.
func Evaluate(in Input, cfg Config) []Result {
	return []Result{
		Coverage(in.Tours, in.Set),
		Overlap(in.Set),
		Rest(in.Set, cfg),
		SpanRegular(in.Set, cfg),
		SpanSplit(in.Set, cfg),
		Fatigue(in.Set),
		Reproducibility(in.OutputHash, in.RefHash),
	}
}

// Coverage verifies that every active tour has exactly one assignment:
// zero missing, zero duplicate.
func Coverage(tours []model.TourInstance, set model.AssignmentSet) Result {
	byTour := set.ByTour()
	var violations []Violation
	for _, t := range tours {
		switch n := len(byTour[t.ID]); {
		case n == 0:
			violations = append(violations, Violation{
				Check: CheckCoverage, TourID: t.ID, Day: t.Day,
				Detail: fmt.Sprintf("tour %s has no assignment", t.ID),
			})
		case n > 1:
			violations = append(violations, Violation{
				Check: CheckCoverage, TourID: t.ID, Day: t.Day,
				Detail: fmt.Sprintf("tour %s has %d assignments", t.ID, n),
			})
		}
	}
	active := make(map[string]struct{}, len(tours))
	for _, t := range tours {
		active[t.ID] = struct{}{}
	}
	for id := range byTour {
		if _, ok := active[id]; !ok {
			violations = append(violations, Violation{
				Check: CheckCoverage, TourID: id,
				Detail: fmt.Sprintf("assignment references inactive tour %s", id),
			})
		}
	}
	sortViolations(violations)
	return failOrPass(CheckCoverage, violations)
}

// Overlap verifies that no driver holds two assignments with intersecting
// time ranges.
func Overlap(set model.AssignmentSet) Result {
	var violations []Violation
	for _, id := range set.Drivers() {
		asn := append([]model.Assignment(nil), set.ByDriver()[id]...)
		sort.Slice(asn, func(i, j int) bool { return asn[i].Tour.Start.Before(asn[j].Tour.Start) })
		for i := 1; i < len(asn); i++ {
			if asn[i].Tour.Start.Before(asn[i-1].Tour.End) {
				violations = append(violations, Violation{
					Check: CheckOverlap, DriverID: id, TourID: asn[i].Tour.ID, Day: asn[i].Day,
					Detail: fmt.Sprintf("driver %s: tours %s and %s overlap", id, asn[i-1].Tour.ID, asn[i].Tour.ID),
				})
			}
		}
	}
	return failOrPass(CheckOverlap, violations)
}

// Rest verifies the gap between a driver's end of day and the first block of
// the next worked day is at least rest_min. A gap exactly at the minimum
// passes.
func Rest(set model.AssignmentSet, cfg Config) Result {
	var violations []Violation
	min := cfg.RestMin()
	for _, db := range driverBlocks(set) {
		for i := 1; i < len(db.blocks); i++ {
			prev, next := db.blocks[i-1], db.blocks[i]
			gap := next.Start().Sub(prev.End())
			if gap < min {
				violations = append(violations, Violation{
					Check: CheckRest, DriverID: db.driver, Day: next.Day,
					Detail: fmt.Sprintf("driver %s: rest %s before day %d below minimum %s",
						db.driver, gap, next.Day, min),
				})
			}
		}
	}
	return failOrPass(CheckRest, violations)
}

// SpanRegular verifies that single and paired-regular blocks stay within the
// regular span limit. A span exactly at the limit passes.
func SpanRegular(set model.AssignmentSet, cfg Config) Result {
	var violations []Violation
	max := cfg.SpanRegularMax()
	for _, db := range driverBlocks(set) {
		for _, b := range db.blocks {
			switch b.Kind {
			case model.BlockSingle, model.BlockPairedRegular:
				if b.Span() > max {
					violations = append(violations, spanViolation(CheckSpanRegular, db.driver, b, max))
				}
			case model.BlockPairedSplit, model.BlockTripleChain:
				// covered by SpanSplit
			default:
				violations = append(violations, Violation{
					Check: CheckSpanRegular, DriverID: db.driver, Day: b.Day,
					Detail: fmt.Sprintf("driver %s day %d: unknown block kind", db.driver, b.Day),
				})
			}
		}
	}
	return failOrPass(CheckSpanRegular, violations)
}

// SpanSplit verifies that paired-split and triple-chain blocks stay within the
// split span limit, and that a split block's break falls inside the
// configured window.
func SpanSplit(set model.AssignmentSet, cfg Config) Result {
	var violations []Violation
	max := cfg.SpanSplitMax()
	for _, db := range driverBlocks(set) {
		for _, b := range db.blocks {
			switch b.Kind {
			case model.BlockSingle, model.BlockPairedRegular:
				// covered by SpanRegular
			case model.BlockPairedSplit:
				if b.Span() > max {
					violations = append(violations, spanViolation(CheckSpanSplit, db.driver, b, max))
				}
				for _, gap := range b.Gaps() {
					if gap < cfg.SplitBreakMin() || gap > cfg.SplitBreakMax() {
						violations = append(violations, Violation{
							Check: CheckSpanSplit, DriverID: db.driver, Day: b.Day,
							Detail: fmt.Sprintf("driver %s day %d: split break %s outside [%s, %s]",
								db.driver, b.Day, gap, cfg.SplitBreakMin(), cfg.SplitBreakMax()),
						})
					}
				}
			case model.BlockTripleChain:
				if b.Span() > max {
					violations = append(violations, spanViolation(CheckSpanSplit, db.driver, b, max))
				}
			default:
				violations = append(violations, Violation{
					Check: CheckSpanSplit, DriverID: db.driver, Day: b.Day,
					Detail: fmt.Sprintf("driver %s day %d: unknown block kind", db.driver, b.Day),
				})
			}
		}
	}
	return failOrPass(CheckSpanSplit, violations)
}

// Fatigue verifies that no driver works triple-chain blocks on two
// consecutive days.
func Fatigue(set model.AssignmentSet) Result {
	var violations []Violation
	for _, db := range driverBlocks(set) {
		tripleDays := make(map[int]bool)
		for _, b := range db.blocks {
			if b.Kind == model.BlockTripleChain {
				tripleDays[b.Day] = true
			}
		}
		days := make([]int, 0, len(tripleDays))
		for d := range tripleDays {
			days = append(days, d)
		}
		sort.Ints(days)
		for i := 1; i < len(days); i++ {
			if days[i] == days[i-1]+1 {
				violations = append(violations, Violation{
					Check: CheckFatigue, DriverID: db.driver, Day: days[i],
					Detail: fmt.Sprintf("driver %s: triple-chain on consecutive days %d and %d",
						db.driver, days[i-1], days[i]),
				})
			}
		}
	}
	return failOrPass(CheckFatigue, violations)
}

// Reproducibility compares this run's output hash against a reference hash
// from a prior run. Without a reference the check is recorded as skipped; the
// comparison across runs belongs to the caller.
func Reproducibility(outputHash, refHash string) Result {
	if refHash == "" {
		return Result{Check: CheckReproducibility, Status: StatusSkipped}
	}
	if outputHash == refHash {
		return Result{Check: CheckReproducibility, Status: StatusPass}
	}
	return Result{Check: CheckReproducibility, Status: StatusFail, Violations: []Violation{{
		Check:  CheckReproducibility,
		Detail: fmt.Sprintf("output hash %s differs from reference %s", outputHash, refHash),
	}}}
}

func spanViolation(check CheckID, driver string, b model.Block, max time.Duration) Violation {
	return Violation{
		Check: check, DriverID: driver, Day: b.Day,
		Detail: fmt.Sprintf("driver %s day %d: %s span %s exceeds %s",
			driver, b.Day, b.Kind, b.Span(), max),
	}
}

type driverDayBlocks struct {
	driver string
	blocks []model.Block
}

// driverBlocks reconstructs per-driver blocks from the flat assignment set.
// All assignments of one driver-day belong to a single block by construction,
// so grouping by (driver, day) and sorting by start recovers it.
func driverBlocks(set model.AssignmentSet) []driverDayBlocks {
	type key struct {
		driver string
		day    int
	}
	grouped := make(map[key][]model.Assignment)
	for _, a := range set {
		k := key{a.DriverID, a.Day}
		grouped[k] = append(grouped[k], a)
	}
	perDriver := make(map[string][]model.Block)
	for k, asn := range grouped {
		sort.Slice(asn, func(i, j int) bool { return asn[i].Tour.Start.Before(asn[j].Tour.Start) })
		b := model.Block{Kind: asn[0].BlockKind, Day: k.day}
		for _, a := range asn {
			b.Tours = append(b.Tours, a.Tour)
		}
		perDriver[k.driver] = append(perDriver[k.driver], b)
	}
	out := make([]driverDayBlocks, 0, len(perDriver))
	for driver, blocks := range perDriver {
		sort.Slice(blocks, func(i, j int) bool { return blocks[i].Day < blocks[j].Day })
		out = append(out, driverDayBlocks{driver: driver, blocks: blocks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].driver < out[j].driver })
	return out
}

func sortViolations(v []Violation) {
	sort.Slice(v, func(i, j int) bool {
		if v[i].TourID != v[j].TourID {
			return v[i].TourID < v[j].TourID
		}
		return v[i].DriverID < v[j].DriverID
	})
}
