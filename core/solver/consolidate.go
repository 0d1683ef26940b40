package solver

import (
	"math/rand"
	"sort"
	"time"

	"github.com/fleetroster/rosterd/core/model"
)

// ownedBlock is one driver-day block reconstructed from the working set.
type ownedBlock struct {
	driver string
	day    int
	kind   model.BlockKind
	hours  float64
	start  int // earliest start unix, for deterministic ordering
}

// ownedBlocks groups the set into driver-day blocks, ordered by driver then
// day.
func ownedBlocks(set model.AssignmentSet) []ownedBlock {
	type key struct {
		driver string
		day    int
	}
	agg := make(map[key]*ownedBlock)
	for _, a := range set {
		k := key{a.DriverID, a.Day}
		ob, ok := agg[k]
		if !ok {
			ob = &ownedBlock{driver: a.DriverID, day: a.Day, kind: a.BlockKind, start: int(a.Tour.Start.Unix())}
			agg[k] = ob
		}
		ob.hours += a.Tour.Duration().Hours()
		if s := int(a.Tour.Start.Unix()); s < ob.start {
			ob.start = s
		}
	}
	out := make([]ownedBlock, 0, len(agg))
	for _, ob := range agg {
		out = append(out, *ob)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].driver != out[j].driver {
			return out[i].driver < out[j].driver
		}
		return out[i].day < out[j].day
	})
	return out
}

// reassignBlock returns a copy of set with the (driver, day) block handed to
// target. Kind is preserved; the block moves whole.
func reassignBlock(set model.AssignmentSet, driver string, day int, target string) model.AssignmentSet {
	out := set.Clone()
	for i, a := range out {
		if a.DriverID == driver && a.Day == day {
			out[i].DriverID = target
		}
	}
	return out
}

// canHost reports whether target can legally work every tour in the
// (driver, day) block. Skill and availability are stage-1 arc constraints the
// constraint library never re-checks, so moves must screen them here.
func canHost(target model.Driver, set model.AssignmentSet, driver string, day int) bool {
	var start, end time.Time
	for _, a := range set {
		if a.DriverID != driver || a.Day != day {
			continue
		}
		if !target.HasSkill(a.Tour.Skill) {
			return false
		}
		if start.IsZero() || a.Tour.Start.Before(start) {
			start = a.Tour.Start
		}
		if a.Tour.End.After(end) {
			end = a.Tour.End
		}
	}
	return start.IsZero() || target.Available(start, end)
}

// driversByID indexes the pool for target lookups during moves.
func driversByID(drivers []model.Driver) map[string]model.Driver {
	byID := make(map[string]model.Driver, len(drivers))
	for _, d := range drivers {
		byID[d.ID] = d
	}
	return byID
}

// shuffledTargets returns candidate target ids in a seed-determined order.
// The base order is sorted, so a given seed always explores the same
// sequence.
func shuffledTargets(ids []string, exclude string, rng *rand.Rand) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// consolidate is stage 2: merge singleton blocks owned by otherwise-idle
// drivers into already-used drivers. A move is accepted only when the target
// can work the block, the weekly cap holds and the full constraint library
// passes on the candidate set; the driver count never increases because
// targets are already in use.
func (s *Solver) consolidate(st *solveState, tours []model.TourInstance, rng *rand.Rand) model.AssignmentSet {
	set := st.set
	base := baseHours(st.drivers)
	byID := driversByID(st.drivers)

	for round := 0; round < s.cfg.MaxImprovementRounds; round++ {
		obs := ownedBlocks(set)
		perDriver := make(map[string]int)
		for _, ob := range obs {
			perDriver[ob.driver]++
		}
		hours := set.WeeklyHours(base)
		busy := busyDays(obs)

		moved := false
		for _, ob := range obs {
			if ob.kind != model.BlockSingle || perDriver[ob.driver] != 1 {
				continue
			}
			for _, target := range shuffledTargets(set.Drivers(), ob.driver, rng) {
				if perDriver[target] == 0 {
					continue
				}
				if busy[target][ob.day] {
					continue
				}
				if hours[target]+ob.hours > s.rules.WeeklyHoursCap {
					continue
				}
				if !canHost(byID[target], set, ob.driver, ob.day) {
					continue
				}
				cand := reassignBlock(set, ob.driver, ob.day, target)
				if !s.validMove(cand, tours) {
					continue
				}
				set = cand
				moved = true
				break
			}
			if moved {
				break
			}
		}
		if !moved {
			break
		}
	}
	return set
}

func baseHours(drivers []model.Driver) map[string]float64 {
	base := make(map[string]float64, len(drivers))
	for _, d := range drivers {
		base[d.ID] = d.WeeklyHours
	}
	return base
}

func busyDays(obs []ownedBlock) map[string]map[int]bool {
	busy := make(map[string]map[int]bool)
	for _, ob := range obs {
		if busy[ob.driver] == nil {
			busy[ob.driver] = make(map[int]bool)
		}
		busy[ob.driver][ob.day] = true
	}
	return busy
}
