package repair

import (
	"sort"

	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/rules"
)

// Candidate is one feasible replacement driver for an impacted block, with a
// ranking score. Lower scores rank first.
type Candidate struct {
	DriverID string
	Score    float64
}

// impactedBlock is a driver-day block that lost its driver.
type impactedBlock struct {
	driver string
	day    int
	kind   model.BlockKind
	tours  []model.TourInstance
}

func (ib impactedBlock) workHours() float64 {
	var h float64
	for _, t := range ib.tours {
		h += t.Duration().Hours()
	}
	return h
}

// Finder enumerates replacement candidates against a working assignment set.
type Finder struct {
	cfg rules.Config
}

// NewFinder creates a candidate finder for the given rule thresholds.
func NewFinder(cfg rules.Config) *Finder {
	return &Finder{cfg: cfg}
}

// Candidates returns feasible replacement drivers for the block, best first.
// Feasibility is a pre-filter (availability, skill, free driver-day, rest,
// daily tour cap); final legality always comes from the audit engine on the
// full simulated set. The weekly cap is soft: exceeding it costs score, it
// does not exclude.
func (f *Finder) Candidates(ib impactedBlock, set model.AssignmentSet, drivers []model.Driver, unavailable map[string]bool) []Candidate {
	hours := set.WeeklyHours(baseHours(drivers))
	byDriver := set.ByDriver()

	var out []Candidate
	for _, d := range sortedDrivers(drivers) {
		if d.ID == ib.driver || unavailable[d.ID] {
			continue
		}
		if !d.Available(ib.tours[0].Start, ib.tours[len(ib.tours)-1].End) {
			continue
		}
		if !hasSkills(d, ib.tours) {
			continue
		}
		if !f.dayFeasible(d.ID, ib, byDriver[d.ID]) {
			continue
		}
		out = append(out, Candidate{DriverID: d.ID, Score: f.score(d, ib, byDriver[d.ID], hours[d.ID])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out
}

// dayFeasible checks the one-block-per-driver-day rule, the daily tour cap
// and the rest gaps around the moved block.
func (f *Finder) dayFeasible(id string, ib impactedBlock, existing []model.Assignment) bool {
	dayTours := 0
	for _, a := range existing {
		if a.Day == ib.day {
			dayTours++
		}
	}
	if dayTours > 0 {
		// Receiving the block would create a second block on this day.
		return false
	}
	if len(ib.tours) > 3 {
		return false
	}
	blockStart := ib.tours[0].Start
	blockEnd := ib.tours[len(ib.tours)-1].End
	for _, a := range existing {
		// No overlap with any held assignment and rest distance to the
		// neighboring days.
		if a.Tour.Start.Before(blockEnd) && blockStart.Before(a.Tour.End) {
			return false
		}
		if a.Day == ib.day-1 && blockStart.Sub(a.Tour.End) < f.cfg.RestMin() {
			return false
		}
		if a.Day == ib.day+1 && a.Tour.Start.Sub(blockEnd) < f.cfg.RestMin() {
			return false
		}
	}
	return true
}

// score ranks a feasible driver: fewest downstream changes first (drivers
// with lighter schedules), then depot match, then the soft weekly cap.
func (f *Finder) score(d model.Driver, ib impactedBlock, existing []model.Assignment, weekly float64) float64 {
	s := float64(len(existing)) // lighter schedules disturb less downstream
	depotMatched := 0
	for _, t := range ib.tours {
		if t.Depot != "" && t.Depot == d.Depot {
			depotMatched++
		}
	}
	s -= 0.5 * float64(depotMatched)
	if over := weekly + ib.workHours() - f.cfg.WeeklyHoursCap; over > 0 {
		s += 10 * over // soft cap: strongly discouraged, not excluded
	}
	return s
}

func hasSkills(d model.Driver, tours []model.TourInstance) bool {
	for _, t := range tours {
		if !d.HasSkill(t.Skill) {
			return false
		}
	}
	return true
}

func sortedDrivers(drivers []model.Driver) []model.Driver {
	out := append([]model.Driver(nil), drivers...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func baseHours(drivers []model.Driver) map[string]float64 {
	base := make(map[string]float64, len(drivers))
	for _, d := range drivers {
		base[d.ID] = d.WeeklyHours
	}
	return base
}
