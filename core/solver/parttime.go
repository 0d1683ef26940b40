package solver

import (
	"math/rand"

	"github.com/fleetroster/rosterd/core/model"
)

// eliminatePartTime is stage 3: redistribute blocks from part-time drivers
// (weekly hours under the threshold) onto full-time drivers to maximize the
// full-time ratio. Every candidate move is re-validated against the
// constraint library; an invalid move is discarded, never forced.
func (s *Solver) eliminatePartTime(st *solveState, tours []model.TourInstance, rng *rand.Rand) model.AssignmentSet {
	set := st.set
	base := baseHours(st.drivers)
	byID := driversByID(st.drivers)

	for round := 0; round < s.cfg.MaxImprovementRounds; round++ {
		obs := ownedBlocks(set)
		hours := set.WeeklyHours(base)
		busy := busyDays(obs)

		var fullTime []string
		for _, id := range set.Drivers() {
			if hours[id] >= s.rules.PartTimeThreshold {
				fullTime = append(fullTime, id)
			}
		}
		if len(fullTime) == 0 {
			break
		}

		moved := false
		for _, ob := range obs {
			if hours[ob.driver] >= s.rules.PartTimeThreshold {
				continue
			}
			for _, target := range shuffledTargets(fullTime, ob.driver, rng) {
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
