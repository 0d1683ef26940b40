package solver

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/rules"
)

// Result is the output of one solve: the assignment set plus the metadata
// proving where it came from.
type Result struct {
	Set         model.AssignmentSet `json:"assignments"`
	Seed        int64               `json:"seed"`
	WorkerCount int                 `json:"worker_count"`
	// BestEffort is true when more than one worker ran; such a result must
	// not back an audited reproducibility claim.
	BestEffort bool       `json:"best_effort"`
	OutputHash string     `json:"output_hash"`
	KPIs       KPISummary `json:"kpis"`
}

// KPISummary carries the roster quality indicators consumed by dispatchers.
// The core produces the numbers; formatting belongs to the UI layer.
type KPISummary struct {
	DriversUsed     int            `json:"drivers_used"`
	FullTime        int            `json:"full_time"`
	PartTime        int            `json:"part_time"`
	BlockHistogram  map[string]int `json:"block_histogram"`
	AvgWeeklyHours  float64        `json:"avg_weekly_hours"`
	MaxWeeklyHours  float64        `json:"max_weekly_hours"`
	CoveragePercent float64        `json:"coverage_percent"`
}

// summarize computes the KPI block for a finished assignment set.
func summarize(set model.AssignmentSet, tours []model.TourInstance, drivers []model.Driver, cfg rules.Config) KPISummary {
	base := make(map[string]float64, len(drivers))
	for _, d := range drivers {
		base[d.ID] = d.WeeklyHours
	}
	hours := set.WeeklyHours(base)

	kpi := KPISummary{BlockHistogram: make(map[string]int)}
	type blockKey struct {
		driver string
		day    int
	}
	seenBlocks := make(map[blockKey]model.BlockKind)
	for _, a := range set {
		seenBlocks[blockKey{a.DriverID, a.Day}] = a.BlockKind
	}
	for _, kind := range seenBlocks {
		kpi.BlockHistogram[kind.String()]++
	}

	used := set.Drivers()
	kpi.DriversUsed = len(used)
	var weekly []float64
	for _, id := range used {
		h := hours[id]
		weekly = append(weekly, h)
		if h < cfg.PartTimeThreshold {
			kpi.PartTime++
		} else {
			kpi.FullTime++
		}
	}
	if len(weekly) > 0 {
		kpi.AvgWeeklyHours = stat.Mean(weekly, nil)
		sort.Float64s(weekly)
		kpi.MaxWeeklyHours = weekly[len(weekly)-1]
	}
	if len(tours) > 0 {
		covered := 0
		byTour := set.ByTour()
		for _, t := range tours {
			if len(byTour[t.ID]) == 1 {
				covered++
			}
		}
		kpi.CoveragePercent = 100 * float64(covered) / float64(len(tours))
	}
	return kpi
}
