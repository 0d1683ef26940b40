// Package blocks partitions a day's tours into candidate blocks of one to
// three tours. The builder is a greedy heuristic: it prefers triple chains,
// then pairs, then singletons. It does not decide legality; the constraint
// library does that downstream on the assigned result.
package blocks

import (
	"sort"
	"time"

	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/rules"
)

// Build partitions the forecast tours into candidate blocks, day by day.
// Within a day tours are consumed earliest start first, so the partition is
// deterministic for a given forecast.
func Build(tours []model.TourInstance, cfg rules.Config) []model.Block {
	byDay := make(map[int][]model.TourInstance)
	for _, t := range tours {
		byDay[t.Day] = append(byDay[t.Day], t)
	}
	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	var out []model.Block
	for _, d := range days {
		out = append(out, buildDay(d, byDay[d], cfg)...)
	}
	return out
}

func buildDay(day int, tours []model.TourInstance, cfg rules.Config) []model.Block {
	sort.Slice(tours, func(i, j int) bool {
		if !tours[i].Start.Equal(tours[j].Start) {
			return tours[i].Start.Before(tours[j].Start)
		}
		return tours[i].ID < tours[j].ID
	})
	used := make([]bool, len(tours))
	var out []model.Block

	for i := range tours {
		if used[i] {
			continue
		}
		// Triple chain first: two more tours, each reachable within the
		// chaining gap window.
		if chain, ok := findChain(tours, used, i, 3, cfg.BlockGapMin(), cfg.BlockGapMax(), cfg.SpanSplitMax()); ok {
			out = append(out, model.Block{Kind: model.BlockTripleChain, Day: day, Tours: chain})
			continue
		}
		// Paired-regular: one follow-up inside the chaining window.
		if chain, ok := findChain(tours, used, i, 2, cfg.BlockGapMin(), cfg.BlockGapMax(), cfg.SpanRegularMax()); ok {
			out = append(out, model.Block{Kind: model.BlockPairedRegular, Day: day, Tours: chain})
			continue
		}
		// Paired-split: one follow-up after a break inside the split window.
		if chain, ok := findChain(tours, used, i, 2, cfg.SplitBreakMin(), cfg.SplitBreakMax(), cfg.SpanSplitMax()); ok {
			out = append(out, model.Block{Kind: model.BlockPairedSplit, Day: day, Tours: chain})
			continue
		}
		used[i] = true
		out = append(out, model.Block{Kind: model.BlockSingle, Day: day, Tours: []model.TourInstance{tours[i]}})
	}
	return out
}

// findChain greedily extends a chain from tours[start] up to size tours,
// always taking the earliest unused tour whose gap from the chain end falls
// inside [gapMin, gapMax] and whose addition keeps the chain span within
// spanMax. On success the consumed tours are marked used.
func findChain(tours []model.TourInstance, used []bool, start, size int, gapMin, gapMax, spanMax time.Duration) ([]model.TourInstance, bool) {
	chain := []model.TourInstance{tours[start]}
	picked := []int{start}
	for len(chain) < size {
		next := -1
		end := chain[len(chain)-1].End
		for j := start + 1; j < len(tours); j++ {
			if used[j] || contains(picked, j) {
				continue
			}
			gap := tours[j].Start.Sub(end)
			if gap >= gapMin && gap <= gapMax && tours[j].End.Sub(chain[0].Start) <= spanMax {
				next = j
				break
			}
		}
		if next < 0 {
			return nil, false
		}
		chain = append(chain, tours[next])
		picked = append(picked, next)
	}
	for _, j := range picked {
		used[j] = true
	}
	return chain, true
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
