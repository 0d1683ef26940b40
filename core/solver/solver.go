// Package solver turns a weekly tour forecast and a driver pool into a
// near-minimal headcount assignment set. It runs four stages: block
// partitioning, per-day minimum-cost matching, singleton consolidation and
// part-time elimination. Every improvement move is re-validated against the
// constraint library before acceptance, so the solver output is always a set
// the audit engine will accept, or a typed infeasibility.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/fleetroster/rosterd/core/blocks"
	"github.com/fleetroster/rosterd/core/logger"
	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/rules"
)

// Lexicographic cost weights, highest priority first. The scales are
// separated far enough that a lower-priority term can never outweigh a
// higher-priority one for realistic fleet sizes.
const (
	wActivation = int64(1_000_000_000) // distinct drivers used
	wPartTime   = int64(1_000_000)     // sub-threshold weekly-hours drivers
	wSplit      = int64(1_000)         // split blocks
	wSingleton  = int64(1)             // singleton blocks
)

// Solver computes assignment sets. It is stateless across solves and safe for
// concurrent use on different inputs.
type Solver struct {
	rules rules.Config
	cfg   Config
	log   logger.Logger
}

// New creates a Solver. The rule thresholds are snapshotted by the caller per
// plan version; the solver never reads ambient configuration.
func New(rulesCfg rules.Config, cfg Config, log logger.Logger) (*Solver, error) {
	if log == nil {
		return nil, fmt.Errorf("solver: nil logger provided to New")
	}
	cfg.SetDefaults()
	if err := rulesCfg.Validate(); err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	return &Solver{rules: rulesCfg, cfg: cfg, log: log}, nil
}

// solveState tracks per-driver commitments while days are matched in order.
type solveState struct {
	drivers []model.Driver
	rank    map[string]int // driver id -> column index
	hours   map[string]float64
	used    map[string]bool
	lastEnd map[string]time.Time       // latest block end per driver
	kinds   map[string]map[int]model.BlockKind // driver -> day -> block kind
	set     model.AssignmentSet
}

// Solve computes the assignment set for the forecast. It is bounded by the
// configured time budget; exceeding it returns a TimeoutError and discards
// partial work.
func (s *Solver) Solve(ctx context.Context, forecast model.Forecast, drivers []model.Driver, seed int64) (*Result, error) {
	if len(drivers) == 0 {
		return nil, &InfeasibleError{Blocking: "drivers", Detail: "no drivers supplied"}
	}
	defer func(start time.Time) { solveDuration.Observe(time.Since(start).Seconds()) }(time.Now())
	budget := time.Duration(s.cfg.TimeBudgetSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	st := &solveState{
		drivers: append([]model.Driver(nil), drivers...),
		rank:    make(map[string]int, len(drivers)),
		hours:   make(map[string]float64, len(drivers)),
		used:    make(map[string]bool),
		lastEnd: make(map[string]time.Time),
		kinds:   make(map[string]map[int]model.BlockKind),
	}
	sort.Slice(st.drivers, func(i, j int) bool { return st.drivers[i].ID < st.drivers[j].ID })
	for i, d := range st.drivers {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("solver: %w", err)
		}
		st.rank[d.ID] = i
		st.hours[d.ID] = d.WeeklyHours
	}

	// Stage 0: partition the forecast into candidate blocks.
	candidate := blocks.Build(forecast.Tours, s.rules)
	byDay := make(map[int][]model.Block)
	for _, b := range candidate {
		byDay[b.Day] = append(byDay[b.Day], b)
	}
	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	// Stage 1: per-day minimum-cost matching.
	for _, day := range days {
		if err := s.checkBudget(ctx, "matching"); err != nil {
			return nil, err
		}
		if err := s.matchDay(ctx, st, day, byDay[day]); err != nil {
			return nil, err
		}
	}
	s.log.Debugf("stage 1 complete: %d drivers used for %d tours", len(st.set.Drivers()), len(forecast.Tours))

	// Stages 2 and 3 rearrange blocks; both validate candidate sets against
	// the constraint library before acceptance.
	rng := rand.New(rand.NewSource(seed))
	if err := s.checkBudget(ctx, "consolidation"); err != nil {
		return nil, err
	}
	st.set = s.consolidate(st, forecast.Tours, rng)
	if err := s.checkBudget(ctx, "part-time-elimination"); err != nil {
		return nil, err
	}
	st.set = s.eliminatePartTime(st, forecast.Tours, rng)

	res := &Result{
		Set:         st.set,
		Seed:        seed,
		WorkerCount: s.cfg.WorkerCount,
		BestEffort:  s.cfg.WorkerCount > 1,
		OutputHash:  st.set.OutputHash(),
		KPIs:        summarize(st.set, forecast.Tours, st.drivers, s.rules),
	}
	observeSolve(res)
	return res, nil
}

func (s *Solver) checkBudget(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			budget := time.Duration(s.cfg.TimeBudgetSeconds) * time.Second
			return &TimeoutError{Budget: budget, Stage: stage}
		}
		return err
	}
	return nil
}

// matchDay assigns every block of one day to a driver via minimum-cost
// matching and folds the result into the state.
func (s *Solver) matchDay(ctx context.Context, st *solveState, day int, dayBlocks []model.Block) error {
	sort.Slice(dayBlocks, func(i, j int) bool {
		if !dayBlocks[i].Start().Equal(dayBlocks[j].Start()) {
			return dayBlocks[i].Start().Before(dayBlocks[j].Start())
		}
		return dayBlocks[i].Tours[0].ID < dayBlocks[j].Tours[0].ID
	})

	cost, reasons := s.buildCostMatrix(ctx, st, dayBlocks)
	// A budget that expires mid-matrix leaves infinite rows behind; surface
	// that as a timeout, not as an infeasible input.
	if err := s.checkBudget(ctx, "matching"); err != nil {
		return err
	}
	for i, b := range dayBlocks {
		if allInfinite(cost[i]) {
			return &InfeasibleError{
				Blocking: dominantReason(reasons[i]),
				Day:      day,
				Detail:   fmt.Sprintf("no driver can take block starting %s", b.Start().Format(time.RFC3339)),
			}
		}
	}

	match, ok := minCostAssign(cost)
	if !ok {
		return &InfeasibleError{
			Blocking: "drivers",
			Day:      day,
			Detail:   fmt.Sprintf("%d blocks exceed the feasible driver pool", len(dayBlocks)),
		}
	}
	for i, col := range match {
		b := dayBlocks[i]
		d := st.drivers[col]
		for _, t := range b.Tours {
			st.set = append(st.set, model.Assignment{
				DriverID: d.ID, Tour: t, Day: day, BlockKind: b.Kind,
			})
		}
		st.hours[d.ID] += b.WorkHours()
		st.used[d.ID] = true
		if b.End().After(st.lastEnd[d.ID]) {
			st.lastEnd[d.ID] = b.End()
		}
		if st.kinds[d.ID] == nil {
			st.kinds[d.ID] = make(map[int]model.BlockKind)
		}
		st.kinds[d.ID][day] = b.Kind
	}
	return nil
}

// buildCostMatrix computes the blocks-by-drivers arc costs for one day.
// Rows are independent, so they are distributed over the configured worker
// count; the content of each row does not depend on scheduling order.
func (s *Solver) buildCostMatrix(ctx context.Context, st *solveState, dayBlocks []model.Block) ([][]int64, []map[string]int) {
	cost := make([][]int64, len(dayBlocks))
	reasons := make([]map[string]int, len(dayBlocks))

	workers := s.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	rowCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rowCh {
				cost[i], reasons[i] = s.costRow(st, dayBlocks[i])
			}
		}()
	}
	for i := range dayBlocks {
		select {
		case rowCh <- i:
		case <-ctx.Done():
			// Rows left unscheduled become infinite; matchDay re-checks the
			// budget right after and surfaces the timeout.
			cost[i] = infiniteRow(len(st.drivers))
			reasons[i] = map[string]int{"timeout": 1}
		}
	}
	close(rowCh)
	wg.Wait()
	return cost, reasons
}

// costRow scores one block against every driver. Infeasible arcs get costInf
// and a reason tally for infeasibility reporting.
func (s *Solver) costRow(st *solveState, b model.Block) ([]int64, map[string]int) {
	row := make([]int64, len(st.drivers))
	reasons := make(map[string]int)
	scale := int64(len(st.drivers) + 1)
	for col, d := range st.drivers {
		if why := s.arcBlocked(st, d, b); why != "" {
			row[col] = costInf
			reasons[why]++
			continue
		}
		var c int64
		if !st.used[d.ID] {
			c += wActivation
		}
		if st.hours[d.ID] < s.rules.PartTimeThreshold {
			c += wPartTime
		}
		if b.Kind == model.BlockPairedSplit {
			c += wSplit
		}
		if b.Kind == model.BlockSingle {
			c += wSingleton
		}
		// Scale leaves room for the driver rank as the deterministic
		// tie-break: lowest driver id wins among equal-cost arcs.
		row[col] = c*scale + int64(st.rank[d.ID])
	}
	return row, reasons
}

// arcBlocked returns the constraint name preventing driver d from taking
// block b, or "" when the arc is feasible.
func (s *Solver) arcBlocked(st *solveState, d model.Driver, b model.Block) string {
	if !d.Available(b.Start(), b.End()) {
		return "availability"
	}
	for _, t := range b.Tours {
		if !d.HasSkill(t.Skill) {
			return "skill"
		}
	}
	if _, busy := st.kinds[d.ID][b.Day]; busy {
		return "one-block-per-day"
	}
	if st.hours[d.ID]+b.WorkHours() > s.rules.WeeklyHoursCap {
		return "weekly-hours-cap"
	}
	if last, workedBefore := st.lastEnd[d.ID]; workedBefore {
		if gap := b.Start().Sub(last); gap < s.rules.RestMin() {
			return "rest"
		}
	}
	if b.Kind == model.BlockTripleChain {
		if prev, had := st.kinds[d.ID][b.Day-1]; had && prev == model.BlockTripleChain {
			return "fatigue"
		}
	}
	return ""
}

// validMove re-checks a candidate set against the constraint library plus the
// weekly-hours cap. The reproducibility check is skipped; it only applies
// across runs.
func (s *Solver) validMove(set model.AssignmentSet, tours []model.TourInstance) bool {
	in := rules.Input{Tours: tours, Set: set}
	for _, r := range rules.Evaluate(in, s.rules) {
		if r.Status == rules.StatusFail {
			return false
		}
	}
	return true
}

func allInfinite(row []int64) bool {
	for _, c := range row {
		if c < costInf {
			return false
		}
	}
	return true
}

func infiniteRow(n int) []int64 {
	row := make([]int64, n)
	for i := range row {
		row[i] = costInf
	}
	return row
}

// dominantReason picks the most frequent exclusion cause for a block, so the
// infeasibility error names the constraint that actually blocked completion.
func dominantReason(tally map[string]int) string {
	best, bestN := "drivers", -1
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if tally[k] > bestN {
			best, bestN = k, tally[k]
		}
	}
	return best
}
