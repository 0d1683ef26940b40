package rules

import (
	"testing"
	"time"

	"github.com/fleetroster/rosterd/core/model"
)

var week = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday

func tourAt(id string, day, startMin, endMin int) model.TourInstance {
	d := week.AddDate(0, 0, day-1)
	return model.TourInstance{
		ID:    id,
		Day:   day,
		Start: d.Add(time.Duration(startMin) * time.Minute),
		End:   d.Add(time.Duration(endMin) * time.Minute),
	}
}

func asn(driver string, t model.TourInstance, kind model.BlockKind) model.Assignment {
	return model.Assignment{DriverID: driver, Tour: t, Day: t.Day, BlockKind: kind}
}

func defaults(t *testing.T) Config {
	t.Helper()
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

func TestCoverage(t *testing.T) {
	t1 := tourAt("T1", 1, 6*60, 10*60)
	t2 := tourAt("T2", 1, 11*60, 15*60)
	tours := []model.TourInstance{t1, t2}

	ok := Coverage(tours, model.AssignmentSet{
		asn("D1", t1, model.BlockSingle),
		asn("D2", t2, model.BlockSingle),
	})
	if ok.Status != StatusPass {
		t.Fatalf("expected pass, got %+v", ok)
	}

	missing := Coverage(tours, model.AssignmentSet{asn("D1", t1, model.BlockSingle)})
	if missing.Status != StatusFail || len(missing.Violations) != 1 || missing.Violations[0].TourID != "T2" {
		t.Fatalf("expected one missing-tour violation, got %+v", missing)
	}

	dup := Coverage(tours, model.AssignmentSet{
		asn("D1", t1, model.BlockSingle),
		asn("D2", t1, model.BlockSingle),
		asn("D2", t2, model.BlockSingle),
	})
	if dup.Status != StatusFail || dup.Violations[0].TourID != "T1" {
		t.Fatalf("expected duplicate violation on T1, got %+v", dup)
	}

	stale := Coverage([]model.TourInstance{t1}, model.AssignmentSet{
		asn("D1", t1, model.BlockSingle),
		asn("D1", t2, model.BlockSingle),
	})
	if stale.Status != StatusFail {
		t.Fatalf("expected inactive-tour violation, got %+v", stale)
	}
}

func TestOverlap(t *testing.T) {
	t1 := tourAt("T1", 1, 6*60, 10*60)
	t2 := tourAt("T2", 1, 9*60, 13*60)

	res := Overlap(model.AssignmentSet{
		asn("D1", t1, model.BlockPairedRegular),
		asn("D1", t2, model.BlockPairedRegular),
	})
	if res.Status != StatusFail {
		t.Fatalf("expected overlap failure, got %+v", res)
	}

	// Back-to-back is not an overlap.
	t3 := tourAt("T3", 1, 10*60, 13*60)
	res = Overlap(model.AssignmentSet{
		asn("D1", t1, model.BlockPairedRegular),
		asn("D1", t3, model.BlockPairedRegular),
	})
	if res.Status != StatusPass {
		t.Fatalf("expected pass for touching tours, got %+v", res)
	}
}

func TestRestBoundary(t *testing.T) {
	cfg := defaults(t)
	end := 20 * 60 // day 1 ends 20:00

	// Day 2 start at 07:00 is exactly 11h rest.
	atMin := Rest(model.AssignmentSet{
		asn("D1", tourAt("T1", 1, 16*60, end), model.BlockSingle),
		asn("D1", tourAt("T2", 2, 7*60, 11*60), model.BlockSingle),
	}, cfg)
	if atMin.Status != StatusPass {
		t.Fatalf("rest exactly at minimum must pass, got %+v", atMin)
	}

	below := Rest(model.AssignmentSet{
		asn("D1", tourAt("T1", 1, 16*60, end), model.BlockSingle),
		asn("D1", tourAt("T2", 2, 7*60-1, 11*60), model.BlockSingle),
	}, cfg)
	if below.Status != StatusFail {
		t.Fatalf("rest a minute below minimum must fail, got %+v", below)
	}
}

func TestSpanRegularBoundary(t *testing.T) {
	cfg := defaults(t)

	// 06:00 to 20:00 is exactly the 14h regular span.
	at := SpanRegular(model.AssignmentSet{
		asn("D1", tourAt("T1", 1, 6*60, 10*60), model.BlockPairedRegular),
		asn("D1", tourAt("T2", 1, 16*60, 20*60), model.BlockPairedRegular),
	}, cfg)
	if at.Status != StatusPass {
		t.Fatalf("span at limit must pass, got %+v", at)
	}

	over := SpanRegular(model.AssignmentSet{
		asn("D1", tourAt("T1", 1, 6*60, 10*60), model.BlockPairedRegular),
		asn("D1", tourAt("T2", 1, 16*60, 20*60+1), model.BlockPairedRegular),
	}, cfg)
	if over.Status != StatusFail {
		t.Fatalf("span over limit must fail, got %+v", over)
	}
}

func TestSpanSplitBreakWindow(t *testing.T) {
	cfg := defaults(t)

	mk := func(breakMin int) model.AssignmentSet {
		return model.AssignmentSet{
			asn("D1", tourAt("T1", 1, 6*60, 10*60), model.BlockPairedSplit),
			asn("D1", tourAt("T2", 1, 10*60+breakMin, 10*60+breakMin+240), model.BlockPairedSplit),
		}
	}
	if res := SpanSplit(mk(240), cfg); res.Status != StatusPass {
		t.Fatalf("break at lower bound must pass, got %+v", res)
	}
	if res := SpanSplit(mk(239), cfg); res.Status != StatusFail {
		t.Fatalf("break below window must fail, got %+v", res)
	}
	if res := SpanSplit(mk(360), cfg); res.Status != StatusPass {
		t.Fatalf("break at upper bound must pass, got %+v", res)
	}
	if res := SpanSplit(mk(361), cfg); res.Status != StatusFail {
		t.Fatalf("break above window must fail, got %+v", res)
	}
}

func TestSpanSplitChainLimit(t *testing.T) {
	cfg := defaults(t)

	// Triple chain from 05:00 spanning exactly 16h.
	at := SpanSplit(model.AssignmentSet{
		asn("D1", tourAt("T1", 1, 5*60, 9*60), model.BlockTripleChain),
		asn("D1", tourAt("T2", 1, 10*60, 14*60), model.BlockTripleChain),
		asn("D1", tourAt("T3", 1, 15*60, 21*60), model.BlockTripleChain),
	}, cfg)
	if at.Status != StatusPass {
		t.Fatalf("chain span at limit must pass, got %+v", at)
	}

	over := SpanSplit(model.AssignmentSet{
		asn("D1", tourAt("T1", 1, 5*60, 9*60), model.BlockTripleChain),
		asn("D1", tourAt("T2", 1, 10*60, 14*60), model.BlockTripleChain),
		asn("D1", tourAt("T3", 1, 15*60, 21*60+1), model.BlockTripleChain),
	}, cfg)
	if over.Status != StatusFail {
		t.Fatalf("chain span over limit must fail, got %+v", over)
	}
}

func TestFatigueConsecutiveChains(t *testing.T) {
	chainDay := func(day int, suffix string) []model.Assignment {
		return []model.Assignment{
			asn("D1", tourAt("A"+suffix, day, 6*60, 9*60), model.BlockTripleChain),
			asn("D1", tourAt("B"+suffix, day, 10*60, 13*60), model.BlockTripleChain),
			asn("D1", tourAt("C"+suffix, day, 14*60, 17*60), model.BlockTripleChain),
		}
	}

	consecutive := append(chainDay(1, "1"), chainDay(2, "2")...)
	if res := Fatigue(consecutive); res.Status != StatusFail {
		t.Fatalf("chains on days 1 and 2 must fail, got %+v", res)
	}

	spaced := append(chainDay(1, "1"), chainDay(3, "3")...)
	if res := Fatigue(spaced); res.Status != StatusPass {
		t.Fatalf("chains on days 1 and 3 must pass, got %+v", res)
	}
}

func TestReproducibility(t *testing.T) {
	if res := Reproducibility("abc", ""); res.Status != StatusSkipped {
		t.Fatalf("missing reference must be skipped, got %+v", res)
	}
	if res := Reproducibility("abc", "abc"); res.Status != StatusPass {
		t.Fatalf("matching hashes must pass, got %+v", res)
	}
	if res := Reproducibility("abc", "def"); res.Status != StatusFail {
		t.Fatalf("diverging hashes must fail, got %+v", res)
	}
}

func TestEvaluateOrder(t *testing.T) {
	t1 := tourAt("T1", 1, 6*60, 10*60)
	results := Evaluate(Input{
		Tours: []model.TourInstance{t1},
		Set:   model.AssignmentSet{asn("D1", t1, model.BlockSingle)},
	}, defaults(t))
	if len(results) != len(AllChecks) {
		t.Fatalf("expected %d results, got %d", len(AllChecks), len(results))
	}
	for i, r := range results {
		if r.Check != AllChecks[i] {
			t.Fatalf("result %d out of order: %s", i, r.Check)
		}
	}
}
