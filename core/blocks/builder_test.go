package blocks

import (
	"testing"
	"time"

	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/rules"
)

var week = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func tourAt(id string, day, startMin, endMin int) model.TourInstance {
	d := week.AddDate(0, 0, day-1)
	return model.TourInstance{
		ID:    id,
		Day:   day,
		Start: d.Add(time.Duration(startMin) * time.Minute),
		End:   d.Add(time.Duration(endMin) * time.Minute),
	}
}

func defaults(t *testing.T) rules.Config {
	t.Helper()
	var cfg rules.Config
	cfg.SetDefaults()
	return cfg
}

func kinds(blocks []model.Block) []model.BlockKind {
	out := make([]model.BlockKind, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind
	}
	return out
}

func TestBuildTripleChain(t *testing.T) {
	// Gaps of 45 minutes sit inside the default 30..60 chaining window.
	tours := []model.TourInstance{
		tourAt("T1", 1, 6*60, 9*60),
		tourAt("T2", 1, 9*60+45, 12*60+45),
		tourAt("T3", 1, 13*60+30, 16*60+30),
	}
	blocks := Build(tours, defaults(t))
	if len(blocks) != 1 || blocks[0].Kind != model.BlockTripleChain {
		t.Fatalf("expected one triple chain, got %v", kinds(blocks))
	}
	if got := blocks[0].TourIDs(); got[0] != "T1" || got[1] != "T2" || got[2] != "T3" {
		t.Fatalf("chain order wrong: %v", got)
	}
}

func TestBuildPairedRegular(t *testing.T) {
	tours := []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 1, 10*60+30, 14*60),
	}
	blocks := Build(tours, defaults(t))
	if len(blocks) != 1 || blocks[0].Kind != model.BlockPairedRegular {
		t.Fatalf("expected one paired-regular block, got %v", kinds(blocks))
	}
}

func TestBuildPairedSplit(t *testing.T) {
	// A 5h gap misses the chaining window but fits the split break window.
	tours := []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 1, 15*60, 19*60),
	}
	blocks := Build(tours, defaults(t))
	if len(blocks) != 1 || blocks[0].Kind != model.BlockPairedSplit {
		t.Fatalf("expected one paired-split block, got %v", kinds(blocks))
	}
}

func TestBuildSingletonFallback(t *testing.T) {
	// A 7h gap exceeds even the split break window.
	tours := []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 1, 17*60, 21*60),
	}
	blocks := Build(tours, defaults(t))
	if len(blocks) != 2 || blocks[0].Kind != model.BlockSingle || blocks[1].Kind != model.BlockSingle {
		t.Fatalf("expected two singletons, got %v", kinds(blocks))
	}
}

func TestBuildRespectsSpanCaps(t *testing.T) {
	// Chaining T2 after T1 would fit the gap window, but a long second tour
	// would stretch the pair past the regular span; and the split variant
	// past the split span. Both must be refused.
	tours := []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 1, 10*60+30, 20*60+30),
	}
	cfg := defaults(t)
	cfg.SpanRegularMaxH = 12
	blocks := Build(tours, cfg)
	for _, b := range blocks {
		switch b.Kind {
		case model.BlockSingle, model.BlockPairedSplit:
			if b.Span() > cfg.SpanSplitMax() {
				t.Fatalf("block exceeds its span cap: %+v", b)
			}
		case model.BlockPairedRegular:
			if b.Span() > cfg.SpanRegularMax() {
				t.Fatalf("paired-regular exceeds regular span: %+v", b)
			}
		case model.BlockTripleChain:
			t.Fatalf("unexpected chain from two tours")
		}
	}
}

func TestBuildPartitionIsComplete(t *testing.T) {
	tours := []model.TourInstance{
		tourAt("T1", 1, 6*60, 9*60),
		tourAt("T2", 1, 9*60+45, 12*60+45),
		tourAt("T3", 2, 6*60, 10*60),
		tourAt("T4", 2, 15*60, 19*60),
		tourAt("T5", 3, 8*60, 12*60),
	}
	blocks := Build(tours, defaults(t))
	seen := make(map[string]int)
	for _, b := range blocks {
		for _, id := range b.TourIDs() {
			seen[id]++
		}
	}
	if len(seen) != len(tours) {
		t.Fatalf("partition lost tours: %v", seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("tour %s appears %d times", id, n)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	tours := []model.TourInstance{
		tourAt("T3", 1, 13*60+30, 16*60+30),
		tourAt("T1", 1, 6*60, 9*60),
		tourAt("T2", 1, 9*60+45, 12*60+45),
	}
	a := Build(tours, defaults(t))
	b := Build(append([]model.TourInstance(nil), tours...), defaults(t))
	if len(a) != len(b) {
		t.Fatalf("block counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			t.Fatalf("block %d kind differs", i)
		}
		ai, bi := a[i].TourIDs(), b[i].TourIDs()
		for j := range ai {
			if ai[j] != bi[j] {
				t.Fatalf("block %d tour order differs", i)
			}
		}
	}
}
