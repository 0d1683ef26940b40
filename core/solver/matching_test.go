package solver

import "testing"

func TestMinCostAssignOptimal(t *testing.T) {
	cost := [][]int64{
		{4, 1},
		{1, 4},
	}
	match, ok := minCostAssign(cost)
	if !ok {
		t.Fatal("expected a matching")
	}
	if match[0] != 1 || match[1] != 0 {
		t.Fatalf("expected cross assignment, got %v", match)
	}
}

func TestMinCostAssignRectangular(t *testing.T) {
	// Two blocks, three drivers: the cheapest two columns win.
	cost := [][]int64{
		{10, 2, 30},
		{10, 20, 3},
	}
	match, ok := minCostAssign(cost)
	if !ok {
		t.Fatal("expected a matching")
	}
	if match[0] != 1 || match[1] != 2 {
		t.Fatalf("unexpected assignment %v", match)
	}
}

func TestMinCostAssignTieBreaksLowestColumn(t *testing.T) {
	cost := [][]int64{{7, 7, 7}}
	match, ok := minCostAssign(cost)
	if !ok || match[0] != 0 {
		t.Fatalf("expected lowest column on tie, got %v ok=%t", match, ok)
	}
}

func TestMinCostAssignInfeasible(t *testing.T) {
	if _, ok := minCostAssign([][]int64{{costInf}}); ok {
		t.Fatal("all-infinite row must not match")
	}
	// One driver cannot take two blocks.
	if _, ok := minCostAssign([][]int64{{1}, {1}}); ok {
		t.Fatal("more rows than columns must not match")
	}
	// A feasible total matching must not route through an infinite arc.
	cost := [][]int64{
		{1, costInf},
		{1, costInf},
	}
	if _, ok := minCostAssign(cost); ok {
		t.Fatal("expected failure when a block only reaches infinite arcs")
	}
}

func TestMinCostAssignEmpty(t *testing.T) {
	match, ok := minCostAssign(nil)
	if !ok || match != nil {
		t.Fatalf("empty input should trivially match, got %v ok=%t", match, ok)
	}
}
