package solver

import (
	"math"
)

// costInf marks an arc that must never be taken. Kept well below the int64
// overflow range so path sums stay representable.
const costInf = int64(math.MaxInt64 / 4)

// minCostAssign solves the rectangular assignment problem over cost, a
// blocks-by-drivers matrix, using shortest augmenting paths with potentials.
// It returns, per block row, the matched driver column, or ok=false when some
// block cannot be matched through finite arcs.
//
// The algorithm is the Jonker-Volgenant variant of the Hungarian method:
// each row is inserted via a Dijkstra-like scan over reduced costs, so the
// result is the global optimum for the given matrix. All scans iterate
// columns in ascending index order, which makes ties resolve to the lowest
// driver index and keeps the result deterministic.
func minCostAssign(cost [][]int64) (match []int, ok bool) {
	nRows := len(cost)
	if nRows == 0 {
		return nil, true
	}
	nCols := len(cost[0])
	if nRows > nCols {
		return nil, false
	}

	// 1-based arrays per the classic formulation; index 0 is a sentinel.
	u := make([]int64, nRows+1)
	v := make([]int64, nCols+1)
	p := make([]int, nCols+1) // p[j] = row matched to column j
	way := make([]int, nCols+1)

	for i := 1; i <= nRows; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int64, nCols+1)
		used := make([]bool, nCols+1)
		for j := range minv {
			minv[j] = costInf
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := costInf
			j1 := -1
			for j := 1; j <= nCols; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 || delta >= costInf {
				return nil, false
			}
			for j := 0; j <= nCols; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	match = make([]int, nRows)
	for i := range match {
		match[i] = -1
	}
	for j := 1; j <= nCols; j++ {
		if p[j] > 0 {
			match[p[j]-1] = j - 1
		}
	}
	for i, m := range match {
		if m < 0 || cost[i][m] >= costInf {
			return nil, false
		}
	}
	return match, true
}
