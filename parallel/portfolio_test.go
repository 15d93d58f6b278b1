package parallel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audemard/glucose/solver"
)

func newSolver(cnf [][]int) *solver.Solver {
	cfg := solver.DefaultConfig()
	cfg.Verbosity = -1
	s := solver.New(cfg)
	solver.ParseSlice(cnf, s)
	return s
}

func pigeonhole(pigeons, holes int) [][]int {
	varOf := func(p, h int) int { return p*holes + h + 1 }
	var cnf [][]int
	for p := 0; p < pigeons; p++ {
		clause := make([]int, holes)
		for h := 0; h < holes; h++ {
			clause[h] = varOf(p, h)
		}
		cnf = append(cnf, clause)
	}
	for h := 0; h < holes; h++ {
		for p1 := 0; p1 < pigeons; p1++ {
			for p2 := p1 + 1; p2 < pigeons; p2++ {
				cnf = append(cnf, []int{-varOf(p1, h), -varOf(p2, h)})
			}
		}
	}
	return cnf
}

func checkModel(t *testing.T, cnf [][]int, model []bool) {
	t.Helper()
	for _, clause := range cnf {
		sat := false
		for _, l := range clause {
			v := l
			if v < 0 {
				v = -v
			}
			if model[v-1] == (l > 0) {
				sat = true
				break
			}
		}
		require.True(t, sat, "clause %v not satisfied", clause)
	}
}

func TestPortfolioSat(t *testing.T) {
	cnf := [][]int{{1, 2}, {-1, 2}, {-2, 3}, {3, 4}, {-3, 4, 5}}
	p := New(newSolver(cnf), 4)
	require.Equal(t, 4, p.NbSolvers())
	require.Equal(t, solver.Sat, p.Solve())
	w := p.Winner()
	require.NotNil(t, w)
	checkModel(t, cnf, w.Model())
}

func TestPortfolioUnsat(t *testing.T) {
	p := New(newSolver(pigeonhole(5, 4)), 4)
	require.Equal(t, solver.Unsat, p.Solve())
	require.NotNil(t, p.Winner())
}

func TestPortfolioSingleCore(t *testing.T) {
	p := New(newSolver([][]int{{1}}), 1)
	require.Equal(t, 1, p.NbSolvers())
	require.Equal(t, solver.Sat, p.Solve())
}

func TestPortfolioInterrupt(t *testing.T) {
	// A hard instance: interrupting before solving must yield Indet.
	p := New(newSolver(pigeonhole(10, 9)), 2)
	p.Interrupt()
	assert.Equal(t, solver.Indet, p.Solve())
	assert.Nil(t, p.Winner())
}
