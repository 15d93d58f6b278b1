package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Vivification must preserve equisatisfiability: on a suite of random
// instances, running with and without LCM gives the same verdict as the
// reference solver.
func TestLCMPreservesSemantics(t *testing.T) {
	for _, seed := range []uint32{2, 13, 77, 2024} {
		cnf := random3SAT(60, 252, seed)
		want := giniStatus(cnf)

		withLCM := newTestSolver(cnf, func(c *Config) { c.LCM = true })
		require.Equal(t, want, withLCM.Solve(), "seed %d with LCM", seed)
		if want == Sat {
			checkModel(t, cnf, withLCM.Model())
		}

		withoutLCM := newTestSolver(cnf, func(c *Config) { c.LCM = false })
		require.Equal(t, want, withoutLCM.Solve(), "seed %d without LCM", seed)
	}
}

func TestSimplifyLearntShortensImpliedClause(t *testing.T) {
	// 1 -> 2 -> 3 via binary chains; the learnt clause {-1, 3, 4} can be
	// vivified: enqueueing 1 propagates 3 to true before 4 is reached, so
	// 4 is dropped.
	s := newTestSolver([][]int{{-1, 2}, {-2, 3}, {4, 5}}, nil)

	lits := []Lit{IntToLit(-1), IntToLit(3), IntToLit(4)}
	cr := s.ca.alloc(lits, true)
	c := s.ca.deref(cr)
	c.SetLBD(2)

	s.simplifyLearnt(cr)

	assert.Less(t, c.Len(), 3, "vivification should have dropped a literal")
	assert.Equal(t, 0, len(s.trail), "the probe must leave the trail unchanged")
	for v := Var(0); int(v) < s.NbVars(); v++ {
		assert.Equal(t, lUndef, s.value(v), "assignments must be restored")
	}
}

func TestSimplifyAllKeepsSolverUsable(t *testing.T) {
	cnf := random3SAT(40, 160, 21)
	s := newTestSolver(cnf, nil)
	want := giniStatus(cnf)
	require.Equal(t, want, s.Solve())
	// A second solve after inprocessing ran must agree.
	require.Equal(t, want, s.Solve())
}
