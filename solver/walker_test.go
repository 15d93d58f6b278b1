package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkerSolvesEasyInstance(t *testing.T) {
	cnf := [][]int{{1, 2}, {-1, 2}, {-2, 3}, {1, 3}}
	s := newTestSolver(cnf, nil)
	w := newWalker(s)
	require.Equal(t, Sat, w.solve())
	require.True(t, s.solvedByLS)

	// The walker assignment satisfies every clause.
	model := make([]bool, s.NbVars())
	for v := Var(0); int(v) < s.NbVars(); v++ {
		model[v] = w.assignedTrue(v)
	}
	checkModel(t, cnf, model)
}

func TestWalkerFeedsTargetPolarity(t *testing.T) {
	cnf := random3SAT(30, 100, 11)
	s := newTestSolver(cnf, nil)
	w := newWalker(s)
	if w.solve() == Sat {
		// On success the best assignment was written back.
		for v := 0; v < s.NbVars(); v++ {
			want := int8(0)
			if !w.assignedTrue(Var(v)) {
				want = 1
			}
			assert.Equal(t, want, s.targetPolarity[v])
		}
	}
}

func TestWalkerTermination(t *testing.T) {
	// A small unsatisfiable instance: the walker must give up within its
	// budget rather than loop forever.
	s := newTestSolver(pigeonhole(4, 3), nil)
	w := newWalker(s)
	w.maxTries = 3
	w.lsNoImprovTimes = 1000
	require.Equal(t, Indet, w.solve())
	require.False(t, s.solvedByLS)
	assert.Positive(t, s.Stats.NbFlips)
}

func TestWalkerMemsBudget(t *testing.T) {
	s := newTestSolver(pigeonhole(5, 4), nil)
	w := newWalker(s)
	w.memsLimit = 1000
	require.Equal(t, Indet, w.solve())
}

func TestWalkerSkipsLevel0SatisfiedClauses(t *testing.T) {
	// Unit 1 satisfies the first clause at level 0, so the walker only
	// sees the second one, shortened.
	s := newTestSolver([][]int{{1, 2, 3}, {-1, 2, 3}, {1}}, nil)
	require.Equal(t, CRefUndef, s.propagate())
	w := newWalker(s)
	w.buildInstance()
	require.Equal(t, 1, w.numClauses)
	assert.Equal(t, 2, len(w.clauseLit[0]))
}

func TestWalkerBumpScores(t *testing.T) {
	s := newTestSolver(pigeonhole(4, 3), nil)
	w := newWalker(s)
	w.maxTries = 1
	w.lsNoImprovTimes = 100
	before := append([]float64(nil), s.activity...)
	require.Equal(t, Indet, w.solve())
	// Variables of the heaviest falsified clauses were bumped.
	bumped := false
	for v := range s.activity {
		if s.activity[v] > before[v] {
			bumped = true
		}
	}
	assert.True(t, bumped)
}
