package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailSaverInactiveByDefault(t *testing.T) {
	s := newTestSolver([][]int{{1, 2}}, nil)
	require.False(t, s.trailSaver.active)
	assert.False(t, s.trailSaver.onBacktrack(0))
	assert.Equal(t, CRefUndef, s.trailSaver.useSavedTrail(IntToLit(1)))
}

func TestTrailSaverSavesOnLongBackjump(t *testing.T) {
	s := newTestSolver([][]int{{1, 2}, {3, 4}, {5, 6}}, func(c *Config) { c.SaveTrail = true })
	s.trailSaver.initialize()

	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(-1), CRefUndef)
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(-3), CRefUndef)
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(-5), CRefUndef)

	// A backjump of one level is not worth saving.
	s.cancelUntil(2)
	assert.Empty(t, s.trailSaver.oldTrail)

	// A jump over more than one level is; the segment is kept in trail
	// order.
	s.cancelUntil(0)
	assert.Equal(t, []Lit{IntToLit(-1), IntToLit(-3)}, s.trailSaver.oldTrail)

	s.trailSaver.reset()
	assert.Empty(t, s.trailSaver.oldTrail)
}

// Solving with trail saving enabled must agree with the reference solver
// on a batch of random instances.
func TestTrailSavingAgreesWithReference(t *testing.T) {
	for _, seed := range []uint32{4, 9, 33} {
		cnf := random3SAT(50, 210, seed)
		want := giniStatus(cnf)
		s := newTestSolver(cnf, func(c *Config) { c.SaveTrail = true })
		require.Equal(t, want, s.Solve(), "seed %d", seed)
		if want == Sat {
			checkModel(t, cnf, s.Model())
		}
	}
}
