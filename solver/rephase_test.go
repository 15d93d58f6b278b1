package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSequence(t *testing.T) {
	s := newTestSolver([][]int{{1, 2}}, func(c *Config) { c.Search = SearchStable })
	tp := s.target
	tp.createSequence("BW BO BI BW BR BF")
	assert.Equal(t, []phase{
		phaseBest, phaseWalk,
		phaseBest, phaseOriginal,
		phaseBest, phaseInverted,
		phaseBest, phaseWalk,
		phaseBest, phaseRandom,
		phaseBest, phaseFlipped,
	}, tp.cycle)

	tp.createSequence("BO BI BR BF")
	assert.Len(t, tp.cycle, 8)
}

func TestInitializePicksCycle(t *testing.T) {
	noWalk := newTestSolver([][]int{{1, 2}}, func(c *Config) {
		c.Search = SearchStable
		c.Walk = false
	})
	noWalk.target.initialize()
	assert.NotContains(t, noWalk.target.cycle, phaseWalk)

	withWalk := newTestSolver([][]int{{1, 2}}, func(c *Config) { c.Search = SearchStable })
	withWalk.target.initialize()
	assert.Contains(t, withWalk.target.cycle, phaseWalk)
}

func TestRephaseEffects(t *testing.T) {
	s := newTestSolver([][]int{{1, 2}, {2, 3}}, func(c *Config) { c.Search = SearchStable })
	tp := s.target
	tp.initialize()

	tp.createSequence("O I F R")

	require.Equal(t, Indet, tp.rephase()) // O: all zero
	for _, p := range s.targetPolarity {
		assert.Equal(t, int8(0), p)
	}

	require.Equal(t, Indet, tp.rephase()) // I: all one
	for _, p := range s.targetPolarity {
		assert.Equal(t, int8(1), p)
	}

	require.Equal(t, Indet, tp.rephase()) // F: bitwise flip
	for _, p := range s.targetPolarity {
		assert.Equal(t, int8(^int8(1)), p)
	}

	require.Equal(t, Indet, tp.rephase()) // R: 0 or 1 per variable
	for _, p := range s.targetPolarity {
		assert.Contains(t, []int8{0, 1}, p)
	}
}

func TestRephaseSchedule(t *testing.T) {
	s := newTestSolver([][]int{{1, 2}}, func(c *Config) { c.Search = SearchStable })
	tp := s.target
	tp.initialize()
	tp.createSequence("O I")

	require.False(t, tp.rephasing(), "first rephase waits for 1000 conflicts")
	s.Stats.Conflicts = 1001
	require.True(t, tp.rephasing())
	require.Equal(t, Indet, tp.rephase())
	// Next rephase after rephasings_done * 1000 more conflicts.
	assert.Equal(t, uint64(1001+1000), tp.nextRephasing)
	require.Equal(t, Indet, tp.rephase())
	assert.Equal(t, uint64(1001+2000), tp.nextRephasing)
}

func TestUpdateBestPhase(t *testing.T) {
	s := newTestSolver([][]int{{1, 2}, {2, 3}}, func(c *Config) { c.Search = SearchStable })
	tp := s.target
	tp.initialize()

	// Simulate a trail with a level-1 prefix of two literals.
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(1), CRefUndef)
	s.uncheckedEnqueue(IntToLit(-2), CRefUndef)
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(3), CRefUndef)

	tp.updateBestPhase()
	assert.Equal(t, 2, tp.sizeBestPhase)
	assert.Equal(t, int8(0), tp.bestPolarity[0], "1 was true")
	assert.Equal(t, int8(1), tp.bestPolarity[1], "2 was false")
	assert.Equal(t, int8(targetUnset), tp.bestPolarity[2], "3 is above the prefix")

	s.cancelUntil(0)
}

func TestWalkRephaseSolves(t *testing.T) {
	s := newTestSolver([][]int{{1, 2}, {-1, 2}}, func(c *Config) { c.Search = SearchStable })
	tp := s.target
	tp.initialize()
	tp.createSequence("W")
	require.Equal(t, Sat, tp.rephase())
	require.True(t, s.solvedByLS)
}
