package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLubySequence(t *testing.T) {
	want := []float64{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}
	for i, w := range want {
		assert.Equal(t, w, luby(2, uint(i)), "luby(2, %d)", i)
	}
}

func TestEMARobustInitialization(t *testing.T) {
	e := newEMA(3e-2)
	// With beta starting at 1, the first sample replaces the initial value
	// entirely instead of being drowned by it.
	e.update(10)
	assert.Equal(t, 10.0, e.value)
	// Beta decays towards alpha, never below.
	for i := 0; i < 1000; i++ {
		e.update(10)
	}
	assert.InDelta(t, 10.0, e.value, 1e-9)
	assert.Equal(t, 3e-2, e.beta)
}

func TestEMATracksShift(t *testing.T) {
	narrow := newEMA(3e-2)
	wide := newEMA(1e-5)
	for i := 0; i < 500; i++ {
		narrow.update(4)
		wide.update(4)
	}
	// A burst of much worse LBDs moves the narrow average well before the
	// wide one.
	for i := 0; i < 50; i++ {
		narrow.update(20)
		wide.update(20)
	}
	assert.Greater(t, narrow.value/wide.value, 1.25)
}

func TestGlucoseRestartTrigger(t *testing.T) {
	s := New(DefaultConfig())
	g := newGlucoseRestart(s)

	// Not before the minimum number of conflicts.
	require.False(t, g.triggerRestart())

	s.Stats.Conflicts = 60
	for i := 0; i < 60; i++ {
		g.update(100, 4)
	}
	require.False(t, g.triggerRestart(), "steady LBD must not restart")

	for i := 0; i < 30; i++ {
		g.update(100, 40)
	}
	require.True(t, g.triggerRestart(), "degrading LBD must restart")
	// The trigger rearms the minimum conflict count.
	require.False(t, g.triggerRestart())
}

func TestGlucoseRestartBlock(t *testing.T) {
	s := New(DefaultConfig())
	g := newGlucoseRestart(s)
	for i := 0; i < 100; i++ {
		g.update(100, 4)
	}
	// A much larger trail than usual blocks the restart, but only after
	// enough conflicts have been seen.
	g.update(1000, 4)
	s.Stats.Conflicts = 100
	require.True(t, g.blockRestart(), "blocking needs 10000 conflicts")
	s.Stats.Conflicts = 20000
	require.False(t, g.blockRestart())
	assert.Equal(t, uint(1), g.nbBlocked)
	assert.Equal(t, uint64(20050), g.minimumConflicts)
}

func TestLubyRestartTrigger(t *testing.T) {
	s := New(DefaultConfig())
	l := newLubyRestart(s)
	require.False(t, l.triggerRestart())
	s.Stats.Conflicts = 101
	require.True(t, l.triggerRestart())
	// limit advanced by luby(2, 0) * 100 = 100.
	assert.Equal(t, uint64(201), l.limit)
	require.False(t, l.triggerRestart())
	s.Stats.Conflicts = 202
	require.True(t, l.triggerRestart())
	// limit advanced by luby(2, 1) * 100 = 100.
	assert.Equal(t, uint64(302), l.limit)
	s.Stats.Conflicts = 303
	require.True(t, l.triggerRestart())
	// limit advanced by luby(2, 2) * 100 = 200.
	assert.Equal(t, uint64(503), l.limit)
}
