package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// An imported candidate clause lives in the purgatory on a single watch.
// It can only be detected when it becomes empty; at that point it is
// promoted to the regular two-watched scheme with a highest-level literal
// in second position.
func TestPurgatoryPromotionOnConflict(t *testing.T) {
	s := newTestSolver([][]int{{1, 2, 3, 4}}, nil)
	s.useUnaryWatched = true

	s.importOneWatched([]Lit{IntToLit(1), IntToLit(2), IntToLit(3)})
	require.Len(t, s.unaryWatched, 1)
	cr := s.unaryWatched[0]
	c := s.ca.deref(cr)
	require.True(t, c.oneWatched())
	require.True(t, c.imported())
	require.Equal(t, uint64(1), s.PStats.ImportedOneWatched)

	// Falsify the clause one literal at a time.
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(-1), CRefUndef)
	require.Equal(t, CRefUndef, s.propagate())
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(-2), CRefUndef)
	require.Equal(t, CRefUndef, s.propagate())
	s.newDecisionLevel()
	s.uncheckedEnqueue(IntToLit(-3), CRefUndef)
	confl := s.propagate()

	require.Equal(t, cr, confl, "the purgatory clause is the conflict")
	assert.False(t, c.oneWatched(), "the clause was promoted to two watches")
	assert.Equal(t, 2, c.exported(), "promoted clauses are not re-exported")
	assert.Equal(t, uint64(1), s.PStats.GoodImported)
	// Position 0 holds the literal falsified last; position 1 holds the
	// highest-level literal among the rest, so the clause propagates
	// correctly after backtracking.
	assert.Equal(t, s.decisionLevel(), s.level(c.First().Var()))
	assert.Equal(t, s.decisionLevel()-1, s.level(c.Second().Var()))

	s.cancelUntil(0)
}

func TestImportUnariesAtLevel0(t *testing.T) {
	s := newTestSolver([][]int{{1, 2, 3}}, nil)
	e := &Exchange{
		Units:      make(chan Lit, 4),
		TwoWatched: make(chan []Lit, 4),
		OneWatched: make(chan []Lit, 4),
		Export:     func(ExportKind, []Lit) {},
	}
	s.SetExchange(e)

	e.Units <- IntToLit(1)
	require.True(t, s.importClauses())
	assert.Equal(t, lTrue, s.litValue(IntToLit(1)))
	assert.Equal(t, uint64(1), s.PStats.ImportedUnits)

	// A contradicting unit makes the formula UNSAT.
	e.Units <- IntToLit(-1)
	require.Equal(t, CRefUndef, s.propagate())
	require.False(t, s.importClauses())
}

func TestImportTwoWatchedJoinsCore(t *testing.T) {
	s := newTestSolver([][]int{{1, 2, 3}}, nil)
	e := &Exchange{
		Units:      make(chan Lit, 4),
		TwoWatched: make(chan []Lit, 4),
		OneWatched: make(chan []Lit, 4),
		Export:     func(ExportKind, []Lit) {},
	}
	s.SetExchange(e)

	e.TwoWatched <- []Lit{IntToLit(2), IntToLit(3)}
	require.True(t, s.importClauses())
	require.Len(t, s.learntsCore, 1)
	c := s.ca.deref(s.learntsCore[0])
	assert.Equal(t, 2, c.LBD())
	assert.True(t, c.imported())
	assert.Equal(t, uint64(1), s.PStats.ImportedTwoWatched)
}
