package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(activity []float64) *varOrder {
	q := &varOrder{activity: &activity}
	for v := range activity {
		q.insert(Var(v))
	}
	return q
}

func TestVarOrderRemoveMin(t *testing.T) {
	q := newTestOrder([]float64{1, 5, 3, 4, 2})
	var got []Var
	for !q.empty() {
		got = append(got, q.removeMin())
	}
	// Highest activity first.
	assert.Equal(t, []Var{1, 3, 2, 4, 0}, got)
}

func TestVarOrderContains(t *testing.T) {
	q := newTestOrder([]float64{1, 2, 3})
	require.True(t, q.contains(0))
	v := q.removeMin()
	require.Equal(t, Var(2), v)
	require.False(t, q.contains(2))
	q.insert(2)
	require.True(t, q.contains(2))
}

func TestVarOrderDecrease(t *testing.T) {
	activity := []float64{1, 2, 3, 4}
	q := newTestOrder(activity)
	// Bump variable 0 to the top and tell the heap about it.
	activity[0] = 10
	q.decrease(0)
	assert.Equal(t, Var(0), q.removeMin())
}

func TestVarOrderBuild(t *testing.T) {
	activity := []float64{5, 1, 4, 2, 3}
	q := newTestOrder(activity)
	q.removeMin()
	q.removeMin()
	q.build([]Var{1, 3, 4})
	require.Equal(t, 3, q.len())
	assert.Equal(t, Var(4), q.removeMin())
	assert.Equal(t, Var(3), q.removeMin())
	assert.Equal(t, Var(1), q.removeMin())
	assert.False(t, q.contains(0))
}
