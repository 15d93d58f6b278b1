package solver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocDeref(t *testing.T) {
	a := newArena(0)
	lits := []Lit{IntToLit(1), IntToLit(-2), IntToLit(3)}
	cr := a.alloc(lits, true)
	c := a.deref(cr)
	require.Equal(t, 3, c.Len())
	require.True(t, c.Learnt())
	require.False(t, c.Deleted())
	require.True(t, c.canBeDel())
	assert.Equal(t, lits, c.Lits())

	cr2 := a.alloc([]Lit{IntToLit(4), IntToLit(5)}, false)
	c2 := a.deref(cr2)
	require.Equal(t, 2, c2.Len())
	require.False(t, c2.Learnt())
	// The first clause is untouched by the second allocation.
	assert.Equal(t, lits, a.deref(cr).Lits())
}

func TestArenaClauseMetadata(t *testing.T) {
	a := newArena(0)
	cr := a.alloc([]Lit{IntToLit(1), IntToLit(2), IntToLit(3)}, true)
	c := a.deref(cr)

	c.SetLBD(5)
	assert.Equal(t, 5, c.LBD())

	c.setActivity(1.5)
	assert.Equal(t, float32(1.5), c.activity())

	c.setTouched(12345)
	assert.Equal(t, uint64(12345), c.touched())

	c.setLocation(locTiers)
	assert.Equal(t, locTiers, c.location())
	assert.Equal(t, 5, c.LBD(), "location must not clobber the LBD")

	c.setCanBeDel(false)
	assert.False(t, c.canBeDel())
	c.setSimplified(true)
	assert.True(t, c.simplified())
	c.setOneWatched(true)
	assert.True(t, c.oneWatched())
	c.setImported(true)
	assert.True(t, c.imported())
	c.setExported(1)
	assert.Equal(t, 1, c.exported())
	c.setExported(5)
	assert.Equal(t, 2, c.exported(), "exported counter is capped at 2")
	assert.Equal(t, 3, c.Len(), "flag churn must not clobber the size")
}

func TestArenaFreeAccountsWaste(t *testing.T) {
	a := newArena(0)
	cr := a.alloc([]Lit{IntToLit(1), IntToLit(2), IntToLit(3)}, false)
	require.Equal(t, 0, a.wasted)
	a.free(cr)
	assert.True(t, a.deref(cr).Deleted())
	assert.Equal(t, clauseHdrWords+3, a.wasted)
	// free is idempotent.
	a.free(cr)
	assert.Equal(t, clauseHdrWords+3, a.wasted)
}

func TestArenaShrinkAccountsWaste(t *testing.T) {
	a := newArena(0)
	cr := a.alloc([]Lit{IntToLit(1), IntToLit(2), IntToLit(3), IntToLit(4)}, true)
	c := a.deref(cr)
	c.Shrink(2)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, a.wasted)
}

// After relocation, every live CRef must resolve to a clause whose literal
// sequence equals the pre-GC one, and dead space must be zero.
func TestArenaRelocationEquivalence(t *testing.T) {
	a := newArena(0)
	var crs []CRef
	var want [][]Lit
	for i := 1; i <= 10; i++ {
		lits := []Lit{IntToLit(i), IntToLit(-i - 1), IntToLit(i + 2)}
		crs = append(crs, a.alloc(lits, i%2 == 0))
		want = append(want, lits)
	}
	// Free every other clause.
	for i := 0; i < len(crs); i += 2 {
		a.free(crs[i])
	}

	to := newArena(a.len() - a.wasted)
	for i := 1; i < len(crs); i += 2 {
		a.reloc(&crs[i], to)
	}
	for i := 1; i < len(crs); i += 2 {
		got := to.deref(crs[i]).Lits()
		if diff := cmp.Diff(want[i], got); diff != "" {
			t.Errorf("clause %d literals mismatch after relocation (-want +got):\n%s", i, diff)
		}
	}
	assert.Equal(t, 0, to.wasted)
}

func TestArenaRelocTwiceFollowsForward(t *testing.T) {
	a := newArena(0)
	cr := a.alloc([]Lit{IntToLit(1), IntToLit(2)}, true)
	first, second := cr, cr
	to := newArena(0)
	a.reloc(&first, to)
	a.reloc(&second, to)
	assert.Equal(t, first, second)
}
