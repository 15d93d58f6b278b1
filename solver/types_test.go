package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLitEncoding(t *testing.T) {
	tests := []struct {
		cnf     int
		encoded Lit
		v       Var
		sign    bool
	}{
		{1, 0, 0, false},
		{-1, 1, 0, true},
		{2, 2, 1, false},
		{-3, 5, 2, true},
	}
	for _, tc := range tests {
		l := IntToLit(tc.cnf)
		assert.Equal(t, tc.encoded, l, "IntToLit(%d)", tc.cnf)
		assert.Equal(t, tc.v, l.Var())
		assert.Equal(t, tc.sign, l.Sign())
		assert.Equal(t, tc.cnf, l.Int(), "round trip for %d", tc.cnf)
		assert.Equal(t, l, MkLit(tc.v, tc.sign))
	}
}

func TestLitNegation(t *testing.T) {
	l := IntToLit(3)
	assert.Equal(t, IntToLit(-3), l.Negation())
	assert.Equal(t, l, l.Negation().Negation())
}

func TestLboolXorSign(t *testing.T) {
	assert.Equal(t, lFalse, lTrue.xorSign(true))
	assert.Equal(t, lTrue, lFalse.xorSign(true))
	assert.Equal(t, lTrue, lTrue.xorSign(false))
	assert.Equal(t, lUndef, lUndef.xorSign(true))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "SATISFIABLE", Sat.String())
	assert.Equal(t, "UNSATISFIABLE", Unsat.String())
	assert.Equal(t, "INDETERMINATE", Indet.String())
}

func TestRandomDeterminism(t *testing.T) {
	a := NewRandom(91648253)
	b := NewRandom(91648253)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint32(), b.Uint32())
	}
	f := a.Float64()
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Less(t, f, 1.0)
	n := a.Intn(10)
	assert.GreaterOrEqual(t, n, 0)
	assert.Less(t, n, 10)
}

func TestRandomSeedsDiffer(t *testing.T) {
	a := NewRandom(1)
	b := NewRandom(2)
	same := true
	for i := 0; i < 10; i++ {
		if a.Uint32() != b.Uint32() {
			same = false
		}
	}
	assert.False(t, same)
}
