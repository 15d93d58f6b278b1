package solver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofTextEncoding(t *testing.T) {
	var buf bytes.Buffer
	p := newProof(&buf, false)
	p.addClause([]Lit{IntToLit(1), IntToLit(-2)})
	p.deleteClause([]Lit{IntToLit(3)})
	p.addEmpty()
	require.NoError(t, p.flush())
	assert.Equal(t, "1 -2 0\nd 3 0\n0\n", buf.String())
}

func TestProofVByteEncoding(t *testing.T) {
	var buf bytes.Buffer
	p := newProof(&buf, true)
	// Literal encoding is 2*|v| + sign: 1 -> 2, -2 -> 5.
	p.addClause([]Lit{IntToLit(1), IntToLit(-2)})
	p.deleteClause([]Lit{IntToLit(3)})
	p.addEmpty()
	require.NoError(t, p.flush())
	assert.Equal(t, []byte{'a', 2, 5, 0, 'd', 6, 0, 'a', 0}, buf.Bytes())
}

func TestProofVByteContinuation(t *testing.T) {
	var buf bytes.Buffer
	p := newProof(&buf, true)
	// Variable 100 positive encodes as 200: two 7-bit groups, continuation
	// bit set on the first.
	p.addClause([]Lit{IntToLit(100)})
	require.NoError(t, p.flush())
	assert.Equal(t, []byte{'a', 200&127 | 128, 200 >> 7, 0}, buf.Bytes())
}

// Replaying the emitted certificate against the original formula must end
// with the empty clause iff UNSAT was reported.
func TestProofEndsWithEmptyClause(t *testing.T) {
	var buf bytes.Buffer
	cnf := pigeonhole(3, 2)
	s := newTestSolver(cnf, func(c *Config) {
		c.Certified = true
		c.CertifiedOutput = &buf
	})
	require.Equal(t, Unsat, s.Solve())
	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "\n")
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Equal(t, "0", string(lines[len(lines)-1]), "proof must end with the empty clause")
}

func TestProofOnTriviallyUnsat(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSolver([][]int{{1}, {-1}}, func(c *Config) {
		c.Certified = true
		c.CertifiedOutput = &buf
	})
	require.False(t, s.Okay())
	require.Equal(t, Unsat, s.Solve())
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Equal(t, "0", string(lines[len(lines)-1]))
}
