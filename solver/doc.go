/*
Package solver implements a CDCL SAT solver with a stochastic local-search
engine used as a phase oracle.

Its input is a Boolean formula in conjunctive normal form, either parsed
from a DIMACS CNF stream or built programmatically. The solver decides
satisfiability and, when the formula is satisfiable, provides a total
assignment of the variables.

# Describing a problem

1. parse a DIMACS stream (io.Reader). If the io.Reader produces the
following content:

	p cnf 3 3
	1 2 0
	-1 2 0
	-2 3 0

the programmer can load and solve the problem by doing:

	s := solver.New(solver.DefaultConfig())
	if err := solver.ParseCNF(f, s); err != nil { ... }
	status := s.Solve()

2. create the equivalent list of lists of literals. The problem above can
be created programmatically this way:

	clauses := [][]int{
		{1, 2},
		{-1, 2},
		{-2, 3},
	}
	s := solver.New(solver.DefaultConfig())
	solver.ParseSlice(clauses, s)

When Solve returns Sat, the model is available through s.Model().

# Search internals

The search loop combines watched-literal unit propagation, first-UIP
conflict analysis with learned-clause minimization, backjumping and
activity heuristics. Learnt clauses are partitioned into tiers (core,
tier2, local) with distinct eviction policies keyed on the literal block
distance. Restarts follow either exponential-moving-average statistics or
the Luby sequence. In stable search phases, the target polarity vector is
periodically reset by a rephasing cycle which may invoke the CCA-NR
local-search engine; if the engine satisfies every clause, the solve ends
immediately. Learnt clauses are vivified between restart cycles.

When requested, an UNSAT answer is accompanied by a DRAT proof stream, in
textual or binary ("vbyte") encoding, that an external checker can verify.

Several solvers can cooperate on the same formula: see the parallel
package, which clones a configured solver per core and brokers unit
literals and good learnt clauses between the clones.
*/
package solver
