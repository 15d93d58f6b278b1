package solver

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// readInt reads an int from r.
// 'b' is the last read byte. It can be a space, a '-' or a digit.
// The int can be negated.
// All spaces before the int value are ignored.
// Can return EOF.
func readInt(b *byte, r *bufio.Reader) (res int, err error) {
	for err == nil && isSpace(*b) {
		*b, err = r.ReadByte()
	}
	if err == io.EOF {
		return res, io.EOF
	}
	if err != nil {
		return res, errors.Wrap(err, "could not read digit")
	}
	neg := 1
	if *b == '-' {
		neg = -1
		*b, err = r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "cannot read int")
		}
	}
	for err == nil {
		if *b < '0' || *b > '9' {
			return 0, errors.Errorf("cannot read int: %q is not a digit", *b)
		}
		res = 10*res + int(*b-'0')
		*b, err = r.ReadByte()
		if isSpace(*b) {
			break
		}
	}
	res *= neg
	return res, err
}

func parseHeader(r *bufio.Reader) (nbVars, nbClauses int, err error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, 0, errors.Wrap(err, "cannot read header")
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0, errors.Errorf("invalid syntax %q in header", line)
	}
	nbVars, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, errors.Errorf("nbvars not an int: %q", fields[1])
	}
	nbClauses, err = strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, errors.Errorf("nbClauses not an int: %q", fields[2])
	}
	return nbVars, nbClauses, nil
}

// ParseCNF reads a DIMACS CNF stream and loads its clauses into the
// solver. The solver collapses duplicate literals and drops tautologies
// while adding; a contradiction met while parsing leaves the solver in the
// !Okay() state, which is not an error.
func ParseCNF(f io.Reader, s *Solver) error {
	r := bufio.NewReader(f)
	sawHeader := false
	b, err := r.ReadByte()
	for err == nil {
		if b == 'c' { // Ignore comment
			b, err = r.ReadByte()
			for err == nil && b != '\n' {
				b, err = r.ReadByte()
			}
		} else if b == 'p' { // Parse header
			var nbVars int
			nbVars, _, err = parseHeader(r)
			if err != nil {
				return errors.Wrap(err, "cannot parse CNF header")
			}
			for s.NbVars() < nbVars {
				s.NewVar()
			}
			sawHeader = true
		} else {
			if !sawHeader {
				return errors.New("clause found before CNF header")
			}
			lits := make([]Lit, 0, 3) // Make room for some lits to improve performance
			for {
				val, err := readInt(&b, r)
				if err == io.EOF {
					if len(lits) != 0 { // This is not a trailing space at the end...
						return errors.New("unfinished clause while EOF found")
					}
					break // Trailing spaces at the end of the file are ok
				}
				if err != nil {
					return errors.Wrap(err, "cannot parse clause")
				}
				if val == 0 {
					s.AddClause(lits)
					break
				}
				if val > s.NbVars() || -val > s.NbVars() {
					return errors.Errorf("invalid literal %d for problem with %d vars only", val, s.NbVars())
				}
				lits = append(lits, IntToLit(val))
			}
		}
		b, err = r.ReadByte()
	}
	if err != io.EOF {
		return err
	}
	return nil
}

// ParseSlice loads a CNF given as a slice of slices of literals. It is
// mostly useful for tests and for embedding the solver.
func ParseSlice(cnf [][]int, s *Solver) {
	maxVar := 0
	for _, line := range cnf {
		for _, val := range line {
			if val > maxVar {
				maxVar = val
			}
			if -val > maxVar {
				maxVar = -val
			}
		}
	}
	for s.NbVars() < maxVar {
		s.NewVar()
	}
	for _, line := range cnf {
		lits := make([]Lit, len(line))
		for j, val := range line {
			if val == 0 {
				panic("null literal in clause")
			}
			lits[j] = IntToLit(val)
		}
		if !s.AddClause(lits) {
			return
		}
	}
}
