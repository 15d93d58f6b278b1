package solver

import "sync/atomic"

// An Exchange connects a solver to the other members of a portfolio.
// Three typed channels carry unit literals, very good ("two-watched")
// clauses and candidate ("one-watched") clauses. The inbox channels are
// owned by this solver: the portfolio fans every export out to the inboxes
// of all other members, so clause lists are received by value.
type Exchange struct {
	// Units, TwoWatched and OneWatched are this solver's inboxes.
	Units      chan Lit
	TwoWatched chan []Lit
	OneWatched chan []Lit

	// Export broadcasts a clause (or a unit) to the other solvers.
	// It must not block.
	Export func(kind ExportKind, lits []Lit)

	// Stop is raised as soon as any solver reaches a definitive answer.
	Stop *atomic.Bool
}

// ExportKind tags the channel an exported clause belongs to.
type ExportKind int

// The three exchange channels.
const (
	ExportUnit ExportKind = iota
	ExportTwoWatched
	ExportOneWatched
)

func (e *Exchange) stopped() bool {
	return e.Stop != nil && e.Stop.Load()
}

// SetExchange plugs the solver into a portfolio. Imported candidate
// clauses are kept in the purgatory until they prove useful.
func (s *Solver) SetExchange(e *Exchange) {
	s.exchange = e
	s.useUnaryWatched = true
}

// RandomizeFirstDescent makes the first decision of the search random.
// The portfolio uses it to diversify its members.
func (s *Solver) RandomizeFirstDescent() { s.randomizeFirstDescent = true }

// Reseed reinitializes the random generator; used for diversification.
func (s *Solver) Reseed(seed uint32) { s.rand.Seed(seed) }

// CreateRephaseSequence overrides the rephasing cycle, when the solver has
// a target-phase controller.
func (s *Solver) CreateRephaseSequence(sequence string) {
	if s.target != nil {
		s.target.createSequence(sequence)
	}
}

// importUnaries drains the unit-literal inbox. It returns false when an
// imported unit contradicts the current level-0 assignment.
func (s *Solver) importUnaries() bool {
	for {
		select {
		case l := <-s.exchange.Units:
			if s.litValue(l) == lFalse {
				return false
			}
			if s.value(l.Var()) == lUndef {
				s.uncheckedEnqueue(l, CRefUndef)
				s.PStats.ImportedUnits++
			}
		default:
			return true
		}
	}
}

func (s *Solver) exportUnary(l Lit) {
	s.exchange.Export(ExportUnit, []Lit{l})
	s.PStats.ExportedUnits++
}

func (s *Solver) exportTwoWatched(c Clause) {
	s.exchange.Export(ExportTwoWatched, c.Lits())
	c.setExported(2)
	s.PStats.ExportedTwoWatched++
}

func (s *Solver) exportOneWatched(c Clause) {
	s.exchange.Export(ExportOneWatched, c.Lits())
	c.setExported(2)
	s.PStats.ExportedOneWatched++
}

// exportClauseDuringSearch shares a freshly learnt clause when it is very
// good (LBD <= 2).
func (s *Solver) exportClauseDuringSearch(c Clause) {
	if c.LBD() <= 2 {
		if c.Len() == 2 {
			s.exportTwoWatched(c)
		} else {
			s.exportOneWatched(c)
		}
	}
}

// exportClauseDuringConflictAnalysis shares a clause that keeps showing up
// in conflict analysis. A clause is not re-exported: the exported counter
// is capped at 2.
func (s *Solver) exportClauseDuringConflictAnalysis(c Clause) {
	const (
		goodLimitSize = 15
		goodLimitLBD  = 5
	)
	if c.imported() || c.exported() == 2 || s.Stats.Conflicts <= 5000 {
		return
	}
	c.setExported(c.exported() + 1)
	if c.LBD() == 2 || (c.exported() == 2 && c.Len() < goodLimitSize && c.LBD() <= goodLimitLBD) {
		s.exportOneWatched(c)
		c.setExported(2)
	}
}

// shrinkClauseDuringImport removes the literals already false at level 0.
// It returns true when the clause is already satisfied.
func (s *Solver) shrinkClauseDuringImport(data []Lit) ([]Lit, bool) {
	j := 0
	for _, l := range data {
		if s.litValue(l) == lTrue {
			return data, true
		}
		if s.litValue(l) != lFalse {
			data[j] = l
			j++
		}
	}
	return data[:j], false
}

func (s *Solver) importTwoWatched(data []Lit) {
	cr := s.ca.alloc(data, true)
	c := s.ca.deref(cr)
	c.SetLBD(2) // it is a very good clause
	c.setImported(true)
	s.learntsCore = append(s.learntsCore, cr)
	c.setLocation(locCore)
	s.PStats.ImportedTwoWatched++
	s.attachClause(cr)
}

func (s *Solver) importOneWatched(data []Lit) {
	cr := s.ca.alloc(data, true)
	c := s.ca.deref(cr)
	c.SetLBD(c.Len() - 1)
	c.setImported(true)
	s.unaryWatched = append(s.unaryWatched, cr)
	s.attachClausePurgatory(cr)
	c.setOneWatched(true)
	s.PStats.ImportedOneWatched++
}

// importWatches drains one clause inbox. It returns false when an imported
// clause is empty under the level-0 assignment.
func (s *Solver) importWatches(inbox chan []Lit, attach func([]Lit)) bool {
	for {
		select {
		case data := <-inbox:
			data, sat := s.shrinkClauseDuringImport(data)
			if sat {
				continue
			}
			switch len(data) {
			case 0:
				return false
			case 1:
				if s.value(data[0].Var()) == lUndef {
					s.uncheckedEnqueue(data[0], CRefUndef)
				} else if s.litValue(data[0]) == lFalse {
					return false
				}
			default:
				attach(data)
			}
		default:
			return true
		}
	}
}

// importClauses imports everything the other solvers shared since the last
// call. Called at decision level 0 before propagation.
func (s *Solver) importClauses() bool {
	if !s.importUnaries() {
		return false
	}
	if !s.importWatches(s.exchange.TwoWatched, s.importTwoWatched) {
		return false
	}
	return s.importWatches(s.exchange.OneWatched, s.importOneWatched)
}
