package solver

import "sort"

// A clauseManager owns the learnt-clause database: it decides where a new
// learnt clause goes, when the database is reduced and which clauses are
// evicted, and when a vivification pass should run.
type clauseManager interface {
	// add registers a freshly learnt clause.
	add(cr CRef)
	// updateClause refreshes the metadata of a clause that participated in
	// conflict analysis (or was shrunk by vivification when duringAnalysis
	// is false). It returns true when the clause was updated.
	updateClause(cr CRef, duringAnalysis bool) bool
	// triggerReduce returns true when the database should be reduced now.
	triggerReduce() bool
	// reduce evicts clauses deemed useless.
	reduce()
	// performLCM returns true when a vivification pass should run now.
	performLCM() bool
	// init is called once before the search starts.
	init()

	nbReduced() uint64
	nbRemoved() uint64
}

// managerCounters carries the statistics every manager maintains, plus the
// purgatory trimming shared by both styles.
type managerCounters struct {
	solver             *Solver
	reduced            uint64
	removed            uint64
	factorForPurgatory int
}

func (m *managerCounters) nbReduced() uint64 { return m.reduced }
func (m *managerCounters) nbRemoved() uint64 { return m.removed }

// reducePurgatory trims the imported one-watched clauses, keyed on the size
// of the core tier.
func (m *managerCounters) reducePurgatory() {
	s := m.solver
	limit := len(s.unaryWatched) - len(s.learntsCore)*m.factorForPurgatory
	if len(s.unaryWatched) <= 100 || limit <= 0 {
		return
	}
	ca := s.ca
	sort.Slice(s.unaryWatched, func(i, j int) bool {
		x, y := ca.deref(s.unaryWatched[i]), ca.deref(s.unaryWatched[j])
		// Binary clauses always last (kept).
		if x.Len() > 2 && y.Len() == 2 {
			return true
		}
		if y.Len() > 2 && x.Len() == 2 {
			return false
		}
		if x.Len() == 2 && y.Len() == 2 {
			return false
		}
		if x.Len() != y.Len() {
			return x.Len() > y.Len()
		}
		if x.LBD() != y.LBD() {
			return x.LBD() > y.LBD()
		}
		return x.activity() < y.activity()
	})
	j := 0
	for i, cr := range s.unaryWatched {
		c := ca.deref(cr)
		if c.LBD() > 2 && c.Len() > 2 && c.canBeDel() && !s.locked(cr) && i < limit {
			s.removeClause(cr, c.oneWatched())
			s.PStats.RemovedInPurgatory++
		} else {
			if !c.canBeDel() {
				limit++ // we keep c, so we can delete another clause
			}
			c.setCanBeDel(true)
			s.unaryWatched[j] = cr
			j++
		}
	}
	s.unaryWatched = s.unaryWatched[:j]
}

// lessLBDThenActivity is the glucose eviction order: binaries last, then
// larger LBD first, ties broken by lower activity.
func lessLBDThenActivity(ca *arena) func(x, y CRef) bool {
	return func(x, y CRef) bool {
		cx, cy := ca.deref(x), ca.deref(y)
		if cx.Len() > 2 && cy.Len() == 2 {
			return true
		}
		if cy.Len() > 2 && cx.Len() == 2 {
			return false
		}
		if cx.Len() == 2 && cy.Len() == 2 {
			return false
		}
		if cx.LBD() != cy.LBD() {
			return cx.LBD() > cy.LBD()
		}
		return cx.activity() < cy.activity()
	}
}

// Glucose style: a single learnt list, reduced by halves at a growing pace.

type glucoseManager struct {
	managerCounters
	specialIncReduceDB    uint64
	nbClausesBeforeReduce uint64
	curRestart            uint64
	lbLBDFrozenClause     int
	wantLCM               bool
}

func newGlucoseManager(s *Solver) *glucoseManager {
	return &glucoseManager{
		managerCounters:       managerCounters{solver: s, factorForPurgatory: 2},
		specialIncReduceDB:    1000,
		nbClausesBeforeReduce: 2000,
		curRestart:            1,
		lbLBDFrozenClause:     30,
		wantLCM:               true,
	}
}

func (m *glucoseManager) init() {}

func (m *glucoseManager) add(cr CRef) {
	m.solver.learntsCore = append(m.solver.learntsCore, cr)
}

func (m *glucoseManager) triggerReduce() bool {
	s := m.solver
	if s.Stats.Conflicts >= m.curRestart*m.nbClausesBeforeReduce && len(s.learntsCore) > 0 {
		m.curRestart = s.Stats.Conflicts/m.nbClausesBeforeReduce + 1
		return true
	}
	return false
}

func (m *glucoseManager) reduce() {
	s := m.solver
	s.log.Debugf("%d conflicts: reduce DB", s.Stats.Conflicts)
	m.wantLCM = true
	s.trailSaver.reset()
	m.reduced++

	learnts := s.learntsCore
	less := lessLBDThenActivity(s.ca)
	sort.Slice(learnts, func(i, j int) bool { return less(learnts[i], learnts[j]) })

	// Lots of good clauses: hard to compare them, keep more.
	if s.ca.deref(learnts[len(learnts)/2]).LBD() <= 3 {
		m.nbClausesBeforeReduce += m.specialIncReduceDB
	}
	if s.ca.deref(learnts[len(learnts)-1]).LBD() <= 5 {
		m.nbClausesBeforeReduce += m.specialIncReduceDB
	}

	// Don't delete binary or locked clauses. From the rest, delete clauses
	// from the first half, sparing those whose LBD improved recently.
	limit := len(learnts) / 2
	j := 0
	for i, cr := range learnts {
		c := s.ca.deref(cr)
		if c.LBD() > 2 && c.Len() > 2 && c.canBeDel() && !s.locked(cr) && i < limit {
			s.removeClause(cr, false)
			m.removed++
		} else {
			if !c.canBeDel() {
				limit++
			}
			c.setCanBeDel(true)
			learnts[j] = cr
			j++
		}
	}
	s.learntsCore = learnts[:j]

	if len(s.unaryWatched) > 0 {
		m.reducePurgatory()
	}
	s.checkGarbage()
}

func (m *glucoseManager) updateClause(cr CRef, duringAnalysis bool) bool {
	s := m.solver
	c := s.ca.deref(cr)
	s.claBumpActivity(c)
	if c.LBD() > 2 {
		lbd := s.computeLBDClause(c)
		if lbd+1 < c.LBD() { // the LBD improved
			if c.LBD() <= m.lbLBDFrozenClause && duringAnalysis {
				c.setCanBeDel(false) // seems to be interesting
			}
			c.SetLBD(lbd)
			return true
		}
	}
	return false
}

func (m *glucoseManager) performLCM() bool {
	if m.wantLCM {
		m.wantLCM = false
		return true
	}
	return false
}

// 3-tiers style: core / tiers / local, with per-tier eviction policies.

type tiersManager struct {
	managerCounters
	nextTiersReduce      uint64
	nextLocalReduce      uint64
	coreUB, tiersUB      int
	curSimplify          uint64
	nbConfBeforeSimplify uint64
}

func newTiersManager(s *Solver) *tiersManager {
	return &tiersManager{
		managerCounters:      managerCounters{solver: s, factorForPurgatory: 4},
		nextTiersReduce:      10000,
		nextLocalReduce:      15000,
		coreUB:               3,
		tiersUB:              6,
		curSimplify:          1,
		nbConfBeforeSimplify: 1000,
	}
}

func (m *tiersManager) init() {
	m.nextLocalReduce = m.solver.Stats.Conflicts + 15000
}

func (m *tiersManager) add(cr CRef) {
	s := m.solver
	c := s.ca.deref(cr)
	switch {
	case c.LBD() <= m.coreUB:
		s.learntsCore = append(s.learntsCore, cr)
		c.setLocation(locCore)
	case c.LBD() <= m.tiersUB:
		s.learntsTiers = append(s.learntsTiers, cr)
		c.setLocation(locTiers)
		c.setTouched(s.Stats.Conflicts)
	default:
		c.setLocation(locLocal)
		s.learntsLocal = append(s.learntsLocal, cr)
	}
	if s.Stats.Conflicts == 100000 && len(s.learntsCore) < 100 {
		m.coreUB = 5
	}
}

func (m *tiersManager) triggerReduce() bool {
	return m.solver.Stats.Conflicts >= m.nextTiersReduce ||
		m.solver.Stats.Conflicts >= m.nextLocalReduce
}

func (m *tiersManager) reduce() {
	s := m.solver
	m.reduced++
	s.trailSaver.reset()
	if s.Stats.Conflicts >= m.nextTiersReduce {
		m.nextTiersReduce = s.Stats.Conflicts + 10000
		m.reduceTier2()
	}
	if s.Stats.Conflicts >= m.nextLocalReduce {
		m.nextLocalReduce = s.Stats.Conflicts + 15000
		m.reduceLocal()
	}
	if len(s.unaryWatched) > 0 {
		m.reducePurgatory()
	}
	s.checkGarbage()
}

// reduceTier2 demotes tier2 clauses untouched for 30,000 conflicts to the
// local tier.
func (m *tiersManager) reduceTier2() {
	s := m.solver
	j := 0
	for _, cr := range s.learntsTiers {
		c := s.ca.deref(cr)
		if c.location() != locTiers {
			continue
		}
		if !s.locked(cr) && c.touched()+30000 < s.Stats.Conflicts {
			s.learntsLocal = append(s.learntsLocal, cr)
			c.setLocation(locLocal)
			c.setActivity(0)
			s.claBumpActivity(c)
		} else {
			s.learntsTiers[j] = cr
			j++
		}
	}
	s.learntsTiers = s.learntsTiers[:j]
}

// reduceLocal evicts the worst half of the local tier.
func (m *tiersManager) reduceLocal() {
	s := m.solver
	learnts := s.learntsLocal
	less := lessLBDThenActivity(s.ca)
	sort.Slice(learnts, func(i, j int) bool { return less(learnts[i], learnts[j]) })

	limit := len(learnts) / 2
	j := 0
	for i, cr := range learnts {
		c := s.ca.deref(cr)
		if c.location() != locLocal {
			continue
		}
		if c.canBeDel() && !s.locked(cr) && i < limit {
			s.removeClause(cr, false)
			m.removed++
		} else {
			if !c.canBeDel() {
				limit++
			}
			c.setCanBeDel(true)
			learnts[j] = cr
			j++
		}
	}
	s.learntsLocal = learnts[:j]
}

func (m *tiersManager) updateClause(cr CRef, duringAnalysis bool) bool {
	s := m.solver
	c := s.ca.deref(cr)
	if !c.Learnt() || c.location() == locCore {
		return false
	}
	updated := false
	lbd := s.computeLBDClause(c)
	if lbd < c.LBD() {
		if c.LBD() <= 30 && duringAnalysis {
			c.setCanBeDel(false) // protect once from reduction
		}
		c.SetLBD(lbd)
		updated = true
		if lbd <= m.coreUB {
			s.learntsCore = append(s.learntsCore, cr)
			c.setLocation(locCore)
		} else if lbd <= m.tiersUB && c.location() == locLocal {
			s.learntsTiers = append(s.learntsTiers, cr)
			c.setLocation(locTiers)
		}
	}
	if duringAnalysis {
		if c.location() == locTiers {
			c.setTouched(s.Stats.Conflicts)
		} else if c.location() == locLocal {
			s.claBumpActivity(c)
		}
	}
	return updated
}

func (m *tiersManager) performLCM() bool {
	s := m.solver
	if s.Stats.Conflicts >= m.curSimplify*m.nbConfBeforeSimplify {
		m.curSimplify = s.Stats.Conflicts/m.nbConfBeforeSimplify + 1
		m.nbConfBeforeSimplify += 1000
		return true
	}
	return false
}
