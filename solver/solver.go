package solver

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Search regimes. Target mode alternates between focus and stable;
// the "only" variants stick to one regime for the whole search.
type searchMode int

const (
	modeStable searchMode = iota
	modeFocus
	modeOnlyStable
	modeOnlyFocus
)

// varData stores the reason and the decision level of an assigned variable.
type varData struct {
	reason CRef
	level  int
}

// targetUnset marks a variable without target polarity; the saved phase is
// used instead when branching.
const targetUnset = -10

// A Solver is a CDCL SAT solver with a local-search engine used as a phase
// oracle. It is the main data structure of the package.
type Solver struct {
	cfg  Config
	log  *logrus.Logger
	rand *Random

	ok bool // false means the clause set is already known contradictory

	ca           *arena
	clauses      []CRef // problem clauses
	learntsCore  []CRef
	learntsTiers []CRef
	learntsLocal []CRef
	unaryWatched []CRef // imported clauses living in the purgatory

	watches      occLists // long-clause watchers
	watchesBin   occLists // binary-clause watchers
	unaryWatches occLists // single watch for purgatory clauses

	activity []float64
	varInc   float64
	claInc   float64
	varDecay float64

	assigns        []lbool
	polarity       []bool // saved phase: the sign to branch with
	targetPolarity []int8 // target phase, or targetUnset
	decision       []bool
	vardata        []varData
	trail          []Lit
	trailLim       []int
	qhead          int

	order varOrder

	assumptions []Lit
	seen        []bool

	analyzeStack   []Lit
	analyzeToClear []Lit
	addTmp         []Lit

	lastDecisionLevel []Lit

	usedLevels []uint32
	lbdFlag    uint32

	simpDBAssigns int
	simpDBProps   int64

	conflictBudget    int64
	propagationBudget int64
	interrupt         atomic.Bool

	searchMode        searchMode
	ticks             uint64
	nextChangingPhase uint64
	nbChangingPhase   uint64
	phasesUsed        strings.Builder

	adaptStrategies       bool
	randomizeFirstDescent bool
	minimizeWithBinRes    bool
	useUnaryWatched       bool

	glucoseRestart *glucoseRestart
	lubyRestart    *lubyRestart
	restart        restarter
	manager        clauseManager
	target         *targetPhase
	trailSaver     *trailSaver
	proof          *proof

	progressEst float64
	solvedByLS  bool

	// Portfolio hooks; nil outside parallel solving.
	exchange *Exchange

	// Extra results, read-only for callers.
	model    []lbool
	conflict []Lit

	Stats  Stats
	PStats ParallelStats
}

// New returns an empty solver configured with cfg. Variables and clauses are
// added with NewVar and AddClause, typically by the DIMACS parser.
func New(cfg Config) *Solver {
	s := &Solver{
		cfg:               cfg,
		log:               newLogger(cfg.Verbosity),
		rand:              NewRandom(cfg.RandomSeed),
		ok:                true,
		ca:                newArena(1 << 16),
		varInc:            1,
		claInc:            1,
		varDecay:          cfg.VarDecay,
		conflictBudget:    -1,
		propagationBudget: -1,
		nextChangingPhase: 1023,
		nbChangingPhase:   1,
		simpDBAssigns:     -1,
	}
	s.order.activity = &s.activity
	s.glucoseRestart = newGlucoseRestart(s)
	s.lubyRestart = newLubyRestart(s)
	if cfg.Restart == RestartLuby {
		s.restart = s.lubyRestart
	} else {
		s.restart = s.glucoseRestart
	}
	switch cfg.Search {
	case SearchFocus:
		s.searchMode = modeOnlyFocus
		s.restart = s.glucoseRestart
		s.phasesUsed.WriteString("Focus")
	case SearchStable:
		s.searchMode = modeOnlyStable
		s.restart = s.lubyRestart
		s.phasesUsed.WriteString("Stable(")
		s.target = newTargetPhase(s)
	default:
		s.searchMode = modeFocus
		s.restart = s.glucoseRestart
		s.phasesUsed.WriteString("Focus")
		s.target = newTargetPhase(s)
	}
	if cfg.Reduce == ReduceGlucose {
		s.manager = newGlucoseManager(s)
	} else {
		s.manager = newTiersManager(s)
	}
	s.minimizeWithBinRes = cfg.BinResolution
	s.adaptStrategies = cfg.Adapt
	s.trailSaver = newTrailSaver(s, cfg.SaveTrail)
	if cfg.Certified {
		s.proof = newProof(cfg.CertifiedOutput, cfg.VByte)
	}
	return s
}

func newLogger(verbosity int) *logrus.Logger {
	log := logrus.New()
	switch {
	case verbosity < 0:
		log.SetLevel(logrus.ErrorLevel)
	case verbosity == 0:
		log.SetLevel(logrus.WarnLevel)
	case verbosity == 1:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.DebugLevel)
	}
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}

// SetLogger replaces the diagnostic logger.
func (s *Solver) SetLogger(log *logrus.Logger) { s.log = log }

// Config returns the solver's configuration.
func (s *Solver) Config() Config { return s.cfg }

// Okay returns false when the clause set is known contradictory.
func (s *Solver) Okay() bool { return s.ok }

// NbVars returns the number of variables.
func (s *Solver) NbVars() int { return len(s.vardata) }

// NbClauses returns the number of problem clauses.
func (s *Solver) NbClauses() int { return len(s.clauses) }

// NbLearnts returns the number of learnt clauses, all tiers included.
func (s *Solver) NbLearnts() int {
	return len(s.learntsCore) + len(s.learntsTiers) + len(s.learntsLocal)
}

// NbAssigns returns the number of currently assigned literals.
func (s *Solver) NbAssigns() int { return len(s.trail) }

// NewVar adds a new variable to the solver and returns it.
func (s *Solver) NewVar() Var {
	v := Var(len(s.vardata))
	s.watches.init(MkLit(v, true))
	s.watchesBin.init(MkLit(v, true))
	s.unaryWatches.init(MkLit(v, true))
	s.seen = append(s.seen, false)
	s.assigns = append(s.assigns, lUndef)
	s.vardata = append(s.vardata, varData{reason: CRefUndef})
	act := 0.0
	if s.cfg.RndInitAct {
		act = s.rand.Float64() * 0.00001
	}
	s.activity = append(s.activity, act)
	s.polarity = append(s.polarity, true)
	s.targetPolarity = append(s.targetPolarity, 1)
	s.usedLevels = append(s.usedLevels, 0, 0)
	s.decision = append(s.decision, true)
	s.insertVarOrder(v)
	return v
}

func (s *Solver) insertVarOrder(v Var) {
	if !s.order.contains(v) && s.decision[v] {
		s.order.insert(v)
	}
}

// value returns the current assignment of a variable.
func (s *Solver) value(v Var) lbool { return s.assigns[v] }

// litValue returns the current assignment of a literal.
func (s *Solver) litValue(p Lit) lbool { return s.assigns[p.Var()].xorSign(p.Sign()) }

// reason returns the clause that propagated x, or CRefUndef.
func (s *Solver) reason(x Var) CRef { return s.vardata[x].reason }

// level returns the decision level x was assigned at.
func (s *Solver) level(x Var) int { return s.vardata[x].level }

// decisionLevel returns the current decision level.
func (s *Solver) decisionLevel() int { return len(s.trailLim) }

// abstractLevel maps a level to a single bit, to abstract sets of levels.
func (s *Solver) abstractLevel(x Var) uint32 { return 1 << (uint(s.level(x)) & 31) }

// newDecisionLevel begins a new decision level.
func (s *Solver) newDecisionLevel() { s.trailLim = append(s.trailLim, len(s.trail)) }

// AddClause adds a clause given as a list of CNF literals. Duplicate
// literals are collapsed and tautologies are dropped. It returns false when
// the clause set becomes contradictory.
func (s *Solver) AddClause(lits []Lit) bool {
	if s.decisionLevel() != 0 {
		panic("AddClause called above level 0")
	}
	if !s.ok {
		return false
	}
	s.addTmp = append(s.addTmp[:0], lits...)
	ps := s.addTmp
	sortLits(ps)

	var oc []Lit
	flag := false
	if s.proof != nil {
		oc = append(oc, ps...)
		for _, l := range ps {
			if s.litValue(l) == lTrue || s.litValue(l) == lFalse {
				flag = true
			}
		}
	}

	j := 0
	p := LitUndef
	for _, l := range ps {
		if s.litValue(l) == lTrue || l == p.Negation() {
			return true
		}
		if s.litValue(l) != lFalse && l != p {
			ps[j] = l
			p = l
			j++
		}
	}
	ps = ps[:j]

	if flag {
		s.proof.addClause(ps)
		s.proof.deleteClause(oc)
	}

	switch len(ps) {
	case 0:
		s.ok = false
		return false
	case 1:
		s.uncheckedEnqueue(ps[0], CRefUndef)
		s.ok = s.propagate() == CRefUndef
		return s.ok
	default:
		cr := s.ca.alloc(ps, false)
		s.clauses = append(s.clauses, cr)
		s.attachClause(cr)
	}
	return true
}

// attachClause registers the clause in the watcher lists.
func (s *Solver) attachClause(cr CRef) {
	c := s.ca.deref(cr)
	if c.Len() == 2 {
		s.watchesBin.push(c.First().Negation(), watcher{cref: cr, blocker: c.Second()})
		s.watchesBin.push(c.Second().Negation(), watcher{cref: cr, blocker: c.First()})
	} else {
		s.watches.push(c.First().Negation(), watcher{cref: cr, blocker: c.Second()})
		s.watches.push(c.Second().Negation(), watcher{cref: cr, blocker: c.First()})
	}
}

// detachClause removes the clause from the watcher lists. When strict is
// false the lists are only smudged and purged lazily.
func (s *Solver) detachClause(cr CRef, strict bool) {
	c := s.ca.deref(cr)
	if c.Len() == 2 {
		if strict {
			s.watchesBin.remove(c.First().Negation(), cr)
			s.watchesBin.remove(c.Second().Negation(), cr)
		} else {
			s.watchesBin.smudge(c.First().Negation())
			s.watchesBin.smudge(c.Second().Negation())
		}
	} else {
		if strict {
			s.watches.remove(c.First().Negation(), cr)
			s.watches.remove(c.Second().Negation(), cr)
		} else {
			s.watches.smudge(c.First().Negation())
			s.watches.smudge(c.Second().Negation())
		}
	}
}

// The purgatory is the one-watched scheme for imported clauses.
func (s *Solver) attachClausePurgatory(cr CRef) {
	c := s.ca.deref(cr)
	s.unaryWatches.push(c.First().Negation(), watcher{cref: cr, blocker: c.Second()})
}

func (s *Solver) detachClausePurgatory(cr CRef, strict bool) {
	c := s.ca.deref(cr)
	if strict {
		s.unaryWatches.remove(c.First().Negation(), cr)
	} else {
		s.unaryWatches.smudge(c.First().Negation())
	}
}

// removeClause detaches and frees a clause.
func (s *Solver) removeClause(cr CRef, inPurgatory bool) {
	c := s.ca.deref(cr)
	if s.proof != nil && !c.Deleted() {
		s.proof.deleteClause(c.Lits())
	}
	if inPurgatory {
		s.detachClausePurgatory(cr, false)
	} else {
		s.detachClause(cr, false)
	}
	// Don't leave a reason pointing to freed memory.
	if s.locked(cr) {
		s.vardata[c.First().Var()].reason = CRefUndef
	}
	s.ca.free(cr)
}

// locked returns true if the clause is the reason for some current
// implication and therefore must not be removed.
func (s *Solver) locked(cr CRef) bool {
	c := s.ca.deref(cr)
	if s.litValue(c.First()) == lTrue && s.reason(c.First().Var()) == cr {
		return true
	}
	return c.Len() == 2 && s.litValue(c.Second()) == lTrue && s.reason(c.Second().Var()) == cr
}

// satisfied returns true iff the clause is satisfied under the current
// assignment.
func (s *Solver) satisfied(c Clause) bool {
	for i := 0; i < c.Len(); i++ {
		if s.litValue(c.Get(i)) == lTrue {
			return true
		}
	}
	return false
}

// uncheckedEnqueue assigns a literal whose value must be undefined.
func (s *Solver) uncheckedEnqueue(p Lit, from CRef) {
	v := p.Var()
	if p.Sign() {
		s.assigns[v] = lFalse
	} else {
		s.assigns[v] = lTrue
	}
	s.vardata[v] = varData{reason: from, level: s.decisionLevel()}
	s.trail = append(s.trail, p)
}

// enqueue tests whether p contradicts the current state and assigns it
// otherwise.
func (s *Solver) enqueue(p Lit, from CRef) bool {
	if s.litValue(p) != lUndef {
		return s.litValue(p) != lFalse
	}
	s.uncheckedEnqueue(p, from)
	return true
}

// cancelUntil reverts the state to the given level, keeping all
// assignments at 'level' but not beyond.
func (s *Solver) cancelUntil(level int) {
	s.trailSaver.reset()
	if s.decisionLevel() <= level {
		return
	}
	saving := s.trailSaver.onBacktrack(level)
	for c := len(s.trail) - 1; c >= s.trailLim[level]; c-- {
		if saving {
			s.trailSaver.onCancel(c, level)
		}
		x := s.trail[c].Var()
		s.assigns[x] = lUndef
		if s.cfg.PhaseSaving > 1 || (s.cfg.PhaseSaving == 1 && c > s.trailLim[len(s.trailLim)-1]) {
			s.polarity[x] = s.trail[c].Sign()
		}
		s.insertVarOrder(x)
	}
	s.qhead = s.trailLim[level]
	s.trail = s.trail[:s.trailLim[level]]
	s.trailLim = s.trailLim[:level]
}

// Activity bookkeeping.

func (s *Solver) varDecayActivity() { s.varInc *= 1 / s.varDecay }

func (s *Solver) varBumpActivity(v Var) { s.varBumpActivityBy(v, s.varInc) }

func (s *Solver) varBumpActivityBy(v Var, inc float64) {
	s.activity[v] += inc
	if s.activity[v] > 1e100 {
		// Rescale to avoid overflow.
		for i := range s.activity {
			s.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	if s.order.contains(v) {
		s.order.decrease(v)
	}
}

func (s *Solver) claDecayActivity() { s.claInc *= 1 / s.cfg.ClauseDecay }

func (s *Solver) claBumpActivity(c Clause) {
	act := c.activity() + float32(s.claInc)
	c.setActivity(act)
	if act > 1e20 {
		for _, cr := range s.learntsCore {
			c2 := s.ca.deref(cr)
			c2.setActivity(c2.activity() * 1e-20)
		}
		for _, cr := range s.learntsTiers {
			c2 := s.ca.deref(cr)
			c2.setActivity(c2.activity() * 1e-20)
		}
		for _, cr := range s.learntsLocal {
			c2 := s.ca.deref(cr)
			c2.setActivity(c2.activity() * 1e-20)
		}
		s.claInc *= 1e-20
	}
}

// computeLBD returns the number of distinct decision levels among lits.
func (s *Solver) computeLBD(lits []Lit) int {
	nblevels := 0
	s.lbdFlag++
	for _, l := range lits {
		lvl := s.level(l.Var())
		if s.usedLevels[lvl] != s.lbdFlag {
			s.usedLevels[lvl] = s.lbdFlag
			nblevels++
		}
	}
	return nblevels
}

// computeLBDClause is computeLBD on a stored clause.
func (s *Solver) computeLBDClause(c Clause) int {
	nblevels := 0
	s.lbdFlag++
	for i := 0; i < c.Len(); i++ {
		lvl := s.level(c.Get(i).Var())
		if s.usedLevels[lvl] != s.lbdFlag {
			s.usedLevels[lvl] = s.lbdFlag
			nblevels++
		}
	}
	return nblevels
}

// removeSatisfied removes from cs every clause satisfied at level 0.
func (s *Solver) removeSatisfied(cs []CRef) []CRef {
	j := 0
	for _, cr := range cs {
		c := s.ca.deref(cr)
		if s.satisfied(c) {
			s.removeClause(cr, c.oneWatched())
		} else {
			cs[j] = cr
			j++
		}
	}
	return cs[:j]
}

// simplify removes satisfied clauses at decision level 0.
func (s *Solver) simplify() bool {
	s.trailSaver.reset()
	if !s.ok || s.propagate() != CRefUndef {
		s.ok = false
		return false
	}
	if s.NbAssigns() == s.simpDBAssigns || s.simpDBProps > 0 {
		return true
	}
	s.learntsCore = s.removeSatisfied(s.learntsCore)
	s.learntsTiers = s.removeSatisfied(s.learntsTiers)
	s.unaryWatched = s.removeSatisfied(s.unaryWatched)
	s.clauses = s.removeSatisfied(s.clauses)
	s.checkGarbage()
	s.rebuildOrderHeap()
	s.simpDBAssigns = s.NbAssigns()
	return true
}

func (s *Solver) rebuildOrderHeap() {
	vs := make([]Var, 0, s.NbVars())
	for v := Var(0); int(v) < s.NbVars(); v++ {
		if s.decision[v] && s.value(v) == lUndef {
			vs = append(vs, v)
		}
	}
	s.order.build(vs)
}

// Resource constraints.

// SetConfBudget limits the search to x more conflicts.
func (s *Solver) SetConfBudget(x int64) { s.conflictBudget = int64(s.Stats.Conflicts) + x }

// SetPropBudget limits the search to x more propagations.
func (s *Solver) SetPropBudget(x int64) { s.propagationBudget = int64(s.Stats.Propagations) + x }

// BudgetOff removes the conflict and propagation budgets.
func (s *Solver) BudgetOff() { s.conflictBudget, s.propagationBudget = -1, -1 }

// Interrupt asks the solver to stop at the next checkpoint, returning Indet.
func (s *Solver) Interrupt() { s.interrupt.Store(true) }

// ClearInterrupt clears the interrupt flag.
func (s *Solver) ClearInterrupt() { s.interrupt.Store(false) }

func (s *Solver) withinBudget() bool {
	return !s.interrupt.Load() &&
		(s.conflictBudget < 0 || s.Stats.Conflicts < uint64(s.conflictBudget)) &&
		(s.propagationBudget < 0 || s.Stats.Propagations < uint64(s.propagationBudget))
}

// progressEstimate gives an estimation of the explored search space.
func (s *Solver) progressEstimate() float64 {
	progress := 0.0
	f := 1.0 / float64(s.NbVars())
	for i := 0; i <= s.decisionLevel(); i++ {
		beg := 0
		if i > 0 {
			beg = s.trailLim[i-1]
		}
		end := len(s.trail)
		if i < s.decisionLevel() {
			end = s.trailLim[i]
		}
		progress += math.Pow(f, float64(i)) * float64(end-beg)
	}
	return progress / float64(s.NbVars())
}

// Garbage collection

func (s *Solver) checkGarbage() {
	if s.ca.wasted > int(float64(s.ca.len())*s.cfg.GarbageFrac) {
		s.garbageCollect()
	}
}

// relocAll rewrites every live CRef held by the solver into the arena to.
// Every root must be visited before the new arena is installed.
func (s *Solver) relocAll(to *arena) {
	s.watches.cleanAll(s.ca)
	s.watchesBin.cleanAll(s.ca)
	s.unaryWatches.cleanAll(s.ca)

	for v := Var(0); int(v) < s.NbVars(); v++ {
		for sign := 0; sign < 2; sign++ {
			p := MkLit(v, sign == 1)
			for lists := 0; lists < 3; lists++ {
				var ws []watcher
				switch lists {
				case 0:
					ws = s.watches.occurrences(p)
				case 1:
					ws = s.watchesBin.occurrences(p)
				default:
					ws = s.unaryWatches.occurrences(p)
				}
				for i := range ws {
					s.ca.reloc(&ws[i].cref, to)
				}
			}
		}
	}

	// Reasons on the trail.
	for _, l := range s.trail {
		v := l.Var()
		if r := s.reason(v); r != CRefUndef && (s.ca.deref(r).relocated() || s.locked(r)) {
			s.ca.reloc(&s.vardata[v].reason, to)
		}
	}

	s.trailSaver.reloc(to)

	for i := range s.learntsCore {
		s.ca.reloc(&s.learntsCore[i], to)
	}
	for i := range s.learntsTiers {
		s.ca.reloc(&s.learntsTiers[i], to)
	}
	for i := range s.learntsLocal {
		s.ca.reloc(&s.learntsLocal[i], to)
	}
	for i := range s.unaryWatched {
		s.ca.reloc(&s.unaryWatched[i], to)
	}

	j := 0
	for i := range s.clauses {
		if !s.ca.deref(s.clauses[i]).Deleted() {
			s.ca.reloc(&s.clauses[i], to)
			s.clauses[j] = s.clauses[i]
			j++
		}
	}
	s.clauses = s.clauses[:j]
}

// garbageCollect compacts the clause arena.
func (s *Solver) garbageCollect() {
	to := newArena(s.ca.len() - s.ca.wasted)
	s.relocAll(to)
	s.log.Debugf("garbage collection: %d words => %d words", s.ca.len(), to.len())
	s.ca = to
}

// Results

// Model returns the binding of each variable in the last satisfying
// assignment. It panics when the last call to Solve did not return Sat.
func (s *Solver) Model() []bool {
	if s.model == nil {
		panic("cannot call Model() on a non-Sat solver")
	}
	res := make([]bool, len(s.model))
	for i, b := range s.model {
		res[i] = b == lTrue
	}
	return res
}

// Conflict returns the final conflict clause in terms of the assumptions,
// when Solve returned Unsat under assumptions.
func (s *Solver) Conflict() []Lit {
	return append([]Lit(nil), s.conflict...)
}

// OutputModel writes the model as a DIMACS "v" line on the builder.
func (s *Solver) OutputModel(sb *strings.Builder) {
	sb.WriteString("v")
	for i, b := range s.model {
		if b == lUndef {
			continue
		}
		if b == lTrue {
			fmt.Fprintf(sb, " %d", i+1)
		} else {
			fmt.Fprintf(sb, " %d", -i-1)
		}
	}
	sb.WriteString(" 0\n")
}

// analyzeFinal expresses the final conflict in terms of assumptions:
// it computes the set of assumptions that led to the assignment of p.
func (s *Solver) analyzeFinal(p Lit) {
	s.conflict = s.conflict[:0]
	s.conflict = append(s.conflict, p)
	if s.decisionLevel() == 0 {
		return
	}
	s.seen[p.Var()] = true
	for i := len(s.trail) - 1; i >= s.trailLim[0]; i-- {
		x := s.trail[i].Var()
		if !s.seen[x] {
			continue
		}
		if s.reason(x) == CRefUndef {
			s.conflict = append(s.conflict, s.trail[i].Negation())
		} else {
			c := s.ca.deref(s.reason(x))
			start := 1
			if c.Len() == 2 {
				start = 0
			}
			for j := start; j < c.Len(); j++ {
				if s.level(c.Get(j).Var()) > 0 {
					s.seen[c.Get(j).Var()] = true
				}
			}
		}
		s.seen[x] = false
	}
	s.seen[p.Var()] = false
}

// sortLits sorts literals by their encoded value, grouping duplicate and
// complementary literals together.
func sortLits(lits []Lit) {
	for i := 1; i < len(lits); i++ {
		l := lits[i]
		j := i - 1
		for j >= 0 && lits[j] > l {
			lits[j+1] = lits[j]
			j--
		}
		lits[j+1] = l
	}
}
