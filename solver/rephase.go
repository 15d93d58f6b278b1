package solver

// Phase tags of the rephasing cycle.
type phase int

const (
	phaseBest phase = iota
	phaseFlipped
	phaseOriginal
	phaseInverted
	phaseRandom
	phaseWalk
)

// MaxVariablesForWalker bounds the instance size the local-search engine
// is willing to handle.
const MaxVariablesForWalker = 70000

// targetPhase drives the rephasing state machine: it remembers the best
// assignment prefix seen so far and periodically resets the target polarity
// vector according to a cyclic sequence of phase tags.
type targetPhase struct {
	solver *Solver

	nextRephasing      uint64
	sizeBestPhase      int
	sizeBestOfThePhase int
	minSize            int
	nbRephasing        int
	cycle              []phase
	bestPolarity       []int8

	walker *walker
}

func newTargetPhase(s *Solver) *targetPhase {
	return &targetPhase{solver: s, nextRephasing: 1000, walker: newWalker(s)}
}

func (t *targetPhase) initialize() {
	s := t.solver
	for len(t.bestPolarity) < s.NbVars() {
		t.bestPolarity = append(t.bestPolarity, 0)
	}
	t.minSize = s.NbVars()
	if len(t.cycle) > 0 { // cycle is already defined
		return
	}
	if s.cfg.Walk && s.NbVars() < MaxVariablesForWalker {
		t.createSequence("BW BO BI BW BR BF")
	} else {
		t.createSequence("BO BI BR BF")
	}
}

// createSequence parses a cycle description; whitespace separates the tags.
func (t *targetPhase) createSequence(sequence string) {
	t.cycle = t.cycle[:0]
	for _, c := range sequence {
		switch c {
		case 'B':
			t.cycle = append(t.cycle, phaseBest)
		case 'F':
			t.cycle = append(t.cycle, phaseFlipped)
		case 'O':
			t.cycle = append(t.cycle, phaseOriginal)
		case 'I':
			t.cycle = append(t.cycle, phaseInverted)
		case 'R':
			t.cycle = append(t.cycle, phaseRandom)
		case 'W':
			t.cycle = append(t.cycle, phaseWalk)
		}
	}
}

// rephasing returns true when enough conflicts have passed since the last
// rephase.
func (t *targetPhase) rephasing() bool {
	return t.nextRephasing < t.solver.Stats.Conflicts
}

// updateBestPhase records the level-1 trail prefix as the best phase when
// it is the largest seen so far.
func (t *targetPhase) updateBestPhase() {
	s := t.solver
	sz := 0
	if len(s.trailLim) >= 1 {
		sz = s.trailLim[len(s.trailLim)-1]
	}
	if sz < t.minSize && sz > 0 {
		t.minSize = sz
	}
	if t.sizeBestPhase < sz {
		for v := range t.bestPolarity {
			t.bestPolarity[v] = targetUnset
		}
		for i := 0; i < sz; i++ {
			l := s.trail[i]
			if l.Sign() {
				t.bestPolarity[l.Var()] = 1
			} else {
				t.bestPolarity[l.Var()] = 0
			}
		}
		t.sizeBestPhase = sz
		if t.sizeBestOfThePhase < t.sizeBestPhase {
			t.sizeBestOfThePhase = t.sizeBestPhase
		}
	}
}

// phaseAt returns the cycle entry for step i, tolerating negative steps.
func (t *targetPhase) phaseAt(i int) phase {
	n := len(t.cycle)
	return t.cycle[((i%n)+n)%n]
}

// reset restarts the cycle on the best phase. Called when the search
// switches back to stable mode.
func (t *targetPhase) reset() {
	if t.phaseAt(t.nbRephasing) != phaseBest {
		t.nbRephasing--
	}
	t.sizeBestPhase = 0
}

// rephase applies the next phase of the cycle to the target polarity
// vector. When the walk phase solves the formula, Sat is returned and the
// whole solve stops.
func (t *targetPhase) rephase() Status {
	s := t.solver
	nbV := s.NbVars()
	switch t.phaseAt(t.nbRephasing) {
	case phaseBest:
		s.log.Debugf("rephase B (size = %d/%d, best ever %d)", t.sizeBestPhase, nbV, t.sizeBestOfThePhase)
		copy(s.targetPolarity, t.bestPolarity)
		s.phasesUsed.WriteString("B")
	case phaseFlipped:
		s.log.Debug("rephase F")
		for i := 0; i < nbV; i++ {
			s.targetPolarity[i] = ^s.targetPolarity[i]
		}
		s.phasesUsed.WriteString("F")
	case phaseOriginal:
		s.log.Debug("rephase O")
		for i := 0; i < nbV; i++ {
			s.targetPolarity[i] = 0
		}
		s.phasesUsed.WriteString("O")
	case phaseInverted:
		s.log.Debug("rephase I")
		for i := 0; i < nbV; i++ {
			s.targetPolarity[i] = 1
		}
		s.phasesUsed.WriteString("I")
	case phaseRandom:
		// As in the glucose 3 rephase (see "pragmatics of SAT").
		s.log.Debug("rephase R")
		s.phasesUsed.WriteString("R")
		for i := 0; i < nbV; i++ {
			if s.rand.Float64() < 0.5 {
				s.targetPolarity[i] = 1
			} else {
				s.targetPolarity[i] = 0
			}
		}
	case phaseWalk:
		s.phasesUsed.WriteString("W")
		s.cancelUntil(0) // reboot the solver
		if t.walker.solve() != Indet {
			return Sat
		}
	}
	t.nbRephasing++
	t.nextRephasing = s.Stats.Conflicts + uint64(t.nbRephasing)*1000
	t.sizeBestPhase = 0
	return Indet
}
