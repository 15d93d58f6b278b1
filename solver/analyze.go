package solver

// analyze walks the implication graph backwards from the conflict clause
// and produces a first-UIP learnt clause together with the level to
// backjump to.
//
// Postconditions:
//   - learnt[0] is the asserting literal at level btLevel.
//   - if len(learnt) > 1 then learnt[1] has the greatest decision level of
//     the remaining literals.
func (s *Solver) analyze(confl CRef, learnt []Lit) ([]Lit, int) {
	pathC := 0
	p := LitUndef
	learnt = append(learnt[:0], LitUndef) // leave room for the asserting literal
	index := len(s.trail) - 1
	s.lastDecisionLevel = s.lastDecisionLevel[:0]

	for {
		c := s.ca.deref(confl)

		// Binary special case: the first literal must be the true one, so
		// that the second is always the implied one.
		if p != LitUndef && c.Len() == 2 && s.litValue(c.First()) == lFalse {
			c.swap(0, 1)
		}

		if c.Learnt() {
			s.manager.updateClause(confl, true)
			if s.exchange != nil {
				s.exportClauseDuringConflictAnalysis(c)
			}
		}

		performSelfSub := false
		nbLastDL := 0
		if s.cfg.SelfSubsumption {
			nbSeenLastDL, nbSeenBeforeLastDL := 0, 0
			start := 0
			if p != LitUndef {
				start = 1
			}
			for j := start; j < c.Len(); j++ {
				q := c.Get(j)
				if s.level(q.Var()) >= s.decisionLevel() {
					nbLastDL++
				}
				if s.seen[q.Var()] && s.level(q.Var()) >= s.decisionLevel() {
					nbSeenLastDL++
				}
				if s.seen[q.Var()] && s.level(q.Var()) < s.decisionLevel() && s.level(q.Var()) > 0 {
					nbSeenBeforeLastDL++
				}
			}
			performSelfSub = nbSeenLastDL >= pathC && pathC > 0 && nbSeenBeforeLastDL >= len(learnt)-1
		}

		start := 0
		if p != LitUndef {
			start = 1
		}
		for j := start; j < c.Len(); j++ {
			q := c.Get(j)
			if !s.seen[q.Var()] && s.level(q.Var()) > 0 {
				s.varBumpActivity(q.Var())
				if s.searchMode == modeStable || s.searchMode == modeOnlyStable {
					s.bumpReasonLiterals(q)
				}
				s.seen[q.Var()] = true
				if s.level(q.Var()) >= s.decisionLevel() {
					pathC++
					// UPDATEVARACTIVITY trick (see competition'09 companion paper)
					if r := s.reason(q.Var()); r != CRefUndef && s.ca.deref(r).Learnt() {
						s.lastDecisionLevel = append(s.lastDecisionLevel, q)
					}
				} else {
					learnt = append(learnt, q)
				}
			}
		}

		if s.cfg.SelfSubsumption && performSelfSub && nbLastDL > 1 {
			s.Stats.NbSelfSubsumptions++
			pos := 0
			for j := 2; j < c.Len(); j++ {
				if s.level(c.Get(j).Var()) >= s.decisionLevel() {
					pos = j
					break
				}
			}
			s.detachClause(confl, true)
			c.Set(0, c.Get(pos))
			c.Set(pos, c.Last())
			c.Shrink(c.Len() - 1)
			if s.proof != nil {
				s.proof.addClause(c.Lits())
			}
			s.attachClause(confl)
		}

		// Select the next literal to look at.
		for !s.seen[s.trail[index].Var()] {
			index--
		}
		p = s.trail[index]
		index--
		confl = s.reason(p.Var())
		s.seen[p.Var()] = false
		pathC--
		if pathC <= 0 {
			break
		}
	}
	learnt[0] = p.Negation()

	// Minimize the conflict clause.
	s.analyzeToClear = append(s.analyzeToClear[:0], learnt...)
	var i, j int
	switch s.cfg.CcminMode {
	case 2:
		abstractLevels := uint32(0)
		for i = 1; i < len(learnt); i++ {
			abstractLevels |= s.abstractLevel(learnt[i].Var())
		}
		j = 1
		for i = 1; i < len(learnt); i++ {
			if s.reason(learnt[i].Var()) == CRefUndef || !s.litRedundant(learnt[i], abstractLevels) {
				learnt[j] = learnt[i]
				j++
			}
		}
	case 1:
		j = 1
		for i = 1; i < len(learnt); i++ {
			x := learnt[i].Var()
			if s.reason(x) == CRefUndef {
				learnt[j] = learnt[i]
				j++
			} else {
				c := s.ca.deref(s.reason(x))
				start := 1
				if c.Len() == 2 {
					start = 0
				}
				for k := start; k < c.Len(); k++ {
					if !s.seen[c.Get(k).Var()] && s.level(c.Get(k).Var()) > 0 {
						learnt[j] = learnt[i]
						j++
						break
					}
				}
			}
		}
	default:
		j = len(learnt)
	}
	learnt = learnt[:j]

	if s.minimizeWithBinRes && len(learnt) < 30 {
		learnt = s.minimizeWithBinaryResolution(learnt)
	}

	// Find the correct backtrack level.
	btLevel := 0
	if len(learnt) > 1 {
		maxI := 1
		for k := 2; k < len(learnt); k++ {
			if s.level(learnt[k].Var()) > s.level(learnt[maxI].Var()) {
				maxI = k
			}
		}
		learnt[maxI], learnt[1] = learnt[1], learnt[maxI]
		btLevel = s.level(learnt[1].Var())
	}

	for _, l := range s.analyzeToClear {
		s.seen[l.Var()] = false
	}
	return learnt, btLevel
}

// litRedundant checks whether p can be removed from the learnt clause.
// abstractLevels is used to abort early when visiting literals at levels
// that cannot be removed later.
func (s *Solver) litRedundant(p Lit, abstractLevels uint32) bool {
	s.analyzeStack = append(s.analyzeStack[:0], p)
	top := len(s.analyzeToClear)
	for len(s.analyzeStack) > 0 {
		last := s.analyzeStack[len(s.analyzeStack)-1]
		s.analyzeStack = s.analyzeStack[:len(s.analyzeStack)-1]
		c := s.ca.deref(s.reason(last.Var()))
		if c.Len() == 2 && s.litValue(c.First()) == lFalse {
			c.swap(0, 1)
		}
		for i := 1; i < c.Len(); i++ {
			p2 := c.Get(i)
			if s.seen[p2.Var()] || s.level(p2.Var()) == 0 {
				continue
			}
			if s.reason(p2.Var()) != CRefUndef && s.abstractLevel(p2.Var())&abstractLevels != 0 {
				s.seen[p2.Var()] = true
				s.analyzeStack = append(s.analyzeStack, p2)
				s.analyzeToClear = append(s.analyzeToClear, p2)
			} else {
				for j := top; j < len(s.analyzeToClear); j++ {
					s.seen[s.analyzeToClear[j].Var()] = false
				}
				s.analyzeToClear = s.analyzeToClear[:top]
				return false
			}
		}
	}
	return true
}

// bumpReasonLiterals bumps the variables of the reason of lit. Used in
// stable mode only.
func (s *Solver) bumpReasonLiterals(lit Lit) {
	r := s.vardata[lit.Var()].reason
	if r == CRefUndef {
		return
	}
	c := s.ca.deref(r)
	for i := 1; i < c.Len(); i++ {
		s.varBumpActivity(c.Get(i).Var())
	}
}

// minimizeWithBinaryResolution tries to resolve away literals of the learnt
// clause using the binary watch list of the negated asserting literal.
// Only applied to interesting clauses (LBD <= 6).
func (s *Solver) minimizeWithBinaryResolution(learnt []Lit) []Lit {
	lbd := s.computeLBD(learnt)
	p := learnt[0].Negation()

	if lbd > 6 {
		return learnt
	}
	s.lbdFlag++
	for i := 1; i < len(learnt); i++ {
		s.usedLevels[learnt[i].Var()] = s.lbdFlag
	}
	nb := 0
	for _, w := range s.watchesBin.occurrences(p) {
		imp := w.blocker
		if s.usedLevels[imp.Var()] == s.lbdFlag && s.litValue(imp) == lTrue {
			nb++
			s.usedLevels[imp.Var()] = s.lbdFlag - 1
		}
	}
	if nb > 0 {
		s.Stats.NbReducedClauses++
		l := len(learnt) - 1
		for i := 1; i < len(learnt)-nb; i++ {
			if s.usedLevels[learnt[i].Var()] != s.lbdFlag {
				learnt[l], learnt[i] = learnt[i], learnt[l]
				l--
				i--
			}
		}
		learnt = learnt[:len(learnt)-nb]
	}
	return learnt
}
