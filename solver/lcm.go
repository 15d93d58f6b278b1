package solver

import "sort"

// Learned-clause minimization (vivification): between restart cycles,
// eligible learnt clauses are shortened by propagating the negation of
// their literals in a throwaway scope and extracting a smaller asserting
// clause from the resulting conflict.

// trailRecord remembers the trail length before a vivification probe, so
// the probe can be undone without touching the real search state.

// simplePropagate is a stripped-down propagate used inside vivification:
// it does not update activities or statistics and ignores the purgatory.
func (s *Solver) simplePropagate() CRef {
	confl := CRefUndef
	s.watches.cleanAll(s.ca)
	s.watchesBin.cleanAll(s.ca)
	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead]
		s.qhead++

		for _, bw := range s.watchesBin.occurrences(p) {
			imp := bw.blocker
			if s.litValue(imp) == lFalse {
				return bw.cref
			}
			if s.litValue(imp) == lUndef {
				s.simpleUncheckedEnqueue(imp, bw.cref)
			}
		}

		ws := s.watches.occurrences(p)
		i, j := 0, 0
	nextClause:
		for i < len(ws) {
			w := ws[i]
			if s.litValue(w.blocker) == lTrue {
				ws[j] = w
				i, j = i+1, j+1
				continue
			}

			cr := w.cref
			c := s.ca.deref(cr)
			falseLit := p.Negation()
			if c.First() == falseLit {
				c.swap(0, 1)
			}

			first := c.First()
			if first != w.blocker && s.litValue(first) == lTrue {
				ws[i].blocker = first
				ws[j] = ws[i]
				i, j = i+1, j+1
				continue
			}

			for k := 2; k < c.Len(); k++ {
				if s.litValue(c.Get(k)) != lFalse {
					nw := watcher{cref: cr, blocker: first}
					i++
					c.Set(1, c.Get(k))
					c.Set(k, falseLit)
					s.watches.push(c.Second().Negation(), nw)
					continue nextClause
				}
			}

			// Clause is unit under assignment.
			ws[i].blocker = first
			ws[j] = ws[i]
			i, j = i+1, j+1
			if s.litValue(first) == lFalse {
				confl = cr
				s.qhead = len(s.trail)
				for i < len(ws) {
					ws[j] = ws[i]
					i, j = i+1, j+1
				}
			} else {
				s.simpleUncheckedEnqueue(first, cr)
			}
		}
		s.watches.occs[p] = ws[:j]
	}
	return confl
}

// simpleUncheckedEnqueue assigns p without stamping a decision level; the
// vivification scope is unwound by trail position, not by level.
func (s *Solver) simpleUncheckedEnqueue(p Lit, from CRef) {
	v := p.Var()
	if p.Sign() {
		s.assigns[v] = lFalse
	} else {
		s.assigns[v] = lTrue
	}
	s.vardata[v].reason = from
	s.trail = append(s.trail, p)
}

// cancelUntilTrailRecord pops the trail back to the recorded position.
func (s *Solver) cancelUntilTrailRecord(trailRecord int) {
	for c := len(s.trail) - 1; c >= trailRecord; c-- {
		s.assigns[s.trail[c].Var()] = lUndef
	}
	s.qhead = trailRecord
	s.trail = s.trail[:trailRecord]
}

// simpleAnalyze extracts a shortened clause from the conflict met while
// probing, resolving within the vivification scope only.
func (s *Solver) simpleAnalyze(confl CRef, outLearnt []Lit, trailRecord int, trueConfl bool) []Lit {
	pathC := 0
	p := LitUndef
	index := len(s.trail) - 1

	for {
		if confl != CRefUndef {
			c := s.ca.deref(confl)
			// Binary special case: the first literal has to be the true one.
			if p != LitUndef && c.Len() == 2 && s.litValue(c.First()) == lFalse {
				c.swap(0, 1)
			}
			start := 0
			if p != LitUndef || trueConfl {
				start = 1
			}
			for j := start; j < c.Len(); j++ {
				q := c.Get(j)
				if !s.seen[q.Var()] {
					s.seen[q.Var()] = true
					pathC++
				}
			}
		} else {
			outLearnt = append(outLearnt, p.Negation())
		}
		if pathC == 0 {
			break
		}
		for !s.seen[s.trail[index].Var()] {
			index--
		}
		index--
		// Stop at the vivification boundary; some seen flags may stay set,
		// which is harmless.
		if trailRecord > index+1 {
			break
		}
		p = s.trail[index+1]
		confl = s.reason(p.Var())
		s.seen[p.Var()] = false
		pathC--
		if pathC < 0 {
			break
		}
	}
	return outLearnt
}

// simplifyLearnt vivifies one learnt clause in place.
func (s *Solver) simplifyLearnt(cr CRef) {
	c := s.ca.deref(cr)
	s.Stats.LCMTested++

	trailRecord := len(s.trail)

	trueConfl := false
	confl := CRefUndef
	j := 0
	for i := 0; i < c.Len(); i++ {
		l := c.Get(i)
		switch s.litValue(l) {
		case lUndef:
			s.simpleUncheckedEnqueue(l.Negation(), CRefUndef)
			c.Set(j, l)
			j++
			confl = s.simplePropagate()
		case lTrue:
			c.Set(j, l)
			j++
			trueConfl = true
			confl = s.reason(l.Var())
		default:
			continue // false literal, dropped
		}
		if confl != CRefUndef || trueConfl {
			break
		}
	}
	c.Shrink(j)
	if c.LBD() > c.Len() {
		c.SetLBD(c.Len())
	}

	if confl != CRefUndef || trueConfl {
		simpLearnt := make([]Lit, 0, c.Len())
		if trueConfl {
			simpLearnt = append(simpLearnt, c.Last())
		}
		simpLearnt = s.simpleAnalyze(confl, simpLearnt, trailRecord, trueConfl)
		if len(simpLearnt) < c.Len() {
			for i, l := range simpLearnt {
				c.Set(i, l)
			}
			c.Shrink(len(simpLearnt))
		}
	}

	s.cancelUntilTrailRecord(trailRecord)
}

// simplifySetOfLearnts vivifies the second half (by priority) of a learnt
// list. It returns false when a derived unit contradicts the formula.
func (s *Solver) simplifySetOfLearnts(learnts []CRef) ([]CRef, bool) {
	if _, isGlucose := s.manager.(*glucoseManager); isGlucose {
		less := lessLBDThenActivity(s.ca)
		sort.Slice(learnts, func(i, j int) bool { return less(learnts[i], learnts[j]) })
	}
	cj := 0
	for ci := 0; ci < len(learnts); ci++ {
		cr := learnts[ci]
		c := s.ca.deref(cr)
		if c.Deleted() || c.imported() {
			continue
		}

		sat, falseLit := false, false
		for i := 0; i < c.Len(); i++ {
			switch s.litValue(c.Get(i)) {
			case lTrue:
				sat = true
			case lFalse:
				falseLit = true
			}
			if sat {
				break
			}
		}
		if sat {
			s.removeClause(cr, false)
			continue
		}
		s.detachClause(cr, true)

		if falseLit {
			j := 0
			for i := 0; i < c.Len(); i++ {
				if s.litValue(c.Get(i)) != lFalse {
					c.Set(j, c.Get(i))
					j++
				}
			}
			c.Shrink(j)
			if s.proof != nil {
				s.proof.addClause(c.Lits())
			}
		}

		if ci < len(learnts)/2 || c.simplified() {
			s.attachClause(cr)
			learnts[cj] = cr
			cj++
			continue
		}

		beforeSize := c.Len()
		s.simplifyLearnt(cr)
		afterSize := c.Len()

		if beforeSize > afterSize {
			if s.proof != nil {
				s.proof.addClause(c.Lits())
			}
			s.Stats.LCMReduced++
		}

		if c.Len() == 1 {
			// A unit was derived: enqueue and propagate at the real scope.
			s.uncheckedEnqueue(c.First(), CRefUndef)
			if s.propagate() != CRefUndef {
				s.ok = false
				return learnts[:cj], false
			}
			s.ca.free(cr)
		} else {
			s.attachClause(cr)
			learnts[cj] = cr
			cj++
			if _, isGlucose := s.manager.(*glucoseManager); isGlucose || c.location() == locTiers {
				s.manager.updateClause(cr, false)
			}
			c.setSimplified(true)
		}
	}
	return learnts[:cj], true
}

// simplifyAll runs a vivification pass over the core and tier2 learnts.
func (s *Solver) simplifyAll() bool {
	s.trailSaver.reset()
	if !s.ok || s.propagate() != CRefUndef {
		s.ok = false
		return false
	}
	s.clauses = s.removeSatisfied(s.clauses)

	var ok bool
	if s.learntsCore, ok = s.simplifySetOfLearnts(s.learntsCore); !ok {
		return false
	}
	if s.learntsTiers, ok = s.simplifySetOfLearnts(s.learntsTiers); !ok {
		return false
	}

	s.learntsCore = s.dropDeleted(s.learntsCore)
	s.learntsTiers = s.dropDeleted(s.learntsTiers)
	s.learntsLocal = s.dropDeleted(s.learntsLocal)

	s.checkGarbage()
	return true
}

func (s *Solver) dropDeleted(cs []CRef) []CRef {
	j := 0
	for _, cr := range cs {
		if !s.ca.deref(cr).Deleted() {
			cs[j] = cr
			j++
		}
	}
	return cs[:j]
}
