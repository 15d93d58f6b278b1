package solver

// propagate propagates all enqueued facts breadth-first along the trail.
// If a conflict arises, the conflicting clause is returned, otherwise
// CRefUndef.
//
// Postcondition: on no conflict, the propagation queue is empty and every
// clause with all-but-one literal false has its remaining literal assigned
// true. A conflict on a long or purgatory clause also empties the queue; a
// conflict on a binary clause, or one met while replaying a saved trail,
// returns with the rest of the queue unprocessed.
func (s *Solver) propagate() CRef {
	confl := CRefUndef
	numProps := uint64(0)
	s.watches.cleanAll(s.ca)
	s.watchesBin.cleanAll(s.ca)
	if s.useUnaryWatched {
		s.unaryWatches.cleanAll(s.ca)
	}
	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead] // 'p' is the enqueued fact to propagate
		s.qhead++
		numProps++

		if confl = s.trailSaver.useSavedTrail(p); confl != CRefUndef {
			s.Stats.Propagations += numProps
			s.simpDBProps -= int64(numProps)
			return confl
		}

		// Binary clauses first.
		for _, bw := range s.watchesBin.occurrences(p) {
			imp := bw.blocker
			switch s.litValue(imp) {
			case lFalse:
				s.Stats.Propagations += numProps
				s.simpDBProps -= int64(numProps)
				return bw.cref
			case lUndef:
				s.uncheckedEnqueue(imp, bw.cref)
			}
		}

		// Now the other two-watched clauses.
		ws := s.watches.occurrences(p)
		i, j := 0, 0
	nextClause:
		for i < len(ws) {
			// Try to avoid inspecting the clause.
			w := ws[i]
			if s.litValue(w.blocker) == lTrue {
				ws[j] = w
				i, j = i+1, j+1
				continue
			}

			// Make sure the false literal is at position 1.
			cr := w.cref
			c := s.ca.deref(cr)
			falseLit := p.Negation()
			if c.First() == falseLit {
				c.swap(0, 1)
			}
			i++

			// If the 0th watch is true, the clause is already satisfied.
			first := c.First()
			nw := watcher{cref: cr, blocker: first}
			if first != w.blocker && s.litValue(first) == lTrue {
				ws[j] = nw
				j++
				continue
			}

			// Look for a new watch.
			for k := 2; k < c.Len(); k++ {
				if s.litValue(c.Get(k)) != lFalse {
					c.Set(1, c.Get(k))
					c.Set(k, falseLit)
					s.watches.push(c.Second().Negation(), nw)
					continue nextClause
				}
			}
			s.ticks++

			// Did not find a watch: clause is unit under assignment.
			ws[j] = nw
			j++
			if s.litValue(first) == lFalse {
				confl = cr
				s.qhead = len(s.trail)
				// Copy the remaining watches.
				for i < len(ws) {
					ws[j] = ws[i]
					i, j = i+1, j+1
				}
			} else {
				s.uncheckedEnqueue(first, cr)
			}
		}
		s.watches.occs[p] = ws[:j]

		if s.useUnaryWatched && confl == CRefUndef {
			confl = s.propagateUnaryWatches(p)
		}
	}

	s.Stats.Propagations += numProps
	s.simpDBProps -= int64(numProps)
	return confl
}

// propagateUnaryWatches propagates the purgatory watches of p. Purgatory
// clauses carry a single watch, so only conflicts can be detected. On a
// conflict the clause has proven useful: it is promoted to the regular
// two-watched scheme, with a highest-level literal swapped into position 1
// so that it propagates correctly after backtracking.
func (s *Solver) propagateUnaryWatches(p Lit) CRef {
	confl := CRefUndef
	ws := s.unaryWatches.occurrences(p)
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
		i++
		nw := watcher{cref: cr, blocker: c.First()}
		for k := 1; k < c.Len(); k++ {
			if s.litValue(c.Get(k)) != lFalse {
				c.Set(0, c.Get(k))
				c.Set(k, falseLit)
				s.unaryWatches.push(c.First().Negation(), nw)
				continue nextClause
			}
		}

		// Did not find a watch: the clause is falsified. Drop its unary
		// watcher (it leaves the purgatory) and flush the queue.
		confl = cr
		s.qhead = len(s.trail)
		for i < len(ws) {
			ws[j] = ws[i]
			i, j = i+1, j+1
		}

		s.PStats.GoodImported++
		// Find the two highest decision levels so the clause propagates
		// correctly once we backtrack, then adopt it for good.
		maxLevel, index := -1, -1
		for k := 1; k < c.Len(); k++ {
			if lvl := s.level(c.Get(k).Var()); lvl > maxLevel {
				maxLevel, index = lvl, k
			}
		}
		c.swap(1, index)
		s.attachClause(cr)
		c.setOneWatched(false)
		c.setExported(2)
	}
	s.unaryWatches.occs[p] = ws[:j]
	return confl
}
