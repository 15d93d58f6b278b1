package solver

// Clone returns an independent copy of the solver, configured with cfg.
// The clause arena, watcher lists, assignment and activities are copied;
// heuristic engines (restart, manager, target phase) are built fresh from
// cfg, which is how a portfolio diversifies its members. Clone must be
// called at decision level 0.
func (s *Solver) Clone(cfg Config) *Solver {
	c := New(cfg)

	c.ca = &arena{words: append([]uint32(nil), s.ca.words...), wasted: s.ca.wasted}
	c.clauses = append([]CRef(nil), s.clauses...)
	c.learntsCore = append([]CRef(nil), s.learntsCore...)
	c.learntsTiers = append([]CRef(nil), s.learntsTiers...)
	c.learntsLocal = append([]CRef(nil), s.learntsLocal...)
	c.unaryWatched = append([]CRef(nil), s.unaryWatched...)

	c.watches = s.watches.clone()
	c.watchesBin = s.watchesBin.clone()
	c.unaryWatches = s.unaryWatches.clone()

	c.assigns = append([]lbool(nil), s.assigns...)
	c.vardata = append([]varData(nil), s.vardata...)
	c.activity = append([]float64(nil), s.activity...)
	c.order.activity = &c.activity
	c.seen = make([]bool, len(s.seen))
	c.usedLevels = make([]uint32, len(s.usedLevels))
	c.polarity = append([]bool(nil), s.polarity...)
	c.targetPolarity = append([]int8(nil), s.targetPolarity...)
	c.decision = append([]bool(nil), s.decision...)
	c.trail = append([]Lit(nil), s.trail...)
	c.trailLim = append([]int(nil), s.trailLim...)
	c.qhead = s.qhead
	c.ok = s.ok
	c.simpDBAssigns = s.simpDBAssigns
	c.simpDBProps = s.simpDBProps

	c.order.content = append([]Var(nil), s.order.content...)
	c.order.indices = append([]int(nil), s.order.indices...)

	return c
}

func (o *occLists) clone() occLists {
	c := occLists{
		occs:    make([][]watcher, len(o.occs)),
		dirty:   append([]bool(nil), o.dirty...),
		dirties: append([]Lit(nil), o.dirties...),
	}
	for i, ws := range o.occs {
		c.occs[i] = append([]watcher(nil), ws...)
	}
	return c
}
