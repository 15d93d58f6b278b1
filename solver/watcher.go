package solver

// A watcher pairs a clause with a blocker literal: when the blocker is
// already true the clause is satisfied and needs no inspection.
// For binary clauses the blocker is simply the other literal.
type watcher struct {
	cref    CRef
	blocker Lit
}

// occLists stores, for each literal, the list of watchers that must be
// inspected when the literal becomes true. Deletion is lazy: removing a
// clause smudges the lists it appears in, and the dead watchers are purged
// on the next cleanAll (or when a smudged list is looked up).
type occLists struct {
	occs    [][]watcher
	dirty   []bool
	dirties []Lit
}

func (o *occLists) init(l Lit) {
	for len(o.occs) <= int(l) {
		o.occs = append(o.occs, nil)
		o.dirty = append(o.dirty, false)
	}
}

// occurrences returns the watcher list of l without cleaning it.
func (o *occLists) occurrences(l Lit) []watcher {
	return o.occs[l]
}

// lookup cleans the watcher list of l if needed, then returns it.
func (o *occLists) lookup(a *arena, l Lit) []watcher {
	if o.dirty[l] {
		o.clean(a, l)
	}
	return o.occs[l]
}

func (o *occLists) push(l Lit, w watcher) {
	o.occs[l] = append(o.occs[l], w)
}

// remove removes the watcher for cref from the list of l, strictly.
// The watcher must be present.
func (o *occLists) remove(l Lit, cref CRef) {
	ws := o.occs[l]
	i := 0
	for ws[i].cref != cref {
		i++
	}
	copy(ws[i:], ws[i+1:])
	o.occs[l] = ws[:len(ws)-1]
}

// smudge marks the list of l as containing watchers of deleted clauses.
func (o *occLists) smudge(l Lit) {
	if !o.dirty[l] {
		o.dirty[l] = true
		o.dirties = append(o.dirties, l)
	}
}

// clean removes watchers of deleted clauses from the list of l.
func (o *occLists) clean(a *arena, l Lit) {
	ws := o.occs[l]
	j := 0
	for i := 0; i < len(ws); i++ {
		if !a.deref(ws[i].cref).Deleted() {
			ws[j] = ws[i]
			j++
		}
	}
	o.occs[l] = ws[:j]
	o.dirty[l] = false
}

// cleanAll purges every smudged list.
func (o *occLists) cleanAll(a *arena) {
	for _, l := range o.dirties {
		if o.dirty[l] {
			o.clean(a, l)
		}
	}
	o.dirties = o.dirties[:0]
}
