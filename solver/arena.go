package solver

// This file deals with the arena allocator for clauses. Clauses are stored
// contiguously as uint32 records and referenced through opaque CRef handles,
// so that backward edges (reasons, watchers, tier lists) survive compaction.

// A CRef is an opaque handle to a clause stored in an arena.
type CRef uint32

// CRefUndef means "no clause".
const CRefUndef CRef = ^CRef(0)

// An arena stores variable-length clause records contiguously.
// Freeing a clause only marks its words as wasted; the space is reclaimed
// by relocating every live clause into a fresh arena (see Solver.garbageCollect).
type arena struct {
	words  []uint32
	wasted int // words occupied by freed or shrunk clauses
}

func newArena(capWords int) *arena {
	if capWords < 1024 {
		capWords = 1024
	}
	return &arena{words: make([]uint32, 0, capWords)}
}

// alloc stores a new clause record and returns its handle.
func (a *arena) alloc(lits []Lit, learnt bool) CRef {
	cr := CRef(len(a.words))
	hdr := uint32(len(lits))
	if learnt {
		hdr |= hdrLearnt
	}
	a.words = append(a.words, hdr, 0, 0, 0)
	for _, l := range lits {
		a.words = append(a.words, uint32(l))
	}
	c := Clause{arena: a, cr: cr}
	c.setCanBeDel(true)
	return cr
}

// deref returns a view on the clause referenced by cr.
func (a *arena) deref(cr CRef) Clause {
	return Clause{arena: a, cr: cr}
}

// free marks the clause as deleted. Watcher lists referencing it must be
// purged lazily (see occLists.cleanAll); the words are reclaimed at the
// next garbage collection.
func (a *arena) free(cr CRef) {
	c := a.deref(cr)
	if c.Deleted() {
		return
	}
	c.setDeleted()
	a.wasted += clauseHdrWords + c.Len()
}

// len returns the total number of words held by the arena.
func (a *arena) len() int {
	return len(a.words)
}

// reloc moves the clause referenced by *cr into the arena to, rewriting
// *cr in place. Calling it twice for the same clause is safe: the second
// call follows the forwarding reference left by the first.
func (a *arena) reloc(cr *CRef, to *arena) {
	c := a.deref(*cr)
	if c.relocated() {
		*cr = c.forward()
		return
	}
	sz := clauseHdrWords + c.Len()
	moved := CRef(len(to.words))
	to.words = append(to.words, a.words[*cr:int(*cr)+sz]...)
	c.setForward(moved)
	*cr = moved
}
