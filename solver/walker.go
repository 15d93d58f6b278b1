package solver

import "time"

// The walker is a CCA-NR stochastic local-search engine (configuration
// checking with aspiration and smoothed clause weighting), invoked as a
// rephase step. It reads the problem clauses and a starting assignment
// derived from the target polarities, flips variables until no clause is
// falsified or the budget runs out, and feeds the best assignment found
// back into the target polarity vector.
//
// Variables are indexed from 1 to numVars, clauses from 0 to numClauses-1;
// index 0 is a virtual variable, following the CCAnr convention.
type walker struct {
	solver *Solver

	numVars    int
	numClauses int

	aspiration bool
	mems       uint64
	memsLimit  uint64

	varLit    [][]wlit // varLit[v] lists the occurrences of variable v
	clauseLit [][]wlit // clauseLit[c] lists the literals of clause c

	score      []int
	timeStamp  []int
	confChange []uint8
	neighbors  [][]int32

	weight   []int // clause weight, >= 1
	satCount []int // number of currently true literals
	satVar   []int // the sole satisfying variable when satCount == 1

	unsatStack        []int // indices of currently falsified clauses
	indexInUnsatStack []int
	unsatVarStack     []int // variables appearing in falsified clauses
	indexInUnsatVar   []int
	unsatAppCount     []int // in how many falsified clauses a variable appears

	goodVarStack   []int // score > 0 and confChange == 1
	alreadyGoodVar []uint8

	curSoln []int8 // 1 for true variables, 0 for false ones

	maxTries        int
	lsNoImprovTimes int64

	step int

	aveWeight        int
	deltaTotalWeight int

	threshold int
	pScale    float64
	qScale    float64
	scaleAve  int

	bestUnsatThisTry int
	bestUnsatEver    int
}

// wlit is one literal occurrence: the clause it belongs to, its variable
// and its sense (true for positive).
type wlit struct {
	clauseNum int32
	varNum    int32
	sense     int8
}

func newWalker(s *Solver) *walker {
	return &walker{
		solver:          s,
		aspiration:      true,
		memsLimit:       25 * 1000 * 1000,
		maxTries:        100,
		lsNoImprovTimes: 200000,
		threshold:       50,
		pScale:          0.3,
		qScale:          0.7,
	}
}

// buildInstance snapshots the problem clauses. Literals falsified at level
// 0 are dropped and clauses satisfied at level 0 are skipped.
func (w *walker) buildInstance() {
	s := w.solver
	w.numVars = s.NbVars()
	w.numClauses = 0
	w.createSpace(len(s.clauses))
	w.addClauses(s.clauses)

	// Build the per-variable occurrence arrays.
	for v := 1; v <= w.numVars; v++ {
		w.varLit[v] = w.varLit[v][:0]
	}
	for c := 0; c < w.numClauses; c++ {
		for _, p := range w.clauseLit[c] {
			w.varLit[p.varNum] = append(w.varLit[p.varNum], p)
		}
	}
}

func (w *walker) addClauses(crefs []CRef) {
	s := w.solver
nextClause:
	for _, cr := range crefs {
		c := s.ca.deref(cr)
		lits := make([]wlit, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			l := c.Get(i)
			if s.litValue(l) != lUndef && s.level(l.Var()) == 0 {
				if s.litValue(l) == lFalse {
					continue // dead literal
				}
				continue nextClause // clause satisfied at level 0
			}
			sense := int8(1)
			if l.Sign() {
				sense = 0
			}
			lits = append(lits, wlit{clauseNum: int32(w.numClauses), varNum: int32(l.Var() + 1), sense: sense})
		}
		w.clauseLit[w.numClauses] = lits
		w.numClauses++
	}
}

func (w *walker) createSpace(nbClauses int) {
	n, sz := w.numVars, nbClauses
	w.varLit = make([][]wlit, n+1)
	w.clauseLit = make([][]wlit, sz)
	w.score = make([]int, n+1)
	w.timeStamp = make([]int, n+1)
	w.confChange = make([]uint8, n+1)
	w.neighbors = make([][]int32, n+1)
	w.weight = make([]int, sz)
	w.satCount = make([]int, sz)
	w.satVar = make([]int, sz)
	w.unsatStack = make([]int, 0, sz)
	w.indexInUnsatStack = make([]int, sz)
	w.unsatVarStack = make([]int, 0, n+1)
	w.indexInUnsatVar = make([]int, n+1)
	w.unsatAppCount = make([]int, n+1)
	w.goodVarStack = make([]int, 0, n+1)
	w.alreadyGoodVar = make([]uint8, n+1)
	w.curSoln = make([]int8, n+1)
}

// buildNeighborRelation computes, for each variable, the set of variables
// co-occurring with it in some clause.
func (w *walker) buildNeighborRelation() {
	flag := make([]uint8, w.numVars+1)
	for v := 1; v <= w.numVars; v++ {
		w.neighbors[v] = w.neighbors[v][:0]
		for i := range flag {
			flag[i] = 0
		}
		flag[v] = 1
		for _, p := range w.varLit[v] {
			for _, q := range w.clauseLit[p.clauseNum] {
				if flag[q.varNum] == 0 {
					flag[q.varNum] = 1
					w.neighbors[v] = append(w.neighbors[v], q.varNum)
				}
			}
		}
		flag[v] = 0
	}
}

// markUnsat registers clause c as falsified.
func (w *walker) markUnsat(c int) {
	w.indexInUnsatStack[c] = len(w.unsatStack)
	w.unsatStack = append(w.unsatStack, c)
	for _, p := range w.clauseLit[c] {
		v := int(p.varNum)
		w.unsatAppCount[v]++
		if w.unsatAppCount[v] == 1 {
			w.indexInUnsatVar[v] = len(w.unsatVarStack)
			w.unsatVarStack = append(w.unsatVarStack, v)
		}
	}
}

// markSat removes clause c from the falsified set.
func (w *walker) markSat(c int) {
	last := w.unsatStack[len(w.unsatStack)-1]
	w.unsatStack = w.unsatStack[:len(w.unsatStack)-1]
	idx := w.indexInUnsatStack[c]
	if idx < len(w.unsatStack) {
		w.unsatStack[idx] = last
		w.indexInUnsatStack[last] = idx
	}
	for _, p := range w.clauseLit[c] {
		v := int(p.varNum)
		w.unsatAppCount[v]--
		if w.unsatAppCount[v] == 0 {
			lastV := w.unsatVarStack[len(w.unsatVarStack)-1]
			w.unsatVarStack = w.unsatVarStack[:len(w.unsatVarStack)-1]
			i := w.indexInUnsatVar[v]
			if i < len(w.unsatVarStack) {
				w.unsatVarStack[i] = lastV
				w.indexInUnsatVar[lastV] = i
			}
		}
	}
}

// init resets the engine state for a new try. The first try starts from
// the target polarities; later tries (and variables without a target) start
// from the all-true assignment.
func (w *walker) init(try int) {
	s := w.solver
	for c := 0; c < w.numClauses; c++ {
		w.weight[c] = 1
	}
	w.unsatStack = w.unsatStack[:0]
	w.unsatVarStack = w.unsatVarStack[:0]

	if try == 0 {
		for v := 1; v <= w.numVars; v++ {
			if s.targetPolarity[v-1] == targetUnset {
				w.curSoln[v] = 1
			} else if s.targetPolarity[v-1] == 0 {
				w.curSoln[v] = 1
			} else {
				w.curSoln[v] = 0
			}
		}
	} else {
		for v := 1; v <= w.numVars; v++ {
			w.curSoln[v] = 1
		}
	}

	for v := 1; v <= w.numVars; v++ {
		w.timeStamp[v] = 0
		w.confChange[v] = 1
		w.unsatAppCount[v] = 0
	}

	// Figure out satCount and the initial falsified set.
	for c := 0; c < w.numClauses; c++ {
		w.satCount[c] = 0
		for _, p := range w.clauseLit[c] {
			if w.curSoln[p.varNum] == p.sense {
				w.satCount[c]++
				w.satVar[c] = int(p.varNum)
			}
		}
		if w.satCount[c] == 0 {
			w.markUnsat(c)
		}
	}

	// Figure out the variable scores.
	for v := 1; v <= w.numVars; v++ {
		w.score[v] = 0
		for _, p := range w.varLit[v] {
			c := int(p.clauseNum)
			if w.satCount[c] == 0 {
				w.score[v]++
			} else if w.satCount[c] == 1 && p.sense == w.curSoln[v] {
				w.score[v]--
			}
		}
	}

	w.goodVarStack = w.goodVarStack[:0]
	for v := 1; v <= w.numVars; v++ {
		if w.score[v] > 0 {
			w.alreadyGoodVar[v] = 1
			w.goodVarStack = append(w.goodVarStack, v)
		} else {
			w.alreadyGoodVar[v] = 0
		}
	}

	w.timeStamp[0] = 0
	w.bestUnsatThisTry = len(w.unsatStack)
}

// pickVar selects the next variable to flip.
func (w *walker) pickVar() int {
	w.mems += uint64(w.numVars / 8)

	// Greedy mode: best configuration-changed decreasing variable.
	if len(w.goodVarStack) > 0 {
		best := w.goodVarStack[0]
		for _, v := range w.goodVarStack[1:] {
			if w.score[v] > w.score[best] ||
				(w.score[v] == w.score[best] && w.timeStamp[v] < w.timeStamp[best]) {
				best = v
			}
		}
		return best
	}

	// Aspiration: a significant decreasing variable in a falsified clause.
	if w.aspiration {
		best := 0
		i := 0
		for ; i < len(w.unsatVarStack); i++ {
			if w.score[w.unsatVarStack[i]] > w.aveWeight {
				best = w.unsatVarStack[i]
				break
			}
		}
		for i++; i < len(w.unsatVarStack); i++ {
			v := w.unsatVarStack[i]
			if w.score[v] > w.score[best] ||
				(w.score[v] == w.score[best] && w.timeStamp[v] < w.timeStamp[best]) {
				best = v
			}
		}
		if best != 0 {
			return best
		}
	}

	w.updateClauseWeights()

	// Focused random walk: the most constrained variable of a random
	// falsified clause.
	c := w.unsatStack[w.solver.rand.Intn(len(w.unsatStack))]
	lits := w.clauseLit[c]
	best := int(lits[0].varNum)
	for _, p := range lits[1:] {
		v := int(p.varNum)
		if w.unsatAppCount[v] > w.unsatAppCount[best] {
			best = v
		} else if w.unsatAppCount[v] == w.unsatAppCount[best] {
			if w.score[v] > w.score[best] ||
				(w.score[v] == w.score[best] && w.timeStamp[v] < w.timeStamp[best]) {
				best = v
			}
		}
	}
	return best
}

// flip toggles flipvar and updates clause states, scores, the
// configuration-change flags of its neighbors and the good-variable stack.
func (w *walker) flip(flipvar int) {
	w.curSoln[flipvar] = 1 - w.curSoln[flipvar]
	orgScore := w.score[flipvar]

	for _, q := range w.varLit[flipvar] {
		w.mems++
		c := int(q.clauseNum)
		if w.curSoln[flipvar] == q.sense {
			w.satCount[c]++
			switch w.satCount[c] {
			case 2: // from 1 to 2: the previous sat var is free again
				w.score[w.satVar[c]] += w.weight[c]
			case 1: // from 0 to 1
				w.satVar[c] = flipvar
				for _, p := range w.clauseLit[c] {
					w.score[p.varNum] -= w.weight[c]
				}
				w.markSat(c)
			}
		} else {
			w.satCount[c]--
			switch w.satCount[c] {
			case 1: // from 2 to 1: find the remaining sat var
				for _, p := range w.clauseLit[c] {
					if p.sense == w.curSoln[p.varNum] {
						w.score[p.varNum] -= w.weight[c]
						w.satVar[c] = int(p.varNum)
						break
					}
				}
			case 0: // from 1 to 0
				for _, p := range w.clauseLit[c] {
					w.score[p.varNum] += w.weight[c]
				}
				w.markUnsat(c)
			}
		}
	}

	w.score[flipvar] = -orgScore
	w.confChange[flipvar] = 0

	// Remove from the good-variable stack the entries that are no longer
	// good.
	w.mems += uint64(len(w.goodVarStack) / 4)
	for i := len(w.goodVarStack) - 1; i >= 0; i-- {
		v := w.goodVarStack[i]
		if w.score[v] <= 0 {
			last := len(w.goodVarStack) - 1
			w.goodVarStack[i] = w.goodVarStack[last]
			w.goodVarStack = w.goodVarStack[:last]
			w.alreadyGoodVar[v] = 0
		}
	}

	// Flag all neighbors as configuration-changed.
	for _, v2 := range w.neighbors[flipvar] {
		w.confChange[v2] = 1
		if w.score[v2] > 0 && w.alreadyGoodVar[v2] == 0 {
			w.goodVarStack = append(w.goodVarStack, int(v2))
			w.alreadyGoodVar[v2] = 1
		}
	}
	w.mems += uint64(len(w.neighbors[flipvar]) / 4)
}

// updateClauseWeights bumps the weight of every falsified clause and
// smoothes all weights once the average crosses the threshold.
func (w *walker) updateClauseWeights() {
	for _, c := range w.unsatStack {
		w.weight[c]++
	}
	for _, v := range w.unsatVarStack {
		w.score[v] += w.unsatAppCount[v]
		if w.score[v] > 0 && w.confChange[v] == 1 && w.alreadyGoodVar[v] == 0 {
			w.goodVarStack = append(w.goodVarStack, v)
			w.alreadyGoodVar[v] = 1
		}
	}
	w.deltaTotalWeight += len(w.unsatStack)
	if w.deltaTotalWeight >= w.numClauses {
		w.aveWeight++
		w.deltaTotalWeight -= w.numClauses
		if w.aveWeight > w.threshold {
			w.smoothClauseWeights()
		}
	}
}

func (w *walker) smoothClauseWeights() {
	for v := 1; v <= w.numVars; v++ {
		w.score[v] = 0
	}
	newTotalWeight := 0
	w.mems += uint64(w.numClauses)
	for c := 0; c < w.numClauses; c++ {
		w.weight[c] = int(float64(w.weight[c])*w.pScale) + w.scaleAve
		if w.weight[c] < 1 {
			w.weight[c] = 1
		}
		newTotalWeight += w.weight[c]
		if w.satCount[c] == 0 {
			for _, p := range w.clauseLit[c] {
				w.score[p.varNum] += w.weight[c]
			}
		} else if w.satCount[c] == 1 {
			w.score[w.satVar[c]] -= w.weight[c]
		}
	}
	w.aveWeight = newTotalWeight / w.numClauses
}

// localSearch flips until the formula is satisfied or no improvement
// happened for noImprovTimes consecutive flips.
func (w *walker) localSearch(noImprovTimes int64) {
	s := w.solver
	if len(w.unsatStack) == 0 {
		return
	}
	notime := 1 + noImprovTimes
	for notime--; notime > 0; notime-- {
		w.step++
		flipvar := w.pickVar()
		w.flip(flipvar)
		s.Stats.NbFlips++
		w.timeStamp[flipvar] = w.step

		if len(w.unsatStack) < w.bestUnsatThisTry {
			w.bestUnsatThisTry = len(w.unsatStack)
			notime = 1 + noImprovTimes
		}
		if w.bestUnsatEver > len(w.unsatStack) {
			w.bestUnsatEver = len(w.unsatStack)
			for v := 1; v <= w.numVars; v++ {
				if w.curSoln[v] == 0 {
					s.targetPolarity[v-1] = 1
				} else {
					s.targetPolarity[v-1] = 0
				}
			}
		}
		if len(w.unsatStack) == 0 {
			return
		}
	}
}

// solve runs the engine to completion or budget. Sat means the current
// solution satisfies every (non-level-0) problem clause.
func (w *walker) solve() Status {
	s := w.solver
	start := time.Now()
	w.buildInstance()
	s.Stats.NbWalks++
	w.mems = 0
	w.bestUnsatEver = w.numClauses

	w.buildNeighborRelation()
	w.scaleAve = int(float64(w.threshold+1) * w.qScale)

	for try := 0; try <= w.maxTries; try++ {
		w.init(try)
		w.localSearch(w.lsNoImprovTimes)
		if len(w.unsatStack) == 0 {
			s.solvedByLS = true
			break
		}
		if w.mems > w.memsLimit {
			break
		}
	}
	s.Stats.WalkSeconds += uint64(time.Since(start).Seconds())

	if len(w.unsatStack) == 0 {
		return Sat
	}
	w.bumpScores()
	return Indet
}

// assignedTrue reports the walker's current binding of v.
func (w *walker) assignedTrue(v Var) bool {
	return w.curSoln[int(v)+1] == 1
}

// bumpScores bumps the VSIDS activity of the variables appearing in the
// heaviest falsified clauses. The scan repeatedly selects the heaviest
// unseen clause; the quadratic cost is bounded by the caps on clauses and
// variables.
func (w *walker) bumpScores() {
	s := w.solver
	seenVars := make([]int, w.numVars+1)
	seenClauses := make([]uint8, w.numClauses+1)
	nb := 0
	for {
		if nb >= 100 || nb > w.numVars {
			return
		}
		best, clauseToBump := -1, -1
		for c := 0; c < w.numClauses; c++ {
			if seenClauses[c] == 1 {
				continue
			}
			if w.weight[c] > best {
				best = w.weight[c]
				clauseToBump = c
			}
		}
		if clauseToBump == -1 || best == -1 {
			return
		}
		for _, p := range w.clauseLit[clauseToBump] {
			v := int(p.varNum)
			if seenVars[v] >= 100 {
				continue
			}
			s.varBumpActivity(Var(v - 1))
			seenVars[v]++
			nb++
		}
		seenClauses[clauseToBump] = 1
	}
}
