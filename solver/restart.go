package solver

import "math"

// An ema is an exponential moving average with the "robust initialization"
// of Cadical: beta starts at 1 and is halved periodically until it reaches
// alpha, so early samples are not drowned by the initial value.
type ema struct {
	value  float64
	alpha  float64
	beta   float64
	wait   uint
	period uint
}

func newEMA(alpha float64) ema {
	return ema{value: 1, alpha: alpha, beta: 1, wait: 1, period: 1}
}

func (e *ema) update(next float64) {
	e.value += e.beta * (next - e.value)
	if e.beta > e.alpha {
		e.wait--
		if e.wait == 0 {
			e.period *= 2
			e.wait = e.period
			e.beta *= 0.5
			if e.beta < e.alpha {
				e.beta = e.alpha
			}
		}
	}
}

// A restarter decides when the search should restart. Both strategies can
// be swapped at runtime by the mode switcher and the adaptive retune.
type restarter interface {
	// triggerRestart returns true when a restart should happen now.
	triggerRestart() bool
	// blockRestart postpones the next restart when the current assignment
	// looks promising. It returns false when the restart was blocked.
	blockRestart() bool
}

// glucoseRestart triggers a restart when the short-term LBD average
// exceeds the long-term one, and blocks restarts when the trail is much
// larger than usual.
type glucoseRestart struct {
	solver *Solver

	minimumConflicts         uint64
	minimumConflictsForBlock uint64
	emaLbdNarrow             ema
	emaLbdWide               ema
	emaTrailWide             ema
	lastTrailSize            int
	force                    float64 // 1.25
	block                    float64 // 1.4

	nbRestarts uint
	nbBlocked  uint
}

func newGlucoseRestart(s *Solver) *glucoseRestart {
	return &glucoseRestart{
		solver:                   s,
		minimumConflicts:         50,
		minimumConflictsForBlock: 10000,
		emaLbdNarrow:             newEMA(3e-2),
		emaLbdWide:               newEMA(1e-5),
		emaTrailWide:             newEMA(3e-4),
		force:                    1.25,
		block:                    1.4,
	}
}

// update feeds the averages with the latest conflict data.
func (g *glucoseRestart) update(trailSize, lbd int) {
	g.emaTrailWide.update(float64(trailSize))
	g.lastTrailSize = trailSize
	g.emaLbdNarrow.update(float64(lbd))
	g.emaLbdWide.update(float64(lbd))
}

func (g *glucoseRestart) blockRestart() bool {
	if float64(g.lastTrailSize) > g.block*g.emaTrailWide.value &&
		g.solver.Stats.Conflicts >= g.minimumConflictsForBlock {
		g.minimumConflicts = g.solver.Stats.Conflicts + 50
		g.nbBlocked++
		return false
	}
	return true
}

func (g *glucoseRestart) triggerRestart() bool {
	if g.solver.Stats.Conflicts < g.minimumConflicts {
		return false
	}
	if g.emaLbdNarrow.value/g.emaLbdWide.value > g.force {
		g.nbRestarts++
		g.minimumConflicts = g.solver.Stats.Conflicts + 50
		return true
	}
	return false
}

// lubyRestart restarts on the Luby sequence scaled by a base step.
type lubyRestart struct {
	solver *Solver

	step         uint
	currRestarts uint
	limit        uint64

	nbRestarts uint
}

func newLubyRestart(s *Solver) *lubyRestart {
	return &lubyRestart{solver: s, step: 100, limit: 100}
}

func (l *lubyRestart) triggerRestart() bool {
	if l.solver.Stats.Conflicts <= l.limit {
		return false
	}
	l.limit = l.solver.Stats.Conflicts + uint64(luby(2, l.currRestarts)*float64(l.step))
	l.currRestarts++
	l.nbRestarts++
	return true
}

func (l *lubyRestart) blockRestart() bool { return true }

// luby returns the x-th element of the Luby sequence with factor y:
// 1 1 2 1 1 2 4 1 1 2 1 1 2 4 8 ...
func luby(y float64, x uint) float64 {
	// Find the finite subsequence that contains index x, and the size of
	// that subsequence.
	var size, seq uint
	for size, seq = 1, 0; size < x+1; seq, size = seq+1, 2*size+1 {
	}
	for size-1 != x {
		size = (size - 1) >> 1
		seq--
		x = x % size
	}
	return math.Pow(y, float64(seq))
}
