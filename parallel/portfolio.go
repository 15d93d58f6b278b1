// Package parallel runs several diversified clones of a solver on the same
// formula and returns the first definitive answer. The clones exchange
// unit literals, very good ("two-watched") learnt clauses and candidate
// ("one-watched") clauses through typed channels; imported candidates live
// in the receiving solver's purgatory until they prove useful.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/audemard/glucose/solver"
)

const inboxCapacity = 10000

// A Portfolio owns a group of solvers working on the same formula.
type Portfolio struct {
	solvers  []*solver.Solver
	inboxes  []inbox
	stop     atomic.Bool
	winnerMu sync.Mutex
	winner   int
	status   solver.Status
}

type inbox struct {
	units chan solver.Lit
	two   chan []solver.Lit
	one   chan []solver.Lit
}

// New builds a portfolio of ncores solvers: the original plus diversified
// clones. ncores == 0 uses every available CPU.
func New(original *solver.Solver, ncores int) *Portfolio {
	if ncores <= 0 {
		ncores = runtime.NumCPU()
	}
	p := &Portfolio{winner: -1}
	p.solvers = append(p.solvers, original)
	for i := 1; i < ncores; i++ {
		p.solvers = append(p.solvers, original.Clone(cloneConfig(original.Config(), i)))
	}
	p.diversify(original)
	p.wire()
	return p
}

// cloneConfig derives the configuration of clone i from the original's.
// Solver 1 is a glucose-like solver: forced glucose restarts, focus-only
// search and the single-list reducer.
func cloneConfig(cfg solver.Config, i int) solver.Config {
	if i == 1 {
		cfg.Restart = solver.RestartGlucose
		cfg.Search = solver.SearchFocus
		cfg.Reduce = solver.ReduceGlucose
	}
	cfg.RandomSeed = cfg.RandomSeed * uint32(i+1)
	cfg.Verbosity = -1 // only the original solver traces its search
	return cfg
}

// diversify spreads the clones over the rephasing space and randomizes
// their first descent.
func (p *Portfolio) diversify(original *solver.Solver) {
	walk := original.Config().Walk && original.NbVars() < solver.MaxVariablesForWalker
	if len(p.solvers) >= 3 {
		if walk {
			p.solvers[2].CreateRephaseSequence("OB WB IB WB RB F")
		} else {
			p.solvers[2].CreateRephaseSequence("OB IB RB F")
		}
	}
	if len(p.solvers) >= 7 {
		if walk {
			p.solvers[6].CreateRephaseSequence("IB WB OB WB RB F")
		} else {
			p.solvers[6].CreateRephaseSequence("IB OB RB F")
		}
	}
	for i := 1; i < len(p.solvers); i++ {
		p.solvers[i].RandomizeFirstDescent()
	}
}

// wire connects each solver to the inboxes of all the others.
func (p *Portfolio) wire() {
	p.inboxes = make([]inbox, len(p.solvers))
	for i := range p.inboxes {
		p.inboxes[i] = inbox{
			units: make(chan solver.Lit, inboxCapacity),
			two:   make(chan []solver.Lit, inboxCapacity),
			one:   make(chan []solver.Lit, inboxCapacity),
		}
	}
	for i, s := range p.solvers {
		i := i
		s.SetExchange(&solver.Exchange{
			Units:      p.inboxes[i].units,
			TwoWatched: p.inboxes[i].two,
			OneWatched: p.inboxes[i].one,
			Stop:       &p.stop,
			Export: func(kind solver.ExportKind, lits []solver.Lit) {
				p.broadcast(i, kind, lits)
			},
		})
	}
}

// broadcast fans an export out to every other solver's inbox. Each
// receiver gets its own copy of the literal list. Sends never block: a
// full inbox drops the clause, which is sound (exchanged clauses are
// redundant).
func (p *Portfolio) broadcast(from int, kind solver.ExportKind, lits []solver.Lit) {
	for i := range p.inboxes {
		if i == from {
			continue
		}
		switch kind {
		case solver.ExportUnit:
			select {
			case p.inboxes[i].units <- lits[0]:
			default:
			}
		case solver.ExportTwoWatched:
			cp := append([]solver.Lit(nil), lits...)
			select {
			case p.inboxes[i].two <- cp:
			default:
			}
		case solver.ExportOneWatched:
			cp := append([]solver.Lit(nil), lits...)
			select {
			case p.inboxes[i].one <- cp:
			default:
			}
		}
	}
}

// Solve runs every solver concurrently and returns the first definitive
// answer. The remaining solvers observe the stop flag at their next
// checkpoint and return.
func (p *Portfolio) Solve() solver.Status {
	var g errgroup.Group
	for i, s := range p.solvers {
		i, s := i, s
		g.Go(func() error {
			status := s.Solve()
			if status != solver.Indet {
				p.winnerMu.Lock()
				if p.winner == -1 {
					p.winner = i
					p.status = status
					p.stop.Store(true)
				}
				p.winnerMu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	if p.winner == -1 {
		return solver.Indet
	}
	return p.status
}

// Winner returns the solver that produced the answer, or nil when the
// portfolio was stopped before any solver finished.
func (p *Portfolio) Winner() *solver.Solver {
	if p.winner == -1 {
		return nil
	}
	return p.solvers[p.winner]
}

// Interrupt stops every solver at its next checkpoint.
func (p *Portfolio) Interrupt() {
	p.stop.Store(true)
	for _, s := range p.solvers {
		s.Interrupt()
	}
}

// NbSolvers returns the size of the portfolio.
func (p *Portfolio) NbSolvers() int { return len(p.solvers) }
