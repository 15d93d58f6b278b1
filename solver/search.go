package solver

import "fmt"

// search runs CDCL iterations until a restart is triggered, the problem is
// decided, or the budget runs out.
func (s *Solver) search() Status {
	s.Stats.Starts++
	learntClause := make([]Lit, 0, 32)
	aDecisionWasMade := false

	if s.cfg.LCM && s.manager.performLCM() && !s.simplifyAll() {
		return Unsat
	}

	for {
		if s.exchange != nil {
			if s.exchange.stopped() {
				return Indet
			}
			if s.decisionLevel() == 0 && !s.importClauses() {
				return Unsat
			}
		}

		confl := s.propagate()
		if confl != CRefUndef { // CONFLICT
			s.Stats.Conflicts++
			if s.decisionLevel() == 0 {
				return Unsat
			}

			if !aDecisionWasMade {
				s.Stats.NoDecisionConflict++
			}
			aDecisionWasMade = false

			var btLevel int
			learntClause, btLevel = s.analyze(confl, learntClause)
			lbd := s.computeLBD(learntClause)

			// UPDATEVARACTIVITY trick (see competition'09 companion paper)
			if (s.searchMode == modeFocus || s.searchMode == modeOnlyFocus) && len(s.lastDecisionLevel) > 0 {
				for _, l := range s.lastDecisionLevel {
					if s.ca.deref(s.reason(l.Var())).LBD() < lbd {
						s.varBumpActivity(l.Var())
					}
				}
			}

			s.glucoseRestart.update(len(s.trail), lbd)
			s.restart.blockRestart()

			if s.searchMode == modeStable || s.searchMode == modeOnlyStable {
				s.target.updateBestPhase()
			}

			s.cancelUntil(btLevel)

			if len(learntClause) == 1 {
				s.uncheckedEnqueue(learntClause[0], CRefUndef)
				s.Stats.NbUn++
				if s.exchange != nil {
					s.exportUnary(learntClause[0])
				}
			} else {
				cr := s.ca.alloc(learntClause, true)
				c := s.ca.deref(cr)
				c.SetLBD(lbd)
				s.attachClause(cr)
				s.claBumpActivity(c)
				s.manager.add(cr)
				if lbd == 2 {
					s.Stats.NbGlues++
				}
				if len(learntClause) == 2 {
					s.Stats.NbBin++
				}
				s.uncheckedEnqueue(learntClause[0], cr)
				if s.exchange != nil {
					s.exportClauseDuringSearch(c)
				}
			}

			if s.proof != nil {
				s.proof.addClause(learntClause)
			}

			s.varDecayActivity()
			s.claDecayActivity()

			if s.Stats.Conflicts%10000 == 0 && s.cfg.Verbosity >= 1 {
				s.printCurrentSearchSpace()
			}

			if s.adaptStrategies && s.Stats.Conflicts == 100000 && s.adaptSolver() {
				s.cancelUntil(0)
				return Indet
			}
		} else { // NO CONFLICT
			if s.restart.triggerRestart() || !s.withinBudget() {
				// Reached a bound on the number of conflicts.
				s.progressEst = s.progressEstimate()
				s.cancelUntil(0)
				return Indet
			}

			if (s.searchMode == modeStable || s.searchMode == modeOnlyStable) && s.target.rephasing() {
				if st := s.target.rephase(); st != Indet {
					s.log.Info("solved by local search engine")
					return st
				}
			}

			if s.decisionLevel() == 0 && !s.simplify() {
				return Unsat
			}

			if s.manager.triggerReduce() {
				s.manager.reduce()
			}

			next := LitUndef
			for s.decisionLevel() < len(s.assumptions) {
				// Perform user provided assumption.
				p := s.assumptions[s.decisionLevel()]
				switch s.litValue(p) {
				case lTrue:
					s.newDecisionLevel() // dummy decision level
					continue
				case lFalse:
					s.analyzeFinal(p.Negation())
					return Unsat
				default:
					next = p
				}
				break
			}

			if next == LitUndef {
				// New variable decision.
				s.Stats.Decisions++
				next = s.pickBranchLit()
				if next == LitUndef { // model found
					return Sat
				}
			}

			if (s.searchMode == modeFocus || s.searchMode == modeStable) && s.ticks > s.nextChangingPhase {
				s.nextChangingPhase = s.ticks + s.nbChangingPhase*15000000
				s.nbChangingPhase++
				s.changeMode()
			}

			// Increase decision level and enqueue next.
			aDecisionWasMade = true
			s.newDecisionLevel()
			s.uncheckedEnqueue(next, CRefUndef)
		}
	}
}

// pickBranchLit returns the next decision literal, or LitUndef when all
// variables are assigned.
func (s *Solver) pickBranchLit() Lit {
	next := VarUndef

	// Random decision.
	if ((s.randomizeFirstDescent && s.Stats.Conflicts == 0) || s.rand.Float64() < s.cfg.RandomVarFreq) && !s.order.empty() {
		next = s.order.get(s.rand.Intn(s.order.len()))
		if s.value(next) == lUndef && s.decision[next] {
			s.Stats.RndDecisions++
		}
	}

	// Activity based decision.
	for next == VarUndef || s.value(next) != lUndef || !s.decision[next] {
		if s.order.empty() {
			next = VarUndef
			break
		}
		next = s.order.removeMin()
	}

	if next == VarUndef {
		return LitUndef
	}
	return MkLit(next, s.pickPolarity(next))
}

// pickPolarity returns the sign to branch with for x: the target polarity
// in stable search, the saved phase otherwise.
func (s *Solver) pickPolarity(x Var) bool {
	if s.cfg.RndPol {
		return s.rand.Float64() < 0.5
	}
	if s.searchMode == modeFocus || s.searchMode == modeOnlyFocus || s.targetPolarity[x] == targetUnset {
		return s.polarity[x]
	}
	return s.targetPolarity[x] != 0
}

// changeMode toggles between the focus and stable regimes.
func (s *Solver) changeMode() {
	if s.searchMode == modeStable {
		s.log.Debug("switch to focus mode")
		s.restart = s.glucoseRestart
		s.varDecay = 0.95
		s.searchMode = modeFocus
		s.phasesUsed.WriteString(") - Focus ")
	} else if s.searchMode == modeFocus {
		s.log.Debug("switch to stable mode")
		s.restart = s.lubyRestart
		s.varDecay = 0.75
		s.searchMode = modeStable
		s.target.reset()
		s.phasesUsed.WriteString(" - Stable(")
	}
}

// adaptSolver retunes the solver once, at 100,000 conflicts, based on the
// shape of the search so far. It returns true when the strategy changed.
func (s *Solver) adaptSolver() bool {
	s.adaptStrategies = false
	decpc := float64(s.Stats.Decisions) / float64(s.Stats.Conflicts)
	if decpc <= 1.2 {
		s.log.Info("adjusting for low decision levels")
		s.restart = s.glucoseRestart
		s.searchMode = modeOnlyFocus
		if m, ok := s.manager.(*tiersManager); ok {
			m.coreUB = 5
		}
		return true
	}
	if s.Stats.NoDecisionConflict < 30000 {
		s.log.Info("adjusting for low successive conflicts")
		s.restart = s.lubyRestart
		s.searchMode = modeOnlyFocus
		s.varDecay = 0.999
		return true
	}
	return false
}

// Solve searches for a model without assumptions. It returns Sat, Unsat or,
// when a budget was exhausted or the solver interrupted, Indet.
func (s *Solver) Solve() Status {
	s.BudgetOff()
	s.assumptions = s.assumptions[:0]
	return s.solve()
}

// SolveWithAssumptions searches for a model that respects the given
// assumptions. When Unsat is returned, Conflict() gives the final conflict
// clause: the negations of the assumptions responsible.
func (s *Solver) SolveWithAssumptions(assumps []Lit) Status {
	s.BudgetOff()
	s.assumptions = append(s.assumptions[:0], assumps...)
	return s.solve()
}

// SolveLimited is SolveWithAssumptions honoring the conflict and
// propagation budgets previously set.
func (s *Solver) SolveLimited(assumps []Lit) Status {
	s.assumptions = append(s.assumptions[:0], assumps...)
	return s.solve()
}

func (s *Solver) solve() Status {
	s.model = nil
	s.conflict = s.conflict[:0]
	if !s.ok {
		if s.proof != nil {
			s.proof.addEmpty()
			s.proof.flush()
			s.proof = nil
		}
		return Unsat
	}

	s.Stats.Solves++
	if s.target != nil {
		s.target.initialize()
	}
	s.trailSaver.initialize()
	s.manager.init()

	if s.cfg.Verbosity >= 1 {
		s.printHeaderCurrentSearchSpace()
	}

	status := Indet
	for status == Indet {
		status = s.search()
		if !s.withinBudget() {
			break
		}
		if s.exchange != nil && s.exchange.stopped() {
			return Indet
		}
	}

	if s.proof != nil && status == Unsat {
		s.proof.addEmpty()
		s.proof.flush()
		s.proof = nil // the certificate is complete
	}

	switch status {
	case Sat:
		s.model = make([]lbool, s.NbVars())
		if s.solvedByLS {
			s.log.Info("solved by local search engine")
			for i := Var(0); int(i) < s.NbVars(); i++ {
				if s.value(i) != lUndef && s.level(i) == 0 {
					s.model[i] = s.value(i)
				} else if s.target.walker.assignedTrue(i) {
					s.model[i] = lTrue
				} else {
					s.model[i] = lFalse
				}
			}
		} else {
			for i := Var(0); int(i) < s.NbVars(); i++ {
				s.model[i] = s.value(i)
			}
		}
	case Unsat:
		if len(s.conflict) == 0 {
			s.ok = false
		}
	}
	s.cancelUntil(0)
	return status
}

// Progress reporting, in the DIMACS comment-line tradition.

func (s *Solver) printHeaderCurrentSearchSpace() {
	fmt.Printf("c %15s %15s %10s %30s %15s %15s\n", "conflicts", "Restarts", "Red", "Learnts", "Removed", "Progress")
}

func (s *Solver) printCurrentSearchSpace() {
	learnts := fmt.Sprintf("(%d/%d/%d)", len(s.learntsCore), len(s.learntsTiers), len(s.learntsLocal))
	fmt.Printf("c %15d %15d %10d %30s %15d %15.4g\n",
		s.Stats.Conflicts,
		s.glucoseRestart.nbRestarts+s.lubyRestart.nbRestarts,
		s.manager.nbReduced(),
		learnts,
		s.manager.nbRemoved(),
		s.progressEstimate()*100)
}

// PrintStats writes the final statistics report as "c" comment lines.
func (s *Solver) PrintStats() {
	nbRestarts := s.glucoseRestart.nbRestarts + s.lubyRestart.nbRestarts
	avg := uint64(0)
	if nbRestarts > 0 {
		avg = s.Stats.Conflicts / uint64(nbRestarts)
	}
	fmt.Printf("c restarts              : %d (in average: %d)\n", nbRestarts, avg)
	if s.glucoseRestart.nbRestarts > 0 {
		fmt.Printf("c Glucose restarts      : %d - blocked : %d\n", s.glucoseRestart.nbRestarts, s.glucoseRestart.nbBlocked)
	} else {
		fmt.Printf("c no Glucose restarts\n")
	}
	fmt.Printf("c nb ReduceDB           : %d\n", s.manager.nbReduced())
	fmt.Printf("c nb removed            : %d\n", s.manager.nbRemoved())
	fmt.Printf("c nb learnts glue       : %d\n", s.Stats.NbGlues)
	fmt.Printf("c nb learnts size 2     : %d\n", s.Stats.NbBin)
	fmt.Printf("c nb learnts size 1     : %d\n", s.Stats.NbUn)
	fmt.Printf("c conflicts             : %d\n", s.Stats.Conflicts)
	fmt.Printf("c decisions             : %d (%d random)\n", s.Stats.Decisions, s.Stats.RndDecisions)
	fmt.Printf("c propagations          : %d\n", s.Stats.Propagations)
	fmt.Printf("c nb modes              : %d\n", s.nbChangingPhase)
	fmt.Printf("c sequence              : %s\n", s.phasesUsed.String())
	fmt.Printf("c LCM                   : %d / %d\n", s.Stats.LCMReduced, s.Stats.LCMTested)
	fmt.Printf("c bin resolution        : %d\n", s.Stats.NbReducedClauses)
	fmt.Printf("c self subsumptions     : %d\n", s.Stats.NbSelfSubsumptions)
	if s.cfg.Walk {
		fmt.Printf("c nb flips during walks : %d\n", s.Stats.NbFlips)
		fmt.Printf("c walk time             : %d s (%d walks)\n", s.Stats.WalkSeconds, s.Stats.NbWalks)
	}
	if s.exchange != nil {
		fmt.Printf("c unary Imported        : %d\n", s.PStats.ImportedUnits)
		fmt.Printf("c unary Exported        : %d\n", s.PStats.ExportedUnits)
		fmt.Printf("c 2W    Imported        : %d\n", s.PStats.ImportedTwoWatched)
		fmt.Printf("c 2W    Exported        : %d\n", s.PStats.ExportedTwoWatched)
		fmt.Printf("c 1W    Imported        : %d\n", s.PStats.ImportedOneWatched)
		fmt.Printf("c 1W    Exported        : %d\n", s.PStats.ExportedOneWatched)
		fmt.Printf("c Good  Imported        : %d\n", s.PStats.GoodImported)
		fmt.Printf("c 1W    removed         : %d\n", s.PStats.RemovedInPurgatory)
	}
}
