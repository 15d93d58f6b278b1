package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/audemard/glucose/parallel"
	"github.com/audemard/glucose/solver"
)

// Exit codes, in the SAT competition tradition.
const (
	exitSat   = 10
	exitUnsat = 20
	exitUndef = 0
)

func main() {
	os.Exit(run())
}

func run() int {
	debug.SetGCPercent(300)

	var (
		verb      = flag.Int("verb", 1, "verbosity level (0=silent, 1=some, 2=more)")
		showModel = flag.Bool("model", false, "show model")
		cpuLim    = flag.Int("cpu-lim", 0, "limit on wall-clock time allowed in seconds, not CPU time (0=none)")
		memLim    = flag.Int("mem-lim", 0, "limit on memory usage in megabytes (0=none)")

		varDecay    = flag.Float64("var-decay", 0.95, "the variable activity decay factor")
		claDecay    = flag.Float64("cla-decay", 0.999, "the clause activity decay factor")
		rndFreq     = flag.Float64("rnd-freq", 0, "the frequency with which the decision heuristic tries to choose a random variable")
		rndSeed     = flag.Uint32("rnd-seed", 91648253, "seed used by the random variable selection")
		ccminMode   = flag.Int("ccmin-mode", 2, "controls conflict clause minimization (0=none, 1=basic, 2=deep)")
		phaseSaving = flag.Int("phase-saving", 2, "controls the level of phase saving (0=none, 1=limited, 2=full)")
		rndInit     = flag.Bool("rnd-init", false, "randomize the initial activity")
		gcFrac      = flag.Float64("gc-frac", 0.20, "the fraction of wasted memory allowed before a garbage collection is triggered")
		restart     = flag.Int("restart", 0, "restart mode (0=glucose, 1=luby)")
		reduce      = flag.Int("reduce", 1, "reduce mode (0=glucose, 1=core/tiers/local)")
		search      = flag.Int("search", 0, "search mode (0=target, 1=focus, 2=stable)")
		walk        = flag.Bool("walk", true, "use random walk (ccanr)")
		lcm         = flag.Bool("lcm", true, "use inprocessing vivification")
		saveTrail   = flag.Bool("savetrail", false, "save trail on backjumps")
		selfSub     = flag.Bool("self-sub", false, "use self subsumption")
		binRes      = flag.Bool("bin-res", false, "minimize learnt clauses by binary resolution")
		adapt       = flag.Bool("adapt", false, "adapt strategies after 100000 conflicts")

		certified     = flag.Bool("certified", false, "certified UNSAT using the DRAT format")
		certifiedFile = flag.String("certified-output", "", "certified UNSAT output file (stdout when empty)")
		vbyte         = flag.Bool("vbyte", false, "emit proof in variable-byte encoding")

		ncores = flag.Int("ncores", 1, "number of cores")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *verb >= 2 {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Syntax: %s [options] file.cnf\n", os.Args[0])
		flag.PrintDefaults()
		return 1
	}

	cfg := solver.DefaultConfig()
	cfg.VarDecay = *varDecay
	cfg.ClauseDecay = *claDecay
	cfg.RandomVarFreq = *rndFreq
	cfg.RandomSeed = *rndSeed
	cfg.CcminMode = *ccminMode
	cfg.PhaseSaving = *phaseSaving
	cfg.RndInitAct = *rndInit
	cfg.GarbageFrac = *gcFrac
	cfg.Restart = *restart
	cfg.Reduce = *reduce
	cfg.Search = *search
	cfg.Walk = *walk
	cfg.LCM = *lcm
	cfg.SaveTrail = *saveTrail
	cfg.SelfSubsumption = *selfSub
	cfg.BinResolution = *binRes
	cfg.Adapt = *adapt
	cfg.Verbosity = *verb

	var proofFile *os.File
	if *certified {
		cfg.Certified = true
		cfg.VByte = *vbyte
		if *certifiedFile != "" {
			f, err := os.Create(*certifiedFile)
			if err != nil {
				log.Errorf("could not open certified output: %v", err)
				return 1
			}
			proofFile = f
			cfg.CertifiedOutput = f
			fmt.Printf("c\nc Write unsat proof on %s using %s format\nc\n", *certifiedFile, encodingName(*vbyte))
		} else {
			cfg.VByte = false // cannot write binary to stdout
			cfg.CertifiedOutput = os.Stdout
			fmt.Printf("c\nc Write unsat proof on stdout using text format\nc\n")
		}
		if *ncores != 1 {
			log.Warn("certified output forces single-core solving")
			*ncores = 1
		}
	}
	defer func() {
		if proofFile != nil {
			proofFile.Close()
		}
	}()

	if *memLim > 0 {
		debug.SetMemoryLimit(int64(*memLim) << 20)
	}

	s := solver.New(cfg)
	s.SetLogger(log)

	path := flag.Arg(0)
	fmt.Printf("c\nc This is glucose reboot -- based on MiniSAT (Many thanks to MiniSAT team)\nc\n")
	f, err := os.Open(path)
	if err != nil {
		log.Errorf("could not open %q: %v", path, err)
		return 1
	}
	start := time.Now()
	err = solver.ParseCNF(f, s)
	f.Close()
	if err != nil {
		log.Errorf("could not parse %q: %v", path, err)
		return 1
	}
	if *verb >= 1 {
		fmt.Printf("c |  Number of variables:  %12d\n", s.NbVars())
		fmt.Printf("c |  Number of clauses:    %12d\n", s.NbClauses())
		fmt.Printf("c |  Parse time:           %12.2fs\n", time.Since(start).Seconds())
	}

	if !s.Okay() {
		s.Solve() // finalizes the proof with the empty clause
		if *verb >= 1 {
			fmt.Printf("c solved by simplification\n")
		}
		fmt.Println("s UNSATISFIABLE")
		return exitUnsat
	}

	describe(s, *ncores)

	var portfolio *parallel.Portfolio
	if *ncores != 1 {
		portfolio = parallel.New(s, *ncores)
	}

	interruptOnSignals(s, portfolio)
	if *cpuLim > 0 {
		time.AfterFunc(time.Duration(*cpuLim)*time.Second, func() {
			fmt.Printf("c *** TIME LIMIT ***\n")
			if portfolio != nil {
				portfolio.Interrupt()
			} else {
				s.Interrupt()
			}
		})
	}

	var status solver.Status
	winner := s
	if portfolio != nil {
		status = portfolio.Solve()
		if w := portfolio.Winner(); w != nil {
			winner = w
		}
	} else {
		status = s.Solve()
	}

	if *verb >= 1 {
		winner.PrintStats()
	}
	fmt.Printf("s %s\n", status)
	if *showModel && status == solver.Sat {
		var sb strings.Builder
		winner.OutputModel(&sb)
		fmt.Print(sb.String())
	}

	switch status {
	case solver.Sat:
		return exitSat
	case solver.Unsat:
		return exitUnsat
	default:
		return exitUndef
	}
}

func describe(s *solver.Solver, ncores int) {
	cfg := s.Config()
	if cfg.LCM {
		fmt.Printf("c enable lazy clause minimisation\n")
	}
	if cfg.Reduce == solver.ReduceGlucose {
		fmt.Printf("c original glucose learnt clause manager\n")
	} else {
		fmt.Printf("c 3-tiers learnt clause manager\n")
	}
	if cfg.SaveTrail {
		fmt.Printf("c enable trail saving\n")
	}
	switch cfg.Search {
	case solver.SearchTarget:
		fmt.Printf("c Target phase\n")
	case solver.SearchStable:
		fmt.Printf("c stable phase\n")
	case solver.SearchFocus:
		fmt.Printf("c focus phase\n")
	}
	if ncores != 1 {
		fmt.Printf("c multithreaded solving on %d cores\n", ncores)
	}
}

func encodingName(vbyte bool) string {
	if vbyte {
		return "binary"
	}
	return "text"
}

// interruptOnSignals makes the solver return Indet at the next checkpoint
// when the process is asked to terminate.
func interruptOnSignals(s *solver.Solver, p *parallel.Portfolio) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		fmt.Printf("\nc *** INTERRUPTED ***\n")
		if p != nil {
			p.Interrupt()
		} else {
			s.Interrupt()
		}
	}()
}
