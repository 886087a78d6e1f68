package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/automatic"
	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/grid"
	"github.com/domino14/crossfill/render"
	"github.com/domino14/crossfill/solver"
	"github.com/domino14/crossfill/store"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) FloatDefault(key string, defaultF float64) (float64, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultF, nil
	}
	return strconv.ParseFloat(v[0], 64)
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.options.ToDisplayText()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		_, val := sc.options.Show(opt)
		return msg(val), nil
	}
	values := cmd.args[1:]
	ret, err := sc.Set(opt, values)
	if err != nil {
		return nil, err
	}
	return msg("set " + opt + " to " + ret), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		settings := sc.config.SanitizedSettings()
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var str strings.Builder
		for _, k := range keys {
			str.WriteString(fmt.Sprintf("%s: %v\n", k, settings[k]))
		}
		return msg(str.String()), nil
	}
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}

	key := cmd.args[0]
	value := cmd.args[1]

	sc.config.Set(key, value)

	// Save the configuration to file
	err := sc.config.Write()
	if err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	return msg(fmt.Sprintf("set config %s to %s and saved to file", key, value)), nil
}

// setStructure rebuilds the puzzle and a fresh solver for a structure.
func (sc *ShellController) setStructure(text, name string) (*Response, error) {
	lex, err := sc.ensureLexicon()
	if err != nil {
		return nil, err
	}
	g, err := grid.ParseStructureString(text)
	if err != nil {
		return nil, err
	}
	p, err := grid.NewPuzzle(g, lex.Words())
	if err != nil {
		return nil, err
	}
	sc.puzzle = p
	sc.structure = g.String()
	sc.structName = name
	sc.lastFill = nil
	sc.solver = new(solver.Solver)
	if err = sc.solver.Init(p); err != nil {
		return nil, err
	}
	return msg(render.ToDisplayText(p, nil)), nil
}

func (sc *ShellController) newPuzzle(cmd *shellcmd) (*Response, error) {
	if sc.solving() {
		return nil, errCrossfillSolving
	}
	rows, err := cmd.options.IntDefault("rows", 5)
	if err != nil {
		return nil, err
	}
	cols, err := cmd.options.IntDefault("cols", 5)
	if err != nil {
		return nil, err
	}
	ratio, err := cmd.options.FloatDefault("blocks", 0.2)
	if err != nil {
		return nil, err
	}
	return sc.setStructure(automatic.RandomStructure(rows, cols, ratio), "random")
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for load")
	}
	if sc.solving() {
		return nil, errCrossfillSolving
	}

	if cmd.args[0] == "text" {
		if len(cmd.args) < 2 {
			return nil, errors.New("need to provide structure rows")
		}
		return sc.setStructure(strings.Join(cmd.args[1:], "\n"), "inline")
	}
	name := cmd.args[0]
	path := name
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(sc.config.GetString(config.ConfigStructurePath), name+".txt")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return sc.setStructure(string(data), name)
}

func (sc *ShellController) unload(cmd *shellcmd) (*Response, error) {
	if sc.solving() {
		return nil, errCrossfillSolving
	}
	sc.puzzle = nil
	sc.structure = ""
	sc.structName = ""
	sc.lastFill = nil
	sc.solver = nil
	return msg("No active puzzle."), nil
}

func (sc *ShellController) lexiconCmd(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		lex, err := sc.ensureLexicon()
		if err != nil {
			return nil, err
		}
		return msg(fmt.Sprintf("%s (%d words)", lex.Name(), lex.NumWords())), nil
	}
	ret, err := sc.Set("lexicon", cmd.args)
	if err != nil {
		return nil, err
	}
	return msg("set lexicon to " + ret), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.puzzle == nil {
		return nil, errNoPuzzle
	}
	output := render.ToDisplayText(sc.puzzle, sc.lastFill)
	output += fmt.Sprintf("\n[%s, %d slots, lexicon %s]",
		sc.structName, len(sc.puzzle.Slots()), sc.options.Lexicon)
	return msg(output), nil
}

type solveParams struct {
	maxtime int
}

func (sc *ShellController) solvePrepare(cmd *shellcmd) (*solveParams, error) {
	if sc.puzzle == nil {
		return nil, errNoPuzzle
	}
	if sc.solving() {
		return nil, errCrossfillSolving
	}

	var err error
	params := &solveParams{}
	if params.maxtime, err = cmd.options.IntDefault("maxtime", sc.options.TimeoutSecs); err != nil {
		return nil, err
	}

	// The previous solve's domains go with its solver; gc takes the rest.
	sc.solver = new(solver.Solver)
	if err = sc.solver.Init(sc.puzzle); err != nil {
		return nil, err
	}

	if cmd.options.Bool("log") {
		sc.solveLogFile, err = os.Create(SolveLog)
		if err != nil {
			return nil, err
		}
		sc.solver.SetLogStream(sc.solveLogFile)
		sc.showMessage("solve will log to " + SolveLog)
	}

	sc.solveCtx, sc.solveCancel = context.WithCancel(context.Background())
	if params.maxtime > 0 {
		sc.solveCtx, sc.solveCancel = context.WithTimeout(sc.solveCtx, time.Duration(params.maxtime)*time.Second)
	}
	return params, nil
}

// solveRunSync runs the solver synchronously and renders the outcome.
func (sc *ShellController) solveRunSync() (string, error) {
	tstart := time.Now()
	fill, err := sc.solver.Solve(sc.solveCtx)
	elapsed := time.Since(tstart)

	if sc.solveLogFile != nil {
		if cerr := sc.solveLogFile.Close(); cerr != nil {
			log.Err(cerr).Msg("closing solve log")
		}
		sc.solveLogFile = nil
	}

	var result strings.Builder
	record := true
	switch {
	case err == nil:
		sc.lastFill = fill
		result.WriteString(render.ToDisplayText(sc.puzzle, fill))
		result.WriteString(fmt.Sprintf("\nSolved in %s: %d nodes, %d backtracks, %d arcs revised, %d words pruned\n",
			elapsed.Round(time.Millisecond), sc.solver.Nodes(), sc.solver.Backtracks(),
			sc.solver.ArcsRevised(), sc.solver.WordsPruned()))
	case errors.Is(err, solver.ErrNoSolution):
		result.WriteString(fmt.Sprintf("No fill exists for this puzzle; searched %d nodes (%d backtracks).\n",
			sc.solver.Nodes(), sc.solver.Backtracks()))
	case errors.Is(err, solver.ErrTimeout):
		result.WriteString(fmt.Sprintf("Solve timed out after %d nodes; raise -maxtime or use 0 for no deadline.\n",
			sc.solver.Nodes()))
	case errors.Is(err, context.Canceled):
		record = false
		result.WriteString(fmt.Sprintf("Solve canceled after %d nodes.\n", sc.solver.Nodes()))
	default:
		return "", err
	}

	if record {
		sc.recordSolve(err == nil, elapsed)
	}
	return result.String(), nil
}

func (sc *ShellController) recordSolve(solved bool, elapsed time.Duration) {
	h, err := sc.openHistory()
	if err != nil {
		log.Err(err).Msg("opening history store")
		return
	}
	herr := h.Add(context.Background(), &store.Record{
		Fingerprint: store.Fingerprint(sc.structure, sc.options.Lexicon),
		Structure:   sc.structure,
		Lexicon:     sc.options.Lexicon,
		Solved:      solved,
		Nodes:       sc.solver.Nodes(),
		Backtracks:  sc.solver.Backtracks(),
		Elapsed:     elapsed,
	})
	if herr != nil {
		log.Err(herr).Msg("recording solve history")
	}
}

// solveSync runs a solve synchronously and returns the result. This is
// the preferred method for scripts.
func (sc *ShellController) solveSync(cmd *shellcmd) (*Response, error) {
	_, err := sc.solvePrepare(cmd)
	if err != nil {
		return nil, err
	}
	result, err := sc.solveRunSync()
	if err != nil {
		return nil, err
	}
	return msg(result), nil
}

// solve runs a solve asynchronously (for interactive shell use).
func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 {
		switch cmd.args[0] {
		case "stop":
			if sc.solver != nil && sc.solver.IsSolving() {
				if sc.solveTicker != nil {
					sc.solveTicker.Stop()
				}
				sc.solveCancel()
			} else {
				return nil, errors.New("no solve to cancel")
			}
			return msg(""), nil
		}
		return nil, fmt.Errorf("do not understand solve argument %v", cmd.args[0])
	}

	_, err := sc.solvePrepare(cmd)
	if err != nil {
		return nil, err
	}
	sc.startSolve()
	return msg(""), nil
}

func (sc *ShellController) startSolve() {
	sc.solveTicker = time.NewTicker(10 * time.Second)
	sc.solveTickerDone = make(chan bool)
	sc.showMessage("Solve started. The fill will print when it completes; `solve stop` cancels.")

	go func() {
		result, err := sc.solveRunSync()
		if err != nil {
			sc.showError(err)
		} else {
			sc.showMessage(result)
		}
		sc.solveTickerDone <- true
		log.Debug().Msg("solve thread exiting...")
	}()

	go func() {
		for {
			select {
			case <-sc.solveTickerDone:
				log.Debug().Msg("ticker thread exiting...")
				return
			case <-sc.solveTicker.C:
				log.Info().Msgf("Solver is at %v nodes...", sc.solver.Nodes())
			}
		}
	}()
}

// propagated runs node and arc consistency on the current solver,
// reporting whether a domain emptied.
func (sc *ShellController) propagated() (bool, error) {
	err := sc.solver.Propagate(context.Background())
	if err != nil {
		if errors.Is(err, solver.ErrNoSolution) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (sc *ShellController) domains(cmd *shellcmd) (*Response, error) {
	if sc.puzzle == nil {
		return nil, errNoPuzzle
	}
	if sc.solving() {
		return nil, errCrossfillSolving
	}
	nwords, err := cmd.options.IntDefault("words", 0)
	if err != nil {
		return nil, err
	}
	unsat, err := sc.propagated()
	if err != nil {
		return nil, err
	}

	var str strings.Builder
	doms := sc.solver.Domains()
	for _, slot := range sc.puzzle.Slots() {
		str.WriteString(fmt.Sprintf("%-22s %6d words", slot.String(), doms.Size(slot)))
		if nwords > 0 {
			words := doms.Words(slot)
			if len(words) > nwords {
				words = append(words[:nwords], "...")
			}
			str.WriteString("  " + strings.Join(words, " "))
		}
		str.WriteString("\n")
	}
	if unsat {
		str.WriteString("A domain emptied during propagation; this puzzle has no fill.\n")
	}
	return msg(str.String()), nil
}

func (sc *ShellController) statsCmd(cmd *shellcmd) (*Response, error) {
	if sc.puzzle == nil {
		return nil, errNoPuzzle
	}
	if sc.solving() {
		return nil, errCrossfillSolving
	}
	unsat, err := sc.propagated()
	if err != nil {
		return nil, err
	}

	doms := sc.solver.Domains()
	slots := sc.puzzle.Slots()
	sizes := make([]float64, 0, len(slots))
	for _, slot := range slots {
		sizes = append(sizes, float64(doms.Size(slot)))
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Domain sizes across %d slots after propagation:\n", len(slots)))
	hist := histogram.Hist(10, sizes)
	if err := histogram.Fprint(&buf, hist, histogram.Linear(40)); err != nil {
		return nil, err
	}
	buf.WriteString(fmt.Sprintf("arcs revised: %d, words pruned: %d\n",
		sc.solver.ArcsRevised(), sc.solver.WordsPruned()))
	if unsat {
		buf.WriteString("A domain emptied during propagation; this puzzle has no fill.\n")
	}
	return msg(buf.String()), nil
}

func (sc *ShellController) autosolve(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 {
		switch cmd.args[0] {
		case "stop":
			if automatic.IsRunning.Value() != 1 {
				return nil, errors.New("no batch to stop")
			}
			if sc.autosolveTicker != nil {
				sc.autosolveTicker.Stop()
			}
			sc.autosolveCancel()
			return msg(""), nil
		case "hist":
			if sc.runner == nil {
				return nil, errors.New("no batch has been run yet")
			}
			var buf bytes.Buffer
			if err := sc.runner.Histogram(&buf); err != nil {
				return nil, err
			}
			return msg(buf.String()), nil
		}
		return nil, fmt.Errorf("do not understand autosolve argument %v", cmd.args[0])
	}
	if sc.solving() {
		return nil, errCrossfillSolving
	}

	var err error
	opts := automatic.Options{Lexicon: sc.options.Lexicon, SampleSize: sc.options.SampleSize}
	n, err := cmd.options.IntDefault("n", 100)
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", sc.options.Threads)
	if err != nil {
		return nil, err
	}
	if opts.Rows, err = cmd.options.IntDefault("rows", 0); err != nil {
		return nil, err
	}
	if opts.Cols, err = cmd.options.IntDefault("cols", 0); err != nil {
		return nil, err
	}
	if opts.BlockRatio, err = cmd.options.FloatDefault("blocks", 0); err != nil {
		return nil, err
	}
	if opts.SampleSize, err = cmd.options.IntDefault("sample", opts.SampleSize); err != nil {
		return nil, err
	}
	if v := cmd.options.String("lexicon"); v != "" {
		opts.Lexicon = v
	}
	maxtime, err := cmd.options.IntDefault("maxtime", 0)
	if err != nil {
		return nil, err
	}
	opts.Timeout = time.Duration(maxtime) * time.Second
	if cmd.options.Bool("structure") {
		if sc.puzzle == nil {
			return nil, errNoPuzzle
		}
		opts.Structure = sc.structure
	}

	if cmd.options.Bool("log") {
		sc.autosolveLogFile, err = os.Create(AutosolveLog)
		if err != nil {
			return nil, err
		}
		sc.showMessage("autosolve will log to " + AutosolveLog)
	}

	sc.runner = automatic.NewRunner(sc.config, opts)
	if cmd.options.Bool("history") {
		h, err := sc.openHistory()
		if err != nil {
			return nil, err
		}
		sc.runner.SetHistory(h)
	}

	sc.autosolveCtx, sc.autosolveCancel = context.WithCancel(context.Background())
	sc.autosolveTicker = time.NewTicker(15 * time.Second)
	sc.autosolveTickerDone = make(chan bool)

	go func() {
		var w io.Writer
		if sc.autosolveLogFile != nil {
			w = sc.autosolveLogFile
		}
		summary, err := sc.runner.Run(sc.autosolveCtx, n, threads, w)
		if err != nil {
			sc.showError(err)
		} else {
			sc.showMessage(summary.String())
		}
		if sc.autosolveLogFile != nil {
			if cerr := sc.autosolveLogFile.Close(); cerr != nil {
				log.Err(cerr).Msg("closing autosolve log")
			}
			sc.autosolveLogFile = nil
		}
		sc.autosolveTickerDone <- true
		log.Debug().Msg("autosolve thread exiting...")
	}()

	go func() {
		for {
			select {
			case <-sc.autosolveTickerDone:
				log.Debug().Msg("ticker thread exiting...")
				return
			case <-sc.autosolveTicker.C:
				log.Info().Msgf("Batch is at %v solves...", automatic.BatchCounter.Value())
			}
		}
	}()

	return msg(fmt.Sprintf(
		"Batch of %d solves started; the summary prints on completion. `autosolve stop` cancels, `autosolve hist` shows node counts.", n)), nil
}

func (sc *ShellController) historyCmd(cmd *shellcmd) (*Response, error) {
	n := 10
	if len(cmd.args) > 0 {
		var err error
		if n, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	h, err := sc.openHistory()
	if err != nil {
		return nil, err
	}
	recs, err := h.Recent(context.Background(), n)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return msg("No solves recorded yet."), nil
	}
	var str strings.Builder
	str.WriteString("Created (UTC)        Fingerprint       Result     Nodes  Backtracks      Time\n")
	for _, rec := range recs {
		result := "no fill"
		if rec.Solved {
			result = "solved"
		}
		str.WriteString(fmt.Sprintf("%-20s %-16s  %-8s %7d %11d %9s\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Fingerprint, result,
			rec.Nodes, rec.Backtracks, rec.Elapsed.Round(time.Millisecond)))
	}
	return msg(str.String()), nil
}

func (sc *ShellController) check(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("please provide a word or space-separated list of words to check")
	}
	lex, err := sc.ensureLexicon()
	if err != nil {
		return nil, err
	}

	allValid := true
	wordsFriendly := []string{}
	for _, w := range cmd.args {
		wordFriendly := strings.Trim(strings.ToUpper(w), ",")
		wordsFriendly = append(wordsFriendly, wordFriendly)
		if !lex.HasWord(wordFriendly) {
			allValid = false
		}
	}
	validStr := "VALID"
	if !allValid {
		validStr = "INVALID"
	}
	return msg(fmt.Sprintf("The word list (%v) is %v in %v",
		strings.Join(wordsFriendly, ","), validStr, lex.Name())), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	if sc.puzzle == nil {
		return nil, errNoPuzzle
	}
	if cmd.args == nil {
		return nil, errors.New("need a filepath for save")
	}
	if sc.lastFill == nil {
		return nil, errors.New("nothing solved yet; run `solve` first")
	}
	path := cmd.args[0]
	if err := render.Save(path, sc.puzzle, sc.lastFill); err != nil {
		return nil, err
	}
	return msg("saved fill to " + path), nil
}
