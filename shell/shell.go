package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/automatic"
	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/grid"
	"github.com/domino14/crossfill/lexicon"
	"github.com/domino14/crossfill/solver"
	"github.com/domino14/crossfill/store"
)

const (
	// SolveLog is where `solve -log true` streams per-node records.
	SolveLog = "/tmp/crossfill-solvelog"
	// AutosolveLog is where `autosolve -log true` streams per-solve records.
	AutosolveLog = "/tmp/autosolve-log"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoPuzzle          = errors.New("please load a puzzle first with the `load` command")
	errCrossfillSolving  = errors.New("crossfill is busy; please wait for or stop the current solve")
	errQuit              = errors.New("sending quit signal")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	lastWasOption := false
	lastOption := ""
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			lastWasOption = true
			lastOption = fields[idx][1:]
			continue
		}
		if lastWasOption {
			options[lastOption] = append(options[lastOption], fields[idx])
			lastWasOption = false
		} else {
			args = append(args, fields[idx])
		}
	}
	if lastWasOption {
		// Every option takes a value; booleans are spelled -opt true.
		return nil, errWrongOptionSyntax
	}
	return &shellcmd{
		cmd:     cmd,
		args:    args,
		options: options,
	}, nil
}

type ShellController struct {
	l      *readline.Instance
	config *config.Config

	options *ShellOptions

	structure  string
	structName string
	puzzle     *grid.Puzzle
	lex        *lexicon.Lexicon
	lastFill   solver.Assignment

	solver          *solver.Solver
	solveCtx        context.Context
	solveCancel     context.CancelFunc
	solveTicker     *time.Ticker
	solveTickerDone chan bool
	solveLogFile    *os.File

	runner              *automatic.Runner
	autosolveCtx        context.Context
	autosolveCancel     context.CancelFunc
	autosolveTicker     *time.Ticker
	autosolveTickerDone chan bool
	autosolveLogFile    *os.File

	history *store.History
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := &ShellController{
		config:  cfg,
		options: NewShellOptions(cfg),
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mcrossfill>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        NewShellCompleter(sc),
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func (sc *ShellController) solving() bool {
	return (sc.solver != nil && sc.solver.IsSolving()) ||
		automatic.IsRunning.Value() == 1
}

func (sc *ShellController) ensureLexicon() (*lexicon.Lexicon, error) {
	if sc.lex != nil {
		return sc.lex, nil
	}
	lex, err := lexicon.GetOrFetch(context.Background(), sc.config, sc.options.Lexicon)
	if err != nil {
		return nil, err
	}
	sc.lex = lex
	return lex, nil
}

func (sc *ShellController) openHistory() (*store.History, error) {
	if sc.history != nil {
		return sc.history, nil
	}
	h, err := store.Open(sc.config.GetString(config.ConfigSolveHistoryDB))
	if err != nil {
		return nil, err
	}
	sc.history = h
	return h, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "new":
		return sc.newPuzzle(cmd)
	case "load":
		return sc.load(cmd)
	case "unload":
		return sc.unload(cmd)
	case "lexicon":
		return sc.lexiconCmd(cmd)
	case "show":
		return sc.show(cmd)
	case "solve":
		return sc.solve(cmd)
	case "domains":
		return sc.domains(cmd)
	case "stats":
		return sc.statsCmd(cmd)
	case "autosolve":
		return sc.autosolve(cmd)
	case "history":
		return sc.historyCmd(cmd)
	case "check":
		return sc.check(cmd)
	case "save":
		return sc.save(cmd)
	case "set":
		return sc.set(cmd)
	case "setconfig", "config":
		return sc.setConfig(cmd)
	case "script":
		return sc.script(cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "quit", "bye":
		sig <- syscall.SIGINT
		return nil, errQuit
	default:
		return nil, errors.New("command " + cmd.cmd + " not recognized; see `help`")
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Execute runs a single command line, for non-interactive invocations.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	defer sc.l.Close()
	resp, err := sc.standardModeSwitch(line, sig)
	if errors.Is(err, errQuit) {
		return
	}
	if err != nil {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
}

// Cleanup cancels whatever is still running and releases held resources.
func (sc *ShellController) Cleanup() {
	if sc.solver != nil && sc.solver.IsSolving() && sc.solveCancel != nil {
		sc.solveCancel()
	}
	if automatic.IsRunning.Value() == 1 && sc.autosolveCancel != nil {
		sc.autosolveCancel()
	}
	if sc.history != nil {
		if err := sc.history.Close(); err != nil {
			log.Err(err).Msg("closing history store")
		}
	}
}
