package shell

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/lexicon"
)

// ShellOptions are the session settings a `set` can change. They start
// from the config defaults and live only as long as the shell.
type ShellOptions struct {
	Lexicon     string
	TimeoutSecs int
	Threads     int
	SampleSize  int
}

func NewShellOptions(cfg *config.Config) *ShellOptions {
	return &ShellOptions{
		Lexicon:     cfg.GetString(config.ConfigDefaultLexicon),
		TimeoutSecs: cfg.GetInt(config.ConfigSolveTimeoutSecs),
		Threads:     runtime.NumCPU(),
		SampleSize:  0,
	}
}

func (opts *ShellOptions) Show(key string) (bool, string) {
	switch key {
	case "lexicon":
		return true, opts.Lexicon
	case "timeout":
		return true, strconv.Itoa(opts.TimeoutSecs)
	case "threads":
		return true, strconv.Itoa(opts.Threads)
	case "sample":
		return true, strconv.Itoa(opts.SampleSize)
	default:
		return false, "No such option: " + key
	}
}

func (opts *ShellOptions) ToDisplayText() string {
	var str strings.Builder
	str.WriteString("Settings:\n")
	str.WriteString(fmt.Sprintf("  %-10s %s\n", "lexicon", opts.Lexicon))
	str.WriteString(fmt.Sprintf("  %-10s %d\n", "timeout", opts.TimeoutSecs))
	str.WriteString(fmt.Sprintf("  %-10s %d\n", "threads", opts.Threads))
	str.WriteString(fmt.Sprintf("  %-10s %d\n", "sample", opts.SampleSize))
	return str.String()
}

// Set changes one option and returns the display value it ended up with.
func (sc *ShellController) Set(key string, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("option " + key + " needs a value")
	}
	var ret string
	switch key {
	case "lexicon":
		if sc.solving() {
			return "", errCrossfillSolving
		}
		name := args[0]
		lex, err := lexicon.GetOrFetch(context.Background(), sc.config, name)
		if err != nil {
			return "", err
		}
		sc.lex = lex
		sc.options.Lexicon = lex.Name()
		// An already loaded puzzle gets rebuilt against the new words.
		if sc.puzzle != nil {
			if _, err := sc.setStructure(sc.structure, sc.structName); err != nil {
				return "", err
			}
		}
		ret = fmt.Sprintf("%s (%d words)", lex.Name(), lex.NumWords())
	case "timeout":
		secs, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		if secs < 0 {
			return "", errors.New("timeout cannot be negative")
		}
		sc.options.TimeoutSecs = secs
		ret = args[0]
	case "threads":
		threads, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		if threads < 1 {
			return "", errors.New("need at least one thread")
		}
		sc.options.Threads = threads
		ret = args[0]
	case "sample":
		sample, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		if sample < 0 {
			return "", errors.New("sample size cannot be negative")
		}
		sc.options.SampleSize = sample
		ret = args[0]
	default:
		return "", errors.New("option " + key + " not recognized; see `help set`")
	}
	return ret, nil
}
