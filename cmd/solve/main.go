package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/grid"
	"github.com/domino14/crossfill/lexicon"
	"github.com/domino14/crossfill/render"
	"github.com/domino14/crossfill/solver"
)

func main() {
	lexNamePtr := flag.String("lexicon", "", "word list name; empty uses the configured default")
	maxtimePtr := flag.Int("maxtime", 0, "give up after this many seconds; 0 for no deadline")
	outPtr := flag.String("out", "", "also write the fill to this file")
	debugPtr := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debugPtr {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if flag.NArg() != 1 {
		log.Fatal().Msg("usage: solve [flags] <structure-file>")
	}

	cfg := &config.Config{}
	if err := cfg.Load([]string{}); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	ex, err := os.Executable()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get executable path")
	}
	cfg.AdjustRelativePaths(filepath.Dir(ex))

	g, err := grid.ParseStructureFile(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read structure")
	}

	name := *lexNamePtr
	if name == "" {
		name = cfg.GetString(config.ConfigDefaultLexicon)
	}
	lex, err := lexicon.GetOrFetch(context.Background(), cfg, name)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load lexicon")
	}
	log.Info().Str("lexicon", lex.Name()).Int("words", lex.NumWords()).Msg("lexicon loaded")

	p, err := grid.NewPuzzle(g, lex.Words())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build puzzle")
	}
	s := &solver.Solver{}
	if err := s.Init(p); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize solver")
	}

	ctx := context.Background()
	if *maxtimePtr > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*maxtimePtr)*time.Second)
		defer cancel()
	}

	tstart := time.Now()
	fill, err := s.Solve(ctx)
	elapsed := time.Since(tstart)
	switch {
	case err == nil:
		fmt.Println(render.Text(p, fill))
		log.Info().Uint64("nodes", s.Nodes()).
			Uint64("backtracks", s.Backtracks()).
			Str("elapsed", elapsed.String()).Msg("solved")
		if *outPtr != "" {
			if err := render.Save(*outPtr, p, fill); err != nil {
				log.Fatal().Err(err).Msg("failed to save fill")
			}
		}
	case errors.Is(err, solver.ErrNoSolution):
		log.Fatal().Uint64("nodes", s.Nodes()).Msg("no fill exists for this puzzle")
	case errors.Is(err, solver.ErrTimeout):
		log.Fatal().Uint64("nodes", s.Nodes()).Msg("solve timed out")
	default:
		log.Fatal().Err(err).Msg("solve failed")
	}
}
