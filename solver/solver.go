// Package solver fills crossword grids by constraint satisfaction. It
// prunes slot domains with node and arc consistency, then runs a
// backtracking search ordered by the minimum-remaining-values and
// least-constraining-value heuristics. Given the same puzzle and
// vocabulary it always visits the same nodes and returns the same fill.
package solver

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/grid"
)

var (
	ErrNoSolution      = errors.New("no solution found")
	ErrTimeout         = errors.New("solve timed out")
	ErrSolveInProgress = errors.New("solve already in progress")
)

type Solver struct {
	puzzle  *grid.Puzzle
	domains Domains
	letters map[string][]rune

	solving bool

	nodes       atomic.Uint64
	backtracks  uint64
	arcsRevised uint64
	wordsPruned uint64

	logStream io.Writer
}

// Init readies the solver for a puzzle. It can be called again to
// point an existing solver at a new puzzle.
func (s *Solver) Init(p *grid.Puzzle) error {
	if p == nil {
		return errors.New("puzzle is nil")
	}
	if s.solving {
		return ErrSolveInProgress
	}
	s.puzzle = p
	s.letters = make(map[string][]rune, len(p.Vocabulary()))
	for _, w := range p.Vocabulary() {
		s.letters[w] = []rune(w)
	}
	s.reset()
	return nil
}

// reset rebuilds full domains from the vocabulary and zeroes the
// counters. Each solve attempt starts from here.
func (s *Solver) reset() {
	s.domains = newDomains(s.puzzle)
	s.nodes.Store(0)
	s.backtracks = 0
	s.arcsRevised = 0
	s.wordsPruned = 0
}

// propagate runs node consistency then arc consistency to a fixpoint.
func (s *Solver) propagate(ctx context.Context) error {
	s.enforceNodeConsistency()
	log.Debug().Uint64("words-pruned", s.wordsPruned).Msg("node-consistency-done")
	ok, err := s.ac3(ctx, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSolution
	}
	log.Debug().
		Uint64("arcs-revised", s.arcsRevised).
		Uint64("words-pruned", s.wordsPruned).
		Msg("arc-consistency-done")
	return nil
}

// Propagate prunes the domains without searching, leaving them
// readable through Domains. Solve does this itself; calling Propagate
// directly is for inspecting what consistency alone can rule out.
func (s *Solver) Propagate(ctx context.Context) error {
	if s.puzzle == nil {
		return errors.New("solver not initialized")
	}
	if s.solving {
		return ErrSolveInProgress
	}
	s.reset()
	return s.ctxError(s.propagate(ctx))
}

// Solve returns a complete fill for the puzzle, or ErrNoSolution if
// none exists. The context deadline is honored between search nodes;
// an expired deadline returns ErrTimeout so callers can tell it apart
// from unsatisfiability.
func (s *Solver) Solve(ctx context.Context) (Assignment, error) {
	if s.puzzle == nil {
		return nil, errors.New("solver not initialized")
	}
	if s.solving {
		return nil, ErrSolveInProgress
	}
	s.solving = true
	defer func() { s.solving = false }()

	tstart := time.Now()
	s.reset()
	log.Debug().
		Int("slots", len(s.puzzle.Slots())).
		Int("vocabulary", len(s.puzzle.Vocabulary())).
		Msg("solve-config")

	var fill Assignment
	err := s.propagate(ctx)
	if err == nil {
		fill, err = s.backtrack(ctx, make(Assignment, len(s.puzzle.Slots())))
	}
	log.Info().
		Uint64("nodes", s.nodes.Load()).
		Uint64("backtracks", s.backtracks).
		Uint64("arcs-revised", s.arcsRevised).
		Uint64("words-pruned", s.wordsPruned).
		Bool("solved", err == nil).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")
	if err != nil {
		return nil, s.ctxError(err)
	}
	return fill, nil
}

// ctxError maps an expired deadline to ErrTimeout; other errors,
// including cancellation, pass through.
func (s *Solver) ctxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

func (s *Solver) IsSolving() bool {
	return s.solving
}

// Domains exposes the domain store as of the last Solve or Propagate.
func (s *Solver) Domains() Domains {
	return s.domains
}

func (s *Solver) Puzzle() *grid.Puzzle {
	return s.puzzle
}

// Nodes returns the number of search nodes visited.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Backtracks returns the number of nodes that exhausted every
// candidate and failed.
func (s *Solver) Backtracks() uint64 {
	return s.backtracks
}

// ArcsRevised returns the number of arcs popped and revised during
// propagation.
func (s *Solver) ArcsRevised() uint64 {
	return s.arcsRevised
}

// WordsPruned returns the number of words removed from domains by node
// and arc consistency.
func (s *Solver) WordsPruned() uint64 {
	return s.wordsPruned
}

func (s *Solver) SetLogStream(l io.Writer) {
	s.logStream = l
}
