package solver

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	"gopkg.in/yaml.v3"

	"github.com/domino14/crossfill/grid"
)

// plus sign: one across slot crossing one down slot at their middles.
const crossStructure = `█_█
___
█_█`

// tee: a length-4 across slot crossed at column 1 by a length-3 down
// slot, so the two domains have different word lengths.
const teeStructure = `____
█_██
█_██`

// aitch: two down slots joined by one across slot through the middle.
const aitchStructure = `_█_
___
_█_`

// ring: the border of a 5x5 grid, four length-5 slots overlapping at
// the corners.
const ringStructure = `_____
_███_
_███_
_███_
_____`

const disjointStructure = `___██
█████
██___`

func mustPuzzle(t *testing.T, structure string, words []string) *grid.Puzzle {
	t.Helper()
	g, err := grid.ParseStructureString(structure)
	if err != nil {
		t.Fatal(err)
	}
	p, err := grid.NewPuzzle(g, words)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func mustSolver(t *testing.T, structure string, words []string) *Solver {
	t.Helper()
	s := &Solver{}
	if err := s.Init(mustPuzzle(t, structure, words)); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSolveCross(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, crossStructure, []string{"CAT", "DOG", "TAG"})
	fill, err := s.Solve(context.Background())
	is.NoErr(err)

	down := grid.Slot{Row: 0, Col: 1, Direction: grid.Down, Length: 3}
	across := grid.Slot{Row: 1, Col: 0, Direction: grid.Across, Length: 3}
	is.Equal(fill, Assignment{down: "CAT", across: "TAG"})
	is.True(fill.complete(s.puzzle.Slots()))
	is.True(s.consistent(fill))
	is.Equal(s.Nodes(), uint64(3))
	is.Equal(s.Backtracks(), uint64(0))
}

func TestSolveRing(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, ringStructure, []string{
		"SALSA", "APPLE", "ELOPE", "SUEDE", "STEAM", "MEATS", "SEEMS", "ERASE",
	})
	fill, err := s.Solve(context.Background())
	is.NoErr(err)
	is.True(fill.complete(s.puzzle.Slots()))
	is.True(s.consistent(fill))
	for slot, w := range fill {
		is.Equal(len(w), slot.Length)
	}
}

func TestSolveDisjointSlots(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, disjointStructure, []string{"CAT", "DOG"})
	fill, err := s.Solve(context.Background())
	is.NoErr(err)
	is.Equal(fill, Assignment{
		{Row: 0, Col: 0, Direction: grid.Across, Length: 3}: "CAT",
		{Row: 2, Col: 2, Direction: grid.Across, Length: 3}: "DOG",
	})
	// No words are pruned between slots that never cross.
	is.Equal(s.WordsPruned(), uint64(0))
}

func TestSolveSingleWordCannotRepeat(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, crossStructure, []string{"DOG"})
	_, err := s.Solve(context.Background())
	is.True(errors.Is(err, ErrNoSolution))
	is.Equal(s.Nodes(), uint64(2))
	is.Equal(s.Backtracks(), uint64(2))
}

func TestSolveUnsatisfiableByPropagation(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, teeStructure, []string{"BAR", "CAR", "BARD", "CARD", "TZAR"})
	_, err := s.Solve(context.Background())
	is.True(errors.Is(err, ErrNoSolution))
	// The emptied domain is caught during propagation, before any
	// search node is visited.
	is.Equal(s.Nodes(), uint64(0))
}

func TestNodeConsistency(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, teeStructure, []string{"ARC", "BAR", "BARD", "CARD", "TZAR"})
	s.enforceNodeConsistency()

	across := grid.Slot{Row: 0, Col: 0, Direction: grid.Across, Length: 4}
	down := grid.Slot{Row: 0, Col: 1, Direction: grid.Down, Length: 3}
	is.Equal(s.domains.Words(across), []string{"BARD", "CARD", "TZAR"})
	is.Equal(s.domains.Words(down), []string{"ARC", "BAR"})
	is.Equal(s.WordsPruned(), uint64(5))
}

func TestPropagate(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, teeStructure, []string{"ARC", "BAR", "BARD", "CARD", "TZAR"})
	err := s.Propagate(context.Background())
	is.NoErr(err)

	across := grid.Slot{Row: 0, Col: 0, Direction: grid.Across, Length: 4}
	down := grid.Slot{Row: 0, Col: 1, Direction: grid.Down, Length: 3}
	is.Equal(s.Domains().Words(across), []string{"BARD", "CARD"})
	is.Equal(s.Domains().Words(down), []string{"ARC"})
	// Worklist draw order is deterministic, so the arc count is too.
	is.Equal(s.ArcsRevised(), uint64(5))
	is.Equal(s.WordsPruned(), uint64(7))
}

func TestPropagateReachesFixpoint(t *testing.T) {
	is := is.New(t)
	vocab := []string{
		"SALSA", "SPASM", "ASPEN", "APPLE", "EAGLE",
		"ELOPE", "STEAM", "MEATS", "ERASE", "SEEMS",
	}
	s := mustSolver(t, ringStructure, vocab)
	err := s.Propagate(context.Background())
	is.NoErr(err)

	p := s.Puzzle()
	for _, x := range p.Slots() {
		is.True(s.Domains().Size(x) > 0)
		is.True(s.Domains().Size(x) <= len(vocab))
		for _, y := range p.Neighbors(x) {
			ov, ok := p.Overlap(x, y)
			is.True(ok)
			for _, wx := range s.Domains().Words(x) {
				supported := false
				for _, wy := range s.Domains().Words(y) {
					if []rune(wy)[ov.J] == []rune(wx)[ov.I] {
						supported = true
						break
					}
				}
				is.True(supported)
			}
		}
	}
}

func TestReviseNoOverlap(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, disjointStructure, []string{"CAT", "DOG"})
	slots := s.puzzle.Slots()
	is.Equal(s.revise(slots[0], slots[1]), false)
	is.Equal(s.domains.Size(slots[0]), 2)
}

func TestOrderDomainValues(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, crossStructure, []string{"CAT", "DOG", "TAG"})
	down := grid.Slot{Row: 0, Col: 1, Direction: grid.Down, Length: 3}
	// CAT and TAG each rule out only DOG in the crossing slot; DOG
	// rules out both of the others. Ties stay lexical.
	is.Equal(s.orderDomainValues(down, Assignment{}), []string{"CAT", "TAG", "DOG"})
}

func TestSelectUnassignedVariable(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, aitchStructure, []string{"CAT", "DOG", "TAG"})
	leftDown := grid.Slot{Row: 0, Col: 0, Direction: grid.Down, Length: 3}
	rightDown := grid.Slot{Row: 0, Col: 2, Direction: grid.Down, Length: 3}
	across := grid.Slot{Row: 1, Col: 0, Direction: grid.Across, Length: 3}

	// All domains are the same size; the across slot crosses both down
	// slots, so degree breaks the tie.
	is.Equal(s.selectUnassignedVariable(Assignment{}), across)

	// With the across slot assigned, the remaining tie resolves by the
	// stable slot ordering.
	is.Equal(s.selectUnassignedVariable(Assignment{across: "CAT"}), leftDown)

	// A strictly smaller domain wins regardless of degree.
	s.domains[rightDown] = map[string]bool{"TAG": true}
	is.Equal(s.selectUnassignedVariable(Assignment{}), rightDown)
}

func TestSolveTimeout(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, crossStructure, []string{"CAT", "DOG", "TAG"})
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_, err := s.Solve(ctx)
	is.True(errors.Is(err, ErrTimeout))
}

func TestSolveInProgress(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, crossStructure, []string{"CAT", "DOG", "TAG"})
	s.solving = true
	_, err := s.Solve(context.Background())
	is.True(errors.Is(err, ErrSolveInProgress))
	err = s.Propagate(context.Background())
	is.True(errors.Is(err, ErrSolveInProgress))
}

func TestLogStream(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, crossStructure, []string{"CAT", "DOG", "TAG"})
	var buf bytes.Buffer
	s.SetLogStream(&buf)
	_, err := s.Solve(context.Background())
	is.NoErr(err)

	var records []LogNode
	err = yaml.Unmarshal(buf.Bytes(), &records)
	is.NoErr(err)
	is.Equal(len(records), 2)
	is.Equal(records[0].Slot, "(0,1) down len=3")
	is.Equal(records[0].Candidates, []string{"CAT", "TAG", "DOG"})
	is.Equal(records[1].Depth, 1)
}

func TestConsistent(t *testing.T) {
	is := is.New(t)
	s := mustSolver(t, crossStructure, []string{"CAT", "DOG", "TAG"})
	down := grid.Slot{Row: 0, Col: 1, Direction: grid.Down, Length: 3}
	across := grid.Slot{Row: 1, Col: 0, Direction: grid.Across, Length: 3}

	is.True(s.consistent(Assignment{}))
	is.True(s.consistent(Assignment{down: "CAT"}))
	is.True(s.consistent(Assignment{down: "CAT", across: "TAG"}))
	// Crossing letters disagree.
	is.True(!s.consistent(Assignment{down: "CAT", across: "DOG"}))
	// The same word cannot appear twice.
	is.True(!s.consistent(Assignment{down: "CAT", across: "CAT"}))
}

func TestArcQueue(t *testing.T) {
	is := is.New(t)
	a := grid.Slot{Row: 0, Col: 0, Direction: grid.Across, Length: 3}
	b := grid.Slot{Row: 0, Col: 1, Direction: grid.Down, Length: 3}
	c := grid.Slot{Row: 2, Col: 0, Direction: grid.Across, Length: 3}

	q := newArcQueue()
	q.push(arc{c, a})
	q.push(arc{a, b})
	q.push(arc{b, c})
	q.push(arc{a, b}) // duplicate coalesces
	is.Equal(q.len(), 3)

	first, ok := q.pop()
	is.True(ok)
	is.Equal(first, arc{a, b})
	second, _ := q.pop()
	is.Equal(second, arc{b, c})
	third, _ := q.pop()
	is.Equal(third, arc{c, a})
	_, ok = q.pop()
	is.True(!ok)
}
