package solver

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/grid"
)

// arc is a directed pair of slots; revising (x, y) prunes x's domain
// against y's.
type arc struct {
	x, y grid.Slot
}

func arcLess(a, b arc) bool {
	if a.x != b.x {
		return grid.Less(a.x, b.x)
	}
	return grid.Less(a.y, b.y)
}

// arcQueue is a worklist with set semantics. Duplicate pushes coalesce
// and pop always returns the least pending arc, so propagation order
// is a pure function of the puzzle.
type arcQueue struct {
	arcs   []arc
	queued map[arc]bool
}

func newArcQueue() *arcQueue {
	return &arcQueue{queued: make(map[arc]bool)}
}

func (q *arcQueue) push(a arc) {
	if q.queued[a] {
		return
	}
	i := sort.Search(len(q.arcs), func(j int) bool { return !arcLess(q.arcs[j], a) })
	q.arcs = append(q.arcs, arc{})
	copy(q.arcs[i+1:], q.arcs[i:])
	q.arcs[i] = a
	q.queued[a] = true
}

func (q *arcQueue) pop() (arc, bool) {
	if len(q.arcs) == 0 {
		return arc{}, false
	}
	a := q.arcs[0]
	q.arcs = q.arcs[1:]
	delete(q.queued, a)
	return a, true
}

func (q *arcQueue) len() int {
	return len(q.arcs)
}

// enforceNodeConsistency drops every word whose length does not match
// its slot. Runs once, before arc consistency.
func (s *Solver) enforceNodeConsistency() {
	for _, slot := range s.puzzle.Slots() {
		for _, w := range s.domains.Words(slot) {
			if len(s.letters[w]) != slot.Length {
				s.domains.remove(slot, w)
				s.wordsPruned++
			}
		}
	}
}

// revise removes from x's domain every word with no agreeing partner in
// y's domain at the overlap offsets. A word may support itself; the
// no-duplicate rule belongs to search, not propagation. Returns whether
// x's domain changed. No overlap means nothing to revise.
func (s *Solver) revise(x, y grid.Slot) bool {
	ov, ok := s.puzzle.Overlap(x, y)
	if !ok {
		return false
	}
	revised := false
	for _, wx := range s.domains.Words(x) {
		cx := s.letters[wx][ov.I]
		supported := false
		for wy := range s.domains[y] {
			if s.letters[wy][ov.J] == cx {
				supported = true
				break
			}
		}
		if !supported {
			s.domains.remove(x, wx)
			s.wordsPruned++
			revised = true
		}
	}
	return revised
}

// ac3 propagates arc consistency to a fixpoint. A nil queue seeds the
// worklist with every directed pair of neighboring slots. Returns false
// as soon as a revision empties a domain.
func (s *Solver) ac3(ctx context.Context, q *arcQueue) (bool, error) {
	if q == nil {
		q = newArcQueue()
		for _, x := range s.puzzle.Slots() {
			for _, y := range s.puzzle.Neighbors(x) {
				q.push(arc{x, y})
			}
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		a, ok := q.pop()
		if !ok {
			return true, nil
		}
		s.arcsRevised++
		if s.revise(a.x, a.y) {
			if len(s.domains[a.x]) == 0 {
				log.Debug().Str("slot", a.x.String()).Msg("domain-emptied")
				return false, nil
			}
			// Re-enqueue both directions for every neighbor of x.
			// That is more than the classic formulation revisits,
			// but it never misses a dependent arc.
			for _, z := range s.puzzle.Neighbors(a.x) {
				q.push(arc{z, a.x})
				q.push(arc{a.x, z})
			}
		}
	}
}
