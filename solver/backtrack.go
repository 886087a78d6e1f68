package solver

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/crossfill/grid"
)

// LogNode is a struct meant for serializing one search node to a
// log stream, for debug reasons.
type LogNode struct {
	Node       uint64   `json:"node" yaml:"node"`
	Depth      int      `json:"depth" yaml:"depth"`
	Slot       string   `json:"slot" yaml:"slot"`
	DomainSize int      `json:"domain_size" yaml:"domain_size"`
	Candidates []string `json:"candidates" yaml:"candidates,flow"`
}

// consistent reports whether the assignment violates no constraint:
// every word fits its slot, no word repeats anywhere in the fill, and
// crossing words agree on the shared letter.
func (s *Solver) consistent(a Assignment) bool {
	slots := a.slots()
	for i, x := range slots {
		wx := a[x]
		if len(s.letters[wx]) != x.Length {
			return false
		}
		for _, y := range slots[i+1:] {
			wy := a[y]
			if wx == wy {
				return false
			}
			if ov, ok := s.puzzle.Overlap(x, y); ok {
				if s.letters[wx][ov.I] != s.letters[wy][ov.J] {
					return false
				}
			}
		}
	}
	return true
}

// backtrack extends the assignment one slot per node, recursing until
// it is complete or every candidate for the selected slot has failed.
// The fixpointed domains are read-only here; filtering happens through
// consistent, not by re-pruning.
func (s *Solver) backtrack(ctx context.Context, a Assignment) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.nodes.Add(1)
	if a.complete(s.puzzle.Slots()) {
		return a, nil
	}
	slot := s.selectUnassignedVariable(a)
	candidates := s.orderDomainValues(slot, a)
	if s.logStream != nil {
		s.logNode(len(a), slot, candidates)
	}
	for _, w := range candidates {
		a[slot] = w
		if s.consistent(a) {
			result, err := s.backtrack(ctx, a)
			if err == nil {
				return result, nil
			}
			if !errors.Is(err, ErrNoSolution) {
				return nil, err
			}
		}
		delete(a, slot)
	}
	s.backtracks++
	return nil, ErrNoSolution
}

func (s *Solver) logNode(depth int, slot grid.Slot, candidates []string) {
	rec := LogNode{
		Node:       s.nodes.Load(),
		Depth:      depth,
		Slot:       slot.String(),
		DomainSize: s.domains.Size(slot),
		Candidates: candidates,
	}
	out, err := yaml.Marshal([]LogNode{rec})
	if err != nil {
		log.Error().Err(err).Msg("marshalling log")
		return
	}
	s.logStream.Write(out)
}
