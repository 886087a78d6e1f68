package solver

import (
	"sort"

	"github.com/domino14/crossfill/grid"
)

// selectUnassignedVariable picks the unassigned slot with the fewest
// remaining words, breaking ties by degree, most neighbors first.
// Slots iterate in stable order, so an exact tie keeps the earliest
// slot and selection is deterministic.
func (s *Solver) selectUnassignedVariable(a Assignment) grid.Slot {
	var best grid.Slot
	found := false
	for _, slot := range s.puzzle.Slots() {
		if _, assigned := a[slot]; assigned {
			continue
		}
		if !found {
			best = slot
			found = true
			continue
		}
		switch sz, bz := s.domains.Size(slot), s.domains.Size(best); {
		case sz < bz:
			best = slot
		case sz == bz:
			if s.puzzle.Degree(slot) > s.puzzle.Degree(best) {
				best = slot
			}
		}
	}
	return best
}

// orderDomainValues returns the slot's candidates least constraining
// first: ascending by the number of words the candidate would rule out
// across the domains of unassigned neighbors. Equal counts stay in
// lexical order.
func (s *Solver) orderDomainValues(slot grid.Slot, a Assignment) []string {
	words := s.domains.Words(slot)
	eliminated := make(map[string]int, len(words))
	for _, w := range words {
		n := 0
		for _, nb := range s.puzzle.Neighbors(slot) {
			if _, assigned := a[nb]; assigned {
				continue
			}
			ov, _ := s.puzzle.Overlap(slot, nb)
			c := s.letters[w][ov.I]
			for wn := range s.domains[nb] {
				if s.letters[wn][ov.J] != c {
					n++
				}
			}
		}
		eliminated[w] = n
	}
	sort.SliceStable(words, func(i, j int) bool {
		return eliminated[words[i]] < eliminated[words[j]]
	})
	return words
}
