package solver

import (
	"sort"

	"github.com/domino14/crossfill/grid"
)

// Domains maps each slot to the set of words still possible for it.
// Propagation only ever shrinks a domain.
type Domains map[grid.Slot]map[string]bool

func newDomains(p *grid.Puzzle) Domains {
	d := make(Domains, len(p.Slots()))
	for _, slot := range p.Slots() {
		words := make(map[string]bool, len(p.Vocabulary()))
		for _, w := range p.Vocabulary() {
			words[w] = true
		}
		d[slot] = words
	}
	return d
}

// Words returns the slot's candidate words in lexical order.
func (d Domains) Words(slot grid.Slot) []string {
	words := make([]string, 0, len(d[slot]))
	for w := range d[slot] {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func (d Domains) Size(slot grid.Slot) int {
	return len(d[slot])
}

func (d Domains) Has(slot grid.Slot, word string) bool {
	return d[slot][word]
}

func (d Domains) remove(slot grid.Slot, word string) {
	delete(d[slot], word)
}

func (d Domains) Copy() Domains {
	cp := make(Domains, len(d))
	for slot, words := range d {
		wcp := make(map[string]bool, len(words))
		for w := range words {
			wcp[w] = true
		}
		cp[slot] = wcp
	}
	return cp
}

// Assignment maps slots to the words assigned to them so far.
type Assignment map[grid.Slot]string

func (a Assignment) complete(slots []grid.Slot) bool {
	for _, slot := range slots {
		if w, ok := a[slot]; !ok || w == "" {
			return false
		}
	}
	return true
}

// slots returns the assigned slots in stable order.
func (a Assignment) slots() []grid.Slot {
	slots := make([]grid.Slot, 0, len(a))
	for slot := range a {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return grid.Less(slots[i], slots[j]) })
	return slots
}

func (a Assignment) Copy() Assignment {
	cp := make(Assignment, len(a))
	for slot, w := range a {
		cp[slot] = w
	}
	return cp
}
