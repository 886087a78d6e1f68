package grid

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// An Overlap is the pair of character offsets at which two crossing
// slots must agree: character I of the first slot's word is the same
// cell as character J of the second slot's word.
type Overlap struct {
	I int
	J int
}

// slotPair is an unordered pair of slots, normalized so the lesser
// slot comes first.
type slotPair struct {
	a, b Slot
}

func pairKey(a, b Slot) slotPair {
	if Less(b, a) {
		return slotPair{b, a}
	}
	return slotPair{a, b}
}

// A Puzzle is the immutable model the solver consumes: the grid, its
// slots, the overlap table, the neighbor relation, and the candidate
// vocabulary. Build it once with NewPuzzle; nothing here changes
// during a solve.
type Puzzle struct {
	grid       *Grid
	slots      []Slot
	overlaps   map[slotPair]Overlap
	neighbors  map[Slot][]Slot
	vocabulary []string
}

func NewPuzzle(g *Grid, words []string) (*Puzzle, error) {
	if g == nil {
		return nil, errors.New("puzzle needs a grid")
	}
	slots := g.Slots()
	if len(slots) == 0 {
		return nil, errors.New("structure has no slots of length two or more")
	}
	seen := map[Slot]bool{}
	for _, s := range slots {
		if seen[s] {
			return nil, errors.New("structure produced duplicate slots")
		}
		seen[s] = true
	}
	vocabulary := normalizeWords(words)
	if len(vocabulary) == 0 {
		return nil, errors.New("vocabulary is empty")
	}

	p := &Puzzle{
		grid:       g,
		slots:      slots,
		overlaps:   map[slotPair]Overlap{},
		neighbors:  map[Slot][]Slot{},
		vocabulary: vocabulary,
	}
	p.computeOverlaps()

	log.Debug().
		Int("slots", len(p.slots)).
		Int("words", len(p.vocabulary)).
		Int("crossings", len(p.overlaps)).
		Msg("created puzzle")
	return p, nil
}

// computeOverlaps builds the overlap table and the neighbor relation
// from grid geometry. A cell is covered by at most one across slot and
// one down slot, so every crossing pair shares exactly one cell.
func (p *Puzzle) computeOverlaps() {
	type cell struct{ row, col int }
	covering := map[cell][]Slot{}
	offsets := map[cell]map[Slot]int{}
	for _, s := range p.slots {
		for i := 0; i < s.Length; i++ {
			r, c := s.Cell(i)
			k := cell{r, c}
			covering[k] = append(covering[k], s)
			if offsets[k] == nil {
				offsets[k] = map[Slot]int{}
			}
			offsets[k][s] = i
		}
	}
	for k, ss := range covering {
		if len(ss) < 2 {
			continue
		}
		for x := 0; x < len(ss); x++ {
			for y := x + 1; y < len(ss); y++ {
				key := pairKey(ss[x], ss[y])
				p.overlaps[key] = Overlap{
					I: offsets[k][key.a],
					J: offsets[k][key.b],
				}
			}
		}
	}
	for key := range p.overlaps {
		p.neighbors[key.a] = append(p.neighbors[key.a], key.b)
		p.neighbors[key.b] = append(p.neighbors[key.b], key.a)
	}
	for _, ns := range p.neighbors {
		sort.Slice(ns, func(i, j int) bool { return Less(ns[i], ns[j]) })
	}
}

// Slots returns every slot, in the stable slot ordering. Callers must
// not modify the returned slice.
func (p *Puzzle) Slots() []Slot {
	return p.slots
}

// Neighbors returns the slots overlapping s, in the stable slot
// ordering.
func (p *Puzzle) Neighbors(s Slot) []Slot {
	return p.neighbors[s]
}

// Degree is the number of slots overlapping s.
func (p *Puzzle) Degree(s Slot) int {
	return len(p.neighbors[s])
}

// Overlap returns the offsets at which a and b cross, oriented to the
// argument order: character I of a's word meets character J of b's.
// The second return is false if the slots do not cross.
func (p *Puzzle) Overlap(a, b Slot) (Overlap, bool) {
	if a == b {
		return Overlap{}, false
	}
	key := pairKey(a, b)
	ov, ok := p.overlaps[key]
	if !ok {
		return Overlap{}, false
	}
	if key.a == a {
		return ov, true
	}
	return Overlap{I: ov.J, J: ov.I}, true
}

// Vocabulary returns the candidate words, uppercased, deduplicated,
// and sorted. Callers must not modify the returned slice.
func (p *Puzzle) Vocabulary() []string {
	return p.vocabulary
}

func (p *Puzzle) Grid() *Grid {
	return p.grid
}

func normalizeWords(words []string) []string {
	normalized := lo.Map(words, func(w string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(w))
	})
	normalized = lo.Filter(normalized, func(w string, _ int) bool {
		return utf8.RuneCountInString(w) > 0
	})
	normalized = lo.Uniq(normalized)
	sort.Strings(normalized)
	return normalized
}
