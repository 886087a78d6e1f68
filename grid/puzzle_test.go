package grid

import (
	"testing"

	"github.com/matryer/is"
)

func mustPuzzle(t *testing.T, structure string, words []string) *Puzzle {
	t.Helper()
	g, err := ParseStructureString(structure)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPuzzle(g, words)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOverlapOrientation(t *testing.T) {
	is := is.New(t)
	p := mustPuzzle(t, crossStructure, []string{"CAT", "DOG", "TAG"})

	down := Slot{Row: 0, Col: 1, Direction: Down, Length: 3}
	across := Slot{Row: 1, Col: 0, Direction: Across, Length: 3}

	ov, ok := p.Overlap(across, down)
	is.True(ok)
	is.Equal(ov, Overlap{I: 1, J: 1})

	// Same crossing seen from the other slot.
	ov, ok = p.Overlap(down, across)
	is.True(ok)
	is.Equal(ov, Overlap{I: 1, J: 1})

	_, ok = p.Overlap(across, across)
	is.True(!ok)
}

func TestOverlapRing(t *testing.T) {
	is := is.New(t)
	p := mustPuzzle(t, ringStructure, []string{"ABCDE"})

	top := Slot{Row: 0, Col: 0, Direction: Across, Length: 5}
	left := Slot{Row: 0, Col: 0, Direction: Down, Length: 5}
	right := Slot{Row: 0, Col: 4, Direction: Down, Length: 5}
	bottom := Slot{Row: 4, Col: 0, Direction: Across, Length: 5}

	ov, ok := p.Overlap(top, left)
	is.True(ok)
	is.Equal(ov, Overlap{I: 0, J: 0})

	ov, ok = p.Overlap(top, right)
	is.True(ok)
	is.Equal(ov, Overlap{I: 4, J: 0})

	ov, ok = p.Overlap(bottom, right)
	is.True(ok)
	is.Equal(ov, Overlap{I: 4, J: 4})

	// Parallel slots never cross.
	_, ok = p.Overlap(top, bottom)
	is.True(!ok)
	_, ok = p.Overlap(left, right)
	is.True(!ok)
}

func TestNeighbors(t *testing.T) {
	is := is.New(t)
	p := mustPuzzle(t, ringStructure, []string{"ABCDE"})

	top := Slot{Row: 0, Col: 0, Direction: Across, Length: 5}
	left := Slot{Row: 0, Col: 0, Direction: Down, Length: 5}
	right := Slot{Row: 0, Col: 4, Direction: Down, Length: 5}

	is.Equal(p.Neighbors(top), []Slot{left, right})
	is.Equal(p.Degree(top), 2)
}

func TestDisjointSlots(t *testing.T) {
	is := is.New(t)
	p := mustPuzzle(t, "___██\n█████\n██___", []string{"ONE", "TWO"})
	slots := p.Slots()
	is.Equal(len(slots), 2)
	_, ok := p.Overlap(slots[0], slots[1])
	is.True(!ok)
	is.Equal(p.Degree(slots[0]), 0)
}

func TestVocabularyNormalized(t *testing.T) {
	is := is.New(t)
	p := mustPuzzle(t, crossStructure, []string{" cat", "Dog", "TAG", "tag", ""})
	is.Equal(p.Vocabulary(), []string{"CAT", "DOG", "TAG"})
}

func TestNewPuzzleErrors(t *testing.T) {
	is := is.New(t)
	g, err := ParseStructureString("███\n███")
	is.NoErr(err)
	_, err = NewPuzzle(g, []string{"CAT"})
	is.True(err != nil) // no slots

	g, err = ParseStructureString(crossStructure)
	is.NoErr(err)
	_, err = NewPuzzle(g, nil)
	is.True(err != nil) // no vocabulary
}
