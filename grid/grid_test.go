package grid

import (
	"testing"

	"github.com/matryer/is"
)

const crossStructure = `█_█
___
█_█`

const ringStructure = `_____
_███_
_███_
_███_
_____`

func TestParseStructure(t *testing.T) {
	is := is.New(t)
	g, err := ParseStructureString(crossStructure)
	is.NoErr(err)
	is.Equal(g.Width(), 3)
	is.Equal(g.Height(), 3)
	is.True(g.Fillable(1, 0))
	is.True(g.Fillable(1, 1))
	is.True(g.Fillable(0, 1))
	is.True(!g.Fillable(0, 0))
	is.True(!g.Fillable(2, 2))
	is.True(!g.Fillable(-1, 0))
	is.True(!g.Fillable(0, 3))
}

func TestParseStructureRaggedRows(t *testing.T) {
	is := is.New(t)
	// Short rows pad out with blocked cells.
	g, err := ParseStructureString("____\n__")
	is.NoErr(err)
	is.Equal(g.Width(), 4)
	is.Equal(g.Height(), 2)
	is.True(g.Fillable(1, 1))
	is.True(!g.Fillable(1, 2))
	is.True(!g.Fillable(1, 3))
}

func TestParseStructureEmpty(t *testing.T) {
	is := is.New(t)
	_, err := ParseStructureString("")
	is.True(err != nil)
}

func TestSlotsCross(t *testing.T) {
	is := is.New(t)
	g, err := ParseStructureString(crossStructure)
	is.NoErr(err)
	slots := g.Slots()
	is.Equal(slots, []Slot{
		{Row: 0, Col: 1, Direction: Down, Length: 3},
		{Row: 1, Col: 0, Direction: Across, Length: 3},
	})
}

func TestSlotsRing(t *testing.T) {
	is := is.New(t)
	g, err := ParseStructureString(ringStructure)
	is.NoErr(err)
	slots := g.Slots()
	is.Equal(slots, []Slot{
		{Row: 0, Col: 0, Direction: Across, Length: 5},
		{Row: 0, Col: 0, Direction: Down, Length: 5},
		{Row: 0, Col: 4, Direction: Down, Length: 5},
		{Row: 4, Col: 0, Direction: Across, Length: 5},
	})
}

func TestSlotsSkipSingletons(t *testing.T) {
	is := is.New(t)
	// Lone fillable cells form no slot.
	g, err := ParseStructureString("_█_\n███\n_█_")
	is.NoErr(err)
	is.Equal(len(g.Slots()), 0)
}

func TestSlotCells(t *testing.T) {
	is := is.New(t)
	across := Slot{Row: 1, Col: 0, Direction: Across, Length: 3}
	r, c := across.Cell(2)
	is.Equal(r, 1)
	is.Equal(c, 2)
	down := Slot{Row: 0, Col: 1, Direction: Down, Length: 3}
	r, c = down.Cell(2)
	is.Equal(r, 2)
	is.Equal(c, 1)
}
