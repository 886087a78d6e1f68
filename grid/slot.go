package grid

import "fmt"

// Direction of a slot in the grid.
type Direction int8

const (
	Across Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Across {
		return "across"
	}
	return "down"
}

// A Slot is a maximal run of fillable cells in one direction; the unit
// a word gets assigned to. Two slots are equal iff all four fields
// match, so Slot works as a map key.
type Slot struct {
	Row       int
	Col       int
	Direction Direction
	Length    int
}

func (s Slot) String() string {
	return fmt.Sprintf("(%d,%d) %s len=%d", s.Row, s.Col, s.Direction, s.Length)
}

// Cell returns the grid coordinates of the i-th cell of this slot.
func (s Slot) Cell(i int) (int, int) {
	if s.Direction == Across {
		return s.Row, s.Col + i
	}
	return s.Row + i, s.Col
}

// Less orders slots by row, then column, then across before down.
// Everywhere the solver's iteration order is observable it iterates
// slots in this order, so solves are reproducible.
func Less(a, b Slot) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	if a.Col != b.Col {
		return a.Col < b.Col
	}
	if a.Direction != b.Direction {
		return a.Direction < b.Direction
	}
	return a.Length < b.Length
}
