package grid

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
)

// A Grid is the static geometry of a crossword structure: which cells
// may hold a letter and which are blocked. It is built once from a
// structure file and never mutated.
//
// The structure format is one line per row. An underscore marks a
// fillable cell; any other character marks a blocked cell. Rows may be
// ragged; short rows are padded with blocked cells.
type Grid struct {
	width  int
	height int
	cells  [][]bool
}

// BlockedGlyph is what rendering uses for a blocked cell.
const BlockedGlyph = '█'

const fillableRune = '_'

func ParseStructure(r io.Reader) (*Grid, error) {
	var rows []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rows = append(rows, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return structureFromRows(rows)
}

func ParseStructureFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseStructure(f)
}

// ParseStructureString is a convenience for tests and fixtures.
func ParseStructureString(s string) (*Grid, error) {
	return ParseStructure(strings.NewReader(s))
}

func structureFromRows(rows []string) (*Grid, error) {
	height := len(rows)
	if height == 0 {
		return nil, errors.New("structure is empty")
	}
	width := 0
	for _, row := range rows {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}
	if width == 0 {
		return nil, errors.New("structure has no columns")
	}
	cells := make([][]bool, height)
	for i, row := range rows {
		cells[i] = make([]bool, width)
		for j, r := range []rune(row) {
			cells[i][j] = r == fillableRune
		}
	}
	return &Grid{width: width, height: height, cells: cells}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Fillable reports whether the cell at (row, col) may hold a letter.
// Out-of-range coordinates are blocked.
func (g *Grid) Fillable(row, col int) bool {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return false
	}
	return g.cells[row][col]
}

// Slots extracts every maximal run of two or more fillable cells,
// across runs first within a row, sorted by the stable slot ordering.
func (g *Grid) Slots() []Slot {
	var slots []Slot
	for i := 0; i < g.height; i++ {
		for j := 0; j < g.width; j++ {
			if !g.cells[i][j] {
				continue
			}
			// A cell starts an across run if there is no fillable cell
			// to its left.
			if j == 0 || !g.cells[i][j-1] {
				length := 1
				for k := j + 1; k < g.width && g.cells[i][k]; k++ {
					length++
				}
				if length > 1 {
					slots = append(slots, Slot{Row: i, Col: j, Direction: Across, Length: length})
				}
			}
			if i == 0 || !g.cells[i-1][j] {
				length := 1
				for k := i + 1; k < g.height && g.cells[k][j]; k++ {
					length++
				}
				if length > 1 {
					slots = append(slots, Slot{Row: i, Col: j, Direction: Down, Length: length})
				}
			}
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return Less(slots[i], slots[j])
	})
	return slots
}

// String renders the bare structure, without letters.
func (g *Grid) String() string {
	var sb strings.Builder
	for i := 0; i < g.height; i++ {
		for j := 0; j < g.width; j++ {
			if g.cells[i][j] {
				sb.WriteRune(fillableRune)
			} else {
				sb.WriteRune(BlockedGlyph)
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
