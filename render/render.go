// Package render turns a completed (or partial) fill into text.
package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/domino14/crossfill/grid"
	"github.com/domino14/crossfill/solver"
)

// Letters maps an assignment onto the grid, one rune per cell: the
// assigned letter, a space for an unfilled cell, the blocked glyph
// elsewhere.
func Letters(p *grid.Puzzle, a solver.Assignment) [][]rune {
	g := p.Grid()
	cells := make([][]rune, g.Height())
	for i := range cells {
		cells[i] = make([]rune, g.Width())
		for j := range cells[i] {
			if g.Fillable(i, j) {
				cells[i][j] = ' '
			} else {
				cells[i][j] = grid.BlockedGlyph
			}
		}
	}
	for slot, w := range a {
		for i, r := range []rune(w) {
			row, col := slot.Cell(i)
			cells[row][col] = r
		}
	}
	return cells
}

// Rows returns the fill as one string per grid row.
func Rows(p *grid.Puzzle, a solver.Assignment) []string {
	cells := Letters(p, a)
	rows := make([]string, len(cells))
	for i, row := range cells {
		rows[i] = string(row)
	}
	return rows
}

// Text is the fill rows joined by newlines.
func Text(p *grid.Puzzle, a solver.Assignment) string {
	return strings.Join(Rows(p, a), "\n")
}

// ToDisplayText renders the fill with column letters and row numbers,
// for the shell.
func ToDisplayText(p *grid.Puzzle, a solver.Assignment) string {
	cells := Letters(p, a)
	w := p.Grid().Width()
	var str string
	row := "   "
	for j := 0; j < w; j++ {
		row = row + fmt.Sprintf("%c", 'A'+j) + " "
	}
	str = str + row + "\n"
	str = str + "   " + strings.Repeat("-", w*2) + "\n"
	for i := range cells {
		row := fmt.Sprintf("%2d|", i+1)
		for j := range cells[i] {
			row = row + string(cells[i][j]) + " "
		}
		row = row + "|"
		str = str + row + "\n"
	}
	str = str + "   " + strings.Repeat("-", w*2) + "\n"
	return "\n" + str
}

// Save writes the plain text fill to path.
func Save(path string, p *grid.Puzzle, a solver.Assignment) error {
	return os.WriteFile(path, []byte(Text(p, a)+"\n"), 0644)
}
