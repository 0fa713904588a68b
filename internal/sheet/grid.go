package sheet

import (
	"errors"
	"fmt"
)

// ErrOutOfWindow is returned when a slice is requested outside the fetched window.
var ErrOutOfWindow = errors.New("range outside fetched window")

// Grid is a block of cell values fetched in one remote read. Rows are relative to
// Window's top-left cell and may be ragged: trailing empty cells and rows are
// often omitted by the source.
type Grid struct {
	Window RangeAddress
	Rows   [][]string
}

// Reader returns the cell values of a range.
type Reader interface {
	Cells(r RangeAddress) ([][]string, error)
}

// Cells slices r out of the already fetched window. It never reaches back to the
// source; asking for anything outside Window is a defect in the caller's layout.
// The result is always rectangular, missing cells come back as "".
func (g Grid) Cells(r RangeAddress) ([][]string, error) {
	if !g.Window.Contains(r) {
		return nil, fmt.Errorf("%w: %s not in %s", ErrOutOfWindow, r, g.Window)
	}
	out := make([][]string, r.Height())
	for i := range out {
		row := make([]string, r.Width())
		src := r.StartRow - g.Window.StartRow + i
		if src < len(g.Rows) {
			line := g.Rows[src]
			for j := range row {
				c := r.StartCol - g.Window.StartCol + j
				if c < len(line) {
					row[j] = line[c]
				}
			}
		}
		out[i] = row
	}
	return out, nil
}
