// Package entrytest builds territory sheets laid out like entry.DefaultLayout
// for tests.
package entrytest

import (
	"github.com/xuri/excelize/v2"

	"github.com/ilyasfoo/lockdown/internal/entry"
	"github.com/ilyasfoo/lockdown/internal/sheet"
)

// Slot is the raw content of one entry slot. Structured rows are {start, end, value}.
type Slot struct {
	Meta     [5]string
	Info     [4]string
	Measures [][3]string
	Land     [][3]string
	Flight   [][3]string
	Sea      [][3]string
}

// ReadySlot returns a slot with the given status whose lockdown_status is value.
func ReadySlot(status, lockdownStatus string) Slot {
	return Slot{
		Meta:     [5]string{"editor", "reviewer", status, "Government", "2020-04-01"},
		Info:     [4]string{"Decree", "https://example.org", "Stay home", "2020-03-30"},
		Measures: [][3]string{{"", "", "100"}, {"2020-03-30", "", lockdownStatus}},
		Land:     [][3]string{{"", "", "Allowed"}},
		Flight:   [][3]string{{"", "", "prohibited"}},
		Sea:      [][3]string{{"", "", "n/a"}},
	}
}

// Builder accumulates cells keyed by 1-based (row, column).
type Builder struct {
	layout entry.Layout
	cells  map[[2]int]string
	maxRow int
	maxCol int
}

func New() *Builder {
	return &Builder{layout: entry.DefaultLayout(), cells: map[[2]int]string{}}
}

func (b *Builder) set(row, col int, v string) {
	if v == "" {
		return
	}
	b.cells[[2]int{row, col}] = v
	if row > b.maxRow {
		b.maxRow = row
	}
	if col > b.maxCol {
		b.maxCol = col
	}
}

func (b *Builder) place(s entry.Section, slot int, rows [][3]string) {
	rr, err := sheet.ParseRowRange(s.Rows)
	if err != nil {
		panic(err)
	}
	addr, err := sheet.EntryRange(rr, slot, s.Column)
	if err != nil {
		panic(err)
	}
	for i, row := range rows {
		for j, v := range row {
			b.set(addr.StartRow+i, addr.StartCol+j, v)
		}
	}
}

func singles(vs []string) [][3]string {
	out := make([][3]string, len(vs))
	for i, v := range vs {
		out[i][0] = v
	}
	return out
}

// Slot writes s into the given slot index.
func (b *Builder) Slot(slot int, s Slot) *Builder {
	b.place(b.layout.Meta, slot, singles(s.Meta[:]))
	b.place(b.layout.Info, slot, singles(s.Info[:]))
	b.place(b.layout.Measures, slot, s.Measures)
	b.place(b.layout.Land, slot, s.Land)
	b.place(b.layout.Flight, slot, s.Flight)
	b.place(b.layout.Sea, slot, s.Sea)
	return b
}

// Cells returns every written cell as A1 name -> value.
func (b *Builder) Cells() map[string]string {
	out := make(map[string]string, len(b.cells))
	for k, v := range b.cells {
		name, err := excelize.CoordinatesToCellName(k[1], k[0])
		if err != nil {
			panic(err)
		}
		out[name] = v
	}
	return out
}

// Rows returns the cells inside window, ragged like a remote source would send them.
func (b *Builder) Rows(window sheet.RangeAddress) [][]string {
	var rows [][]string
	for r := window.StartRow; r <= window.EndRow && r <= b.maxRow; r++ {
		var line []string
		for c := window.StartCol; c <= window.EndCol && c <= b.maxCol; c++ {
			line = append(line, b.cells[[2]int{r, c}])
		}
		for len(line) > 0 && line[len(line)-1] == "" {
			line = line[:len(line)-1]
		}
		rows = append(rows, line)
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}

// Grid returns the window as a fetched grid.
func (b *Builder) Grid(window sheet.RangeAddress) sheet.Grid {
	return sheet.Grid{Window: window, Rows: b.Rows(window)}
}
