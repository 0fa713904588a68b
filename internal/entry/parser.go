// Package entry extracts structured lockdown entries from a territory sheet.
//
// A territory sheet holds a fixed number of entry slots laid out side by side,
// sheet.EntryWidth columns apart. Inside a slot every field is a row: metadata
// rows carry a single value in their first column, structured rows carry a
// {start, end, value} triple.
package entry

import (
	"fmt"

	"github.com/ilyasfoo/lockdown/internal/enum"
	"github.com/ilyasfoo/lockdown/internal/model"
	"github.com/ilyasfoo/lockdown/internal/sheet"
)

// ReadyStatus is the only status whose entries are published. The match is exact.
const ReadyStatus = "Ready"

const (
	metaFields = 5
	infoFields = 4
)

type section struct {
	rows   sheet.RowRange
	column string
	fields []Field
}

// Parser reads entries laid out according to a Layout.
type Parser struct {
	meta, info, measures, land, flight, sea section
}

// NewParser validates the layout. A malformed row range is a configuration
// error and is reported immediately.
func NewParser(l Layout) (*Parser, error) {
	p := &Parser{}
	for _, s := range []struct {
		name   string
		in     Section
		out    *section
		fields int
	}{
		{"meta", l.Meta, &p.meta, metaFields},
		{"info", l.Info, &p.info, infoFields},
		{"measures", l.Measures, &p.measures, -1},
		{"land", l.Land, &p.land, -1},
		{"flight", l.Flight, &p.flight, -1},
		{"sea", l.Sea, &p.sea, -1},
	} {
		rows, err := sheet.ParseRowRange(s.in.Rows)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", s.name, err)
		}
		if _, err := sheet.LetterToColumn(s.in.Column); err != nil {
			return nil, fmt.Errorf("layout %s: %w", s.name, err)
		}
		if s.fields > 0 && (rows.End-rows.Start+1 != s.fields || len(s.in.Fields) != s.fields) {
			return nil, fmt.Errorf("layout %s: want %d rows and fields", s.name, s.fields)
		}
		if len(s.in.Fields) > rows.End-rows.Start+1 {
			return nil, fmt.Errorf("layout %s: %d fields do not fit rows %s", s.name, len(s.in.Fields), rows)
		}
		*s.out = section{rows: rows, column: s.in.Column, fields: s.in.Fields}
	}
	return p, nil
}

func (p *Parser) sections() []section {
	return []section{p.meta, p.info, p.measures, p.land, p.flight, p.sea}
}

// Window returns the smallest block, starting at row 1, that holds every
// section of the first `slots` entry slots. Fetching it once per territory is
// enough to parse all of them.
func (p *Parser) Window(slots int) (sheet.RangeAddress, error) {
	first, lastRow := 0, 0
	for _, s := range p.sections() {
		col, err := sheet.LetterToColumn(s.column)
		if err != nil {
			return sheet.RangeAddress{}, err
		}
		if first == 0 || col < first {
			first = col
		}
		if s.rows.End > lastRow {
			lastRow = s.rows.End
		}
	}
	letter, err := sheet.ColumnToLetter(first)
	if err != nil {
		return sheet.RangeAddress{}, err
	}
	w, err := sheet.CacheWindow(letter, slots, lastRow)
	if err != nil || slots < 1 {
		return w, err
	}
	// a section anchored right of the leftmost one reaches further out
	for _, s := range p.sections() {
		last, err := sheet.EntryRange(s.rows, slots-1, s.column)
		if err != nil {
			return sheet.RangeAddress{}, err
		}
		if last.EndCol > w.EndCol {
			w.EndCol = last.EndCol
		}
	}
	return w, nil
}

func (s section) read(r sheet.Reader, slot int) ([][]string, error) {
	addr, err := sheet.EntryRange(s.rows, slot, s.column)
	if err != nil {
		return nil, err
	}
	return r.Cells(addr)
}

// Parse extracts the entry in the given slot. It returns ok=false, without
// reading anything past the metadata rows, when the slot is not Ready.
func (p *Parser) Parse(r sheet.Reader, slot int) (e *model.Entry, ok bool, err error) {
	metaRows, err := p.meta.read(r, slot)
	if err != nil {
		return nil, false, fmt.Errorf("slot %d meta: %w", slot, err)
	}
	meta := firstColumn(metaRows)
	if meta[2] != ReadyStatus {
		return nil, false, nil
	}

	infoRows, err := p.info.read(r, slot)
	if err != nil {
		return nil, false, fmt.Errorf("slot %d info: %w", slot, err)
	}
	info := firstColumn(infoRows)

	e = &model.Entry{
		Editor:      meta[0],
		ReviewedBy:  meta[1],
		Status:      meta[2],
		Type:        meta[3],
		DateOfEntry: meta[4],
		Name:        info[0],
		URL:         info[1],
		Title:       info[2],
		Date:        info[3],
	}

	for _, s := range []struct {
		name string
		sec  section
		dst  *[]model.Measurement
	}{
		{"measures", p.measures, &e.Measures},
		{"land", p.land, &e.Travel.Land},
		{"flight", p.flight, &e.Travel.Flight},
		{"sea", p.sea, &e.Travel.Sea},
	} {
		rows, err := s.sec.read(r, slot)
		if err != nil {
			return nil, false, fmt.Errorf("slot %d %s: %w", slot, s.name, err)
		}
		*s.dst = parseStructure(rows, s.sec.fields)
	}
	return e, true, nil
}

func firstColumn(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			out[i] = row[0]
		}
	}
	return out
}

// parseStructure turns {start, end, value} rows into measurements. Empty start
// and end are dropped; rows past the field table keep their raw value.
func parseStructure(rows [][]string, fields []Field) []model.Measurement {
	out := make([]model.Measurement, 0, len(rows))
	for i, row := range rows {
		var start, end, raw string
		if len(row) > 0 {
			start = row[0]
		}
		if len(row) > 1 {
			end = row[1]
		}
		if len(row) > 2 {
			raw = row[2]
		}
		m := model.Measurement{Start: start, End: end, Value: enum.Value(raw)}
		if i < len(fields) {
			m.Label = fields[i].Label
			if d := fields[i].Domain; d != nil {
				m.Value = d.Normalize(raw)
			}
		}
		out = append(out, m)
	}
	return out
}
