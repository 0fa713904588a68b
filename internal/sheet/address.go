// Package sheet holds the A1 addressing arithmetic and the fetched cell grids
// that the entry parser slices locally.
package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMalformedRange is returned for row ranges or A1 ranges that cannot be parsed.
var ErrMalformedRange = errors.New("malformed range")

// EntryWidth is the number of columns between two consecutive entry slots.
const EntryWidth = 5

// fieldSpan is the number of columns covering one {start, end, value} triple.
const fieldSpan = 3

// LetterToColumn converts a column name (A, Z, AA, ...) to its 1-based number.
func LetterToColumn(letter string) (int, error) {
	n, err := excelize.ColumnNameToNumber(letter)
	if err != nil {
		return 0, fmt.Errorf("%w: column %q: %v", ErrMalformedRange, letter, err)
	}
	return n, nil
}

// ColumnToLetter converts a 1-based column number to its name.
func ColumnToLetter(col int) (string, error) {
	s, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "", fmt.Errorf("%w: column %d: %v", ErrMalformedRange, col, err)
	}
	return s, nil
}

// RangeAddress is a rectangular, 1-based, inclusive block of cells.
type RangeAddress struct {
	StartCol int
	EndCol   int
	StartRow int
	EndRow   int
}

// Width returns the number of columns in the range.
func (r RangeAddress) Width() int { return r.EndCol - r.StartCol + 1 }

// Height returns the number of rows in the range.
func (r RangeAddress) Height() int { return r.EndRow - r.StartRow + 1 }

// Contains reports whether o lies entirely inside r.
func (r RangeAddress) Contains(o RangeAddress) bool {
	return o.StartCol >= r.StartCol && o.EndCol <= r.EndCol &&
		o.StartRow >= r.StartRow && o.EndRow <= r.EndRow
}

// String renders the range in A1 notation, e.g. "H2:J6".
func (r RangeAddress) String() string {
	from, err := excelize.CoordinatesToCellName(r.StartCol, r.StartRow)
	if err != nil {
		return fmt.Sprintf("R%dC%d:R%dC%d", r.StartRow, r.StartCol, r.EndRow, r.EndCol)
	}
	to, err := excelize.CoordinatesToCellName(r.EndCol, r.EndRow)
	if err != nil {
		return fmt.Sprintf("R%dC%d:R%dC%d", r.StartRow, r.StartCol, r.EndRow, r.EndCol)
	}
	return from + ":" + to
}

// ParseA1 parses a range such as "D5:F253".
func ParseA1(s string) (RangeAddress, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return RangeAddress{}, fmt.Errorf("%w: %q has no colon", ErrMalformedRange, s)
	}
	c1, r1, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return RangeAddress{}, fmt.Errorf("%w: %q: %v", ErrMalformedRange, s, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return RangeAddress{}, fmt.Errorf("%w: %q: %v", ErrMalformedRange, s, err)
	}
	if c2 < c1 || r2 < r1 {
		return RangeAddress{}, fmt.Errorf("%w: %q is inverted", ErrMalformedRange, s)
	}
	return RangeAddress{StartCol: c1, EndCol: c2, StartRow: r1, EndRow: r2}, nil
}

// RowRange is an inclusive span of 1-based rows such as "14:24".
type RowRange struct {
	Start int
	End   int
}

// ParseRowRange parses "start:end". A missing colon or a non-numeric bound is an error.
func ParseRowRange(s string) (RowRange, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return RowRange{}, fmt.Errorf("%w: row range %q has no colon", ErrMalformedRange, s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || start < 1 {
		return RowRange{}, fmt.Errorf("%w: row range %q: bad start", ErrMalformedRange, s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil || end < start {
		return RowRange{}, fmt.Errorf("%w: row range %q: bad end", ErrMalformedRange, s)
	}
	return RowRange{Start: start, End: end}, nil
}

func (r RowRange) String() string { return fmt.Sprintf("%d:%d", r.Start, r.End) }

// EntryRange returns the three-column block used by entry slot `slot` over the
// given rows. Slot i starts EntryWidth*i columns to the right of initialColumn.
// For example ("2:10", 0, "H") gives H2:J10 and ("2:10", 1, "H") gives M2:O10.
func EntryRange(rows RowRange, slot int, initialColumn string) (RangeAddress, error) {
	if slot < 0 {
		return RangeAddress{}, fmt.Errorf("%w: negative slot %d", ErrMalformedRange, slot)
	}
	base, err := LetterToColumn(initialColumn)
	if err != nil {
		return RangeAddress{}, err
	}
	start := base + slot*EntryWidth
	return RangeAddress{
		StartCol: start,
		EndCol:   start + fieldSpan - 1,
		StartRow: rows.Start,
		EndRow:   rows.End,
	}, nil
}

// CacheWindow returns the block fetched once per territory so that every slot
// can be sliced locally: from initialColumn row 1 up to lastRow, wide enough
// for `slots` entries.
func CacheWindow(initialColumn string, slots, lastRow int) (RangeAddress, error) {
	base, err := LetterToColumn(initialColumn)
	if err != nil {
		return RangeAddress{}, err
	}
	if slots < 1 || lastRow < 1 {
		return RangeAddress{}, fmt.Errorf("%w: cache window needs slots and rows", ErrMalformedRange)
	}
	return RangeAddress{
		StartCol: base,
		EndCol:   base + slots*EntryWidth,
		StartRow: 1,
		EndRow:   lastRow,
	}, nil
}

// SheetRange names a range on a specific sheet.
type SheetRange struct {
	Sheet string
	Range RangeAddress
}

// String renders "'Sheet'!A1:B2". The name is always quoted: ISO3 codes
// such as "AFG" or "ALB" are also valid cell references.
func (s SheetRange) String() string {
	return "'" + strings.ReplaceAll(s.Sheet, "'", "''") + "'!" + s.Range.String()
}
