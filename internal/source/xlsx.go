package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ilyasfoo/lockdown/internal/config"
	"github.com/ilyasfoo/lockdown/internal/sheet"
)

// xlsxSource reads ranges from a local workbook, typically an export of the
// tracker spreadsheet. The file is reopened on every batch so edits are picked up.
type xlsxSource struct {
	cfg config.XLSXConfig
}

func NewXLSXSource(cfg config.XLSXConfig) *xlsxSource {
	return &xlsxSource{cfg: cfg}
}

func (x *xlsxSource) Name() string { return "xlsx" }

func (x *xlsxSource) BatchGet(ctx context.Context, ranges []sheet.SheetRange) ([]sheet.Grid, error) {
	f, err := excelize.OpenFile(x.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %s: %w", x.cfg.Path, err)
	}
	defer f.Close()

	cache := map[string][][]string{}
	grids := make([]sheet.Grid, len(ranges))
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, ok := cache[r.Sheet]
		if !ok {
			rows, err = f.GetRows(r.Sheet)
			if err != nil {
				return nil, fmt.Errorf("xlsx: read %s: %w", r.Sheet, err)
			}
			cache[r.Sheet] = rows
		}
		grids[i] = sheet.Grid{Window: r.Range, Rows: window(rows, r.Range)}
	}
	return grids, nil
}

// window cuts the 1-based range out of rows read from A1.
func window(rows [][]string, r sheet.RangeAddress) [][]string {
	var out [][]string
	for i := r.StartRow - 1; i < r.EndRow && i < len(rows); i++ {
		line := rows[i]
		var cut []string
		if r.StartCol-1 < len(line) {
			cut = line[r.StartCol-1 : min(r.EndCol, len(line))]
		}
		out = append(out, cut)
	}
	return out
}
