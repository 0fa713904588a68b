package source

import (
	"context"
	"fmt"

	"github.com/ilyasfoo/lockdown/internal/config"
	"github.com/ilyasfoo/lockdown/internal/sheet"
)

// GridSource reads rectangular cell grids. BatchGet returns one grid per
// requested range, in request order, each windowed on the requested range.
type GridSource interface {
	Name() string
	BatchGet(ctx context.Context, ranges []sheet.SheetRange) ([]sheet.Grid, error)
}

func NewFromConfig(c config.SourceConfig) (GridSource, error) {
	switch c.Type {
	case "xlsx":
		return NewXLSXSource(c.XLSX), nil
	case "sheets":
		return NewSheetsSource(c.Sheets)
	default:
		return nil, fmt.Errorf("unknown source type: %s", c.Type)
	}
}
