// Package territory loads the reference list of territories and selects one
// lockdown entry per territory from batched sheet reads.
package territory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ilyasfoo/lockdown/internal/entry"
	"github.com/ilyasfoo/lockdown/internal/model"
	"github.com/ilyasfoo/lockdown/internal/sheet"
)

// GridSource fetches one grid per requested range, in request order.
type GridSource interface {
	BatchGet(ctx context.Context, ranges []sheet.SheetRange) ([]sheet.Grid, error)
}

type Options struct {
	ReferenceSheet string // sheet holding the territory list
	ReferenceRange string // e.g. D5:F253, columns territory, iso2, iso3
	TerritorySheet string // sheet name template, {iso2} {iso3} {name} are replaced
	BatchSize      int
	Entries        int // entry slots scanned per territory
}

// DefaultOptions mirrors the tracker spreadsheet.
func DefaultOptions() Options {
	return Options{
		ReferenceSheet: "Global",
		ReferenceRange: "D5:F253",
		TerritorySheet: "{iso3}",
		BatchSize:      25,
		Entries:        10,
	}
}

// Stats counts what one load saw.
type Stats struct {
	Territories  int
	WithEntry    int
	SkippedSlots int
	Batches      int
}

type Aggregator struct {
	src    GridSource
	parser *entry.Parser
	opts   Options
	window sheet.RangeAddress
	ref    sheet.RangeAddress
	log    *zap.Logger
}

func New(src GridSource, parser *entry.Parser, opts Options, log *zap.Logger) (*Aggregator, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 25
	}
	if opts.Entries <= 0 {
		opts.Entries = 10
	}
	if strings.TrimSpace(opts.TerritorySheet) == "" {
		opts.TerritorySheet = "{iso3}"
	}
	ref, err := sheet.ParseA1(opts.ReferenceRange)
	if err != nil {
		return nil, fmt.Errorf("reference range: %w", err)
	}
	if ref.Width() != 3 {
		return nil, fmt.Errorf("reference range %s: want 3 columns, got %d", ref, ref.Width())
	}
	window, err := parser.Window(opts.Entries)
	if err != nil {
		return nil, fmt.Errorf("entry window: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{src: src, parser: parser, opts: opts, window: window, ref: ref, log: log}, nil
}

// Territories reads the reference list. Rows without an ISO2 code are skipped.
func (a *Aggregator) Territories(ctx context.Context) ([]model.Territory, error) {
	grids, err := a.src.BatchGet(ctx, []sheet.SheetRange{{Sheet: a.opts.ReferenceSheet, Range: a.ref}})
	if err != nil {
		return nil, fmt.Errorf("fetch reference list: %w", err)
	}
	if len(grids) != 1 {
		return nil, fmt.Errorf("fetch reference list: got %d grids", len(grids))
	}
	rows, err := grids[0].Cells(a.ref)
	if err != nil {
		return nil, err
	}
	out := make([]model.Territory, 0, len(rows))
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		out = append(out, model.Territory{Name: row[0], ISO2: row[1], ISO3: row[2]})
	}
	a.log.Info("reference list loaded", zap.Int("territories", len(out)))
	return out, nil
}

// SheetName resolves the territory sheet template.
func (a *Aggregator) SheetName(t model.Territory) string {
	return strings.NewReplacer("{iso2}", t.ISO2, "{iso3}", t.ISO3, "{name}", t.Name).
		Replace(a.opts.TerritorySheet)
}

// Load fetches territory sheets in batches and keeps, per territory, the first
// Ready entry in slot order. Records follow the order of territories. Any
// fetch or layout error aborts the whole load.
func (a *Aggregator) Load(ctx context.Context, territories []model.Territory) ([]model.TerritoryRecord, Stats, error) {
	var st Stats
	out := make([]model.TerritoryRecord, 0, len(territories))
	for start := 0; start < len(territories); start += a.opts.BatchSize {
		end := min(start+a.opts.BatchSize, len(territories))
		batch := territories[start:end]

		ranges := make([]sheet.SheetRange, len(batch))
		codes := make([]string, len(batch))
		for i, t := range batch {
			ranges[i] = sheet.SheetRange{Sheet: a.SheetName(t), Range: a.window}
			codes[i] = t.ISO3
		}
		a.log.Debug("fetching batch", zap.Int("batch", st.Batches), zap.Strings("iso3", codes))

		grids, err := a.src.BatchGet(ctx, ranges)
		if err != nil {
			return nil, st, fmt.Errorf("fetch batch %d: %w", st.Batches, err)
		}
		if len(grids) != len(batch) {
			return nil, st, fmt.Errorf("fetch batch %d: got %d grids for %d ranges", st.Batches, len(grids), len(batch))
		}
		st.Batches++

		for i, t := range batch {
			rec, skipped, err := a.pick(t, grids[i])
			if err != nil {
				return nil, st, fmt.Errorf("territory %s: %w", t.ISO2, err)
			}
			st.Territories++
			st.SkippedSlots += skipped
			if rec.Lockdown.Entry != nil {
				st.WithEntry++
			}
			out = append(out, rec)
		}
	}
	return out, st, nil
}

// pick scans slots in ascending order and returns at the first Ready entry.
// Only one entry per territory is published for now.
func (a *Aggregator) pick(t model.Territory, g sheet.Grid) (model.TerritoryRecord, int, error) {
	rec := model.TerritoryRecord{ISOCode: t.ISO2}
	for slot := 0; slot < a.opts.Entries; slot++ {
		e, ok, err := a.parser.Parse(g, slot)
		if err != nil {
			return rec, slot, err
		}
		if ok {
			rec.Lockdown.Entry = e
			return rec, slot, nil
		}
	}
	a.log.Debug("no ready entry", zap.String("iso2", t.ISO2))
	return rec, a.opts.Entries, nil
}
