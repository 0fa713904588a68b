package territory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ilyasfoo/lockdown/internal/entry"
	"github.com/ilyasfoo/lockdown/internal/entry/entrytest"
	"github.com/ilyasfoo/lockdown/internal/enum"
	"github.com/ilyasfoo/lockdown/internal/model"
	"github.com/ilyasfoo/lockdown/internal/sheet"
)

type fakeSource struct {
	reference [][]string
	sheets    map[string]*entrytest.Builder
	calls     [][]string
	failOn    int
}

func (f *fakeSource) BatchGet(_ context.Context, ranges []sheet.SheetRange) ([]sheet.Grid, error) {
	var names []string
	for _, r := range ranges {
		names = append(names, r.String())
	}
	f.calls = append(f.calls, names)
	if f.failOn > 0 && len(f.calls) == f.failOn {
		return nil, errors.New("quota exceeded")
	}
	out := make([]sheet.Grid, len(ranges))
	for i, r := range ranges {
		if r.Sheet == "Global" {
			out[i] = sheet.Grid{Window: r.Range, Rows: f.reference}
			continue
		}
		b, ok := f.sheets[r.Sheet]
		if !ok {
			b = entrytest.New()
		}
		out[i] = b.Grid(r.Range)
	}
	return out, nil
}

func newAggregator(t *testing.T, src GridSource, opts Options) *Aggregator {
	t.Helper()
	p, err := entry.NewParser(entry.DefaultLayout())
	require.NoError(t, err)
	a, err := New(src, p, opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return a
}

func TestTerritories(t *testing.T) {
	src := &fakeSource{reference: [][]string{
		{"Afghanistan", "AF", "AFG"},
		{"Albania", "AL", "ALB"},
		{},
		{"Algeria", "DZ", "DZA"},
	}}
	a := newAggregator(t, src, DefaultOptions())

	got, err := a.Territories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Territory{
		{Name: "Afghanistan", ISO2: "AF", ISO3: "AFG"},
		{Name: "Albania", ISO2: "AL", ISO3: "ALB"},
		{Name: "Algeria", ISO2: "DZ", ISO3: "DZA"},
	}, got)
	assert.Equal(t, [][]string{{"'Global'!D5:F253"}}, src.calls)
}

func TestLoadPicksFirstReadySlot(t *testing.T) {
	src := &fakeSource{sheets: map[string]*entrytest.Builder{
		"AFG": entrytest.New().
			Slot(0, entrytest.ReadySlot("Pending", "no")).
			Slot(2, entrytest.ReadySlot("Ready", "yes")).
			Slot(5, entrytest.ReadySlot("Ready", "partial")),
		"ALB": entrytest.New().Slot(9, entrytest.ReadySlot("Ready", "no")),
		"DZA": entrytest.New().Slot(0, entrytest.ReadySlot("ready", "yes")),
	}}
	a := newAggregator(t, src, DefaultOptions())

	recs, st, err := a.Load(context.Background(), []model.Territory{
		{ISO2: "AF", ISO3: "AFG"}, {ISO2: "AL", ISO3: "ALB"}, {ISO2: "DZ", ISO3: "DZA"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "AF", recs[0].ISOCode)
	af, _ := recs[0].Lockdown.Entry.Measure("lockdown_status")
	assert.Equal(t, enum.Yes, af.Value, "slot 2 wins over slot 5")

	assert.Equal(t, "AL", recs[1].ISOCode)
	al, _ := recs[1].Lockdown.Entry.Measure("lockdown_status")
	assert.Equal(t, enum.No, al.Value)

	assert.Equal(t, "DZ", recs[2].ISOCode)
	assert.Nil(t, recs[2].Lockdown.Entry)

	assert.Equal(t, Stats{Territories: 3, WithEntry: 2, SkippedSlots: 2 + 9 + 10, Batches: 1}, st)
	assert.Equal(t, [][]string{{"'AFG'!H1:BF58", "'ALB'!H1:BF58", "'DZA'!H1:BF58"}}, src.calls)
}

func TestLoadBatches(t *testing.T) {
	var ts []model.Territory
	for i := 0; i < 60; i++ {
		ts = append(ts, model.Territory{ISO2: fmt.Sprintf("T%d", i), ISO3: fmt.Sprintf("T%02d", i)})
	}
	src := &fakeSource{}
	a := newAggregator(t, src, DefaultOptions())

	recs, st, err := a.Load(context.Background(), ts)
	require.NoError(t, err)
	require.Len(t, recs, 60)
	for i, r := range recs {
		assert.Equal(t, ts[i].ISO2, r.ISOCode)
	}
	require.Len(t, src.calls, 3)
	assert.Len(t, src.calls[0], 25)
	assert.Len(t, src.calls[1], 25)
	assert.Len(t, src.calls[2], 10)
	assert.Equal(t, 3, st.Batches)
}

func TestLoadAbortsOnFetchError(t *testing.T) {
	var ts []model.Territory
	for i := 0; i < 30; i++ {
		ts = append(ts, model.Territory{ISO2: fmt.Sprintf("T%d", i), ISO3: fmt.Sprintf("T%02d", i)})
	}
	src := &fakeSource{failOn: 2}
	a := newAggregator(t, src, DefaultOptions())

	recs, _, err := a.Load(context.Background(), ts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Nil(t, recs)
}

func TestSheetNameTemplate(t *testing.T) {
	opts := DefaultOptions()
	opts.TerritorySheet = "{name} ({iso2})"
	a := newAggregator(t, &fakeSource{}, opts)
	assert.Equal(t, "Albania (AL)", a.SheetName(model.Territory{Name: "Albania", ISO2: "AL", ISO3: "ALB"}))

	opts.TerritorySheet = "DEMO"
	a = newAggregator(t, &fakeSource{}, opts)
	assert.Equal(t, "DEMO", a.SheetName(model.Territory{ISO2: "AL"}))
}

func TestNewRejectsBadReferenceRange(t *testing.T) {
	p, err := entry.NewParser(entry.DefaultLayout())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.ReferenceRange = "D5"
	_, err = New(&fakeSource{}, p, opts, nil)
	assert.ErrorIs(t, err, sheet.ErrMalformedRange)

	opts.ReferenceRange = "D5:E253"
	_, err = New(&fakeSource{}, p, opts, nil)
	assert.Error(t, err)
}
