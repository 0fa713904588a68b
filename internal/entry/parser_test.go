package entry_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilyasfoo/lockdown/internal/entry"
	"github.com/ilyasfoo/lockdown/internal/entry/entrytest"
	"github.com/ilyasfoo/lockdown/internal/enum"
	"github.com/ilyasfoo/lockdown/internal/model"
	"github.com/ilyasfoo/lockdown/internal/sheet"
)

// countingReader records every range read through it.
type countingReader struct {
	sheet.Reader
	reads []string
}

func (c *countingReader) Cells(r sheet.RangeAddress) ([][]string, error) {
	c.reads = append(c.reads, r.String())
	return c.Reader.Cells(r)
}

func newParser(t *testing.T) (*entry.Parser, sheet.RangeAddress) {
	t.Helper()
	p, err := entry.NewParser(entry.DefaultLayout())
	require.NoError(t, err)
	w, err := p.Window(10)
	require.NoError(t, err)
	return p, w
}

func TestParseReadyEntry(t *testing.T) {
	p, w := newParser(t)
	b := entrytest.New().Slot(0, entrytest.Slot{
		Meta: [5]string{"ana", "ben", "Ready", "Government", "2020-04-01"},
		Info: [4]string{"Decree 12", "https://example.org/12", "Stay home", "2020-03-30"},
		Measures: [][3]string{
			{"", "", ""},
			{"2020-03-30", "2020-04-30", "YES"},
			{"", "", "maybe"},
		},
		Land:   [][3]string{{"", "", "Allowed"}, {"", "2020-05-01", "prohibited"}},
		Flight: [][3]string{{"", "", "N/A"}},
		Sea:    [][3]string{{"2020-03-01", "", "partial"}},
	})

	e, ok, err := p.Parse(b.Grid(w), 0)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "ana", e.Editor)
	assert.Equal(t, "ben", e.ReviewedBy)
	assert.Equal(t, "Ready", e.Status)
	assert.Equal(t, "Government", e.Type)
	assert.Equal(t, "2020-04-01", e.DateOfEntry)
	assert.Equal(t, "Decree 12", e.Name)
	assert.Equal(t, "https://example.org/12", e.URL)
	assert.Equal(t, "Stay home", e.Title)
	assert.Equal(t, "2020-03-30", e.Date)

	require.Len(t, e.Measures, 11)
	wantMeasures := []model.Measurement{
		{Label: "max_gathering"},
		{Label: "lockdown_status", Value: enum.Yes, Start: "2020-03-30", End: "2020-04-30"},
		{Label: "city_movement_restriction"},
	}
	if diff := cmp.Diff(wantMeasures, e.Measures[:3]); diff != "" {
		t.Errorf("measures (-want +got):\n%s", diff)
	}
	assert.Equal(t, "internet_nominal", e.Measures[10].Label)

	require.Len(t, e.Travel.Land, 7)
	require.Len(t, e.Travel.Flight, 7)
	require.Len(t, e.Travel.Sea, 7)
	assert.Equal(t, model.Measurement{Label: "local", Value: enum.Allowed}, e.Travel.Land[0])
	assert.Equal(t, model.Measurement{Label: "nationals_inbound", Value: enum.Prohibited, End: "2020-05-01"}, e.Travel.Land[1])
	assert.Equal(t, model.Measurement{Label: "local", Value: enum.NA}, e.Travel.Flight[0])
	assert.Equal(t, model.Measurement{Label: "local", Value: enum.Partial, Start: "2020-03-01"}, e.Travel.Sea[0])
}

func TestParseLabelOrder(t *testing.T) {
	p, w := newParser(t)
	b := entrytest.New().Slot(3, entrytest.ReadySlot("Ready", "no"))

	e, ok, err := p.Parse(b.Grid(w), 3)
	require.NoError(t, err)
	require.True(t, ok)

	labelsOf := func(ms []model.Measurement) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.Label)
		}
		return out
	}
	assert.Equal(t, []string{
		"max_gathering", "lockdown_status", "city_movement_restriction", "attending_religious_sites",
		"going_to_work", "military_not_deployed", "academia_allowed", "going_to_shops",
		"electricity_nominal", "water_nominal", "internet_nominal",
	}, labelsOf(e.Measures))
	landSea := []string{"local", "nationals_inbound", "nationals_outbound", "foreigners_inbound",
		"foreigners_outbound", "cross_border_workers", "commerce"}
	assert.Equal(t, landSea, labelsOf(e.Travel.Land))
	assert.Equal(t, landSea, labelsOf(e.Travel.Sea))
	assert.Equal(t, []string{"local", "nationals_inbound", "nationals_outbound", "foreigners_inbound",
		"foreigners_outbound", "stopovers", "commerce"}, labelsOf(e.Travel.Flight))
	assert.Equal(t, enum.No, e.Measures[1].Value)
	assert.Equal(t, enum.Unspecified, e.Measures[0].Value, "100 is not in the measure vocabulary")
}

func TestParseSkipsNonReadyWithoutFurtherReads(t *testing.T) {
	p, w := newParser(t)
	for _, status := range []string{"", "ready", "READY", "Pending", "Ready "} {
		b := entrytest.New().Slot(0, entrytest.ReadySlot(status, "yes"))
		r := &countingReader{Reader: b.Grid(w)}

		e, ok, err := p.Parse(r, 0)
		require.NoError(t, err)
		assert.False(t, ok, "status %q", status)
		assert.Nil(t, e)
		assert.Equal(t, []string{"I2:K6"}, r.reads, "status %q", status)
	}
}

func TestParseReadsEverySectionOfReadySlot(t *testing.T) {
	p, w := newParser(t)
	b := entrytest.New().Slot(1, entrytest.ReadySlot("Ready", "yes"))
	r := &countingReader{Reader: b.Grid(w)}

	_, ok, err := p.Parse(r, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"N2:P6", "M9:O12", "M14:O24", "M32:O38", "M42:O48", "M52:O58"}, r.reads)
}

func TestParseOutOfWindow(t *testing.T) {
	p, _ := newParser(t)
	small := sheet.Grid{Window: sheet.RangeAddress{StartCol: 8, EndCol: 20, StartRow: 1, EndRow: 60}}

	_, _, err := p.Parse(small, 5)
	assert.ErrorIs(t, err, sheet.ErrOutOfWindow)
}

func TestParseFieldsShorterThanRows(t *testing.T) {
	l := entry.DefaultLayout()
	l.Sea.Fields = l.Sea.Fields[:2]
	p, err := entry.NewParser(l)
	require.NoError(t, err)
	w, err := p.Window(1)
	require.NoError(t, err)

	s := entrytest.ReadySlot("Ready", "yes")
	s.Sea = [][3]string{{"", "", "allowed"}, {"", "", "allowed"}, {"2020-01-01", "", "Whatever"}}
	e, ok, err := p.Parse(entrytest.New().Slot(0, s).Grid(w), 0)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, e.Travel.Sea, 7)
	assert.Equal(t, model.Measurement{Label: "nationals_inbound", Value: enum.Allowed}, e.Travel.Sea[1])
	assert.Equal(t, model.Measurement{Value: "Whatever", Start: "2020-01-01"}, e.Travel.Sea[2])
}

func TestNewParserRejectsMalformedLayout(t *testing.T) {
	l := entry.DefaultLayout()
	l.Measures.Rows = "14-24"
	_, err := entry.NewParser(l)
	assert.ErrorIs(t, err, sheet.ErrMalformedRange)

	l = entry.DefaultLayout()
	l.Meta.Rows = "2:5"
	_, err = entry.NewParser(l)
	assert.Error(t, err)

	l = entry.DefaultLayout()
	l.Land.Rows = "32:34"
	_, err = entry.NewParser(l)
	assert.Error(t, err)
}

func TestWindow(t *testing.T) {
	_, w := newParser(t)
	assert.Equal(t, "H1:BF58", w.String())
}

func TestWindowCoversSectionsRightOfLeftmost(t *testing.T) {
	l := entry.DefaultLayout()
	l.Meta.Column = "M"
	p, err := entry.NewParser(l)
	require.NoError(t, err)

	w, err := p.Window(10)
	require.NoError(t, err)
	assert.Equal(t, "H1:BH58", w.String())

	// status of the last slot sits at row 4, nine slots right of M
	rows := make([][]string, 4)
	rows[3] = make([]string, w.Width())
	statusCol, err := sheet.LetterToColumn("BF")
	require.NoError(t, err)
	rows[3][statusCol-w.StartCol] = "Ready"

	e, ok, err := p.Parse(sheet.Grid{Window: w, Rows: rows}, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ready", e.Status)
}
