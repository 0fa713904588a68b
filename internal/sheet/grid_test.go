package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridCells(t *testing.T) {
	g := Grid{
		Window: RangeAddress{StartCol: 8, EndCol: 12, StartRow: 1, EndRow: 4},
		Rows: [][]string{
			{"h1", "i1", "j1"},
			{},
			{"h3", "i3", "j3", "k3", "l3"},
		},
	}

	got, err := g.Cells(RangeAddress{StartCol: 9, EndCol: 11, StartRow: 1, EndRow: 4})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"i1", "j1", ""},
		{"", "", ""},
		{"i3", "j3", "k3"},
		{"", "", ""},
	}, got)
}

func TestGridCellsOutsideWindow(t *testing.T) {
	g := Grid{Window: RangeAddress{StartCol: 8, EndCol: 58, StartRow: 1, EndRow: 60}}

	for _, r := range []RangeAddress{
		{StartCol: 7, EndCol: 9, StartRow: 2, EndRow: 6},
		{StartCol: 57, EndCol: 59, StartRow: 2, EndRow: 6},
		{StartCol: 8, EndCol: 10, StartRow: 55, EndRow: 61},
	} {
		_, err := g.Cells(r)
		assert.ErrorIs(t, err, ErrOutOfWindow, r.String())
	}
}
