// Package totals reduces territory records to lockdown-status series and counts
// locked down territories per snapshot.
package totals

import (
	"errors"
	"fmt"

	"github.com/ilyasfoo/lockdown/internal/enum"
	"github.com/ilyasfoo/lockdown/internal/model"
)

// StatusLabel is the measurement that carries a territory's lockdown status.
const StatusLabel = "lockdown_status"

// ErrSeriesLength is returned when territories disagree on the number of snapshots.
var ErrSeriesLength = errors.New("status series length mismatch")

// Series is the lockdown status of one territory across snapshots.
type Series []enum.Value

// TerritorySeries pairs a territory code with its series. Slices of it keep
// the reference-list order, which decides what "first territory" means.
type TerritorySeries struct {
	ISO2   string
	Series Series
}

// Policy decides whether a status counts as locked down.
type Policy interface {
	IsLockdown(v enum.Value) bool
}

// ValuePolicy counts a fixed set of values as locked down.
type ValuePolicy map[enum.Value]struct{}

func NewValuePolicy(values ...enum.Value) ValuePolicy {
	p := make(ValuePolicy, len(values))
	for _, v := range values {
		p[v] = struct{}{}
	}
	return p
}

// DefaultPolicy counts only "yes".
func DefaultPolicy() ValuePolicy { return NewValuePolicy(enum.Yes) }

func (p ValuePolicy) IsLockdown(v enum.Value) bool {
	_, ok := p[v]
	return ok
}

// StatusSeries extracts the lockdown status of every record. One entry is
// published per territory, so each series holds a single snapshot; territories
// without an entry get Unspecified.
func StatusSeries(records []model.TerritoryRecord) []TerritorySeries {
	out := make([]TerritorySeries, 0, len(records))
	for _, r := range records {
		m, _ := r.Lockdown.Entry.Measure(StatusLabel)
		out = append(out, TerritorySeries{ISO2: r.ISOCode, Series: Series{m.Value}})
	}
	return out
}

// Summarize builds the datafile rows keyed by ISO2.
func Summarize(records []model.TerritoryRecord) map[string]model.SummaryRecord {
	out := make(map[string]model.SummaryRecord, len(records))
	for _, r := range records {
		m, _ := r.Lockdown.Entry.Measure(StatusLabel)
		out[r.ISOCode] = model.SummaryRecord{Lockdown: model.Summary{LockdownStatus: m.Value}}
	}
	return out
}

// SnapshotLength returns the length shared by every series, taken from the
// first one. Zero series have length zero.
func SnapshotLength(series []TerritorySeries) (int, error) {
	if len(series) == 0 {
		return 0, nil
	}
	n := len(series[0].Series)
	for _, s := range series[1:] {
		if len(s.Series) != n {
			return 0, fmt.Errorf("%w: %s has %d snapshots, %s has %d",
				ErrSeriesLength, series[0].ISO2, n, s.ISO2, len(s.Series))
		}
	}
	return n, nil
}

// SumLockdown counts, for every snapshot index, the territories whose status
// satisfies the policy.
func SumLockdown(series []TerritorySeries, policy Policy) ([]int, error) {
	n, err := SnapshotLength(series)
	if err != nil {
		return nil, err
	}
	totals := make([]int, n)
	for i := 0; i < n; i++ {
		for _, s := range series {
			if policy.IsLockdown(s.Series[i]) {
				totals[i]++
			}
		}
	}
	return totals, nil
}
