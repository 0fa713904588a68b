package model

import (
	"encoding/json"

	"github.com/ilyasfoo/lockdown/internal/enum"
)

// Territory is one row of the reference list. ISO2 is the identity key.
type Territory struct {
	Name string `json:"territory"`
	ISO2 string `json:"iso2"`
	ISO3 string `json:"iso3"`
}

// Measurement is a labeled policy fact, optionally scoped to a date range.
// Travel directions share the same shape.
type Measurement struct {
	Label string     `json:"label"`
	Value enum.Value `json:"value"`
	Start string     `json:"start,omitempty"`
	End   string     `json:"end,omitempty"`
}

type Travel struct {
	Land   []Measurement `json:"land"`
	Flight []Measurement `json:"flight"`
	Sea    []Measurement `json:"sea"`
}

// Entry is one reported snapshot for a territory. Only entries whose status is
// "Ready" are ever built.
type Entry struct {
	Editor      string        `json:"editor"`
	ReviewedBy  string        `json:"reviewed_by"`
	Status      string        `json:"status"`
	Type        string        `json:"type"`
	DateOfEntry string        `json:"date_of_entry"`
	Name        string        `json:"name"`
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	Date        string        `json:"date"`
	Measures    []Measurement `json:"measures"`
	Travel      Travel        `json:"travel"`
}

// Measure returns the measurement with the given label.
func (e *Entry) Measure(label string) (Measurement, bool) {
	if e == nil {
		return Measurement{}, false
	}
	for _, m := range e.Measures {
		if m.Label == label {
			return m, true
		}
	}
	return Measurement{}, false
}

// Lockdown is the entry selected for a territory; nil when no slot was Ready.
// A nil Lockdown is published as {}.
type Lockdown struct {
	Entry *Entry
}

func (l Lockdown) MarshalJSON() ([]byte, error) {
	if l.Entry == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l.Entry)
}

func (l *Lockdown) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		l.Entry = nil
		return nil
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return err
	}
	l.Entry = &e
	return nil
}

// TerritoryRecord is the per-territory unit produced by one load.
type TerritoryRecord struct {
	ISOCode  string   `json:"isoCode"`
	Lockdown Lockdown `json:"lockdown"`
}

// Document is the body of the per-territory artifact.
type Document struct {
	Lockdown Lockdown `json:"lockdown"`
}

// Summary is the lockdown part of one datafile row.
type Summary struct {
	LockdownStatus enum.Value `json:"lockdown_status"`
}

// SummaryRecord is one value of the datafile artifact, keyed by ISO2.
type SummaryRecord struct {
	Lockdown Summary `json:"lockdown"`
}

// Totals is the body of the totals artifact: territories in lockdown per
// snapshot index.
type Totals struct {
	Lockdown []int `json:"lockdown"`
}
