// Package enum normalizes free-text policy cells into the closed vocabularies
// used by the published datasets.
package enum

import (
	"encoding/json"
	"strings"
)

// Value is a normalized cell value. The zero value is Unspecified.
type Value string

// Unspecified marks an empty or unrecognized cell. It is published as JSON null.
const Unspecified Value = ""

const (
	No         Value = "no"
	Yes        Value = "yes"
	Partial    Value = "partial"
	Unclear    Value = "unclear"
	NA         Value = "n/a"
	Prohibited Value = "prohibited"
	Allowed    Value = "allowed"
)

// Ptr returns a pointer to v, handy for optional values in tests and fixtures.
func (v Value) Ptr() *Value { return &v }

func (v Value) MarshalJSON() ([]byte, error) {
	if v == Unspecified {
		return []byte("null"), nil
	}
	return json.Marshal(string(v))
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Unspecified
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*v = Value(s)
	return nil
}

// Domain is an immutable vocabulary.
type Domain struct {
	name    string
	members map[Value]struct{}
	order   []Value
}

// NewDomain builds a vocabulary from its members. Members are matched lower-case.
func NewDomain(name string, members ...Value) *Domain {
	d := &Domain{name: name, members: make(map[Value]struct{}, len(members))}
	for _, m := range members {
		m = Value(strings.ToLower(string(m)))
		if m == Unspecified {
			continue
		}
		if _, dup := d.members[m]; dup {
			continue
		}
		d.members[m] = struct{}{}
		d.order = append(d.order, m)
	}
	return d
}

var (
	// Measure is the vocabulary of lockdown measures.
	Measure = NewDomain("measure", No, Yes, Partial, Unclear)
	// Travel is the vocabulary of land, flight and sea directions.
	Travel = NewDomain("travel", Partial, Unclear, NA, Prohibited, Allowed)
)

func (d *Domain) Name() string { return d.name }

// Members returns the vocabulary in declaration order.
func (d *Domain) Members() []Value {
	return append([]Value(nil), d.order...)
}

// Contains reports whether v is a member. Unspecified is never a member.
func (d *Domain) Contains(v Value) bool {
	_, ok := d.members[v]
	return ok
}

// Normalize maps raw case-insensitively onto the vocabulary, or to Unspecified.
// It is total and idempotent.
func (d *Domain) Normalize(raw string) Value {
	v := Value(strings.ToLower(raw))
	if d.Contains(v) {
		return v
	}
	return Unspecified
}
