package enum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawInputs = []string{
	"", " ", "yes", "YES", "Yes", "no", "No ", "partial", "PARTIAL", "unclear",
	"n/a", "N/A", "na", "prohibited", "Allowed", "allowed", "unspecified",
	"maybe", "1", "true", "ja", "yes!", "\tyes",
}

func TestNormalizeMeasure(t *testing.T) {
	tests := map[string]Value{
		"yes":         Yes,
		"YES":         Yes,
		"No":          No,
		"Partial":     Partial,
		"unclear":     Unclear,
		"allowed":     Unspecified,
		"n/a":         Unspecified,
		"":            Unspecified,
		"unspecified": Unspecified,
		"No ":         Unspecified,
	}
	for raw, want := range tests {
		assert.Equal(t, want, Measure.Normalize(raw), "raw %q", raw)
	}
}

func TestNormalizeTravel(t *testing.T) {
	tests := map[string]Value{
		"N/A":        NA,
		"Prohibited": Prohibited,
		"allowed":    Allowed,
		"partial":    Partial,
		"Unclear":    Unclear,
		"yes":        Unspecified,
		"no":         Unspecified,
	}
	for raw, want := range tests {
		assert.Equal(t, want, Travel.Normalize(raw), "raw %q", raw)
	}
}

func TestNormalizeIsTotalAndIdempotent(t *testing.T) {
	for _, d := range []*Domain{Measure, Travel} {
		for _, raw := range rawInputs {
			once := d.Normalize(raw)
			assert.True(t, once == Unspecified || d.Contains(once), "%s: %q -> %q", d.Name(), raw, once)
			assert.Equal(t, once, d.Normalize(string(once)), "%s: %q", d.Name(), raw)
		}
	}
}

func TestDomainMembers(t *testing.T) {
	assert.Equal(t, []Value{No, Yes, Partial, Unclear}, Measure.Members())
	assert.Equal(t, []Value{Partial, Unclear, NA, Prohibited, Allowed}, Travel.Members())
	assert.False(t, Measure.Contains(Unspecified))

	d := NewDomain("custom", "A", "a", Unspecified)
	assert.Equal(t, []Value{"a"}, d.Members())
	d.Members()[0] = "mutated"
	assert.Equal(t, []Value{"a"}, d.Members())
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal([]Value{Yes, Unspecified, NA})
	require.NoError(t, err)
	assert.JSONEq(t, `["yes", null, "n/a"]`, string(b))

	var back []Value
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []Value{Yes, Unspecified, NA}, back)

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`12`), &bad))
}
