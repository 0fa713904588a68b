// Package worldmap injects lockdown status series into a GeoJSON feature
// collection for the map overlay.
package worldmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/ilyasfoo/lockdown/internal/totals"
)

// StatusProperty is the feature property that receives the series.
const StatusProperty = "lockdown_status"

// FeatureCollection is a decoded GeoJSON document. Members other than
// features and feature properties are carried through untouched.
type FeatureCollection map[string]any

var errNoFeatures = errors.New("feature collection has no features array")

// LoadBase reads the base collection from disk.
func LoadBase(path string) (FeatureCollection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read base map: %w", err)
	}
	return ParseBase(b)
}

// ParseBase decodes a base collection and checks its features.
func ParseBase(b []byte) (FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse base map: %w", err)
	}
	if _, err := fc.features(); err != nil {
		return nil, err
	}
	return fc, nil
}

func (fc FeatureCollection) features() ([]any, error) {
	raw, ok := fc["features"]
	if !ok {
		return nil, errNoFeatures
	}
	fs, ok := raw.([]any)
	if !ok {
		return nil, errNoFeatures
	}
	for i, f := range fs {
		if _, ok := f.(map[string]any); !ok {
			return nil, fmt.Errorf("feature %d is not an object", i)
		}
	}
	return fs, nil
}

// Join returns a copy of base where every feature's properties gain
// lockdown_status: the series of the territory matching properties.iso2, or a
// series of nulls as long as the first series. Features are neither dropped,
// added nor reordered, and base is not modified.
func Join(base FeatureCollection, series []totals.TerritorySeries) (FeatureCollection, error) {
	fs, err := base.features()
	if err != nil {
		return nil, err
	}
	n, err := totals.SnapshotLength(series)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]totals.Series, len(series))
	for _, s := range series {
		byCode[s.ISO2] = s.Series
	}
	nullFilled := make(totals.Series, n)

	updated := make([]any, len(fs))
	for i, f := range fs {
		feature := maps.Clone(f.(map[string]any))
		props, _ := feature["properties"].(map[string]any)
		props = maps.Clone(props)
		if props == nil {
			props = map[string]any{}
		}
		code, _ := props["iso2"].(string)
		if s, ok := byCode[code]; ok {
			props[StatusProperty] = s
		} else {
			props[StatusProperty] = nullFilled
		}
		feature["properties"] = props
		updated[i] = feature
	}

	out := maps.Clone(base)
	out["features"] = updated
	return out, nil
}
