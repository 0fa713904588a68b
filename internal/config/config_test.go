package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  type: xlsx
  xlsx:
    path: data/lockdown.xlsx
sinks:
  file:
    dir: out
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Global", c.Layout.ReferenceSheet)
	assert.Equal(t, "D5:F253", c.Layout.ReferenceRange)
	assert.Equal(t, "{iso3}", c.Layout.TerritorySheet)
	assert.Equal(t, 25, c.Layout.BatchSize)
	assert.Equal(t, 10, c.Layout.Entries)
	assert.Equal(t, []string{"yes"}, c.Lockdown.Values)
	assert.Equal(t, "@every 15m", c.Schedule)
	assert.Equal(t, "lockdown-loader", c.Sinks.Loki.Job)
	assert.Equal(t, 3, c.Source.Sheets.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, c.Source.Sheets.Backoff)
	assert.Equal(t, 24*time.Hour, c.Publish.ResendAfter)
	assert.Equal(t, 1024, c.Publish.MaxDigests)
}

func TestParseFull(t *testing.T) {
	c, err := Parse([]byte(`
source:
  type: sheets
  sheets:
    spreadsheet_id: abc123
    api_key: k
    timeout: 3s
    max_retries: 5
layout:
  territory_sheet: DEMO
  batch_size: 10
lockdown:
  values: [yes, partial]
worldmap:
  base_path: data/base.json
sinks:
  sqlite:
    path: out/lockdown.db
  loki:
    url: http://loki:3100
    tenant_id: t1
metrics:
  textfile: out/lockdown.prom
schedule: "0 * * * *"
state_path: out/state.json
`))
	require.NoError(t, err)
	assert.Equal(t, "sheets", c.Source.Type)
	assert.Equal(t, "abc123", c.Source.Sheets.SpreadsheetID)
	assert.Equal(t, 3*time.Second, c.Source.Sheets.Timeout)
	assert.Equal(t, 5, c.Source.Sheets.MaxRetries)
	assert.Equal(t, "https://sheets.googleapis.com", c.Source.Sheets.BaseURL)
	assert.Equal(t, "DEMO", c.Layout.TerritorySheet)
	assert.Equal(t, 10, c.Layout.BatchSize)
	assert.Equal(t, []string{"yes", "partial"}, c.Lockdown.Values)
	assert.Equal(t, "t1", c.Sinks.Loki.TenantID)
	assert.Equal(t, "0 * * * *", c.Schedule)
}

func TestParseValidation(t *testing.T) {
	tests := map[string]string{
		"no source":      "sinks: {file: {dir: out}}",
		"unknown source": "source: {type: csv}\nsinks: {file: {dir: out}}",
		"xlsx path":      "source: {type: xlsx}\nsinks: {file: {dir: out}}",
		"sheets id":      "source: {type: sheets}\nsinks: {file: {dir: out}}",
		"no sink":        "source: {type: xlsx, xlsx: {path: a.xlsx}}",
		"watch sheets":   "source: {type: sheets, sheets: {spreadsheet_id: x}}\nwatch: true\nsinks: {file: {dir: out}}",
		"bad yaml":       "source: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestExampleConfigParses(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config.example.yml"))
	require.NoError(t, err)
	assert.Equal(t, "xlsx", c.Source.Type)
	assert.True(t, c.Watch)
	assert.Equal(t, 24*time.Hour, c.Publish.ResendAfter)
	assert.Equal(t, ":9108", c.Metrics.ListenAddress)
}
