package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type XLSXConfig struct {
	Path string `yaml:"path"` // local workbook
}

type SheetsConfig struct {
	BaseURL       string        `yaml:"base_url"` // https://sheets.googleapis.com
	SpreadsheetID string        `yaml:"spreadsheet_id"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxRetries    int           `yaml:"max_retries"`
	Backoff       time.Duration `yaml:"backoff"`     // initial backoff (e.g. 500ms)
	MaxBackoff    time.Duration `yaml:"max_backoff"` // cap (e.g. 5s)
}

type SourceConfig struct {
	Type   string       `yaml:"type"` // "xlsx" | "sheets"
	XLSX   XLSXConfig   `yaml:"xlsx"`
	Sheets SheetsConfig `yaml:"sheets"`
}

type LayoutConfig struct {
	ReferenceSheet string `yaml:"reference_sheet"`
	ReferenceRange string `yaml:"reference_range"`
	TerritorySheet string `yaml:"territory_sheet"` // {iso2} {iso3} {name}
	BatchSize      int    `yaml:"batch_size"`
	Entries        int    `yaml:"entries"`
}

type LockdownConfig struct {
	Values []string `yaml:"values"` // statuses counted as locked down
}

type WorldmapConfig struct {
	BasePath string `yaml:"base_path"` // GeoJSON FeatureCollection; empty disables the map artifact
}

type FileSinkConfig struct {
	Dir string `yaml:"dir"`
}

type SQLiteSinkConfig struct {
	Path string `yaml:"path"`
}

type LokiConfig struct {
	URL       string        `yaml:"url"`       // http://loki:3100
	TenantID  string        `yaml:"tenant_id"` // optional multi-tenancy
	Job       string        `yaml:"job"`       // label value, default: lockdown-loader
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type SinksConfig struct {
	File   FileSinkConfig   `yaml:"file"`
	SQLite SQLiteSinkConfig `yaml:"sqlite"`
	Loki   LokiConfig       `yaml:"loki"`
}

type MetricsConfig struct {
	ListenAddress string        `yaml:"listen_address"` // served in scheduled mode
	Textfile      string        `yaml:"textfile"`       // node_exporter textfile collector
	VictoriaURL   string        `yaml:"victoria_url"`   // http://victoria-metrics:8428
	Timeout       time.Duration `yaml:"timeout"`
}

type PublishConfig struct {
	ResendAfter time.Duration `yaml:"resend_after"` // unchanged artifacts are re-sent after this
	MaxDigests  int           `yaml:"max_digests"`
}

type Config struct {
	Source    SourceConfig   `yaml:"source"`
	Layout    LayoutConfig   `yaml:"layout"`
	Lockdown  LockdownConfig `yaml:"lockdown"`
	Worldmap  WorldmapConfig `yaml:"worldmap"`
	Sinks     SinksConfig    `yaml:"sinks"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Publish   PublishConfig  `yaml:"publish"`
	Schedule  string         `yaml:"schedule"` // cron spec, e.g. "@every 15m"
	Watch     bool           `yaml:"watch"`    // reload when the xlsx workbook changes
	StatePath string         `yaml:"state_path"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Layout.ReferenceSheet == "" {
		c.Layout.ReferenceSheet = "Global"
	}
	if c.Layout.ReferenceRange == "" {
		c.Layout.ReferenceRange = "D5:F253"
	}
	if c.Layout.TerritorySheet == "" {
		c.Layout.TerritorySheet = "{iso3}"
	}
	if c.Layout.BatchSize <= 0 {
		c.Layout.BatchSize = 25
	}
	if c.Layout.Entries <= 0 {
		c.Layout.Entries = 10
	}
	if len(c.Lockdown.Values) == 0 {
		c.Lockdown.Values = []string{"yes"}
	}
	if c.Source.Sheets.BaseURL == "" {
		c.Source.Sheets.BaseURL = "https://sheets.googleapis.com"
	}
	if c.Source.Sheets.Timeout == 0 {
		c.Source.Sheets.Timeout = 15 * time.Second
	}
	if c.Source.Sheets.MaxRetries <= 0 {
		c.Source.Sheets.MaxRetries = 3
	}
	if c.Source.Sheets.Backoff == 0 {
		c.Source.Sheets.Backoff = 500 * time.Millisecond
	}
	if c.Source.Sheets.MaxBackoff == 0 {
		c.Source.Sheets.MaxBackoff = 5 * time.Second
	}
	if c.Sinks.Loki.Job == "" {
		c.Sinks.Loki.Job = "lockdown-loader"
	}
	if c.Sinks.Loki.Timeout == 0 {
		c.Sinks.Loki.Timeout = 10 * time.Second
	}
	if c.Metrics.Timeout == 0 {
		c.Metrics.Timeout = 10 * time.Second
	}
	if c.Publish.ResendAfter <= 0 {
		c.Publish.ResendAfter = 24 * time.Hour
	}
	if c.Publish.MaxDigests <= 0 {
		c.Publish.MaxDigests = 1024
	}
	if c.Schedule == "" {
		c.Schedule = "@every 15m"
	}
}

func (c *Config) validate() error {
	var errs []error
	switch c.Source.Type {
	case "xlsx":
		if strings.TrimSpace(c.Source.XLSX.Path) == "" {
			errs = append(errs, errors.New("source.xlsx.path is required"))
		}
	case "sheets":
		if strings.TrimSpace(c.Source.Sheets.SpreadsheetID) == "" {
			errs = append(errs, errors.New("source.sheets.spreadsheet_id is required"))
		}
	case "":
		errs = append(errs, errors.New("source.type is required"))
	default:
		errs = append(errs, fmt.Errorf("unknown source type: %s", c.Source.Type))
	}
	if c.Sinks.File.Dir == "" && c.Sinks.SQLite.Path == "" && c.Sinks.Loki.URL == "" {
		errs = append(errs, errors.New("need at least one sink (file, sqlite or loki)"))
	}
	if c.Watch && c.Source.Type != "xlsx" {
		errs = append(errs, errors.New("watch needs an xlsx source"))
	}
	return errors.Join(errs...)
}
