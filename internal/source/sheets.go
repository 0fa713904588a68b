package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/ilyasfoo/lockdown/internal/config"
	"github.com/ilyasfoo/lockdown/internal/sheet"
	"github.com/ilyasfoo/lockdown/internal/util"
)

// sheetsSource reads ranges through the Google Sheets v4 values.batchGet call.
type sheetsSource struct {
	cfg config.SheetsConfig
	svc *sheets.Service
}

func NewSheetsSource(cfg config.SheetsConfig) (*sheetsSource, error) {
	client := util.NewHTTPClient(cfg.Timeout)
	// option.WithAPIKey is ignored once a custom client is supplied
	if k := strings.TrimSpace(cfg.APIKey); k != "" {
		client.Transport = &transport.APIKey{Key: k, Transport: client.Transport}
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		opts = append(opts, option.WithEndpoint(base+"/"))
	}
	svc, err := sheets.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: build service: %w", err)
	}
	if cfg.UserAgent != "" {
		svc.UserAgent = cfg.UserAgent
	}
	return &sheetsSource{cfg: cfg, svc: svc}, nil
}

func (s *sheetsSource) Name() string { return "sheets" }

// BatchGet fetches all ranges in a single request.
func (s *sheetsSource) BatchGet(ctx context.Context, ranges []sheet.SheetRange) ([]sheet.Grid, error) {
	if len(ranges) == 0 {
		return nil, nil
	}
	a1 := make([]string, len(ranges))
	for i, r := range ranges {
		a1[i] = r.String()
	}

	var resp *sheets.BatchGetValuesResponse
	err := util.Retry(ctx, s.cfg.MaxRetries, s.cfg.Backoff, s.cfg.MaxBackoff, func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.BatchGet(s.cfg.SpreadsheetID).
			Ranges(a1...).
			MajorDimension("ROWS").
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).
			Do()
		if err == nil {
			return nil
		}
		var gerr *googleapi.Error
		// 429 is the per-minute read quota, worth waiting for
		if errors.As(err, &gerr) && gerr.Code/100 == 4 && gerr.Code != http.StatusTooManyRequests {
			return util.Permanent(fmt.Errorf("sheets: %w", err))
		}
		return fmt.Errorf("sheets: %w", err)
	})
	if err != nil {
		return nil, err
	}

	if len(resp.ValueRanges) != len(ranges) {
		return nil, fmt.Errorf("sheets: got %d value ranges for %d requested", len(resp.ValueRanges), len(ranges))
	}

	grids := make([]sheet.Grid, len(ranges))
	for i, vr := range resp.ValueRanges {
		var values [][]any
		if vr != nil {
			values = vr.Values
		}
		rows := make([][]string, len(values))
		for j, line := range values {
			row := make([]string, len(line))
			for k, v := range line {
				row[k] = cellString(v)
			}
			rows[j] = row
		}
		grids[i] = sheet.Grid{Window: ranges[i].Range, Rows: rows}
	}
	return grids, nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
