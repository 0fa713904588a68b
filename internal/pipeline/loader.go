// Package pipeline runs one load end to end: read the workbook, pick entries,
// derive the summary artifacts and publish them to the sinks.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ilyasfoo/lockdown/internal/config"
	"github.com/ilyasfoo/lockdown/internal/entry"
	"github.com/ilyasfoo/lockdown/internal/enum"
	"github.com/ilyasfoo/lockdown/internal/metrics"
	"github.com/ilyasfoo/lockdown/internal/model"
	"github.com/ilyasfoo/lockdown/internal/sink"
	"github.com/ilyasfoo/lockdown/internal/store"
	"github.com/ilyasfoo/lockdown/internal/territory"
	"github.com/ilyasfoo/lockdown/internal/totals"
	"github.com/ilyasfoo/lockdown/internal/worldmap"
)

// ErrBusy is returned by Run while another run is in flight.
var ErrBusy = errors.New("load already running")

// Artifact names.
const (
	TerritoryPrefix = "territories/"
	DatafileName    = "datafile"
	TotalsName      = "totals"
	WorldmapName    = "worldmap"
)

const publishWorkers = 8

type Loader struct {
	agg       *territory.Aggregator
	policy    totals.Policy
	base      worldmap.FeatureCollection // nil disables the worldmap artifact
	out       sink.Sink
	metrics   *metrics.Collector
	statePath string
	export    config.MetricsConfig
	log       *zap.Logger

	running sync.Mutex
	newID   func() string
}

// Result summarizes one successful run.
type Result struct {
	RunID     string
	Stats     territory.Stats
	Totals    []int
	Published int
}

// New wires a loader from configuration. src and out are owned by the caller.
func New(cfg *config.Config, src territory.GridSource, out sink.Sink, m *metrics.Collector, log *zap.Logger) (*Loader, error) {
	parser, err := entry.NewParser(entry.DefaultLayout())
	if err != nil {
		return nil, err
	}
	agg, err := territory.New(src, parser, territory.Options{
		ReferenceSheet: cfg.Layout.ReferenceSheet,
		ReferenceRange: cfg.Layout.ReferenceRange,
		TerritorySheet: cfg.Layout.TerritorySheet,
		BatchSize:      cfg.Layout.BatchSize,
		Entries:        cfg.Layout.Entries,
	}, log)
	if err != nil {
		return nil, err
	}

	values := make([]enum.Value, 0, len(cfg.Lockdown.Values))
	for _, v := range cfg.Lockdown.Values {
		values = append(values, enum.Value(strings.ToLower(v)))
	}

	var base worldmap.FeatureCollection
	if cfg.Worldmap.BasePath != "" {
		if base, err = worldmap.LoadBase(cfg.Worldmap.BasePath); err != nil {
			return nil, fmt.Errorf("load base map: %w", err)
		}
	}
	if m == nil {
		m = metrics.New()
	}

	return &Loader{
		agg:       agg,
		policy:    totals.NewValuePolicy(values...),
		base:      base,
		out:       out,
		metrics:   m,
		statePath: cfg.StatePath,
		export:    cfg.Metrics,
		log:       log,
		newID:     uuid.NewString,
	}, nil
}

type artifact struct {
	name string
	body []byte
}

// Run performs one load. Nothing is published unless every territory was
// loaded and every artifact was built.
func (l *Loader) Run(ctx context.Context) (Result, error) {
	if !l.running.TryLock() {
		return Result{}, ErrBusy
	}
	defer l.running.Unlock()

	res := Result{RunID: l.newID()}
	log := l.log.With(zap.String("run_id", res.RunID))
	start := time.Now()

	err := l.run(ctx, log, &res)
	l.metrics.ObserveLoad(time.Since(start), err)
	l.exportMetrics(ctx, log)
	if err != nil {
		log.Error("load failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return res, err
	}
	log.Info("load done",
		zap.Int("territories", res.Stats.Territories),
		zap.Int("with_entry", res.Stats.WithEntry),
		zap.Int("published", res.Published),
		zap.Ints("totals", res.Totals),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (l *Loader) run(ctx context.Context, log *zap.Logger, res *Result) error {
	territories, err := l.agg.Territories(ctx)
	if err != nil {
		return err
	}
	log.Debug("reference list read", zap.Int("territories", len(territories)))

	records, st, err := l.agg.Load(ctx, territories)
	res.Stats = st
	if err != nil {
		return err
	}

	artifacts, counts, err := l.build(records)
	if err != nil {
		return err
	}
	res.Totals = counts

	published, err := l.publish(ctx, log, artifacts)
	res.Published = published
	if err != nil {
		return err
	}

	l.metrics.SetTerritories(st.Territories, st.WithEntry, st.SkippedSlots)
	l.metrics.SetLocked(counts)

	if l.statePath != "" {
		err := store.SaveState(l.statePath, store.State{
			RunID:       res.RunID,
			FinishedAt:  time.Now().UTC(),
			Territories: st.Territories,
			Entries:     st.WithEntry,
		})
		if err != nil {
			// artifacts are out already
			log.Warn("save state", zap.Error(err))
		}
	}
	return nil
}

// build marshals every artifact of one load.
func (l *Loader) build(records []model.TerritoryRecord) ([]artifact, []int, error) {
	series := totals.StatusSeries(records)
	counts, err := totals.SumLockdown(series, l.policy)
	if err != nil {
		return nil, nil, err
	}

	out := make([]artifact, 0, len(records)+3)
	add := func(name string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		out = append(out, artifact{name: name, body: b})
		return nil
	}

	for _, r := range records {
		if err := add(TerritoryPrefix+r.ISOCode, model.Document{Lockdown: r.Lockdown}); err != nil {
			return nil, nil, err
		}
	}
	if err := add(DatafileName, totals.Summarize(records)); err != nil {
		return nil, nil, err
	}
	if err := add(TotalsName, model.Totals{Lockdown: counts}); err != nil {
		return nil, nil, err
	}
	if l.base != nil {
		fc, err := worldmap.Join(l.base, series)
		if err != nil {
			return nil, nil, err
		}
		if err := add(WorldmapName, fc); err != nil {
			return nil, nil, err
		}
	}
	return out, counts, nil
}

// publish writes every artifact of the load. Overwrite sinks get the full set
// each cycle so a lost document is restored by the next load.
func (l *Loader) publish(ctx context.Context, log *zap.Logger, artifacts []artifact) (int, error) {
	var mu sync.Mutex
	published := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(publishWorkers)
	for _, a := range artifacts {
		g.Go(func() error {
			if err := l.out.Write(gctx, a.name, a.body); err != nil {
				return err
			}
			log.Debug("published", zap.String("artifact", a.name), zap.Int("bytes", len(a.body)))
			mu.Lock()
			published++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return published, err
}

// exportMetrics hands the registry to the textfile collector and Victoria.
// Failures are logged only, they never fail a load.
func (l *Loader) exportMetrics(ctx context.Context, log *zap.Logger) {
	if l.export.Textfile != "" {
		if err := l.metrics.WriteTextfile(l.export.Textfile); err != nil {
			log.Warn("write metrics textfile", zap.Error(err))
		}
	}
	if l.export.VictoriaURL != "" {
		if err := l.metrics.PushVictoria(ctx, l.export.VictoriaURL, l.export.Timeout); err != nil {
			log.Warn("push metrics", zap.Error(err))
		}
	}
}
