package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ilyasfoo/lockdown/internal/config"
	"github.com/ilyasfoo/lockdown/internal/store"
)

// Sink persists named JSON documents with overwrite semantics. Names are
// slash-separated, e.g. "territories/AF" or "datafile".
type Sink interface {
	Name() string
	Write(ctx context.Context, name string, doc []byte) error
	Close() error
}

// Multi fans every write out to all of its sinks concurrently.
type Multi struct {
	sinks   []Sink
	observe func(sink string, err error)
}

// NewMulti wraps sinks. observe, if set, is called once per sink and write.
func NewMulti(observe func(sink string, err error), sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, observe: observe}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) Write(ctx context.Context, name string, doc []byte) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.sinks {
		g.Go(func() error {
			err := s.Write(gctx, name, doc)
			if m.observe != nil {
				m.observe(s.Name(), err)
			}
			if err != nil {
				return fmt.Errorf("write %s -> %s: %w", name, s.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// NewFromConfig builds every configured sink behind one Multi. The file and
// sqlite sinks are rewritten on every load; loki pushes are deduplicated per pub.
func NewFromConfig(cfg config.SinksConfig, pub config.PublishConfig, observe func(sink string, err error)) (*Multi, error) {
	var sinks []Sink
	fail := func(err error) (*Multi, error) {
		_ = NewMulti(nil, sinks...).Close()
		return nil, err
	}
	if strings.TrimSpace(cfg.File.Dir) != "" {
		s, err := NewFile(cfg.File)
		if err != nil {
			return fail(fmt.Errorf("init file sink: %w", err))
		}
		sinks = append(sinks, s)
	}
	if strings.TrimSpace(cfg.SQLite.Path) != "" {
		s, err := NewSQLite(cfg.SQLite)
		if err != nil {
			return fail(fmt.Errorf("init sqlite sink: %w", err))
		}
		sinks = append(sinks, s)
	}
	if strings.TrimSpace(cfg.Loki.URL) != "" {
		sinks = append(sinks, NewDedup(NewLoki(cfg.Loki), store.NewDigests(pub.MaxDigests, pub.ResendAfter)))
	}
	if len(sinks) == 0 {
		return nil, errors.New("no sinks configured (need file, sqlite or loki)")
	}
	return NewMulti(observe, sinks...), nil
}
