package sink

import (
	"context"

	"github.com/ilyasfoo/lockdown/internal/store"
)

// dedupSink forwards a document only when its body changed since the last
// successful write, or when the remembered digest has expired.
type dedupSink struct {
	next    Sink
	digests *store.Digests
}

// NewDedup wraps next with digest dedup. Only append-only targets, such as the
// loki audit stream, should be wrapped: overwrite sinks must see every cycle so
// a lost or damaged document is restored on the next load.
func NewDedup(next Sink, digests *store.Digests) Sink {
	return &dedupSink{next: next, digests: digests}
}

func (d *dedupSink) Name() string { return d.next.Name() }

func (d *dedupSink) Write(ctx context.Context, name string, doc []byte) error {
	if d.digests.Unchanged(name, doc) {
		return nil
	}
	if err := d.next.Write(ctx, name, doc); err != nil {
		d.digests.Forget(name)
		return err
	}
	d.digests.Mark(name, doc)
	return nil
}

func (d *dedupSink) Close() error { return d.next.Close() }
