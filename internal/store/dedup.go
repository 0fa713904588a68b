package store

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Digests is a TTL-bound LRU of artifact name -> body hash, used to skip
// re-publishing documents that did not change.
type Digests struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	now   func() time.Time
	ll    *list.List               // most-recent at front
	items map[string]*list.Element // name -> element
}

type entry struct {
	name   string
	digest string
	exp    time.Time
}

func NewDigests(maxKeys int, ttl time.Duration) *Digests {
	if maxKeys <= 0 {
		maxKeys = 1024
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Digests{cap: maxKeys, ttl: ttl, now: time.Now, ll: list.New(), items: make(map[string]*list.Element, maxKeys)}
}

func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Unchanged reports whether body matches the live digest stored for name.
func (d *Digests) Unchanged(name string, body []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.items[name]
	if !ok {
		return false
	}
	en := el.Value.(entry)
	if !d.now().Before(en.exp) {
		// expired
		d.ll.Remove(el)
		delete(d.items, name)
		return false
	}
	d.ll.MoveToFront(el)
	return en.digest == Digest(body)
}

// Mark records body as the last published version of name.
func (d *Digests) Mark(name string, body []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	en := entry{name: name, digest: Digest(body), exp: d.now().Add(d.ttl)}
	if el, ok := d.items[name]; ok {
		el.Value = en
		d.ll.MoveToFront(el)
		return
	}
	d.items[name] = d.ll.PushFront(en)
	for d.ll.Len() > d.cap {
		t := d.ll.Back()
		d.ll.Remove(t)
		delete(d.items, t.Value.(entry).name)
	}
}

// Forget drops name so its next publish always goes out.
func (d *Digests) Forget(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[name]; ok {
		d.ll.Remove(el)
		delete(d.items, name)
	}
}

func (d *Digests) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ll.Len()
}
