package federation

import (
	"context"
	"sync"

	"github.com/Ramsey-B/clover/pkg/metrics"
)

type inflightSearch struct {
	gen    uint64
	cancel context.CancelFunc
}

// SupersedeTracker cancels an in-flight search when a newer one arrives from
// the same caller session. Keys are per (tenant, user, client session); a
// fresh search replaces the previous entry and fires its cancel.
type SupersedeTracker struct {
	mu       sync.Mutex
	gen      uint64
	inflight map[string]inflightSearch
}

// NewSupersedeTracker creates a new supersede tracker
func NewSupersedeTracker() *SupersedeTracker {
	return &SupersedeTracker{
		inflight: make(map[string]inflightSearch),
	}
}

// Begin registers a search for the session key and returns a derived context
// cancelled if a newer search with the same key begins. The returned release
// must be called when the search completes. An empty key disables tracking.
func (t *SupersedeTracker) Begin(ctx context.Context, key string) (context.Context, func()) {
	if key == "" {
		return ctx, func() {}
	}

	searchCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if prev, ok := t.inflight[key]; ok {
		prev.cancel()
		metrics.SearchesSuperseded.Inc()
	}
	t.gen++
	gen := t.gen
	t.inflight[key] = inflightSearch{gen: gen, cancel: cancel}
	t.mu.Unlock()

	release := func() {
		t.mu.Lock()
		// A newer search may have replaced the entry already; only remove it
		// if it still belongs to this search.
		if current, ok := t.inflight[key]; ok && current.gen == gen {
			delete(t.inflight, key)
		}
		t.mu.Unlock()
		cancel()
	}

	return searchCtx, release
}
