package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/nhle/trakker/internal/cache"
)

// CacheStore is where cache snapshots are written between runs.
type CacheStore interface {
	SaveCache(ctx context.Context, records []cache.Record) error
	LoadCache(ctx context.Context) ([]cache.Record, error)
}

// Hydrate loads the persisted snapshot into c. Hydrated entries are stale,
// so they render immediately and are refetched on first use.
func Hydrate(ctx context.Context, c *cache.Cache, store CacheStore) (int, error) {
	records, err := store.LoadCache(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading cache snapshot: %w", err)
	}
	if err := c.Import(records); err != nil {
		return 0, fmt.Errorf("importing cache snapshot: %w", err)
	}
	return len(records), nil
}

// DefaultDebounce is how long the persister waits after the last change
// before writing a snapshot.
const DefaultDebounce = 2 * time.Second

// Persister writes the query cache to disk shortly after it changes.
type Persister struct {
	cache    *cache.Cache
	store    CacheStore
	debounce time.Duration
	log      *slog.Logger

	mu      gosync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPersister creates a Persister. A non-positive debounce uses
// DefaultDebounce.
func NewPersister(c *cache.Cache, store CacheStore, debounce time.Duration, log *slog.Logger) *Persister {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Persister{
		cache:    c,
		store:    store,
		debounce: debounce,
		log:      log.With("component", "persister"),
	}
}

// Start subscribes to cache changes and begins writing snapshots.
func (p *Persister) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	events, unsubscribe := p.cache.Subscribe(64)
	go p.loop(events, unsubscribe)
}

// Stop writes a final snapshot if anything changed and waits for the
// goroutine to exit.
func (p *Persister) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	<-done
}

func (p *Persister) loop(events <-chan cache.Event, unsubscribe func()) {
	defer close(p.doneCh)
	defer unsubscribe()

	timer := time.NewTimer(p.debounce)
	timer.Stop()
	dirty := false

	for {
		select {
		case <-p.stopCh:
			dirty = drain(events) || dirty
			if dirty {
				p.save()
			}
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			dirty = true
			timer.Reset(p.debounce)
		case <-timer.C:
			if dirty {
				p.save()
				dirty = false
			}
		}
	}
}

// drain empties buffered events and reports whether there were any.
func drain(events <-chan cache.Event) bool {
	seen := false
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return seen
			}
			seen = true
		default:
			return seen
		}
	}
}

func (p *Persister) save() {
	records, err := p.cache.Export()
	if err != nil {
		p.log.Warn("exporting cache", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.store.SaveCache(ctx, records); err != nil {
		p.log.Warn("saving cache snapshot", "error", err)
		return
	}
	p.log.Debug("cache snapshot saved", "entries", len(records))
}
