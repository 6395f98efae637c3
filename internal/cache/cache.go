// Package cache is the client's in-memory query cache. Entries are keyed
// hierarchically (see keys.go), fetched at most once concurrently, and can
// be cancelled, invalidated, snapshotted and restored.
//
// Values are treated as immutable: writers always store a new value built
// by the reducers instead of editing a cached one in place.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrCanceled is returned by Fetch when the fetch was cancelled or
	// superseded by a write before it finished. Its result was discarded.
	ErrCanceled = errors.New("fetch canceled")
)

// EventKind says what happened to a key.
type EventKind int

const (
	EventUpdated EventKind = iota
	EventInvalidated
	EventRemoved
	EventCleared
)

// Event is delivered to subscribers after every change.
type Event struct {
	Key  Key
	Kind EventKind
}

type entry struct {
	value     any
	updatedAt time.Time
	stale     bool
}

type inflight struct {
	cancel context.CancelFunc
	gen    uint64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	gens     map[string]uint64
	inflight map[string]*inflight
	group    singleflight.Group

	subs    map[int]chan Event
	nextSub int

	// epoch counts Clear calls. Writes recorded under an older epoch
	// belong to a previous session and are dropped.
	epoch uint64

	now func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		gens:     make(map[string]uint64),
		inflight: make(map[string]*inflight),
		subs:     make(map[int]chan Event),
		now:      time.Now,
	}
}

// Get returns the raw value at key.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Get returns the value at key if present and of type T.
func Get[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// IsStale reports whether key is missing, invalidated, or older than
// staleTime.
func (c *Cache) IsStale(key Key, staleTime time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staleLocked(key.String(), staleTime)
}

func (c *Cache) staleLocked(k string, staleTime time.Duration) bool {
	e, ok := c.entries[k]
	if !ok || e.stale {
		return true
	}
	return c.now().Sub(e.updatedAt) >= staleTime
}

// Set stores v at key, cancelling any fetch in flight for it.
func (c *Cache) Set(key Key, v any) {
	c.mu.Lock()
	k := key.String()
	c.cancelLocked(k)
	c.storeLocked(k, v)
	c.mu.Unlock()

	c.notify(Event{Key: key, Kind: EventUpdated})
}

// Update replaces the value at key with fn(current). fn runs under the
// cache lock and must be pure. When the key is absent or holds another
// type nothing changes and Update returns false.
func Update[T any](c *Cache, key Key, fn func(T) T) bool {
	c.mu.Lock()
	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		c.mu.Unlock()
		return false
	}
	cur, ok := e.value.(T)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.cancelLocked(k)
	c.storeLocked(k, fn(cur))
	c.mu.Unlock()

	c.notify(Event{Key: key, Kind: EventUpdated})
	return true
}

// Remove drops every entry under prefix.
func (c *Cache) Remove(prefix Key) {
	c.mu.Lock()
	var events []Event
	for k := range c.entries {
		key := ParseKey(k)
		if !key.HasPrefix(prefix) {
			continue
		}
		c.cancelLocked(k)
		c.gens[k]++
		delete(c.entries, k)
		events = append(events, Event{Key: key, Kind: EventRemoved})
	}
	c.mu.Unlock()

	c.notify(events...)
}

// Invalidate marks every entry under prefix stale and discards fetches in
// flight for them, so the next Fetch goes to the network.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	var events []Event
	for k, e := range c.entries {
		key := ParseKey(k)
		if !key.HasPrefix(prefix) {
			continue
		}
		c.cancelLocked(k)
		c.gens[k]++
		e.stale = true
		events = append(events, Event{Key: key, Kind: EventInvalidated})
	}
	c.mu.Unlock()

	c.notify(events...)
}

// Cancel aborts fetches in flight under prefix. Their results are
// discarded; cached values are untouched.
func (c *Cache) Cancel(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.inflight {
		if ParseKey(k).HasPrefix(prefix) {
			c.cancelLocked(k)
		}
	}
}

// Clear drops every entry and aborts every fetch.
func (c *Cache) Clear() {
	c.mu.Lock()
	for k := range c.inflight {
		c.cancelLocked(k)
	}
	for k := range c.entries {
		c.gens[k]++
	}
	c.entries = make(map[string]*entry)
	c.epoch++
	c.mu.Unlock()

	c.notify(Event{Kind: EventCleared})
}

// Epoch returns the number of times the cache has been cleared. Callers
// that write after an await compare it with the value they saw before.
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Keys lists the keys under prefix in lexical order.
func (c *Cache) Keys(prefix Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var names []string
	for k := range c.entries {
		if ParseKey(k).HasPrefix(prefix) {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	keys := make([]Key, len(names))
	for i, n := range names {
		keys[i] = ParseKey(n)
	}
	return keys
}

// Fetch returns the value at key, calling fn when it is stale. Concurrent
// fetches of one key share a single call. If the key is written, removed,
// invalidated or cancelled while fn runs, the result is dropped and
// ErrCanceled returned.
func Fetch[T any](
	ctx context.Context,
	c *Cache,
	key Key,
	staleTime time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	k := key.String()

	c.mu.Lock()
	if !c.staleLocked(k, staleTime) {
		if v, ok := c.entries[k].value.(T); ok {
			c.mu.Unlock()
			return v, nil
		}
	}
	c.mu.Unlock()

	ch := c.group.DoChan(k, func() (any, error) {
		return c.run(ctx, key, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache entry %s has type %T", key, res.Val)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// run executes one fetch and commits the result if nothing superseded it.
func (c *Cache) run(
	ctx context.Context,
	key Key,
	fn func(ctx context.Context) (any, error),
) (any, error) {
	k := key.String()

	// The shared fetch outlives any single waiter's context.
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	c.mu.Lock()
	gen := c.gens[k]
	c.inflight[k] = &inflight{cancel: cancel, gen: gen}
	c.mu.Unlock()

	v, err := fn(fctx)

	c.mu.Lock()
	if f := c.inflight[k]; f != nil && f.gen == gen {
		delete(c.inflight, k)
	}
	if c.gens[k] != gen {
		c.mu.Unlock()
		return nil, ErrCanceled
	}
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.storeLocked(k, v)
	c.mu.Unlock()

	c.notify(Event{Key: key, Kind: EventUpdated})
	return v, nil
}

// cancelLocked aborts the fetch in flight for k and bumps its generation
// so its result is discarded.
func (c *Cache) cancelLocked(k string) {
	f, ok := c.inflight[k]
	if !ok {
		return
	}
	f.cancel()
	delete(c.inflight, k)
	c.gens[k]++
	c.group.Forget(k)
}

func (c *Cache) storeLocked(k string, v any) {
	c.gens[k]++
	c.entries[k] = &entry{value: v, updatedAt: c.now()}
}

// Snapshot captures the entries at keys, including their absence.
type Snapshot struct {
	entries map[string]*entry
	epoch   uint64
}

// Snapshot records the current state of keys for a later Restore.
func (c *Cache) Snapshot(keys ...Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{entries: make(map[string]*entry, len(keys)), epoch: c.epoch}
	for _, key := range keys {
		k := key.String()
		if e, ok := c.entries[k]; ok {
			cp := *e
			s.entries[k] = &cp
		} else {
			s.entries[k] = nil
		}
	}
	return s
}

// Restore puts every key recorded in s back exactly as it was. A snapshot
// taken before the last Clear is ignored.
func (c *Cache) Restore(s Snapshot) bool {
	c.mu.Lock()
	if s.epoch != c.epoch {
		c.mu.Unlock()
		return false
	}
	events := make([]Event, 0, len(s.entries))
	for k, e := range s.entries {
		c.cancelLocked(k)
		c.gens[k]++
		if e == nil {
			delete(c.entries, k)
			events = append(events, Event{Key: ParseKey(k), Kind: EventRemoved})
			continue
		}
		cp := *e
		c.entries[k] = &cp
		events = append(events, Event{Key: ParseKey(k), Kind: EventUpdated})
	}
	c.mu.Unlock()

	c.notify(events...)
	return true
}

// Subscribe returns a channel that receives change events and a function
// that ends the subscription. Slow subscribers miss events rather than
// block writers.
func (c *Cache) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Cache) notify(events ...Event) {
	if len(events) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Record is the persisted form of one entry.
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Export serializes every entry for persistence.
func (c *Cache) Export() ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]Record, 0, len(c.entries))
	for k, e := range c.entries {
		data, err := json.Marshal(e.value)
		if err != nil {
			return nil, fmt.Errorf("encoding cache entry %s: %w", k, err)
		}
		records = append(records, Record{Key: k, Value: data, UpdatedAt: e.updatedAt})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// Import loads persisted records as stale entries: they render at once and
// are refetched on next use. Keys already present are left alone.
func (c *Cache) Import(records []Record) error {
	decoded := make(map[string]*entry, len(records))
	for _, r := range records {
		v, err := decodeValue(ParseKey(r.Key), r.Value)
		if err != nil {
			return err
		}
		decoded[r.Key] = &entry{value: v, updatedAt: r.UpdatedAt, stale: true}
	}

	c.mu.Lock()
	var events []Event
	for k, e := range decoded {
		if _, exists := c.entries[k]; exists {
			continue
		}
		c.entries[k] = e
		c.gens[k]++
		events = append(events, Event{Key: ParseKey(k), Kind: EventUpdated})
	}
	c.mu.Unlock()

	c.notify(events...)
	return nil
}
