package cache

import (
	"context"
	"time"

	"github.com/FocuswithJustin/lectio/internal/logging"
	"github.com/FocuswithJustin/lectio/internal/metrics"
	"github.com/FocuswithJustin/lectio/internal/taskqueue"
)

// Store is the persistent tier. Implementations must tolerate concurrent and
// repeated Puts of the same key (idempotent upsert).
type Store interface {
	Get(ctx context.Context, key Key) ([]string, bool, error)
	Put(ctx context.Context, key Key, verses []string) error
}

// Tier names where a lookup was answered.
type Tier string

const (
	TierNone   Tier = ""
	TierMemory Tier = "memory"
	TierStore  Tier = "store"
)

// Options configures a Tiered cache.
type Options struct {
	// Store is the persistent tier. Nil keeps the cache memory-only.
	Store Store

	// WriteWorkers is the number of background store writers. Defaults to 2.
	WriteWorkers int

	// WriteTimeout bounds each background store write. Defaults to 10s.
	WriteTimeout time.Duration

	Metrics *metrics.Metrics
}

// Tiered is the two-tier chapter cache.
//
// Get checks memory, then the store, and copies store hits into memory.
// Put writes memory synchronously and hands the store write to a background
// queue; store failures are logged and counted, never returned.
type Tiered struct {
	mem          *Memory[Key, []string]
	store        Store
	writes       *taskqueue.Queue
	writeTimeout time.Duration
	metrics      *metrics.Metrics
}

// NewTiered builds a Tiered cache and starts its write-behind workers.
func NewTiered(opts Options) *Tiered {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	t := &Tiered{
		mem:          NewMemory[Key, []string](0),
		store:        opts.Store,
		writeTimeout: opts.WriteTimeout,
		metrics:      opts.Metrics,
	}
	t.writes = taskqueue.New(taskqueue.Options{
		Workers: opts.WriteWorkers,
		OnError: func(task taskqueue.Task, err error) {
			logging.CacheWriteFailed(task.Name, err)
			t.metrics.CacheWriteFailed()
		},
	})
	t.metrics.TrackGauge("memory_entries", "Chapters held in the memory tier.", func() float64 {
		return float64(t.mem.Len())
	})
	return t
}

// Get looks key up in memory, then in the store. The returned slice is a copy.
func (t *Tiered) Get(ctx context.Context, key Key) ([]string, Tier) {
	if verses, ok := t.mem.Get(key); ok {
		t.metrics.CacheLookup(string(TierMemory), "hit")
		logging.CacheEvent(ctx, string(TierMemory), "hit", key.String())
		return clone(verses), TierMemory
	}
	t.metrics.CacheLookup(string(TierMemory), "miss")

	if t.store == nil {
		return nil, TierNone
	}

	verses, ok, err := t.store.Get(ctx, key)
	switch {
	case err != nil:
		t.metrics.CacheLookup(string(TierStore), "error")
		logging.WarnContext(ctx, "cache store read failed", "key", key.String(), "error", err.Error())
		return nil, TierNone
	case !ok || len(verses) == 0:
		t.metrics.CacheLookup(string(TierStore), "miss")
		return nil, TierNone
	}

	t.metrics.CacheLookup(string(TierStore), "hit")
	logging.CacheEvent(ctx, string(TierStore), "hit", key.String())
	t.mem.Set(key, clone(verses))
	return clone(verses), TierStore
}

// Put caches verses under key. Empty collections are never cached.
// The caller's ctx is not used for the store write, which outlives the request.
func (t *Tiered) Put(ctx context.Context, key Key, verses []string) {
	if len(verses) == 0 {
		return
	}
	stored := clone(verses)
	t.mem.Set(key, stored)
	logging.CacheEvent(ctx, string(TierMemory), "write", key.String())

	if t.store == nil {
		return
	}
	t.writes.Add(taskqueue.TaskCacheWrite, key.String(), func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, t.writeTimeout)
		defer cancel()
		return nil, t.store.Put(ctx, key, stored)
	})
}

// Flush blocks until every store write queued so far has finished.
func (t *Tiered) Flush() {
	t.writes.Wait()
}

// Close drains pending store writes and stops the writers.
func (t *Tiered) Close() {
	t.writes.Close()
}

// Stats summarizes the cache.
type Stats struct {
	MemoryEntries int              `json:"memory_entries"`
	Persistent    bool             `json:"persistent"`
	Writes        taskqueue.Status `json:"writes"`
}

// Stats returns a point-in-time summary.
func (t *Tiered) Stats() Stats {
	return Stats{
		MemoryEntries: t.mem.Len(),
		Persistent:    t.store != nil,
		Writes:        t.writes.Status(),
	}
}

func clone(verses []string) []string {
	out := make([]string, len(verses))
	copy(out, verses)
	return out
}
