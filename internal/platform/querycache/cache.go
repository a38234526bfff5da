// Package querycache keeps fetched views in memory with a stale time,
// prefix invalidation and eager refetch of invalidated keys.
package querycache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Never marks entries that never go stale on their own.
const Never time.Duration = -1

// DefaultStaleTime applies when a fetch passes a zero stale time.
const DefaultStaleTime = 30 * time.Second

// refetchParallelism bounds the eager refetch fan-out.
const refetchParallelism = 4

// loadTimeout bounds a shared load once it no longer follows any caller.
const loadTimeout = 30 * time.Second

type loader func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
	staleTime time.Duration
	invalid   bool
	version   uint64
	load      loader
}

func (e *entry) fresh(now time.Time) bool {
	if e.invalid {
		return false
	}
	if e.staleTime == Never {
		return true
	}
	return now.Sub(e.fetchedAt) < e.staleTime
}

// Cache is safe for concurrent use. Concurrent fetches of one key share a
// single load.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	group     singleflight.Group
	staleTime time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// New creates a cache whose entries go stale after staleTime by default.
func New(staleTime time.Duration, logger zerolog.Logger) *Cache {
	if staleTime == 0 {
		staleTime = DefaultStaleTime
	}
	return &Cache{
		entries:   make(map[string]*entry),
		staleTime: staleTime,
		now:       time.Now,
		logger:    logger.With().Str("component", "querycache").Logger(),
	}
}

// SetClock overrides time.Now. Tests only.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// Key joins parts with "/".
func Key(parts ...string) string { return strings.Join(parts, "/") }

// Fetch returns the cached value for key when fresh, otherwise loads it.
// staleTime 0 uses the cache default; Never keeps it until invalidated.
func Fetch[T any](ctx context.Context, c *Cache, key string, staleTime time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if staleTime == 0 {
		staleTime = c.staleTime
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	if ok && e.fresh(c.now()) {
		v, typed := e.value.(T)
		c.mu.RUnlock()
		if typed {
			return v, nil
		}
	} else {
		c.mu.RUnlock()
	}

	wrapped := func(ctx context.Context) (any, error) { return load(ctx) }
	c.mu.Lock()
	e, ok = c.entries[key]
	if !ok {
		e = &entry{invalid: true}
		c.entries[key] = e
	}
	e.load = wrapped
	e.staleTime = staleTime
	c.mu.Unlock()

	v, err := c.run(ctx, key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %q holds %T", key, v)
	}
	return typed, nil
}

// run performs the load for key through singleflight and stores the result
// unless the key was invalidated while the load was in flight. The shared
// load is detached from the caller's cancellation and bounded by
// loadTimeout; each caller stops waiting when its own ctx ends.
func (c *Cache) run(ctx context.Context, key string) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if !ok || e.load == nil {
		c.mu.RUnlock()
		return nil, fmt.Errorf("cache key %q has no loader", key)
	}
	load, version := e.load, e.version
	c.mu.RUnlock()

	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.version == version {
			cur.value = v
			cur.fetchedAt = c.now()
			cur.invalid = false
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// under reports whether key is prefix itself or lies below it. Matching
// stops at "/" so tenant "t1" does not cover tenant "t10".
func under(key, prefix string) bool {
	if prefix == "" || key == prefix {
		return true
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(key, prefix)
	}
	return strings.HasPrefix(key, prefix+"/")
}

// Invalidate marks prefix and every key below it as stale and returns the
// affected keys. Loads already in flight for those keys will not be stored.
func (c *Cache) Invalidate(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for k, e := range c.entries {
		if under(k, prefix) {
			e.invalid = true
			e.version++
			keys = append(keys, k)
			c.group.Forget(k)
		}
	}
	return keys
}

// Remove drops prefix and every key below it.
func (c *Cache) Remove(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if under(k, prefix) {
			delete(c.entries, k)
			c.group.Forget(k)
		}
	}
}

// Refetch invalidates every key under each prefix and reloads them in
// parallel. Keys that were never fetched are skipped. The first load error
// is returned after all loads finish.
func (c *Cache) Refetch(ctx context.Context, prefixes ...string) error {
	seen := make(map[string]struct{})
	var keys []string
	for _, p := range prefixes {
		for _, k := range c.Invalidate(p) {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	var g errgroup.Group
	g.SetLimit(refetchParallelism)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			if _, err := c.run(ctx, k); err != nil {
				c.logger.Warn().Err(err).Str("key", k).Msg("refetch failed")
				return fmt.Errorf("refetch %s: %w", k, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Len is the number of keys held.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
