package cache

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"sjsage522/dealaggregator/internal/crawler"
	"sjsage522/dealaggregator/logger"
	pkgerrors "sjsage522/dealaggregator/pkg/errors"
)

// Clock returns the current time
type Clock func() time.Time

// Ticket is taken when a scrape checks the cache and presented when it
// stores. It makes the store conditional on no Clear having happened in
// between and on no newer scrape of the same source having stored first.
type Ticket struct {
	generation uint64
	started    time.Time
}

// ResultCache memoizes per-source deal lists for a fixed TTL. Values are JSON
// snapshots so readers never share a slice with a writer.
type ResultCache struct {
	store CacheService
	ttl   time.Duration
	clock Clock

	mu         sync.Mutex
	generation uint64
	written    map[string]written
}

type written struct {
	started time.Time
	expires time.Time
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithClock replaces time.Now, for deterministic TTL tests
func WithClock(clock Clock) Option {
	return func(c *ResultCache) {
		c.clock = clock
	}
}

// NewResultCache wraps store with a fixed ttl
func NewResultCache(store CacheService, ttl time.Duration, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:   store,
		ttl:     ttl,
		clock:   time.Now,
		written: make(map[string]written),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key of a source
func Key(sourceID string) string {
	return "src:" + sourceID
}

// TTL returns the lifetime of an entry
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// Ticket returns the token a scrape presents to Store
func (c *ResultCache) Ticket() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Ticket{generation: c.generation, started: c.clock()}
}

// Get returns the cached deals of a source
func (c *ResultCache) Get(sourceID string) ([]crawler.DealItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.store.Get(Key(sourceID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.ForCache().Warn().
				Err(pkgerrors.NewCache(sourceID, "read failed", err)).
				Msg("Treating cache error as a miss")
		}
		return nil, false
	}

	var deals []crawler.DealItem
	if err := json.Unmarshal(data, &deals); err != nil {
		logger.ForCache().Warn().
			Err(pkgerrors.NewCache(sourceID, "corrupt entry", err)).
			Msg("Dropping unreadable cache entry")
		_ = c.store.Delete(Key(sourceID))
		return nil, false
	}
	if deals == nil {
		deals = []crawler.DealItem{}
	}
	return deals, true
}

// Store replaces the entry of a source. It reports false when the write was
// discarded because the ticket is stale.
func (c *ResultCache) Store(sourceID string, deals []crawler.DealItem, t Ticket) bool {
	if deals == nil {
		deals = []crawler.DealItem{}
	}
	data, err := json.Marshal(deals)
	if err != nil {
		logger.ForCache().Error().Err(err).Str("source", sourceID).Msg("Failed to encode deals")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.generation != c.generation {
		return false
	}
	now := c.clock()
	if prev, ok := c.written[sourceID]; ok && now.Before(prev.expires) && prev.started.After(t.started) {
		return false
	}

	if err := c.store.Set(Key(sourceID), data, c.ttl); err != nil {
		logger.ForCache().Warn().
			Err(pkgerrors.NewCache(sourceID, "write failed", err)).
			Msg("Result not cached")
		return false
	}
	c.written[sourceID] = written{started: t.started, expires: now.Add(c.ttl)}
	return true
}

// Clear drops every entry. Scrapes already in flight will not store.
func (c *ResultCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.written = make(map[string]written)
	if err := c.store.Flush(); err != nil {
		return pkgerrors.NewCache("", "flush failed", err)
	}
	return nil
}

// Len returns how many sources this process has cached and not yet expired
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	n := 0
	for _, w := range c.written {
		if now.Before(w.expires) {
			n++
		}
	}
	return n
}
