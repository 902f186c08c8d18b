package cache

import (
	"context"
	"sync"
	"time"

	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/logger"
)

const DefaultTTL = 24 * time.Hour

type entry struct {
	etag      string
	fetchedAt time.Time
}

// ResponseCache mirrors the durable store in memory. Keys map to an etag and
// etags map to pages, so identical responses share one page slice.
type ResponseCache struct {
	mu    sync.RWMutex
	keys  map[string]entry
	pages map[string][]model.Page
	store repository.IResponseStore
	ttl   time.Duration
	now   func() time.Time
}

func NewResponseCache(store repository.IResponseStore, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		keys:  make(map[string]entry),
		pages: make(map[string][]model.Page),
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (c *ResponseCache) WithClock(now func() time.Time) *ResponseCache {
	c.now = now
	return c
}

func (c *ResponseCache) fresh(fetchedAt time.Time) bool {
	return c.now().Sub(fetchedAt) <= c.ttl
}

func (c *ResponseCache) Get(ctx context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, bool) {
	key := model.CacheKey(kind, id)

	c.mu.RLock()
	e, ok := c.keys[key]
	var pages []model.Page
	if ok {
		pages, ok = c.pages[e.etag]
	}
	c.mu.RUnlock()

	if ok {
		if !c.fresh(e.fetchedAt) {
			return nil, false
		}
		return &model.CachedResponse{Kind: kind, ID: id, Pages: pages, ETag: e.etag, FetchedAt: e.fetchedAt}, true
	}

	if c.store == nil {
		return nil, false
	}
	resp, err := c.store.Load(ctx, kind, id)
	if err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Ignoring unreadable cache record")
		return nil, false
	}
	if resp == nil || resp.Kind != kind || resp.ID != id || resp.Validate() != nil {
		return nil, false
	}
	c.remember(resp)
	if !c.fresh(resp.FetchedAt) {
		return nil, false
	}
	return resp, true
}

func (c *ResponseCache) remember(resp *model.CachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[resp.Key()] = entry{etag: resp.ETag, fetchedAt: resp.FetchedAt}
	c.pages[resp.ETag] = resp.Pages
}

func (c *ResponseCache) Put(ctx context.Context, kind model.ResourceKind, id string, pages []model.Page, etag string) (*model.CachedResponse, error) {
	// microsecond precision survives every durable store
	fetchedAt := c.now().UTC().Truncate(time.Microsecond)
	resp := &model.CachedResponse{Kind: kind, ID: id, Pages: pages, ETag: etag, FetchedAt: fetchedAt}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	c.remember(resp)
	if c.store != nil {
		if err := c.store.Save(ctx, resp); err != nil {
			logger.GetLogger().WithField("key", resp.Key()).WithField("error", err).Error("Failed to persist cache record")
		}
	}
	return resp, nil
}

func (c *ResponseCache) Invalidate(ctx context.Context, kind model.ResourceKind, id string) error {
	key := model.CacheKey(kind, id)
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, kind, id)
}
