package repository

import (
	"context"

	"syllabus-crawler/domain/model"
)

// IResponseStore is the durable side of the response cache. One record per
// (kind, id). Load returns (nil, nil) on a miss.
type IResponseStore interface {
	Load(ctx context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, error)
	Save(ctx context.Context, resp *model.CachedResponse) error
	Delete(ctx context.Context, kind model.ResourceKind, id string) error
}

// IResponseCache defines the TTL-bound response cache consulted before any API call
type IResponseCache interface {
	// Get returns the cached response only while it is younger than the TTL
	Get(ctx context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, bool)
	// Put replaces the entry for (kind, id) stamped with the current time
	Put(ctx context.Context, kind model.ResourceKind, id string, pages []model.Page, etag string) (*model.CachedResponse, error)
	// Invalidate drops the entry from memory and the durable store
	Invalidate(ctx context.Context, kind model.ResourceKind, id string) error
}
