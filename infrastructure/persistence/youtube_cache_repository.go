package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/logger"
)

// EnsureResponseCacheSchema creates the table for cached YouTube responses if not exists
func EnsureResponseCacheSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS youtube_response_cache (
        kind TEXT NOT NULL,
        resource_id TEXT NOT NULL,
        etag TEXT NOT NULL DEFAULT '',
        pages TEXT NOT NULL,
        fetched_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL,
        PRIMARY KEY (kind, resource_id)
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create youtube_response_cache table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_youtube_response_cache_fetched_at ON youtube_response_cache(fetched_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_youtube_response_cache_fetched_at")
	}
	return nil
}

// YouTubeCacheRepository stores one row per (kind, resource id).
// Pages are kept as TEXT so the JSON comes back byte for byte.
type YouTubeCacheRepository struct{ db *sql.DB }

func NewYouTubeCacheRepository(db *sql.DB) repository.IResponseStore {
	return &YouTubeCacheRepository{db: db}
}

func (r *YouTubeCacheRepository) Load(ctx context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, error) {
	row := r.db.QueryRowContext(ctx, `SELECT etag, pages, fetched_at FROM youtube_response_cache WHERE kind=$1 AND resource_id=$2`, string(kind), id)
	var (
		etag      string
		raw       string
		fetchedAt time.Time
	)
	if err := row.Scan(&etag, &raw, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var pages []model.Page
	if err := json.Unmarshal([]byte(raw), &pages); err != nil {
		return nil, err
	}
	return &model.CachedResponse{Kind: kind, ID: id, Pages: pages, ETag: etag, FetchedAt: fetchedAt}, nil
}

func (r *YouTubeCacheRepository) Save(ctx context.Context, resp *model.CachedResponse) error {
	raw, err := json.Marshal(resp.Pages)
	if err != nil {
		return err
	}
	q := `INSERT INTO youtube_response_cache(kind, resource_id, etag, pages, fetched_at, updated_at)
          VALUES ($1,$2,$3,$4,$5,$6)
          ON CONFLICT (kind, resource_id) DO UPDATE SET etag=EXCLUDED.etag, pages=EXCLUDED.pages, fetched_at=EXCLUDED.fetched_at, updated_at=EXCLUDED.updated_at`
	_, err = r.db.ExecContext(ctx, q, string(resp.Kind), resp.ID, resp.ETag, string(raw), resp.FetchedAt, time.Now().UTC())
	return err
}

func (r *YouTubeCacheRepository) Delete(ctx context.Context, kind model.ResourceKind, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM youtube_response_cache WHERE kind=$1 AND resource_id=$2`, string(kind), id)
	return err
}

// PurgeExpired drops rows fetched before the cutoff
func (r *YouTubeCacheRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM youtube_response_cache WHERE fetched_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
