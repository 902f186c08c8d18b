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

// EnsureResponseCacheSchemaMSSQL creates the cache table on MSSQL if not exists
func EnsureResponseCacheSchemaMSSQL(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.youtube_response_cache') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.youtube_response_cache (
        kind NVARCHAR(32) NOT NULL,
        resource_id NVARCHAR(128) NOT NULL,
        etag NVARCHAR(256) NOT NULL DEFAULT '',
        pages NVARCHAR(MAX) NOT NULL,
        fetched_at DATETIMEOFFSET NOT NULL,
        updated_at DATETIMEOFFSET NOT NULL,
        CONSTRAINT pk_youtube_response_cache PRIMARY KEY (kind, resource_id)
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create youtube_response_cache table (mssql): %w", err)
	}
	if _, err := db.Exec(`IF NOT EXISTS (SELECT * FROM sys.indexes WHERE name = 'idx_youtube_response_cache_fetched_at' AND object_id = OBJECT_ID('dbo.youtube_response_cache'))
CREATE INDEX idx_youtube_response_cache_fetched_at ON dbo.youtube_response_cache(fetched_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_youtube_response_cache_fetched_at (mssql)")
	}
	return nil
}

// YouTubeCacheRepositoryMSSQL implements IResponseStore on MSSQL
type YouTubeCacheRepositoryMSSQL struct {
	db *sql.DB
}

func NewYouTubeCacheRepositoryMSSQL(db *sql.DB) repository.IResponseStore {
	return &YouTubeCacheRepositoryMSSQL{db: db}
}

func (r *YouTubeCacheRepositoryMSSQL) Load(ctx context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, error) {
	row := r.db.QueryRowContext(ctx, `SELECT etag, pages, fetched_at FROM dbo.youtube_response_cache WHERE kind=@p1 AND resource_id=@p2`, string(kind), id)
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

func (r *YouTubeCacheRepositoryMSSQL) Save(ctx context.Context, resp *model.CachedResponse) error {
	raw, err := json.Marshal(resp.Pages)
	if err != nil {
		return err
	}
	q := `MERGE dbo.youtube_response_cache AS target
USING (SELECT @p1 AS kind, @p2 AS resource_id) AS src
ON target.kind = src.kind AND target.resource_id = src.resource_id
WHEN MATCHED THEN UPDATE SET etag=@p3, pages=@p4, fetched_at=@p5, updated_at=@p6
WHEN NOT MATCHED THEN INSERT (kind, resource_id, etag, pages, fetched_at, updated_at) VALUES (@p1,@p2,@p3,@p4,@p5,@p6);`
	_, err = r.db.ExecContext(ctx, q, string(resp.Kind), resp.ID, resp.ETag, string(raw), resp.FetchedAt, time.Now().UTC())
	return err
}

func (r *YouTubeCacheRepositoryMSSQL) Delete(ctx context.Context, kind model.ResourceKind, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dbo.youtube_response_cache WHERE kind=@p1 AND resource_id=@p2`, string(kind), id)
	return err
}
