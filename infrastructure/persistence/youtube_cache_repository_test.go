package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"syllabus-crawler/domain/model"
)

func samplePages() []model.Page {
	return []model.Page{
		{ETag: "e1", NextPageToken: "p2", Items: []json.RawMessage{json.RawMessage(`{"id":"a","snippet":{"title":"Cells"}}`)}},
		{ETag: "e2", Items: []json.RawMessage{json.RawMessage(`{"id":"b"}`)}},
	}
}

func TestYouTubeCacheRepository_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewYouTubeCacheRepository(db)
	fetchedAt := time.Date(2024, 3, 4, 5, 6, 7, 123456000, time.UTC)
	raw, err := json.Marshal(samplePages())
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT etag, pages, fetched_at FROM youtube_response_cache WHERE kind=$1 AND resource_id=$2`)).
		WithArgs("playlistitem", "PL1").
		WillReturnRows(sqlmock.NewRows([]string{"etag", "pages", "fetched_at"}).AddRow("e1", string(raw), fetchedAt))

	res, err := repo.Load(context.Background(), model.KindPlaylistItems, "PL1")
	require.NoError(t, err)
	require.Equal(t, samplePages(), res.Pages)
	require.Equal(t, "e1", res.ETag)
	require.True(t, fetchedAt.Equal(res.FetchedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestYouTubeCacheRepository_LoadMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT etag, pages, fetched_at FROM youtube_response_cache`)).
		WithArgs("video", "v1").
		WillReturnError(sql.ErrNoRows)

	res, err := NewYouTubeCacheRepository(db).Load(context.Background(), model.KindVideo, "v1")
	require.NoError(t, err)
	require.Nil(t, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestYouTubeCacheRepository_LoadCorrupt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT etag, pages, fetched_at FROM youtube_response_cache`)).
		WithArgs("video", "v1").
		WillReturnRows(sqlmock.NewRows([]string{"etag", "pages", "fetched_at"}).AddRow("e", "{not json", time.Now()))

	_, err = NewYouTubeCacheRepository(db).Load(context.Background(), model.KindVideo, "v1")
	require.Error(t, err)
}

func TestYouTubeCacheRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	resp := &model.CachedResponse{Kind: model.KindPlaylistItems, ID: "PL1", Pages: samplePages(), ETag: "e1", FetchedAt: time.Now().UTC()}
	raw, err := json.Marshal(resp.Pages)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO youtube_response_cache(kind, resource_id, etag, pages, fetched_at, updated_at)`)).
		WithArgs("playlistitem", "PL1", "e1", string(raw), resp.FetchedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewYouTubeCacheRepository(db).Save(context.Background(), resp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestYouTubeCacheRepository_DeleteAndPurge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM youtube_response_cache WHERE kind=$1 AND resource_id=$2`)).
		WithArgs("channel", "UC1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM youtube_response_cache WHERE fetched_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := &YouTubeCacheRepository{db: db}
	require.NoError(t, repo.Delete(context.Background(), model.KindChannel, "UC1"))
	n, err := repo.PurgeExpired(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureResponseCacheSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS youtube_response_cache`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE INDEX IF NOT EXISTS idx_youtube_response_cache_fetched_at`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureResponseCacheSchema(db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestYouTubeCacheRepositoryMSSQL_SaveAndLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewYouTubeCacheRepositoryMSSQL(db)
	resp := &model.CachedResponse{Kind: model.KindVideo, ID: "v1", Pages: samplePages()[1:], ETag: "e2", FetchedAt: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)}
	raw, err := json.Marshal(resp.Pages)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`MERGE dbo.youtube_response_cache AS target`)).
		WithArgs("video", "v1", "e2", string(raw), resp.FetchedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT etag, pages, fetched_at FROM dbo.youtube_response_cache WHERE kind=@p1 AND resource_id=@p2`)).
		WithArgs("video", "v1").
		WillReturnRows(sqlmock.NewRows([]string{"etag", "pages", "fetched_at"}).AddRow("e2", string(raw), resp.FetchedAt))

	require.NoError(t, repo.Save(context.Background(), resp))
	got, err := repo.Load(context.Background(), model.KindVideo, "v1")
	require.NoError(t, err)
	require.Equal(t, resp.Pages, got.Pages)
	require.NoError(t, mock.ExpectationsWereMet())
}
