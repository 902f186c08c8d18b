package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/infrastructure/cache"
)

type MockYouTubeClient struct {
	mock.Mock
}

func (m *MockYouTubeClient) FetchAll(ctx context.Context, kind model.ResourceKind, id string) ([]model.Page, error) {
	args := m.Called(ctx, kind, id)
	if p := args.Get(0); p != nil {
		return p.([]model.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func playlistPages() []model.Page {
	return []model.Page{
		{ETag: "e1", NextPageToken: "p2", Items: []json.RawMessage{json.RawMessage(`{"id":"PL1","snippet":{"title":"Class 8 Science"}}`)}},
		{ETag: "e2", Items: []json.RawMessage{json.RawMessage(`{"id":"PL2","snippet":{"title":"Class 8 Maths"}}`)}},
	}
}

func TestYouTubeRepository_MissThenHit(t *testing.T) {
	ctx := context.Background()
	client := new(MockYouTubeClient)
	client.On("FetchAll", ctx, model.KindChannelPlaylists, "UC1").Return(playlistPages(), nil).Once()

	repo := NewYouTubeRepository(client, cache.NewResponseCache(nil, time.Hour))

	first, err := repo.FetchPlaylists(ctx, "UC1")
	require.NoError(t, err)
	second, err := repo.FetchPlaylists(ctx, "UC1")
	require.NoError(t, err)

	assert.Equal(t, 2, first.Len())
	assert.Equal(t, "e1", second.Response().ETag)
	assert.Equal(t, first.Candidates(), second.Candidates())
	client.AssertExpectations(t)
}

func TestYouTubeRepository_ExpiredEntryRefetches(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clk := func() time.Time { return now }
	client := new(MockYouTubeClient)
	client.On("FetchAll", ctx, model.KindVideo, "v1").Return([]model.Page{{ETag: "ev"}}, nil).Twice()

	repo := NewYouTubeRepository(client, cache.NewResponseCache(nil, 24*time.Hour).WithClock(clk))
	_, err := repo.FetchVideo(ctx, "v1")
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, err = repo.FetchVideo(ctx, "v1")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestYouTubeRepository_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	client := new(MockYouTubeClient)
	client.On("FetchAll", ctx, model.KindPlaylistItems, "PL1").Return(nil, apperror.Quota("test", nil, "quota")).Once()
	client.On("FetchAll", ctx, model.KindPlaylistItems, "PL1").Return(playlistPages(), nil).Once()

	repo := NewYouTubeRepository(client, cache.NewResponseCache(nil, time.Hour))
	_, err := repo.FetchPlaylistItems(ctx, "PL1")
	require.Error(t, err)
	assert.Equal(t, apperror.KindQuota, apperror.KindOf(err))

	view, err := repo.FetchPlaylistItems(ctx, "PL1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Len())
	client.AssertExpectations(t)
}

func TestYouTubeRepository_EmptyIDIsConfigError(t *testing.T) {
	client := new(MockYouTubeClient)
	repo := NewYouTubeRepository(client, cache.NewResponseCache(nil, time.Hour))

	_, err := repo.FetchChannel(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConfig, apperror.KindOf(err))
	client.AssertNotCalled(t, "FetchAll", mock.Anything, mock.Anything, mock.Anything)
}
