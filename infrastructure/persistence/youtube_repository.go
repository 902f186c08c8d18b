package persistence

import (
	"context"

	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/logger"
)

// YouTubeRepository combines the API client with the response cache.
// Every fetch consults the cache first and only calls the API on a miss.
type YouTubeRepository struct {
	Cache            repository.IResponseCache
	YouTubeAPIClient repository.IYouTube
}

func NewYouTubeRepository(client repository.IYouTube, cache repository.IResponseCache) repository.IYouTubeGateway {
	return &YouTubeRepository{Cache: cache, YouTubeAPIClient: client}
}

func (r *YouTubeRepository) fetch(ctx context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, error) {
	op := "YouTubeRepository.fetch." + string(kind)
	if id == "" {
		return nil, apperror.Config(op, nil, "resource id is required")
	}

	if resp, ok := r.Cache.Get(ctx, kind, id); ok {
		logger.GetLogger().WithField("key", resp.Key()).Debug("Cache hit")
		return resp, nil
	}

	pages, err := r.YouTubeAPIClient.FetchAll(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, apperror.Network(op, nil, "empty response")
	}
	resp, err := r.Cache.Put(ctx, kind, id, pages, pages[0].ETag)
	if err != nil {
		return nil, apperror.Internal(op, err, "response pages are inconsistent")
	}
	return resp, nil
}

func (r *YouTubeRepository) FetchChannel(ctx context.Context, channelID string) (model.ChannelView, error) {
	resp, err := r.fetch(ctx, model.KindChannel, channelID)
	if err != nil {
		return model.ChannelView{}, err
	}
	return model.ChannelView{ResponseView: model.NewResponseView(resp)}, nil
}

func (r *YouTubeRepository) FetchPlaylists(ctx context.Context, channelID string) (model.PlaylistsView, error) {
	resp, err := r.fetch(ctx, model.KindChannelPlaylists, channelID)
	if err != nil {
		return model.PlaylistsView{}, err
	}
	return model.PlaylistsView{ResponseView: model.NewResponseView(resp)}, nil
}

func (r *YouTubeRepository) FetchPlaylistItems(ctx context.Context, playlistID string) (model.PlaylistItemsView, error) {
	resp, err := r.fetch(ctx, model.KindPlaylistItems, playlistID)
	if err != nil {
		return model.PlaylistItemsView{}, err
	}
	return model.PlaylistItemsView{ResponseView: model.NewResponseView(resp)}, nil
}

func (r *YouTubeRepository) FetchVideo(ctx context.Context, videoID string) (model.VideoView, error) {
	resp, err := r.fetch(ctx, model.KindVideo, videoID)
	if err != nil {
		return model.VideoView{}, err
	}
	return model.VideoView{ResponseView: model.NewResponseView(resp)}, nil
}
