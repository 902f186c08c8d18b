package repository

import (
	"context"

	"syllabus-crawler/domain/model"
)

// IYouTube defines the network side of the YouTube Data API: one fully
// paginated list call per resource
type IYouTube interface {
	// FetchAll issues the first list request for (kind, id) and follows
	// page cursors until the API reports no further page
	FetchAll(ctx context.Context, kind model.ResourceKind, id string) ([]model.Page, error)
}

// IYouTubeGateway defines cache-checked fetch operations used by the scraper
type IYouTubeGateway interface {
	FetchChannel(ctx context.Context, channelID string) (model.ChannelView, error)
	FetchPlaylists(ctx context.Context, channelID string) (model.PlaylistsView, error)
	FetchPlaylistItems(ctx context.Context, playlistID string) (model.PlaylistItemsView, error)
	FetchVideo(ctx context.Context, videoID string) (model.VideoView, error)
}
