package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResourceKind identifies which YouTube list endpoint a cached response came from
type ResourceKind string

const (
	KindChannel          ResourceKind = "channel"
	KindChannelPlaylists ResourceKind = "channelplaylists"
	KindPlaylistItems    ResourceKind = "playlistitem"
	KindVideo            ResourceKind = "video"
)

// Valid reports whether k is one of the known resource kinds
func (k ResourceKind) Valid() bool {
	switch k {
	case KindChannel, KindChannelPlaylists, KindPlaylistItems, KindVideo:
		return true
	}
	return false
}

// Page is one raw page of a YouTube list response
type Page struct {
	ETag          string            `json:"etag"`
	NextPageToken string            `json:"next_page_token,omitempty"`
	Items         []json.RawMessage `json:"items"`
}

// CachedResponse is a fully paginated API response for one (kind, id) pair.
// Pages is never empty and the last page carries no NextPageToken.
type CachedResponse struct {
	Kind      ResourceKind `json:"kind"`
	ID        string       `json:"id"`
	Pages     []Page       `json:"pages"`
	ETag      string       `json:"etag"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// CacheKey builds the identity used by every response store
func CacheKey(kind ResourceKind, id string) string {
	return fmt.Sprintf("cache-%s-%s", kind, id)
}

// Key returns the cache key of the response
func (c *CachedResponse) Key() string {
	return CacheKey(c.Kind, c.ID)
}

// Validate checks page consistency of a response before it is cached
func (c *CachedResponse) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("unknown resource kind %q", c.Kind)
	}
	if c.ID == "" {
		return fmt.Errorf("resource id is required")
	}
	if len(c.Pages) == 0 {
		return fmt.Errorf("response %s has no pages", c.Key())
	}
	if c.Pages[len(c.Pages)-1].NextPageToken != "" {
		return fmt.Errorf("response %s ends with a page cursor", c.Key())
	}
	return nil
}

// ItemCount returns the number of items across all pages
func (c *CachedResponse) ItemCount() int {
	n := 0
	for _, p := range c.Pages {
		n += len(p.Items)
	}
	return n
}

// YouTubeItem is the subset of a channel, playlist, playlist item or video
// resource the scraper reads. Field names follow the API's JSON.
type YouTubeItem struct {
	Kind           string              `json:"kind"`
	ETag           string              `json:"etag"`
	ID             string              `json:"id"`
	Snippet        *ItemSnippet        `json:"snippet,omitempty"`
	ContentDetails *ItemContentDetails `json:"contentDetails,omitempty"`
	Player         *ItemPlayer         `json:"player,omitempty"`
	Statistics     *ItemStatistics     `json:"statistics,omitempty"`
}

type ItemSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	PlaylistID   string `json:"playlistId,omitempty"`
	Position     int64  `json:"position,omitempty"`
}

type ItemContentDetails struct {
	VideoID   string `json:"videoId,omitempty"`
	ItemCount int64  `json:"itemCount,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type ItemPlayer struct {
	EmbedHTML string `json:"embedHtml"`
}

type ItemStatistics struct {
	ViewCount       uint64 `json:"viewCount,omitempty,string"`
	LikeCount       uint64 `json:"likeCount,omitempty,string"`
	CommentCount    uint64 `json:"commentCount,omitempty,string"`
	SubscriberCount uint64 `json:"subscriberCount,omitempty,string"`
	VideoCount      uint64 `json:"videoCount,omitempty,string"`
}

// Title returns the snippet title or an empty string
func (i *YouTubeItem) Title() string {
	if i.Snippet == nil {
		return ""
	}
	return i.Snippet.Title
}

// Description returns the snippet description or an empty string
func (i *YouTubeItem) Description() string {
	if i.Snippet == nil {
		return ""
	}
	return i.Snippet.Description
}

// Embed returns the player embed html or an empty string
func (i *YouTubeItem) Embed() string {
	if i.Player == nil {
		return ""
	}
	return i.Player.EmbedHTML
}

// VideoID returns the referenced video for playlist items, or the item id for videos
func (i *YouTubeItem) VideoID() string {
	if i.ContentDetails != nil && i.ContentDetails.VideoID != "" {
		return i.ContentDetails.VideoID
	}
	if i.Kind == "youtube#video" {
		return i.ID
	}
	return ""
}

// ViewCount returns the view statistic or zero
func (i *YouTubeItem) ViewCount() uint64 {
	if i.Statistics == nil {
		return 0
	}
	return i.Statistics.ViewCount
}

// WatchURL builds the public watch url for a video id
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
