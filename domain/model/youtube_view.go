package model

import (
	"encoding/json"
	"iter"
)

// ResponseView is a read-only, restartable view over a cached response.
// Iteration never touches the network; items are decoded from the
// materialized pages on every pass.
type ResponseView struct {
	resp *CachedResponse
}

func NewResponseView(resp *CachedResponse) ResponseView {
	return ResponseView{resp: resp}
}

// Items yields every decodable item, page by page. Items that fail to
// decode are skipped.
func (v ResponseView) Items() iter.Seq[YouTubeItem] {
	return func(yield func(YouTubeItem) bool) {
		if v.resp == nil {
			return
		}
		for _, page := range v.resp.Pages {
			for _, raw := range page.Items {
				var item YouTubeItem
				if err := json.Unmarshal(raw, &item); err != nil {
					continue
				}
				if !yield(item) {
					return
				}
			}
		}
	}
}

// Len counts decodable items
func (v ResponseView) Len() int {
	n := 0
	for range v.Items() {
		n++
	}
	return n
}

// Response exposes the underlying response metadata
func (v ResponseView) Response() *CachedResponse {
	return v.resp
}

// Candidates converts every item into a rankable candidate
func (v ResponseView) Candidates() []Candidate {
	out := make([]Candidate, 0)
	for item := range v.Items() {
		out = append(out, Candidate{Title: item.Title(), Payload: Summarize(item)})
	}
	return out
}

// Summarize minifies an item down to what ranking and output need
func Summarize(item YouTubeItem) ItemSummary {
	return ItemSummary{
		ID:          item.ID,
		Title:       item.Title(),
		Description: item.Description(),
		Embed:       item.Embed(),
		VideoID:     item.VideoID(),
	}
}

// ChannelView wraps a channels.list response
type ChannelView struct{ ResponseView }

// PlaylistsView wraps a playlists.list response for one channel
type PlaylistsView struct{ ResponseView }

// PlaylistItemsView wraps a playlistItems.list response for one playlist
type PlaylistItemsView struct{ ResponseView }

// VideoView wraps a videos.list response
type VideoView struct{ ResponseView }

// First returns the first video of the response
func (v VideoView) First() (YouTubeItem, bool) {
	for item := range v.Items() {
		return item, true
	}
	return YouTubeItem{}, false
}

// First returns the first channel of the response
func (v ChannelView) First() (YouTubeItem, bool) {
	for item := range v.Items() {
		return item, true
	}
	return YouTubeItem{}, false
}
