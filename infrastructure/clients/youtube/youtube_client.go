package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/logger"
)

const (
	defaultPageSize       = 50
	defaultRequestTimeout = 30 * time.Second
)

// Client represents a read-only YouTube Data API client
type Client struct {
	service  *youtube.Service
	limiter  *rate.Limiter
	pageSize int64
	timeout  time.Duration
}

// Config represents YouTube API configuration
type Config struct {
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	AccessToken       string
	RefreshToken      string
	APIKey            string
	TokenFile         string
	Scopes            []string
	PageSize          int64
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

// NewYouTubeClient creates a new YouTube API client
func NewYouTubeClient(ctx context.Context, config *Config, opts ...option.ClientOption) (repository.IYouTube, error) {
	cred, err := credentialOption(ctx, config)
	if err != nil {
		return nil, err
	}
	service, err := youtube.NewService(ctx, append([]option.ClientOption{cred}, opts...)...)
	if err != nil {
		return nil, apperror.Config("youtube.NewYouTubeClient", err, "failed to create YouTube service")
	}
	return newClient(service, config), nil
}

func newClient(service *youtube.Service, config *Config) *Client {
	pageSize := config.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	return &Client{
		service:  service,
		limiter:  rate.NewLimiter(limit, 1),
		pageSize: pageSize,
		timeout:  timeout,
	}
}

// FetchAll retrieves every page of the list response for (kind, id)
func (c *Client) FetchAll(ctx context.Context, kind model.ResourceKind, id string) ([]model.Page, error) {
	first, err := c.FetchPage(ctx, kind, id, "")
	if err != nil {
		return nil, err
	}
	pages, err := Paginate(ctx, first, func(ctx context.Context, pageToken string) (model.Page, error) {
		return c.FetchPage(ctx, kind, id, pageToken)
	})
	if err != nil {
		return nil, err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"kind":  kind,
		"id":    id,
		"pages": len(pages),
	}).Debug("Fetched YouTube resource")
	return pages, nil
}

// FetchPage issues one list request. An empty pageToken requests the first page.
func (c *Client) FetchPage(ctx context.Context, kind model.ResourceKind, id string, pageToken string) (model.Page, error) {
	op := "youtube.FetchPage." + string(kind)

	if err := c.limiter.Wait(ctx); err != nil {
		return model.Page{}, apperror.Network(op, err, "rate limiter wait aborted")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		page model.Page
		err  error
	)
	switch kind {
	case model.KindChannel:
		call := c.service.Channels.List([]string{"snippet", "contentDetails", "statistics"}).Id(id)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var resp *youtube.ChannelListResponse
		if resp, err = call.Context(ctx).Do(); err == nil {
			page, err = toPage(resp.Etag, resp.NextPageToken, resp.Items)
		}
	case model.KindChannelPlaylists:
		call := c.service.Playlists.List([]string{"snippet", "contentDetails", "player"}).ChannelId(id).MaxResults(c.pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var resp *youtube.PlaylistListResponse
		if resp, err = call.Context(ctx).Do(); err == nil {
			page, err = toPage(resp.Etag, resp.NextPageToken, resp.Items)
		}
	case model.KindPlaylistItems:
		call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).PlaylistId(id).MaxResults(c.pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var resp *youtube.PlaylistItemListResponse
		if resp, err = call.Context(ctx).Do(); err == nil {
			page, err = toPage(resp.Etag, resp.NextPageToken, resp.Items)
		}
	case model.KindVideo:
		call := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics", "player"}).Id(id)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var resp *youtube.VideoListResponse
		if resp, err = call.Context(ctx).Do(); err == nil {
			page, err = toPage(resp.Etag, resp.NextPageToken, resp.Items)
		}
	default:
		return model.Page{}, apperror.Internal(op, nil, "unsupported resource kind")
	}
	if err != nil {
		return model.Page{}, classify(op, err)
	}
	return page, nil
}

func toPage[T any](etag, next string, items []*T) (model.Page, error) {
	raw := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return model.Page{}, apperror.Internal("youtube.toPage", err, "failed to encode item")
		}
		raw = append(raw, b)
	}
	return model.Page{ETag: etag, NextPageToken: next, Items: raw}, nil
}

var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"dailyLimitExceeded":    true,
	"userRateLimitExceeded": true,
}

// classify maps transport and API failures onto error kinds
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401:
			return apperror.Auth(op, err, "YouTube rejected the credential")
		case 403:
			for _, item := range apiErr.Errors {
				if quotaReasons[item.Reason] {
					return apperror.Quota(op, err, "YouTube quota exhausted")
				}
			}
		case 404:
			return apperror.NotFound(op, err, "YouTube resource not found")
		case 429:
			return apperror.Quota(op, err, "YouTube rate limit hit")
		}
		return apperror.Network(op, err, "YouTube API request failed")
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return apperror.Auth(op, err, "failed to refresh OAuth token")
	}
	return apperror.Network(op, err, "YouTube request failed")
}
