package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/usecase"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FetchChannel(ctx context.Context, channelID string) (model.ChannelView, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(model.ChannelView), args.Error(1)
}

func (m *MockGateway) FetchPlaylists(ctx context.Context, channelID string) (model.PlaylistsView, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(model.PlaylistsView), args.Error(1)
}

func (m *MockGateway) FetchPlaylistItems(ctx context.Context, playlistID string) (model.PlaylistItemsView, error) {
	args := m.Called(ctx, playlistID)
	return args.Get(0).(model.PlaylistItemsView), args.Error(1)
}

func (m *MockGateway) FetchVideo(ctx context.Context, videoID string) (model.VideoView, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(model.VideoView), args.Error(1)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ctx context.Context, record *model.VideoRecord) error {
	return m.Called(ctx, record).Error(0)
}

func response(kind model.ResourceKind, id string, items ...string) *model.CachedResponse {
	raw := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		raw = append(raw, json.RawMessage(it))
	}
	return &model.CachedResponse{Kind: kind, ID: id, ETag: "e-" + id, Pages: []model.Page{{ETag: "e-" + id, Items: raw}}}
}

func playlists(id string, titles map[string]string, order ...string) model.PlaylistsView {
	items := make([]string, 0, len(order))
	for _, plID := range order {
		items = append(items, fmt.Sprintf(`{"id":%q,"snippet":{"title":%q}}`, plID, titles[plID]))
	}
	return model.PlaylistsView{ResponseView: model.NewResponseView(response(model.KindChannelPlaylists, id, items...))}
}

func playlistItems(id string, pairs ...[2]string) model.PlaylistItemsView {
	items := make([]string, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, fmt.Sprintf(`{"id":"item-%s","snippet":{"title":%q},"contentDetails":{"videoId":%q}}`, p[1], p[0], p[1]))
	}
	return model.PlaylistItemsView{ResponseView: model.NewResponseView(response(model.KindPlaylistItems, id, items...))}
}

func video(id, title string, views int) model.VideoView {
	item := fmt.Sprintf(`{"kind":"youtube#video","id":%q,"snippet":{"title":%q,"description":"d"},"player":{"embedHtml":"<iframe>"},"statistics":{"viewCount":"%d"}}`, id, title, views)
	return model.VideoView{ResponseView: model.NewResponseView(response(model.KindVideo, id, item))}
}

func channel(id, title string) model.ChannelView {
	item := fmt.Sprintf(`{"kind":"youtube#channel","id":%q,"snippet":{"title":%q}}`, id, title)
	return model.ChannelView{ResponseView: model.NewResponseView(response(model.KindChannel, id, item))}
}

func scrapeContext() model.ChapterScrapeContext {
	return model.ChapterScrapeContext{
		Grade:       8,
		Board:       "cbse",
		Subject:     "biology",
		ChapterName: "Cell",
		TopicKey:    "cell",
		Topic: model.Topic{
			Name:   "Cell",
			Accept: []string{"cell"},
			Reject: []string{"plant"},
			Subtopics: []model.NamedTopic{
				{Key: "nucleus", Topic: model.Topic{Accept: []string{"nucleus"}}},
			},
		},
	}
}

var scraperConfig = usecase.ScraperConfig{
	SubjectAliases:  map[string]string{"biology": "science"},
	AliasBelowGrade: 9,
	ItemMaxResults:  5,
}

func TestScraperUseCase_ScrapeTopic(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockGateway)
	sink := new(MockSink)

	gateway.On("FetchChannel", ctx, "UC1").Return(channel("UC1", "LearnNext"), nil).Once()
	gateway.On("FetchPlaylists", ctx, "UC1").Return(playlists("UC1", map[string]string{
		"PL-8":  "Class 8 Science",
		"PL-9":  "Class 9 Science",
		"PL-8m": "Class 8 Maths",
	}, "PL-9", "PL-8", "PL-8m"), nil).Once()
	gateway.On("FetchPlaylistItems", ctx, "PL-8").Return(playlistItems("PL-8",
		[2]string{"The Cell Nucleus", "v1"},
		[2]string{"Cell Structure", "v2"},
		[2]string{"Plant Cell", "v3"},
		[2]string{"Tissues", "v4"},
	), nil).Once()
	gateway.On("FetchVideo", ctx, "v1").Return(video("v1", "The Cell Nucleus", 10), nil).Once()
	gateway.On("FetchVideo", ctx, "v2").Return(video("v2", "Cell Structure", 20), nil).Once()
	sink.On("Publish", ctx, mock.AnythingOfType("*model.VideoRecord")).Return(nil).Twice()

	uc := usecase.NewScraperUseCase(gateway, sink,
		[]model.ChannelSource{{Name: "learnnext", ChannelID: "UC1", Scraper: usecase.ScraperLearnNext}}, scraperConfig)

	records, err := uc.ScrapeTopic(ctx, scrapeContext())
	require.NoError(t, err)

	// both items match the topic unit, so the nucleus unit finds nothing new
	require.Len(t, records, 2)
	assert.Equal(t, "v1", records[0].VideoID)
	assert.Equal(t, "", records[0].Subtopic)
	assert.Equal(t, "PL-8", records[0].PlaylistID)
	assert.Equal(t, "Class 8 Science", records[0].PlaylistTitle)
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", records[0].URL)
	assert.Equal(t, uint64(10), records[0].ViewCount)
	assert.Equal(t, "biology", records[0].Subject)
	assert.Equal(t, "learnnext", records[0].Channel)

	gateway.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestScraperUseCase_SubtopicUnitPicksRemainingItems(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockGateway)
	sink := new(MockSink)

	gateway.On("FetchChannel", ctx, "UC2").Return(channel("UC2", "Generic"), nil).Once()
	gateway.On("FetchPlaylists", ctx, "UC2").Return(playlists("UC2", map[string]string{"PL-s": "Science"}, "PL-s"), nil).Once()
	gateway.On("FetchPlaylistItems", ctx, "PL-s").Return(playlistItems("PL-s",
		[2]string{"Cell basics", "v1"},
		[2]string{"Nucleus explained", "v2"},
	), nil).Once()
	gateway.On("FetchVideo", ctx, "v1").Return(video("v1", "Cell basics", 1), nil).Once()
	gateway.On("FetchVideo", ctx, "v2").Return(video("v2", "Nucleus explained", 1), nil).Once()
	sink.On("Publish", ctx, mock.Anything).Return(nil).Twice()

	uc := usecase.NewScraperUseCase(gateway, sink,
		[]model.ChannelSource{{Name: "generic", ChannelID: "UC2", Scraper: usecase.ScraperGeneric}}, scraperConfig)

	records, err := uc.ScrapeTopic(ctx, scrapeContext())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0].Subtopic)
	assert.Equal(t, "nucleus", records[1].Subtopic)
	assert.Equal(t, 3.0, records[1].Weight)
	gateway.AssertExpectations(t)
}

func TestScraperUseCase_ConfigErrorsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name     string
		channels []model.ChannelSource
		mutate   func(c *model.ChapterScrapeContext)
	}{
		{"no channels", nil, func(*model.ChapterScrapeContext) {}},
		{"unknown scraper", []model.ChannelSource{{Name: "x", ChannelID: "UC", Scraper: "selenium"}}, func(*model.ChapterScrapeContext) {}},
		{"missing channel id", []model.ChannelSource{{Name: "x", Scraper: usecase.ScraperGeneric}}, func(*model.ChapterScrapeContext) {}},
		{"grade out of range", []model.ChannelSource{{Name: "x", ChannelID: "UC", Scraper: usecase.ScraperGeneric}}, func(c *model.ChapterScrapeContext) { c.Grade = 13 }},
		{"missing subject", []model.ChannelSource{{Name: "x", ChannelID: "UC", Scraper: usecase.ScraperGeneric}}, func(c *model.ChapterScrapeContext) { c.Subject = " " }},
		{"missing accept list", []model.ChannelSource{{Name: "x", ChannelID: "UC", Scraper: usecase.ScraperGeneric}}, func(c *model.ChapterScrapeContext) { c.Topic.Accept = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := new(MockGateway)
			uc := usecase.NewScraperUseCase(gateway, new(MockSink), tt.channels, scraperConfig)
			sctx := scrapeContext()
			tt.mutate(&sctx)

			_, err := uc.ScrapeTopic(context.Background(), sctx)
			require.Error(t, err)
			assert.Equal(t, apperror.KindConfig, apperror.KindOf(err))
			gateway.AssertNotCalled(t, "FetchChannel", mock.Anything, mock.Anything)
			gateway.AssertNotCalled(t, "FetchPlaylists", mock.Anything, mock.Anything)
			gateway.AssertNotCalled(t, "FetchPlaylistItems", mock.Anything, mock.Anything)
		})
	}
}

func TestScraperUseCase_EmptyAcceptListSelectsNothing(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockGateway)
	sink := new(MockSink)
	gateway.On("FetchChannel", ctx, "UC2").Return(channel("UC2", "Generic"), nil).Once()
	gateway.On("FetchPlaylists", ctx, "UC2").Return(playlists("UC2", map[string]string{"PL": "Science"}, "PL"), nil).Once()
	gateway.On("FetchPlaylistItems", ctx, "PL").Return(playlistItems("PL", [2]string{"Cell basics", "v1"}), nil).Once()

	uc := usecase.NewScraperUseCase(gateway, sink,
		[]model.ChannelSource{{Name: "generic", ChannelID: "UC2", Scraper: usecase.ScraperGeneric}}, scraperConfig)
	sctx := scrapeContext()
	sctx.Topic = model.Topic{Accept: []string{}}

	records, err := uc.ScrapeTopic(ctx, sctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	gateway.AssertNotCalled(t, "FetchVideo", mock.Anything, mock.Anything)
	sink.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestScraperUseCase_NetworkErrorAbortsTopic(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockGateway)
	gateway.On("FetchChannel", ctx, "UC1").Return(channel("UC1", "LearnNext"), nil).Once()
	gateway.On("FetchPlaylists", ctx, "UC1").Return(playlists("UC1", map[string]string{"PL": "Class 8 Science"}, "PL"), nil).Once()
	gateway.On("FetchPlaylistItems", ctx, "PL").Return(model.PlaylistItemsView{}, apperror.Auth("test", nil, "expired")).Once()

	uc := usecase.NewScraperUseCase(gateway, new(MockSink),
		[]model.ChannelSource{{Name: "ln", ChannelID: "UC1", Scraper: usecase.ScraperLearnNext}}, scraperConfig)

	records, err := uc.ScrapeTopic(ctx, scrapeContext())
	assert.Nil(t, records)
	assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))
	gateway.AssertExpectations(t)
}

func TestScraperUseCase_MissingChannelIsNotFound(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockGateway)
	gateway.On("FetchChannel", ctx, "UCgone").Return(model.ChannelView{ResponseView: model.NewResponseView(response(model.KindChannel, "UCgone"))}, nil).Once()

	uc := usecase.NewScraperUseCase(gateway, new(MockSink),
		[]model.ChannelSource{{Name: "gone", ChannelID: "UCgone", Scraper: usecase.ScraperGeneric}}, scraperConfig)

	_, err := uc.ScrapeTopic(ctx, scrapeContext())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	gateway.AssertNotCalled(t, "FetchPlaylists", mock.Anything, mock.Anything)
}

func TestScraperUseCase_ScrapeChapterDedupsAcrossTopicsThenResets(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockGateway)
	sink := new(MockSink)
	gateway.On("FetchChannel", ctx, "UC2").Return(channel("UC2", "Generic"), nil)
	gateway.On("FetchPlaylists", ctx, "UC2").Return(playlists("UC2", map[string]string{"PL": "Science"}, "PL"), nil)
	gateway.On("FetchPlaylistItems", ctx, "PL").Return(playlistItems("PL", [2]string{"Cell Membrane", "v1"}), nil)
	gateway.On("FetchVideo", ctx, "v1").Return(video("v1", "Cell Membrane", 1), nil)
	sink.On("Publish", ctx, mock.Anything).Return(nil)

	chapter := &model.Chapter{Name: "Cell", Grade: 8, Board: "cbse", Subject: "biology", Topics: []model.NamedTopic{
		{Key: "cell", Topic: model.Topic{Accept: []string{"cell"}}},
		{Key: "membrane", Topic: model.Topic{Accept: []string{"membrane"}}},
	}}
	uc := usecase.NewScraperUseCase(gateway, sink,
		[]model.ChannelSource{{Name: "generic", ChannelID: "UC2", Scraper: usecase.ScraperGeneric}}, scraperConfig)

	result, err := uc.ScrapeChapter(ctx, chapter)
	require.NoError(t, err)
	require.Len(t, result.Topics, 2)
	assert.Len(t, result.Topics[0].Records, 1)
	assert.Empty(t, result.Topics[1].Records)

	// the session was reset, so the same video is selectable again
	again, err := uc.ScrapeChapter(ctx, chapter)
	require.NoError(t, err)
	assert.Len(t, again.Records(), 1)
}

func TestEffectiveSubject(t *testing.T) {
	aliases := map[string]string{"physics": "science"}
	assert.Equal(t, "science", usecase.EffectiveSubject("Physics", 8, aliases, 9))
	assert.Equal(t, "Physics", usecase.EffectiveSubject("Physics", 9, aliases, 9))
	assert.Equal(t, "maths", usecase.EffectiveSubject("maths", 6, aliases, 9))
}
