package usecase

import (
	"context"
	"strconv"
	"strings"

	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/dto"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/logger"
)

const (
	ScraperLearnNext = "lnscrape"
	ScraperGeneric   = "generic"

	topicWeight    = 2
	subtopicWeight = 3
)

// playlistPolicy builds the playlist ranking for a channel. Sources that
// already group playlists by grade get the full class/grade/subject model
// and a single pick.
type playlistPolicy func(grade int, subject string) dto.RankConfig

var playlistPolicies = map[string]playlistPolicy{
	ScraperLearnNext: func(grade int, subject string) dto.RankConfig {
		return dto.RankConfig{
			AcceptWeights: map[string]float64{
				"class":              4,
				strconv.Itoa(grade): 3,
				subject:              3,
			},
			MaxResults: 1,
		}
	},
	ScraperGeneric: func(_ int, subject string) dto.RankConfig {
		return dto.RankConfig{
			AcceptWeights: map[string]float64{subject: 3},
			MaxResults:    5,
		}
	},
}

// KnownScraper reports whether a channel's scraper key has a playlist policy
func KnownScraper(key string) bool {
	_, ok := playlistPolicies[key]
	return ok
}

type ScraperConfig struct {
	SubjectAliases  map[string]string
	AliasBelowGrade int
	ItemMaxResults  int
}

type IScraperUseCase interface {
	ScrapeTopic(ctx context.Context, sctx model.ChapterScrapeContext) ([]model.VideoRecord, error)
	ScrapeChapter(ctx context.Context, chapter *model.Chapter) (*dto.ChapterScrapeResult, error)
	ResetSession()
}

type scraperUseCase struct {
	gateway   repository.IYouTubeGateway
	sink      repository.IVideoSink
	channels  []model.ChannelSource
	selection *SelectionCache
	cfg       ScraperConfig
}

// NewScraperUseCase builds one scrape session. The session owns its
// SelectionCache and must not be shared between concurrent scrapes.
func NewScraperUseCase(gateway repository.IYouTubeGateway, sink repository.IVideoSink, channels []model.ChannelSource, cfg ScraperConfig) IScraperUseCase {
	if cfg.ItemMaxResults <= 0 {
		cfg.ItemMaxResults = dto.DefaultMaxResults
	}
	return &scraperUseCase{
		gateway:   gateway,
		sink:      sink,
		channels:  channels,
		selection: NewSelectionCache(),
		cfg:       cfg,
	}
}

// EffectiveSubject swaps in the configured alias for lower grades
func EffectiveSubject(subject string, grade int, aliases map[string]string, belowGrade int) string {
	if grade >= belowGrade {
		return subject
	}
	if alias, ok := aliases[strings.ToLower(subject)]; ok && alias != "" {
		return alias
	}
	return subject
}

func (u *scraperUseCase) validate(sctx model.ChapterScrapeContext) error {
	const op = "ScraperUseCase.validate"
	if len(u.channels) == 0 {
		return apperror.Config(op, nil, "no content channels configured")
	}
	for _, ch := range u.channels {
		if ch.ChannelID == "" {
			return apperror.Config(op, nil, "channel "+ch.Name+" has no channel-id")
		}
		if !KnownScraper(ch.Scraper) {
			return apperror.Config(op, nil, "channel "+ch.Name+" uses unknown scraper "+strconv.Quote(ch.Scraper))
		}
	}
	if sctx.Grade < 1 || sctx.Grade > 12 {
		return apperror.Config(op, nil, "grade must be within 1..12, got "+strconv.Itoa(sctx.Grade))
	}
	if strings.TrimSpace(sctx.Subject) == "" {
		return apperror.Config(op, nil, "subject is required")
	}
	if sctx.TopicKey == "" {
		return apperror.Config(op, nil, "topic is required")
	}
	// an explicit empty list is allowed and simply selects nothing
	if sctx.Topic.Accept == nil {
		return apperror.Config(op, nil, "topic "+sctx.TopicKey+" has no accept keyword list")
	}
	return nil
}

type rankUnit struct {
	subtopic string
	cfg      dto.RankConfig
}

// units yields the topic itself followed by one unit per subtopic
func (u *scraperUseCase) units(topic model.Topic) []rankUnit {
	base := make(map[string]float64, len(topic.Accept))
	for _, kw := range topic.Accept {
		base[kw] = topicWeight
	}
	out := []rankUnit{{cfg: dto.RankConfig{
		AcceptWeights:  base,
		RejectKeywords: topic.Reject,
		MaxResults:     u.cfg.ItemMaxResults,
	}}}

	for _, sub := range topic.Subtopics {
		accept := make(map[string]float64, len(base)+len(sub.Topic.Accept))
		for kw, w := range base {
			accept[kw] = w
		}
		for _, kw := range sub.Topic.Accept {
			accept[kw] = subtopicWeight
		}
		reject := append(append([]string{}, topic.Reject...), sub.Topic.Reject...)
		out = append(out, rankUnit{subtopic: sub.Key, cfg: dto.RankConfig{
			AcceptWeights:  accept,
			RejectKeywords: reject,
			MaxResults:     u.cfg.ItemMaxResults,
		}})
	}
	return out
}

func (u *scraperUseCase) ScrapeTopic(ctx context.Context, sctx model.ChapterScrapeContext) ([]model.VideoRecord, error) {
	if err := u.validate(sctx); err != nil {
		return nil, err
	}
	subject := EffectiveSubject(sctx.Subject, sctx.Grade, u.cfg.SubjectAliases, u.cfg.AliasBelowGrade)
	units := u.units(sctx.Topic)

	log := logger.GetLogger().WithFields(map[string]interface{}{
		"grade":   sctx.Grade,
		"subject": subject,
		"topic":   sctx.TopicKey,
	})

	records := make([]model.VideoRecord, 0)
	for _, ch := range u.channels {
		u.selection.Activate(ch.Scraper)

		channel, err := u.gateway.FetchChannel(ctx, ch.ChannelID)
		if err != nil {
			return nil, err
		}
		info, ok := channel.First()
		if !ok {
			return nil, apperror.NotFound("ScraperUseCase.ScrapeTopic", nil, "channel "+ch.Name+" ("+ch.ChannelID+") does not exist")
		}
		log.WithField("channel", ch.Name).WithField("title", info.Title()).Debug("Scraping channel")

		playlists, err := u.gateway.FetchPlaylists(ctx, ch.ChannelID)
		if err != nil {
			return nil, err
		}
		selected, _ := Rank(playlists.Candidates(), playlistPolicies[ch.Scraper](sctx.Grade, subject), nil)
		log.WithField("channel", ch.Name).WithField("playlists", len(selected)).Debug("Ranked playlists")

		for _, playlist := range selected {
			items, err := u.gateway.FetchPlaylistItems(ctx, playlist.Payload.ID)
			if err != nil {
				return nil, err
			}
			candidates := items.Candidates()
			for _, unit := range units {
				picked, _ := Rank(candidates, unit.cfg, u.selection)
				for _, item := range picked {
					rec, ok, err := u.video(ctx, ch, playlist, item)
					if err != nil {
						return nil, err
					}
					if !ok {
						continue
					}
					rec.Grade = sctx.Grade
					rec.Board = sctx.Board
					rec.Subject = sctx.Subject
					rec.Topic = sctx.TopicKey
					rec.Subtopic = unit.subtopic
					if err := u.sink.Publish(ctx, &rec); err != nil {
						return nil, apperror.Internal("ScraperUseCase.ScrapeTopic", err, "failed to publish video record")
					}
					records = append(records, rec)
				}
			}
		}
	}
	log.WithField("records", len(records)).Info("Topic scraped")
	return records, nil
}

// video fetches the item's video; ok is false when the item carries no video
// or the video is no longer available
func (u *scraperUseCase) video(ctx context.Context, ch model.ChannelSource, playlist, item model.RankedItem) (model.VideoRecord, bool, error) {
	videoID := item.Payload.VideoID
	if videoID == "" {
		return model.VideoRecord{}, false, nil
	}
	view, err := u.gateway.FetchVideo(ctx, videoID)
	if err != nil {
		return model.VideoRecord{}, false, err
	}
	video, ok := view.First()
	if !ok {
		logger.GetLogger().WithField("videoId", videoID).Warn("Video unavailable, skipping")
		return model.VideoRecord{}, false, nil
	}
	return model.VideoRecord{
		Channel:       ch.Name,
		PlaylistID:    playlist.Payload.ID,
		PlaylistTitle: playlist.Title,
		VideoID:       videoID,
		Title:         video.Title(),
		URL:           model.WatchURL(videoID),
		Embed:         video.Embed(),
		Description:   video.Description(),
		ViewCount:     video.ViewCount(),
		Weight:        item.Weight,
	}, true, nil
}

// ScrapeChapter scrapes every topic in document order and ends the session
func (u *scraperUseCase) ScrapeChapter(ctx context.Context, chapter *model.Chapter) (*dto.ChapterScrapeResult, error) {
	defer u.ResetSession()

	result := &dto.ChapterScrapeResult{
		Chapter: chapter.Name,
		Grade:   chapter.Grade,
		Board:   chapter.Board,
		Subject: chapter.Subject,
		Topics:  make([]dto.TopicScrapeResult, 0, len(chapter.Topics)),
	}
	for _, t := range chapter.Topics {
		sctx, _ := chapter.ScrapeContext(t.Key)
		records, err := u.ScrapeTopic(ctx, sctx)
		if err != nil {
			return nil, err
		}
		result.Topics = append(result.Topics, dto.TopicScrapeResult{TopicKey: t.Key, Records: records})
	}
	return result, nil
}

func (u *scraperUseCase) ResetSession() {
	u.selection.Reset()
}
