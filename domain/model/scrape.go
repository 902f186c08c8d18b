package model

import "time"

// ItemSummary is the minified payload carried through ranking
type ItemSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Embed       string `json:"embed,omitempty"`
	VideoID     string `json:"video_id,omitempty"`
}

// Candidate is an item offered to the title ranker
type Candidate struct {
	Title   string
	Payload ItemSummary
}

// RankedItem is a candidate that scored above zero
type RankedItem struct {
	Title   string      `json:"title"`
	Payload ItemSummary `json:"payload"`
	Weight  float64     `json:"weight"`
}

// VideoRecord is what the scraper emits for every selected video
type VideoRecord struct {
	Channel       string  `json:"channel" bson:"channel"`
	PlaylistID    string  `json:"playlist_id" bson:"playlistId"`
	PlaylistTitle string  `json:"playlist_title" bson:"playlistTitle"`
	VideoID       string  `json:"video_id" bson:"videoId"`
	Title         string  `json:"title" bson:"title"`
	URL           string  `json:"url" bson:"url"`
	Embed         string  `json:"embed" bson:"embed"`
	Description   string  `json:"description" bson:"description"`
	ViewCount     uint64  `json:"view_count" bson:"viewCount"`
	Weight        float64 `json:"weight" bson:"weight"`
	Grade         int     `json:"grade" bson:"grade"`
	Board         string  `json:"board" bson:"board"`
	Subject       string  `json:"subject" bson:"subject"`
	Topic         string  `json:"topic" bson:"topic"`
	Subtopic      string  `json:"subtopic,omitempty" bson:"subtopic"`
}

// ChannelSource is one configured content channel
type ChannelSource struct {
	Name      string `json:"name" yaml:"-"`
	ChannelID string `json:"channel_id" yaml:"channel-id"`
	Scraper   string `json:"scraper" yaml:"scraper"`
}

// Topic is a syllabus topic with its keyword overrides
type Topic struct {
	Name      string       `json:"name"`
	Accept    []string     `json:"accept"`
	Reject    []string     `json:"reject"`
	Subtopics []NamedTopic `json:"subtopics,omitempty"`
}

// NamedTopic keeps the topic key next to its body so document order survives
type NamedTopic struct {
	Key   string `json:"key"`
	Topic Topic  `json:"topic"`
}

// Chapter is a syllabus chapter loaded from info.yaml
type Chapter struct {
	IName     string       `json:"iname"`
	Name      string       `json:"name"`
	Grade     int          `json:"grade"`
	Board     string       `json:"board"`
	Subject   string       `json:"subject"`
	StudyTime int          `json:"study_time"`
	Topics    []NamedTopic `json:"topics"`
}

// Topic looks up a topic by key
func (c *Chapter) Topic(key string) (Topic, bool) {
	for _, t := range c.Topics {
		if t.Key == key {
			return t.Topic, true
		}
	}
	return Topic{}, false
}

// ScrapeContext builds the scrape input for one topic of the chapter
func (c *Chapter) ScrapeContext(topicKey string) (ChapterScrapeContext, bool) {
	topic, ok := c.Topic(topicKey)
	if !ok {
		return ChapterScrapeContext{}, false
	}
	return ChapterScrapeContext{
		Grade:       c.Grade,
		Board:       c.Board,
		Subject:     c.Subject,
		ChapterName: c.Name,
		TopicKey:    topicKey,
		Topic:       topic,
	}, true
}

// ChapterScrapeContext is the read-only input of one topic scrape
type ChapterScrapeContext struct {
	Grade       int    `json:"grade"`
	Board       string `json:"board"`
	Subject     string `json:"subject"`
	ChapterName string `json:"chapter_name"`
	TopicKey    string `json:"topic_key"`
	Topic       Topic  `json:"topic"`
}

type ScrapeJobStatus string

const (
	ScrapeJobPending ScrapeJobStatus = "pending"
	ScrapeJobRunning ScrapeJobStatus = "running"
	ScrapeJobDone    ScrapeJobStatus = "done"
	ScrapeJobFailed  ScrapeJobStatus = "failed"
)

// ScrapeJob tracks one asynchronous chapter scrape
type ScrapeJob struct {
	ID          string          `json:"id"`
	ChapterPath string          `json:"chapter_path"`
	TopicKey    string          `json:"topic,omitempty"`
	Status      ScrapeJobStatus `json:"status"`
	Records     []VideoRecord   `json:"records"`
	Error       string          `json:"error,omitempty"`
	ErrorKind   string          `json:"error_kind,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

const (
	ScrapeEventVideo  = "video"
	ScrapeEventDone   = "done"
	ScrapeEventFailed = "failed"
)

// ScrapeEvent is streamed to job subscribers
type ScrapeEvent struct {
	Type      string          `json:"type"`
	JobID     string          `json:"job_id"`
	Status    ScrapeJobStatus `json:"status"`
	Record    *VideoRecord    `json:"record,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
}
