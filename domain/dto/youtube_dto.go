package dto

import "syllabus-crawler/domain/model"

// DefaultMaxResults is the ranker's result cap when none is configured
const DefaultMaxResults = 5

// RankConfig is the typed keyword model handed to the title ranker
type RankConfig struct {
	AcceptWeights  map[string]float64 `json:"accept_weights"`
	RejectKeywords []string           `json:"reject_keywords"`
	MaxResults     int                `json:"max_results"`
}

// Limit returns MaxResults or the default when unset
func (c RankConfig) Limit() int {
	if c.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return c.MaxResults
}

// ScrapeJobRequest represents request for starting an asynchronous scrape
type ScrapeJobRequest struct {
	// ChapterPath is relative to the configured data directory,
	// e.g. grades/10/cbse/biology/1
	ChapterPath string `json:"chapter_path" binding:"required"`
	// Topic limits the job to one topic; empty scrapes every topic
	Topic string `json:"topic,omitempty"`
}

// TopicScrapeResult groups the records of one topic
type TopicScrapeResult struct {
	TopicKey string              `json:"topic"`
	Records  []model.VideoRecord `json:"records"`
}

// ChapterScrapeResult is the outcome of scraping every topic of a chapter
type ChapterScrapeResult struct {
	Chapter string              `json:"chapter"`
	Grade   int                 `json:"grade"`
	Board   string              `json:"board"`
	Subject string              `json:"subject"`
	Topics  []TopicScrapeResult `json:"topics"`
}

// Records flattens every topic's records in order
func (r *ChapterScrapeResult) Records() []model.VideoRecord {
	out := make([]model.VideoRecord, 0)
	for _, t := range r.Topics {
		out = append(out, t.Records...)
	}
	return out
}

// ErrorResponse is the body returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
