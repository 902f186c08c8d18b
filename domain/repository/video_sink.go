package repository

import (
	"context"

	"syllabus-crawler/domain/model"
)

// IVideoSink receives every video record the scraper selects
type IVideoSink interface {
	Publish(ctx context.Context, record *model.VideoRecord) error
}

// ISyllabus loads scrape inputs maintained by the syllabus tooling
type ISyllabus interface {
	LoadChapter(chapterPath string) (*model.Chapter, error)
	LoadChannels() ([]model.ChannelSource, error)
}
