package usecase

import (
	"context"

	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/logger"
)

// VideoSinkFunc adapts a function to IVideoSink
type VideoSinkFunc func(ctx context.Context, record *model.VideoRecord) error

func (f VideoSinkFunc) Publish(ctx context.Context, record *model.VideoRecord) error {
	return f(ctx, record)
}

type logSink struct{}

// NewLogSink writes each record to the structured log
func NewLogSink() repository.IVideoSink {
	return logSink{}
}

func (logSink) Publish(_ context.Context, record *model.VideoRecord) error {
	logger.GetLogger().WithFields(map[string]interface{}{
		"channel":  record.Channel,
		"videoId":  record.VideoID,
		"title":    record.Title,
		"weight":   record.Weight,
		"topic":    record.Topic,
		"subtopic": record.Subtopic,
	}).Info("Video selected")
	return nil
}

type fanOutSink []repository.IVideoSink

// NewFanOutSink publishes to every sink and returns the first error
func NewFanOutSink(sinks ...repository.IVideoSink) repository.IVideoSink {
	out := make(fanOutSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanOutSink) Publish(ctx context.Context, record *model.VideoRecord) error {
	var first error
	for _, s := range f {
		if err := s.Publish(ctx, record); err != nil && first == nil {
			first = err
		}
	}
	return first
}
