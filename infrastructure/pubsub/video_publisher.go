package pubsub

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"cloud.google.com/go/pubsub"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/infrastructure/logger"
)

// VideoPublisher publishes every selected video record as a JSON message
type VideoPublisher struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewVideoPublisher(client *pubsub.Client, topicName string) *VideoPublisher {
	return &VideoPublisher{client: client, topicName: topicName}
}

// ensureTopic creates the topic on first use
func (p *VideoPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicName); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

func (p *VideoPublisher) Publish(ctx context.Context, record *model.VideoRecord) error {
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"videoId": record.VideoID,
			"topic":   record.Topic,
			"grade":   strconv.Itoa(record.Grade),
			"subject": record.Subject,
		},
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).WithField("videoId", record.VideoID).Debug("Video record published")
	return nil
}

// Stop flushes pending messages
func (p *VideoPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
