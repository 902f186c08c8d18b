package servicebus

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/infrastructure/logger"
)

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// VideoPublisher sends every selected video record to a queue
type VideoPublisher struct {
	sender messageSender
	queue  string
}

func NewVideoPublisher(client *azservicebus.Client, queue string) (*VideoPublisher, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return nil, err
	}
	return newVideoPublisher(sender, queue), nil
}

func newVideoPublisher(sender messageSender, queue string) *VideoPublisher {
	return &VideoPublisher{sender: sender, queue: queue}
}

func (p *VideoPublisher) Publish(ctx context.Context, record *model.VideoRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	// one message per video and topic so duplicate detection can drop replays
	messageID := record.VideoID + ":" + record.Topic + ":" + record.Subtopic
	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        body,
		MessageID:   &messageID,
		ContentType: &contentType,
		ApplicationProperties: map[string]interface{}{
			"grade":   record.Grade,
			"subject": record.Subject,
			"topic":   record.Topic,
		},
	}
	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).WithField("queue", p.queue).Error("Error while sending message.")
		return err
	}
	return nil
}

func (p *VideoPublisher) Close(ctx context.Context) error {
	return p.sender.Close(ctx)
}
