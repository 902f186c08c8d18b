package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"syllabus-crawler/domain/model"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error {
	return m.Called(ctx, message, options).Error(0)
}

func (m *MockSender) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestVideoPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	sender := new(MockSender)
	var sent *azservicebus.Message
	sender.On("SendMessage", ctx, mock.AnythingOfType("*azservicebus.Message"), (*azservicebus.SendMessageOptions)(nil)).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*azservicebus.Message) }).
		Return(nil).Once()

	pub := newVideoPublisher(sender, "video-records")
	require.NoError(t, pub.Publish(ctx, &model.VideoRecord{VideoID: "v1", Topic: "cell", Subtopic: "nucleus", Title: "Nucleus"}))

	require.NotNil(t, sent)
	assert.Equal(t, "v1:cell:nucleus", *sent.MessageID)
	var got model.VideoRecord
	require.NoError(t, json.Unmarshal(sent.Body, &got))
	assert.Equal(t, "Nucleus", got.Title)
	sender.AssertExpectations(t)
}

func TestVideoPublisher_PropagatesSendError(t *testing.T) {
	ctx := context.Background()
	sender := new(MockSender)
	sender.On("SendMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("link detached")).Once()
	sender.On("Close", ctx).Return(nil).Once()

	pub := newVideoPublisher(sender, "video-records")
	assert.Error(t, pub.Publish(ctx, &model.VideoRecord{VideoID: "v1"}))
	assert.NoError(t, pub.Close(ctx))
	sender.AssertExpectations(t)
}

func TestNewServiceBus_RequiresNamespace(t *testing.T) {
	_, err := NewServiceBus(context.Background(), "")
	assert.Error(t, err)
}
