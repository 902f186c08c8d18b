package persistence

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
)

// VideoRecordRepositoryMongo upserts one document per video, topic and subtopic
type VideoRecordRepositoryMongo struct {
	collection *mongo.Collection
}

func NewVideoRecordRepositoryMongo(client *mongo.Client, database, collection string) repository.IVideoSink {
	return &VideoRecordRepositoryMongo{collection: client.Database(database).Collection(collection)}
}

func recordFilter(record *model.VideoRecord) bson.D {
	return bson.D{
		{Key: "videoId", Value: record.VideoID},
		{Key: "topic", Value: record.Topic},
		{Key: "subtopic", Value: record.Subtopic},
	}
}

func (r *VideoRecordRepositoryMongo) Publish(ctx context.Context, record *model.VideoRecord) error {
	_, err := r.collection.UpdateOne(ctx,
		recordFilter(record),
		bson.D{{Key: "$set", Value: record}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}
