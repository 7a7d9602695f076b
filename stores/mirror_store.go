package stores

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docuvault/models"
)

// maxMirrorAttempts is how many times a queued upload is retried before the
// job stops picking it up.
const maxMirrorAttempts = 5

type MirrorStore struct {
	collection *mongo.Collection
}

func NewMirrorStore(db *mongo.Database) *MirrorStore {
	return &MirrorStore{collection: db.Collection(mirrorCollection)}
}

func (s *MirrorStore) Enqueue(ctx context.Context, task *models.MirrorTask) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	task.CreatedAt = time.Now()
	if _, err := s.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue mirror task: %w", err)
	}
	return nil
}

// NextBatch returns the oldest pending tasks that still have attempts left.
func (s *MirrorStore) NextBatch(ctx context.Context, limit int64) ([]models.MirrorTask, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"attempts": bson.M{"$lt": maxMirrorAttempts}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mirror tasks: %w", err)
	}
	var tasks []models.MirrorTask
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode mirror tasks: %w", err)
	}
	return tasks, nil
}

func (s *MirrorStore) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to remove mirror task: %w", err)
	}
	return nil
}

func (s *MirrorStore) MarkFailed(ctx context.Context, id primitive.ObjectID, cause string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"attempts": 1},
			"$set": bson.M{"last_error": cause},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to mark mirror task failed: %w", err)
	}
	return nil
}

// DeleteByFile drops any pending task for a file that was removed before the
// mirror job got to it.
func (s *MirrorStore) DeleteByFile(ctx context.Context, fileID primitive.ObjectID) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"file_id": fileID}); err != nil {
		return fmt.Errorf("failed to drop mirror tasks for file: %w", err)
	}
	return nil
}
