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
	"docuvault/utils"
)

type PermissionStore struct {
	collection *mongo.Collection
}

func NewPermissionStore(db *mongo.Database) *PermissionStore {
	return &PermissionStore{collection: db.Collection(permissionsCollection)}
}

// Get returns nil without error when no config exists for the directory;
// absence is equivalent to an empty rule set.
func (s *PermissionStore) Get(ctx context.Context, directoryID primitive.ObjectID) (*models.PermissionConfig, error) {
	var config models.PermissionConfig
	err := s.collection.FindOne(ctx, bson.M{"directory_id": directoryID}).Decode(&config)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find permission config: %w", err)
	}
	return &config, nil
}

// GetByDirectoryIDs loads the configs for an ancestor chain in one query.
func (s *PermissionStore) GetByDirectoryIDs(ctx context.Context, directoryIDs []primitive.ObjectID) ([]models.PermissionConfig, error) {
	if len(directoryIDs) == 0 {
		return nil, nil
	}
	cursor, err := s.collection.Find(ctx, bson.M{"directory_id": bson.M{"$in": directoryIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find permission configs: %w", err)
	}
	var configs []models.PermissionConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode permission configs: %w", err)
	}
	return configs, nil
}

// Replace swaps the directory's rule set, incrementing version atomically.
// A first write creates the config with version 1.
func (s *PermissionStore) Replace(ctx context.Context, directoryID primitive.ObjectID, rules []models.PermissionRule) (*models.PermissionConfig, error) {
	now := time.Now()
	if rules == nil {
		rules = []models.PermissionRule{}
	}

	var config models.PermissionConfig
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"directory_id": directoryID},
		bson.M{
			"$set":         bson.M{"rules": rules, "updated_at": now},
			"$inc":         bson.M{"version": 1},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to replace permission config: %w", err)
	}
	return &config, nil
}

func (s *PermissionStore) Delete(ctx context.Context, directoryID primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"directory_id": directoryID})
	if err != nil {
		return fmt.Errorf("failed to delete permission config: %w", err)
	}
	if result.DeletedCount == 0 {
		return utils.NotFoundf("permission config not found")
	}
	return nil
}

func (s *PermissionStore) DeleteByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) error {
	if len(directoryIDs) == 0 {
		return nil
	}
	_, err := s.collection.DeleteMany(ctx, bson.M{"directory_id": bson.M{"$in": directoryIDs}})
	if err != nil {
		return fmt.Errorf("failed to delete permission configs: %w", err)
	}
	return nil
}
