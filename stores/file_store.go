package stores

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docuvault/models"
	"docuvault/utils"
)

type FileStore struct {
	collection *mongo.Collection
}

func NewFileStore(db *mongo.Database) *FileStore {
	return &FileStore{collection: db.Collection(filesCollection)}
}

// Save upserts the record by id. Name collisions inside the owning directory
// surface as Conflict via the unique indexes.
func (s *FileStore) Save(ctx context.Context, file *models.File) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": file.ID},
		file,
		options.Replace().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return utils.Conflictf("file %q already exists in this directory", file.OriginalName).
			WithReason("duplicate_name")
	}
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

func (s *FileStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return &file, nil
}

func (s *FileStore) FindByDirectory(ctx context.Context, directoryID primitive.ObjectID) ([]models.File, error) {
	return s.find(ctx, bson.M{"directory_id": directoryID})
}

// FindByDirectories returns every file owned by any of the given directories;
// the force-delete cascade uses it to collect victims in one query.
func (s *FileStore) FindByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) ([]models.File, error) {
	if len(directoryIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"directory_id": bson.M{"$in": directoryIDs}})
}

// FindByNamePattern matches original names case-insensitively against a
// substring pattern, optionally scoped to one directory.
func (s *FileStore) FindByNamePattern(ctx context.Context, pattern string, directoryID *primitive.ObjectID) ([]models.File, error) {
	filter := bson.M{"original_name": bson.M{
		"$regex":   regexp.QuoteMeta(pattern),
		"$options": "i",
	}}
	if directoryID != nil {
		filter["directory_id"] = *directoryID
	}
	return s.find(ctx, filter)
}

func (s *FileStore) FindByMime(ctx context.Context, mime string, directoryID *primitive.ObjectID) ([]models.File, error) {
	filter := bson.M{"mime": mime}
	if directoryID != nil {
		filter["directory_id"] = *directoryID
	}
	return s.find(ctx, filter)
}

func (s *FileStore) FindByExtension(ctx context.Context, ext string, directoryID *primitive.ObjectID) ([]models.File, error) {
	filter := bson.M{"extension": ext}
	if directoryID != nil {
		filter["directory_id"] = *directoryID
	}
	return s.find(ctx, filter)
}

// ExistsByNameInDirectory checks both the storage name and the original name
// so a second upload of the same filename is rejected before any disk write.
func (s *FileStore) ExistsByNameInDirectory(ctx context.Context, name string, directoryID primitive.ObjectID) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{
		"directory_id": directoryID,
		"$or": []bson.M{
			{"name": name},
			{"original_name": name},
		},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check file name uniqueness: %w", err)
	}
	return count > 0, nil
}

func (s *FileStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.DeletedCount == 0 {
		return utils.NotFoundf("file not found")
	}
	return nil
}

func (s *FileStore) DeleteByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{"directory_id": directoryID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete directory files: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *FileStore) DeleteByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) (int64, error) {
	if len(directoryIDs) == 0 {
		return 0, nil
	}
	result, err := s.collection.DeleteMany(ctx, bson.M{"directory_id": bson.M{"$in": directoryIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete files: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *FileStore) CountByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"directory_id": directoryID})
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

func (s *FileStore) TotalSizeByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error) {
	cursor, err := s.collection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"directory_id": directoryID}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$size"}}}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate file sizes: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode size aggregate: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (s *FileStore) find(ctx context.Context, filter bson.M) ([]models.File, error) {
	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "original_name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	return files, nil
}

// FindByPathPrefix returns every file stored under the given directory path,
// using the same anchored prefix scan as the directory cascade.
func (s *FileStore) FindByPathPrefix(ctx context.Context, prefix string) ([]models.File, error) {
	return s.find(ctx, bson.M{"path": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix+"/")}})
}

// UpdatePaths rewrites path and full_path for files caught in a rename or
// move cascade, batched the same way as the directory updates.
func (s *FileStore) UpdatePaths(ctx context.Context, updates []models.FilePathUpdate, updatedAt time.Time) error {
	for start := 0; start < len(updates); start += pathUpdateBatchSize {
		end := start + pathUpdateBatchSize
		if end > len(updates) {
			end = len(updates)
		}

		ops := make([]mongo.WriteModel, 0, end-start)
		for _, u := range updates[start:end] {
			ops = append(ops, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": u.ID}).
				SetUpdate(bson.M{"$set": bson.M{
					"path":       u.Path,
					"full_path":  u.FullPath,
					"updated_at": updatedAt,
				}}))
		}
		if _, err := s.collection.BulkWrite(ctx, ops); err != nil {
			return fmt.Errorf("failed to update file paths: %w", err)
		}
	}
	return nil
}
