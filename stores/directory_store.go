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

// pathUpdateBatchSize bounds the size of one bulk write during a subtree
// path cascade; all batches still run inside the caller's transaction.
const pathUpdateBatchSize = 500

type DirectoryStore struct {
	collection *mongo.Collection
}

func NewDirectoryStore(db *mongo.Database) *DirectoryStore {
	return &DirectoryStore{collection: db.Collection(directoriesCollection)}
}

// Save upserts the record by id. Unique-index violations on (parent_id, name)
// or full_path come back as Conflict.
func (s *DirectoryStore) Save(ctx context.Context, dir *models.Directory) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": dir.ID},
		dir,
		options.Replace().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return utils.Conflictf("directory %q already exists at this location", dir.Name).
			WithReason("duplicate_name")
	}
	if err != nil {
		return fmt.Errorf("failed to save directory: %w", err)
	}
	return nil
}

// FindByID returns nil without error when the directory does not exist.
func (s *DirectoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Directory, error) {
	var dir models.Directory
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&dir)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find directory: %w", err)
	}
	return &dir, nil
}

func (s *DirectoryStore) FindByPath(ctx context.Context, path string) (*models.Directory, error) {
	var dir models.Directory
	err := s.collection.FindOne(ctx, bson.M{"path": path}).Decode(&dir)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find directory by path: %w", err)
	}
	return &dir, nil
}

// FindByPaths fetches all directories whose path is in the given list, in
// level order. Used to resolve an ancestor chain with one query.
func (s *DirectoryStore) FindByPaths(ctx context.Context, paths []string) ([]models.Directory, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	cursor, err := s.collection.Find(ctx,
		bson.M{"path": bson.M{"$in": paths}},
		options.Find().SetSort(bson.D{{Key: "level", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find directories by paths: %w", err)
	}
	var dirs []models.Directory
	if err := cursor.All(ctx, &dirs); err != nil {
		return nil, fmt.Errorf("failed to decode directories: %w", err)
	}
	return dirs, nil
}

// FindByParent returns the direct children ordered by (sort_order, name).
// A nil parent id selects the roots.
func (s *DirectoryStore) FindByParent(ctx context.Context, parentID *primitive.ObjectID) ([]models.Directory, error) {
	cursor, err := s.collection.Find(ctx,
		parentFilter(parentID),
		options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	var dirs []models.Directory
	if err := cursor.All(ctx, &dirs); err != nil {
		return nil, fmt.Errorf("failed to decode children: %w", err)
	}
	return dirs, nil
}

// FindDescendants returns the transitive closure under the given materialized
// path in level-major order, with a single anchored prefix scan.
func (s *DirectoryStore) FindDescendants(ctx context.Context, path string) ([]models.Directory, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"path": bson.M{"$regex": "^" + regexp.QuoteMeta(path+"/")}},
		options.Find().SetSort(bson.D{{Key: "level", Value: 1}, {Key: "path", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list descendants: %w", err)
	}
	var dirs []models.Directory
	if err := cursor.All(ctx, &dirs); err != nil {
		return nil, fmt.Errorf("failed to decode descendants: %w", err)
	}
	return dirs, nil
}

// FindAll returns every directory; the tree endpoint assembles the forest
// in memory from this one query.
func (s *DirectoryStore) FindAll(ctx context.Context) ([]models.Directory, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "level", Value: 1}, {Key: "sort_order", Value: 1}, {Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}
	var dirs []models.Directory
	if err := cursor.All(ctx, &dirs); err != nil {
		return nil, fmt.Errorf("failed to decode directories: %w", err)
	}
	return dirs, nil
}

func (s *DirectoryStore) ExistsNameInParent(ctx context.Context, name string, parentID *primitive.ObjectID) (bool, error) {
	filter := parentFilter(parentID)
	filter["name"] = name
	count, err := s.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check name uniqueness: %w", err)
	}
	return count > 0, nil
}

func (s *DirectoryStore) CountChildren(ctx context.Context, parentID *primitive.ObjectID) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, parentFilter(parentID))
	if err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return count, nil
}

func (s *DirectoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
	}
	if result.DeletedCount == 0 {
		return utils.NotFoundf("directory not found")
	}
	return nil
}

func (s *DirectoryStore) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to delete directories: %w", err)
	}
	return nil
}

// UpdateSortOrders persists the new sibling positions in one bulk write.
func (s *DirectoryStore) UpdateSortOrders(ctx context.Context, updates []models.SortOrderUpdate, updatedAt time.Time) error {
	if len(updates) == 0 {
		return nil
	}
	ops := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(bson.M{"$set": bson.M{"sort_order": u.SortOrder, "updated_at": updatedAt}}))
	}
	if _, err := s.collection.BulkWrite(ctx, ops); err != nil {
		return fmt.Errorf("failed to update sort orders: %w", err)
	}
	return nil
}

// UpdatePaths rewrites path, full_path and level for the given descendants
// in batched bulk writes. Callers run this inside a transaction so the whole
// cascade commits or aborts together.
func (s *DirectoryStore) UpdatePaths(ctx context.Context, updates []models.PathUpdate, updatedAt time.Time) error {
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
					"level":      u.Level,
					"updated_at": updatedAt,
				}}))
		}
		if _, err := s.collection.BulkWrite(ctx, ops); err != nil {
			return fmt.Errorf("failed to update descendant paths: %w", err)
		}
	}
	return nil
}

func parentFilter(parentID *primitive.ObjectID) bson.M {
	if parentID != nil {
		return bson.M{"parent_id": *parentID}
	}
	return bson.M{"parent_id": nil}
}
