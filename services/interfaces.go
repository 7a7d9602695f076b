package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
)

// The services depend on persistence through these interfaces so the core
// logic carries no storage types; the stores package provides the MongoDB
// implementations and tests substitute in-memory fakes.

type DirectoryStore interface {
	Save(ctx context.Context, dir *models.Directory) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Directory, error)
	FindByPath(ctx context.Context, path string) (*models.Directory, error)
	FindByPaths(ctx context.Context, paths []string) ([]models.Directory, error)
	FindByParent(ctx context.Context, parentID *primitive.ObjectID) ([]models.Directory, error)
	FindDescendants(ctx context.Context, path string) ([]models.Directory, error)
	FindAll(ctx context.Context) ([]models.Directory, error)
	ExistsNameInParent(ctx context.Context, name string, parentID *primitive.ObjectID) (bool, error)
	CountChildren(ctx context.Context, parentID *primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) error
	UpdateSortOrders(ctx context.Context, updates []models.SortOrderUpdate, updatedAt time.Time) error
	UpdatePaths(ctx context.Context, updates []models.PathUpdate, updatedAt time.Time) error
}

type FileStore interface {
	Save(ctx context.Context, file *models.File) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	FindByDirectory(ctx context.Context, directoryID primitive.ObjectID) ([]models.File, error)
	FindByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) ([]models.File, error)
	FindByNamePattern(ctx context.Context, pattern string, directoryID *primitive.ObjectID) ([]models.File, error)
	FindByMime(ctx context.Context, mime string, directoryID *primitive.ObjectID) ([]models.File, error)
	FindByExtension(ctx context.Context, ext string, directoryID *primitive.ObjectID) ([]models.File, error)
	FindByPathPrefix(ctx context.Context, prefix string) ([]models.File, error)
	ExistsByNameInDirectory(ctx context.Context, name string, directoryID primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error)
	DeleteByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) (int64, error)
	CountByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error)
	TotalSizeByDirectory(ctx context.Context, directoryID primitive.ObjectID) (int64, error)
	UpdatePaths(ctx context.Context, updates []models.FilePathUpdate, updatedAt time.Time) error
}

type PermissionStore interface {
	Get(ctx context.Context, directoryID primitive.ObjectID) (*models.PermissionConfig, error)
	GetByDirectoryIDs(ctx context.Context, directoryIDs []primitive.ObjectID) ([]models.PermissionConfig, error)
	Replace(ctx context.Context, directoryID primitive.ObjectID, rules []models.PermissionRule) (*models.PermissionConfig, error)
	Delete(ctx context.Context, directoryID primitive.ObjectID) error
	DeleteByDirectories(ctx context.Context, directoryIDs []primitive.ObjectID) error
}

type AuditStore interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
	InsertMany(ctx context.Context, events []models.AuditEvent) error
	Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditEvent, error)
}

type MirrorQueue interface {
	Enqueue(ctx context.Context, task *models.MirrorTask) error
	NextBatch(ctx context.Context, limit int64) ([]models.MirrorTask, error)
	MarkDone(ctx context.Context, id primitive.ObjectID) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, cause string) error
	DeleteByFile(ctx context.Context, fileID primitive.ObjectID) error
}

// TxRunner runs fn inside one database transaction. The context passed to fn
// must be forwarded to every store call made within it.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
