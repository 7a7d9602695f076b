package stores

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the stores.
const (
	directoriesCollection = "directories"
	filesCollection       = "files"
	permissionsCollection = "permission_configs"
	auditCollection       = "audit_events"
	mirrorCollection      = "mirror_queue"
)

// Connect opens and pings a MongoDB client.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(dbName), nil
}

// EnsureIndexes creates the unique indexes the data model relies on:
// directory name per parent, global full paths, file names per directory.
// Duplicate-key failures on these surface as Conflict errors in the stores.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		directoriesCollection: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "full_path", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "path", Value: 1}}},
			{Keys: bson.D{{Key: "level", Value: 1}}},
		},
		filesCollection: {
			{Keys: bson.D{{Key: "directory_id", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "directory_id", Value: 1}, {Key: "original_name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "full_path", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "mime", Value: 1}}},
			{Keys: bson.D{{Key: "extension", Value: 1}}},
		},
		permissionsCollection: {
			{Keys: bson.D{{Key: "directory_id", Value: 1}}, Options: unique},
		},
		auditCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "resource_type", Value: 1}, {Key: "resource_id", Value: 1}}},
			{Keys: bson.D{{Key: "actor", Value: 1}}},
		},
		mirrorCollection: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}

	return nil
}

// MongoTxRunner executes a function inside one MongoDB session transaction.
// The callback context must be passed on to every store call so the writes
// join the transaction.
type MongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

func (r *MongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
