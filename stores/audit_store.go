package stores

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docuvault/models"
)

// AuditStore is append-only: events are inserted, queried, and never touched
// again.
type AuditStore struct {
	collection *mongo.Collection
}

func NewAuditStore(db *mongo.Database) *AuditStore {
	return &AuditStore{collection: db.Collection(auditCollection)}
}

func (s *AuditStore) Insert(ctx context.Context, event *models.AuditEvent) error {
	_, err := s.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

func (s *AuditStore) InsertMany(ctx context.Context, events []models.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(events))
	for i := range events {
		docs = append(docs, events[i])
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert audit events: %w", err)
	}
	return nil
}

// Query returns matching events newest first.
func (s *AuditStore) Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditEvent, error) {
	query := bson.M{}
	if filter.Actor != "" {
		query["actor"] = filter.Actor
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.ResourceType != "" {
		query["resource_type"] = filter.ResourceType
	}
	if filter.ResourceID != "" {
		query["resource_id"] = filter.ResourceID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Offset > 0 {
		opts.SetSkip(filter.Offset)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	var events []models.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}
	return events, nil
}
