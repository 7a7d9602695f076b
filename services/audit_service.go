package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
	"docuvault/utils"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditService is read-only; the mutating services insert their own events
// inside their transactions so the trail commits or rolls back with the
// change it records.
type AuditService struct {
	audits AuditStore
}

func NewAuditService(audits AuditStore) *AuditService {
	return &AuditService{audits: audits}
}

// Query returns audit events newest first. The limit is clamped to keep a
// single page bounded.
func (s *AuditService) Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditEvent, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.audits.Query(ctx, filter)
}

// newEvent builds an audit event with a fresh id and timestamp. The request
// id, when the middleware stamped one into the context, rides along in the
// metadata so events can be correlated with access logs.
func newEvent(ctx context.Context, actor, action, resourceType, resourceID string, metadata map[string]interface{}) *models.AuditEvent {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if reqID := utils.RequestIDFrom(ctx); reqID != "" {
		metadata["request_id"] = reqID
	}
	return &models.AuditEvent{
		ID:           primitive.NewObjectID(),
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	}
}
