package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEvent is one append-only record of a state change. Events are never
// updated or deleted after insertion.
type AuditEvent struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Actor        string                 `bson:"actor" json:"actor"`
	Action       string                 `bson:"action" json:"action"`
	ResourceType string                 `bson:"resource_type" json:"resource_type"`
	ResourceID   string                 `bson:"resource_id" json:"resource_id"`
	Metadata     map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt    time.Time              `bson:"created_at" json:"created_at"`
}

// Audit action names emitted by the core services.
const (
	AuditDirectoryCreate  = "directory.create"
	AuditDirectoryUpdate  = "directory.update"
	AuditDirectoryRename  = "directory.rename"
	AuditDirectoryMove    = "directory.move"
	AuditDirectoryReorder = "directory.reorder"
	AuditDirectoryDelete  = "directory.delete"
	AuditFileUpload       = "file.upload"
	AuditFileDelete       = "file.delete"
	AuditPermissionSet    = "permission.set"
	AuditPermissionDelete = "permission.delete"
)

// AuditFilter selects events for a query; zero fields match everything.
type AuditFilter struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int64
	Offset       int64
}
