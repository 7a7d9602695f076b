package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type File struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Name         string                 `bson:"name" json:"name"` // storage name: {id}_{original_name}
	OriginalName string                 `bson:"original_name" json:"original_name"`
	Path         string                 `bson:"path" json:"path"`
	FullPath     string                 `bson:"full_path" json:"full_path"`
	DirectoryID  primitive.ObjectID     `bson:"directory_id" json:"directory_id"`
	Size         int64                  `bson:"size" json:"size"`
	Mime         string                 `bson:"mime" json:"mime"`
	Extension    string                 `bson:"extension" json:"extension"` // lowercased, no dot
	SHA1Hash     string                 `bson:"sha1_hash" json:"sha1_hash"`
	Description  string                 `bson:"description" json:"description"`
	Metadata     map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt    time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `bson:"updated_at" json:"updated_at"`
}

// FilePathUpdate carries recomputed location fields for one file during a
// directory rename or move cascade.
type FilePathUpdate struct {
	ID       primitive.ObjectID
	Path     string
	FullPath string
}
