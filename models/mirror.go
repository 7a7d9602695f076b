package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MirrorTask queues one stored file for upload to the off-site bucket. Tasks
// are removed on success and retried with an attempt counter on failure.
type MirrorTask struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FileID     primitive.ObjectID `bson:"file_id" json:"file_id"`
	LocalPath  string             `bson:"local_path" json:"local_path"`
	ObjectName string             `bson:"object_name" json:"object_name"`
	SHA1Hash   string             `bson:"sha1_hash" json:"sha1_hash"`
	Attempts   int32              `bson:"attempts" json:"attempts"`
	LastError  string             `bson:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
