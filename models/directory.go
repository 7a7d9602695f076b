package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Directory struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Name        string                 `bson:"name" json:"name"`
	Path        string                 `bson:"path" json:"path"`
	FullPath    string                 `bson:"full_path" json:"full_path"`
	ParentID    *primitive.ObjectID    `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Level       int32                  `bson:"level" json:"level"`
	SortOrder   int32                  `bson:"sort_order" json:"sort_order"`
	Description string                 `bson:"description" json:"description"`
	Metadata    map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updated_at"`
}

// RelPath returns the directory's materialized path as a Path value.
func (d *Directory) RelPath() Path {
	return PathFromStored(d.Path)
}

// DirectoryTreeNode is one node of the directory forest returned by the tree
// endpoint.
type DirectoryTreeNode struct {
	Directory `json:",inline"`
	Children  []*DirectoryTreeNode `json:"children"`
}

// SortOrderUpdate carries one new sibling position for a bulk reorder write.
type SortOrderUpdate struct {
	ID        primitive.ObjectID
	SortOrder int32
}

// PathUpdate carries recomputed location fields for one descendant during a
// rename or move cascade.
type PathUpdate struct {
	ID       primitive.ObjectID
	Path     string
	FullPath string
	Level    int32
}
