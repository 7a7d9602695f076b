package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubjectType string

const (
	SubjectRole  SubjectType = "role"
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

type PermissionRule struct {
	SubjectType   SubjectType            `bson:"subject_type" json:"subject_type"`
	SubjectID     string                 `bson:"subject_id" json:"subject_id"`
	Action        string                 `bson:"action" json:"action"`
	Effect        Effect                 `bson:"effect" json:"effect"`
	ResourceScope string                 `bson:"resource_scope,omitempty" json:"resource_scope,omitempty"`
	Conditions    map[string]interface{} `bson:"conditions,omitempty" json:"conditions,omitempty"`
}

// PermissionConfig holds the rule set configured on one directory. Absence of
// a config is equivalent to an empty rule set.
type PermissionConfig struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DirectoryID primitive.ObjectID `bson:"directory_id" json:"directory_id"`
	Rules       []PermissionRule   `bson:"rules" json:"rules"`
	Version     int64              `bson:"version" json:"version"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Subject is the identity a permission check runs for: one user id plus the
// roles and groups that user belongs to.
type Subject struct {
	ID     string   `json:"id"`
	Roles  []string `json:"roles,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// Matches reports whether a rule's subject selector applies to this subject.
func (s Subject) Matches(rule PermissionRule) bool {
	switch rule.SubjectType {
	case SubjectUser:
		return rule.SubjectID == s.ID
	case SubjectRole:
		return contains(s.Roles, rule.SubjectID)
	case SubjectGroup:
		return contains(s.Groups, rule.SubjectID)
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Decision is the outcome of an effective-permission evaluation.
type Decision struct {
	Allowed bool `json:"allowed"`
	// Denied distinguishes an explicit deny from the default deny that
	// applies when no rule matched at all.
	Denied bool `json:"denied"`
}
