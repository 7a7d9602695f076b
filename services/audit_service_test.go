package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuvault/models"
	"docuvault/utils"
)

func TestAuditQueryFiltersAndClamps(t *testing.T) {
	audits := newMemAuditStore()
	svc := NewAuditService(audits)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		actor := "alice"
		if i%2 == 0 {
			actor = "bob"
		}
		require.NoError(t, audits.Insert(ctx, newEvent(ctx, actor, models.AuditDirectoryCreate,
			"directory", fmt.Sprintf("dir-%d", i), nil)))
	}
	require.NoError(t, audits.Insert(ctx, newEvent(ctx, "alice", models.AuditFileUpload,
		"file", "file-1", nil)))

	// Unfiltered queries default to a page of 50, newest first.
	events, err := svc.Query(ctx, models.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 50)
	assert.Equal(t, "file-1", events[0].ResourceID)

	byActor, err := svc.Query(ctx, models.AuditFilter{Actor: "bob", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, byActor, 30)

	byAction, err := svc.Query(ctx, models.AuditFilter{Action: models.AuditFileUpload})
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, "file", byAction[0].ResourceType)

	// Offset pages through the filtered result.
	page2, err := svc.Query(ctx, models.AuditFilter{Actor: "bob", Limit: 20, Offset: 20})
	require.NoError(t, err)
	assert.Len(t, page2, 10)

	// Oversized limits are clamped rather than rejected.
	clamped, err := svc.Query(ctx, models.AuditFilter{Limit: 10_000})
	require.NoError(t, err)
	assert.Len(t, clamped, 61)
}

func TestNewEventCarriesRequestID(t *testing.T) {
	ctx := utils.WithRequestID(context.Background(), "req-123")
	e := newEvent(ctx, "alice", models.AuditDirectoryCreate, "directory", "dir-1", nil)
	assert.Equal(t, "req-123", e.Metadata["request_id"])
	assert.False(t, e.CreatedAt.IsZero())
	assert.False(t, e.ID.IsZero())
}
