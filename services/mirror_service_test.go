package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/models"
)

func enqueueTask(t *testing.T, q *memMirrorQueue, objectName, sha1Hash string, createdAt time.Time) models.MirrorTask {
	t.Helper()
	task := models.MirrorTask{
		ID:         primitive.NewObjectID(),
		FileID:     primitive.NewObjectID(),
		LocalPath:  "/tmp/" + objectName,
		ObjectName: objectName,
		SHA1Hash:   sha1Hash,
		CreatedAt:  createdAt,
	}
	require.NoError(t, q.Enqueue(context.Background(), &task))
	return task
}

func TestProcessPendingMarksDoneAndFailed(t *testing.T) {
	queue := newMemMirrorQueue()
	ctx := context.Background()
	now := time.Now()

	good := enqueueTask(t, queue, "Docs/a.pdf", "aaaa", now)
	bad := enqueueTask(t, queue, "Docs/b.pdf", "bbbb", now.Add(time.Second))

	type call struct{ objectName, sha1Hash string }
	var calls []call
	svc := &MirrorService{queue: queue}
	svc.uploadFn = func(ctx context.Context, localPath, objectName, sha1Hash string) error {
		calls = append(calls, call{objectName, sha1Hash})
		if objectName == bad.ObjectName {
			return errors.New("bucket unavailable")
		}
		return nil
	}

	require.NoError(t, svc.ProcessPending(ctx, 10))

	// The stored content hash travels with each upload.
	require.Len(t, calls, 2)
	assert.Equal(t, good.SHA1Hash, calls[0].sha1Hash)
	assert.Equal(t, bad.SHA1Hash, calls[1].sha1Hash)

	// The successful task is gone; the failed one is retried with its
	// attempt counter and cause recorded.
	remaining, err := queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, bad.ID, remaining[0].ID)
	assert.Equal(t, int32(1), remaining[0].Attempts)
	assert.Equal(t, "bucket unavailable", remaining[0].LastError)

	// A later pass drains the retried task once the upload succeeds.
	svc.uploadFn = func(ctx context.Context, localPath, objectName, sha1Hash string) error {
		return nil
	}
	require.NoError(t, svc.ProcessPending(ctx, 10))
	remaining, err = queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProcessPendingRespectsBatchLimit(t *testing.T) {
	queue := newMemMirrorQueue()
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		enqueueTask(t, queue, "Docs/file", "", now.Add(time.Duration(i)*time.Second))
	}

	var uploads int
	svc := &MirrorService{queue: queue}
	svc.uploadFn = func(ctx context.Context, localPath, objectName, sha1Hash string) error {
		uploads++
		return nil
	}

	require.NoError(t, svc.ProcessPending(ctx, 2))
	assert.Equal(t, 2, uploads)

	remaining, err := queue.NextBatch(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}
