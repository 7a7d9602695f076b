package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kurin/blazer/b2"

	"docuvault/utils"
)

// MirrorService drains the mirror queue into a Backblaze B2 bucket. It is
// only constructed when B2 credentials are configured; the rest of the
// system runs the same without it.
type MirrorService struct {
	bucket *b2.Bucket
	queue  MirrorQueue

	// uploadFn performs one object upload; tests substitute a stub.
	uploadFn func(ctx context.Context, localPath, objectName, sha1Hash string) error
}

func NewMirrorService(ctx context.Context, keyID, applicationKey, bucketName string, queue MirrorQueue) (*MirrorService, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}
	s := &MirrorService{bucket: bucket, queue: queue}
	s.uploadFn = s.uploadOne
	return s, nil
}

// ProcessPending uploads up to batch queued files. Per-task failures are
// recorded on the task and do not stop the batch; tasks over the attempt
// limit stay parked for operator inspection.
func (s *MirrorService) ProcessPending(ctx context.Context, batch int64) error {
	tasks, err := s.queue.NextBatch(ctx, batch)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		if err := s.uploadFn(ctx, task.LocalPath, task.ObjectName, task.SHA1Hash); err != nil {
			utils.LogWarning("Mirror upload of %s failed (attempt %d): %v", task.ObjectName, task.Attempts+1, err)
			if ferr := s.queue.MarkFailed(ctx, task.ID, err.Error()); ferr != nil {
				return ferr
			}
			continue
		}
		if err := s.queue.MarkDone(ctx, task.ID); err != nil {
			return err
		}
		utils.LogInfo("Mirrored %s", task.ObjectName)
	}
	return nil
}

func (s *MirrorService) uploadOne(ctx context.Context, localPath, objectName, sha1Hash string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	obj := s.bucket.Object(objectName)
	w := obj.NewWriter(ctx)
	if sha1Hash != "" {
		// Attrs must be attached before the first write.
		w = w.WithAttrs(&b2.Attrs{
			Info: map[string]string{"large_file_sha1": sha1Hash},
		})
	}

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("failed to stream to B2: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish B2 upload: %w", err)
	}
	return nil
}
