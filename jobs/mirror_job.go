package jobs

import (
	"context"
	"log"
	"time"

	"docuvault/services"
)

const mirrorBatchSize = 25

// MirrorJob periodically drains the mirror queue into the off-site bucket.
type MirrorJob struct {
	mirrorService *services.MirrorService
	interval      time.Duration
	logger        *log.Logger
}

func NewMirrorJob(mirrorService *services.MirrorService, interval time.Duration) *MirrorJob {
	return &MirrorJob{
		mirrorService: mirrorService,
		interval:      interval,
		logger:        log.New(log.Writer(), "[MIRROR] ", log.LstdFlags),
	}
}

// Start runs the drain loop until the context is cancelled. An immediate
// pass runs on start so a restart catches up without waiting a full tick.
func (j *MirrorJob) Start(ctx context.Context) {
	j.logger.Println("Starting mirror job...")

	j.runOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Println("Mirror job stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *MirrorJob) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if err := j.mirrorService.ProcessPending(runCtx, mirrorBatchSize); err != nil {
		j.logger.Printf("Mirror pass failed: %v", err)
	}
}
