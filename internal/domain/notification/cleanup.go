package notification

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupJob deletes notifications past their retention window
type CleanupJob struct {
	repo          Repository
	retentionDays int
}

// NewCleanupJob creates a cleanup job
func NewCleanupJob(repo Repository, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &CleanupJob{repo: repo, retentionDays: retentionDays}
}

// Start runs the cleanup loop until the context is cancelled
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Notification cleanup job stopped")
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *CleanupJob) run(ctx context.Context) {
	deleted, err := j.repo.DeleteOlderThan(ctx, j.retentionDays)
	if err != nil {
		log.Error().Err(err).Msg("Notification cleanup failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Notification cleanup completed")
	}
}
