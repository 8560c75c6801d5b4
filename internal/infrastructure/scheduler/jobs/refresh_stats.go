package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS REFRESH JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshStatsJob recomputes the community stats snapshot and warms the
// cache, so dashboard reads rarely pay the aggregation cost.
type RefreshStatsJob struct {
	stats  *query.GetStatsHandler
	logger *zap.Logger

	timeout time.Duration
}

// NewRefreshStatsJob creates the stats refresh job.
func NewRefreshStatsJob(stats *query.GetStatsHandler, logger *zap.Logger) *RefreshStatsJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshStatsJob{
		stats:   stats,
		logger:  logger.With(zap.String("component", "job.refresh_stats")),
		timeout: 30 * time.Second,
	}
}

// Name returns the unique job name.
func (j *RefreshStatsJob) Name() string {
	return "refresh_stats"
}

// Description returns a human-readable description.
func (j *RefreshStatsJob) Description() string {
	return "Recomputes the community statistics snapshot and warms the cache"
}

// Run recomputes the snapshot.
func (j *RefreshStatsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	snap, err := j.stats.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh stats: %w", err)
	}

	j.logger.Info("stats snapshot refreshed",
		zap.Int("total_members", snap.TotalMembers),
		zap.Int("pending_applications", snap.PendingApplications),
	)

	return nil
}
