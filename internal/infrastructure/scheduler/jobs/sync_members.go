// Package jobs contains implementations of scheduled jobs for the Maestros
// community backend. Each job keeps a piece of locally-held state reconciled
// with the chat platform, which remains the source of truth for live
// membership and roles.
package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER MIRROR SYNC JOB
// ══════════════════════════════════════════════════════════════════════════════

// SyncMembersJob refreshes the local membership mirror from the live roster.
// The mirror backs counts and lookups that must not hit the platform on every
// request; join/leave gateway events keep it warm between runs, and this job
// repairs anything those events missed.
type SyncMembersJob struct {
	roster  member.Roster
	members member.Repository
	logger  *zap.Logger

	config SyncMembersConfig
}

// SyncMembersConfig contains configuration for the mirror sync job.
type SyncMembersConfig struct {
	// Timeout is the maximum duration for the entire sync run.
	Timeout time.Duration
}

// DefaultSyncMembersConfig returns sensible defaults.
func DefaultSyncMembersConfig() SyncMembersConfig {
	return SyncMembersConfig{
		Timeout: 5 * time.Minute,
	}
}

// NewSyncMembersJob creates the mirror sync job.
func NewSyncMembersJob(
	roster member.Roster,
	members member.Repository,
	logger *zap.Logger,
	config SyncMembersConfig,
) *SyncMembersJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSyncMembersConfig().Timeout
	}
	return &SyncMembersJob{
		roster:  roster,
		members: members,
		logger:  logger.With(zap.String("component", "job.sync_members")),
		config:  config,
	}
}

// Name returns the unique job name.
func (j *SyncMembersJob) Name() string {
	return "sync_members"
}

// Description returns a human-readable description.
func (j *SyncMembersJob) Description() string {
	return "Refreshes the local membership mirror from the live community roster"
}

// Run fetches the full roster and upserts every present member.
// Upsert failures are counted and logged but do not abort the run; a partial
// refresh is still better than a stale mirror.
func (j *SyncMembersJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	started := time.Now()

	roster, err := j.roster.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list roster: %w", err)
	}

	var synced, failed int
	for _, m := range roster {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.LastSyncedAt = time.Now().UTC()
		if err := j.members.Upsert(ctx, m); err != nil {
			failed++
			j.logger.Warn("mirror upsert failed",
				zap.String("member_id", m.ID),
				zap.Error(err),
			)
			continue
		}
		synced++
	}

	j.logger.Info("member mirror refreshed",
		zap.Int("roster_size", len(roster)),
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(started)),
	)

	if failed > 0 && synced == 0 {
		return fmt.Errorf("mirror sync: all %d upserts failed", failed)
	}
	return nil
}
