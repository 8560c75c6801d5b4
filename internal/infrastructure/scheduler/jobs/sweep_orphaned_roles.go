package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/application/command"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ORPHANED ROLE SWEEP JOB
// ══════════════════════════════════════════════════════════════════════════════

// systemActor identifies automated transitions in the audit record.
const systemActor = "system"

// SweepOrphanedRolesJob scans the live roster for users who carry the
// under-review marker role without a matching pending application, and
// revokes the marker. The role is a display signal only; when it disagrees
// with the application store, the store wins.
//
// Orphans appear when a decision's role revocation fails, or when roles are
// edited by hand on the platform. The eligibility check repairs them lazily
// for users who come back to apply; this sweep repairs everyone else.
type SweepOrphanedRolesJob struct {
	roster       member.Roster
	applications application.Repository
	roles        command.RoleSyncer
	auditor      command.Auditor
	roleSet      member.RoleSet
	logger       *zap.Logger

	config SweepOrphanedRolesConfig
}

// SweepOrphanedRolesConfig contains configuration for the sweep job.
type SweepOrphanedRolesConfig struct {
	// Timeout is the maximum duration for the entire sweep.
	Timeout time.Duration
}

// DefaultSweepOrphanedRolesConfig returns sensible defaults.
func DefaultSweepOrphanedRolesConfig() SweepOrphanedRolesConfig {
	return SweepOrphanedRolesConfig{
		Timeout: 5 * time.Minute,
	}
}

// NewSweepOrphanedRolesJob creates the sweep job.
func NewSweepOrphanedRolesJob(
	roster member.Roster,
	applications application.Repository,
	roles command.RoleSyncer,
	auditor command.Auditor,
	roleSet member.RoleSet,
	logger *zap.Logger,
	config SweepOrphanedRolesConfig,
) *SweepOrphanedRolesJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSweepOrphanedRolesConfig().Timeout
	}
	return &SweepOrphanedRolesJob{
		roster:       roster,
		applications: applications,
		roles:        roles,
		auditor:      auditor,
		roleSet:      roleSet,
		logger:       logger.With(zap.String("component", "job.sweep_orphaned_roles")),
		config:       config,
	}
}

// Name returns the unique job name.
func (j *SweepOrphanedRolesJob) Name() string {
	return "sweep_orphaned_roles"
}

// Description returns a human-readable description.
func (j *SweepOrphanedRolesJob) Description() string {
	return "Revokes under-review marker roles that have no matching pending application"
}

// Run executes one sweep over the live roster.
func (j *SweepOrphanedRolesJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	pendingRole, ok := j.roleSet[member.RoleKindPending]
	if !ok {
		return fmt.Errorf("sweep: pending role is not configured")
	}

	started := time.Now()

	roster, err := j.roster.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list roster: %w", err)
	}

	var carriers, revoked, skipped int
	for _, m := range roster {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !m.HasRole(pendingRole) {
			continue
		}
		carriers++

		_, err := j.applications.GetPendingByApplicant(ctx, m.ID)
		if err == nil {
			continue // marker is legitimate
		}
		if !shared.IsNotFound(err) {
			// Store lookup failed; leave the marker alone rather than
			// revoke on uncertain data.
			skipped++
			j.logger.Warn("pending lookup failed, marker kept",
				zap.String("member_id", m.ID),
				zap.Error(err),
			)
			continue
		}

		j.roles.RevokePendingMarker(ctx, m.ID)
		j.auditor.Record(ctx, systemActor, audit.ActionOrphanedRoleRevoked, m.ID, map[string]any{
			"role":   string(pendingRole),
			"source": "scheduled_sweep",
		})
		revoked++

		j.logger.Info("orphaned marker revoked",
			zap.String("member_id", m.ID),
		)
	}

	j.logger.Info("orphan sweep completed",
		zap.Int("roster_size", len(roster)),
		zap.Int("marker_carriers", carriers),
		zap.Int("revoked", revoked),
		zap.Int("skipped", skipped),
		zap.Duration("duration", time.Since(started)),
	)

	return nil
}
