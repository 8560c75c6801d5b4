package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/stats"
)

// GetStatsHandler serves community stats snapshots, cache-aside. The bot's
// scheduler refreshes the snapshot in the background; a cache miss here only
// happens right after a cold start or a cache flush.
type GetStatsHandler struct {
	applications application.Repository
	members      member.Repository
	cache        stats.Cache
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewGetStatsHandler wires the handler.
func NewGetStatsHandler(
	applications application.Repository,
	members member.Repository,
	cache stats.Cache,
	logger *zap.Logger,
) *GetStatsHandler {
	return &GetStatsHandler{
		applications: applications,
		members:      members,
		cache:        cache,
		ttl:          15 * time.Minute,
		logger:       logger.With(zap.String("component", "stats")),
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (h *GetStatsHandler) WithClock(now func() time.Time) *GetStatsHandler {
	h.now = now
	return h
}

// Handle returns the current snapshot, computing and caching it on a miss.
func (h *GetStatsHandler) Handle(ctx context.Context) (*stats.Snapshot, error) {
	if h.cache != nil {
		if snap, err := h.cache.Get(ctx); err == nil {
			return snap, nil
		}
	}
	return h.Refresh(ctx)
}

// Refresh recomputes the snapshot from the stores and writes it to the
// cache. The scheduler calls this on an interval.
func (h *GetStatsHandler) Refresh(ctx context.Context) (*stats.Snapshot, error) {
	counts, err := h.applications.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	memberCount, err := h.members.Count(ctx)
	if err != nil {
		return nil, err
	}

	approved := counts[application.StatusApproved]
	rejected := counts[application.StatusRejected]
	pending := counts[application.StatusPending]

	snap := &stats.Snapshot{
		TotalMembers:         memberCount,
		PendingApplications:  pending,
		ApprovedApplications: approved,
		RejectedApplications: rejected,
		TotalApplications:    pending + approved + rejected,
		ApprovalRate:         stats.ApprovalRateOf(approved, rejected),
		GeneratedAt:          h.now().UTC(),
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, snap, h.ttl); err != nil {
			h.logger.Warn("failed to cache stats snapshot", zap.Error(err))
		}
	}

	return snap, nil
}
