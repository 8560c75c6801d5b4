// Package stats holds the community statistics snapshot served by the public
// stats endpoint. Snapshots are computed from the application store and the
// member mirror, then cached; readers never hit the platform directly.
package stats

import (
	"context"
	"time"
)

// Snapshot is one point-in-time view of community numbers.
type Snapshot struct {
	TotalMembers         int       `json:"total_members"`
	PendingApplications  int       `json:"pending_applications"`
	ApprovedApplications int       `json:"approved_applications"`
	RejectedApplications int       `json:"rejected_applications"`
	TotalApplications    int       `json:"total_applications"`
	ApprovalRate         float64   `json:"approval_rate"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// ApprovalRateOf computes the share of decided applications that were
// approved, in percent. Zero decided applications yields zero.
func ApprovalRateOf(approved, rejected int) float64 {
	decided := approved + rejected
	if decided == 0 {
		return 0
	}
	return float64(approved) / float64(decided) * 100
}

// Cache stores and serves snapshots.
type Cache interface {
	Get(ctx context.Context) (*Snapshot, error)
	Set(ctx context.Context, snap *Snapshot, ttl time.Duration) error
}
