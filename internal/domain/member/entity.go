// Package member models the local mirror of community membership. The chat
// platform owns the live role state; the mirror is reconciled periodically
// and is never treated as more current than the platform itself.
package member

import (
	"time"
)

// Role identifies a community role by its platform role ID.
type Role string

// RoleKind names the roles the lifecycle cares about, independent of the
// platform-specific IDs they map to.
type RoleKind string

const (
	// RoleKindMember is the full community member grant.
	RoleKindMember RoleKind = "member"
	// RoleKindPending is the visible marker that review is underway. It is
	// a signal only; the application record is the source of truth.
	RoleKindPending RoleKind = "pending"
	// RoleKindManager marks reviewers.
	RoleKindManager RoleKind = "manager"
	// RoleKindAdmin marks elevated-privilege users who may grant overrides.
	RoleKindAdmin RoleKind = "admin"
)

// RoleSet maps role kinds to concrete platform role IDs, loaded from
// configuration.
type RoleSet map[RoleKind]Role

// Member is the locally mirrored membership record.
type Member struct {
	ID           string // platform user ID, opaque string
	Username     string
	DisplayName  string
	Roles        []Role
	JoinedAt     *time.Time
	LeftAt       *time.Time
	LastSyncedAt time.Time
}

// HasRole reports whether the member currently holds the given role.
func (m *Member) HasRole(role Role) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Present reports whether the member is currently in the community.
func (m *Member) Present() bool {
	return m.LeftAt == nil
}
