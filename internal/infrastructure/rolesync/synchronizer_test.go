package rolesync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

type recordingRoleManager struct {
	added   []member.Role
	removed []member.Role
	err     error
}

func (m *recordingRoleManager) AddRole(ctx context.Context, userID string, role member.Role, reason string) error {
	m.added = append(m.added, role)
	return m.err
}

func (m *recordingRoleManager) RemoveRole(ctx context.Context, userID string, role member.Role, reason string) error {
	m.removed = append(m.removed, role)
	return m.err
}

func testSet() member.RoleSet {
	return member.RoleSet{
		member.RoleKindMember:  "role-member",
		member.RoleKindPending: "role-pending",
	}
}

func TestSynchronizer_RoutesToConfiguredRoles(t *testing.T) {
	mgr := &recordingRoleManager{}
	s := NewSynchronizer(mgr, testSet(), zap.NewNop())

	s.GrantPendingMarker(context.Background(), "user-1")
	s.GrantFullMember(context.Background(), "user-1")
	s.RevokePendingMarker(context.Background(), "user-1")

	assert.Equal(t, []member.Role{"role-pending", "role-member"}, mgr.added)
	assert.Equal(t, []member.Role{"role-pending"}, mgr.removed)
}

func TestSynchronizer_SwallowsDepartedUser(t *testing.T) {
	mgr := &recordingRoleManager{err: shared.ErrNotInCommunity}
	s := NewSynchronizer(mgr, testSet(), zap.NewNop())

	// Must not panic and must not propagate anything.
	s.RevokePendingMarker(context.Background(), "user-gone")
	assert.Len(t, mgr.removed, 1)
}

func TestSynchronizer_SwallowsArbitraryFailures(t *testing.T) {
	mgr := &recordingRoleManager{err: errors.New("rate limited")}
	s := NewSynchronizer(mgr, testSet(), zap.NewNop())

	s.GrantFullMember(context.Background(), "user-1")
	assert.Len(t, mgr.added, 1)
}
