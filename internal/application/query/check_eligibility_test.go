package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

var testNow = func() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testRoleSet() member.RoleSet {
	return member.RoleSet{
		member.RoleKindMember:  "role-member",
		member.RoleKindPending: "role-pending",
		member.RoleKindManager: "role-manager",
		member.RoleKindAdmin:   "role-admin",
	}
}

// stubRoster serves one canned member.
type stubRoster struct {
	m   *member.Member
	err error
}

func (s *stubRoster) FetchMember(ctx context.Context, userID string) (*member.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.m == nil {
		return nil, shared.ErrNotInCommunity
	}
	return s.m, nil
}

func (s *stubRoster) ListMembers(ctx context.Context) ([]*member.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.m == nil {
		return nil, nil
	}
	return []*member.Member{s.m}, nil
}

// stubRoleManager records removals.
type stubRoleManager struct {
	removed []member.Role
	err     error
}

func (s *stubRoleManager) AddRole(ctx context.Context, userID string, role member.Role, reason string) error {
	return s.err
}

func (s *stubRoleManager) RemoveRole(ctx context.Context, userID string, role member.Role, reason string) error {
	s.removed = append(s.removed, role)
	return s.err
}

// stubApplications serves canned lookup results. Only the read paths the
// eligibility handler exercises are meaningful; the rest of the interface is
// inert.
type stubApplications struct {
	pending    *application.Application
	pendingErr error
	latest     *application.Application
	latestErr  error
}

func (s *stubApplications) GetPendingByApplicant(ctx context.Context, applicantID string) (*application.Application, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	if s.pending == nil {
		return nil, shared.ErrApplicationNotFound
	}
	return s.pending, nil
}

func (s *stubApplications) GetLatestByApplicant(ctx context.Context, applicantID string) (*application.Application, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	if s.latest == nil {
		return nil, shared.ErrApplicationNotFound
	}
	return s.latest, nil
}

func (s *stubApplications) Create(ctx context.Context, app *application.Application) error {
	return nil
}

func (s *stubApplications) GetByID(ctx context.Context, id string) (*application.Application, error) {
	return nil, shared.ErrApplicationNotFound
}

func (s *stubApplications) GetLatestRejected(ctx context.Context, applicantID string) (*application.Application, error) {
	return nil, shared.ErrNoRejectedRecord
}

func (s *stubApplications) UpdateDecision(ctx context.Context, app *application.Application) error {
	return nil
}

func (s *stubApplications) UpdateOverride(ctx context.Context, app *application.Application) error {
	return nil
}

func (s *stubApplications) UpdateNotificationStatus(ctx context.Context, id string, status application.NotificationStatus) error {
	return nil
}

func (s *stubApplications) ListByApplicant(ctx context.Context, applicantID string, status *application.Status, limit int) ([]*application.Application, error) {
	return nil, nil
}

func (s *stubApplications) ListPending(ctx context.Context, limit, offset int) ([]*application.Application, error) {
	return nil, nil
}

func (s *stubApplications) CountByStatus(ctx context.Context) (map[application.Status]int, error) {
	return map[application.Status]int{}, nil
}

type eligEnv struct {
	roster  *stubRoster
	roles   *stubRoleManager
	apps    *stubApplications
	handler *CheckEligibilityHandler
}

func newEligEnv(t *testing.T) *eligEnv {
	t.Helper()
	env := &eligEnv{
		roster: &stubRoster{m: &member.Member{ID: "user-1", Username: "shadow", DisplayName: "Shadow"}},
		roles:  &stubRoleManager{},
		apps:   &stubApplications{},
	}
	env.handler = NewCheckEligibilityHandler(
		env.roster, env.roles, env.apps, testRoleSet(), "https://discord.gg/maestros", zap.NewNop(),
	).WithClock(testNow)
	return env
}

func TestEligibility_FreshApplicant(t *testing.T) {
	env := newEligEnv(t)

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, d.Eligible)
	assert.Equal(t, ActionApply, d.Action)
}

func TestEligibility_NotInCommunity(t *testing.T) {
	env := newEligEnv(t)
	env.roster.m = nil

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonNotInCommunity, d.Reason)
	assert.Equal(t, ActionJoinCommunity, d.Action)
	assert.Equal(t, "https://discord.gg/maestros", d.InviteURL)
}

func TestEligibility_AlreadyMember(t *testing.T) {
	env := newEligEnv(t)
	env.roster.m.Roles = []member.Role{"role-member"}

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonAlreadyMember, d.Reason)
	assert.Equal(t, ActionNone, d.Action)
}

func TestEligibility_PendingApplication(t *testing.T) {
	env := newEligEnv(t)
	env.roster.m.Roles = []member.Role{"role-pending"}
	env.apps.pending = application.New("app-1", "user-1", "Shadow", application.Payload{}, 40, application.Analysis{}, testNow())

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonPending, d.Reason)
	assert.Equal(t, ActionWait, d.Action)
	assert.Equal(t, "24-48 hours", d.EstimatedTime)
	assert.Empty(t, env.roles.removed)
}

func TestEligibility_OrphanedPendingRoleIsRevoked(t *testing.T) {
	env := newEligEnv(t)
	// Pending role with no matching record and no history at all.
	env.roster.m.Roles = []member.Role{"role-pending"}

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, d.Eligible)
	assert.Equal(t, []member.Role{"role-pending"}, env.roles.removed)
}

func TestEligibility_OrphanedRevokeFailureStillEligible(t *testing.T) {
	env := newEligEnv(t)
	env.roster.m.Roles = []member.Role{"role-pending"}
	env.roles.err = shared.ErrRoleNotFound

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, d.Eligible)
}

func TestEligibility_PendingLookupFailureFailsSafe(t *testing.T) {
	env := newEligEnv(t)
	env.roster.m.Roles = []member.Role{"role-pending"}
	env.apps.pendingErr = errors.New("connection reset")

	// An unreadable store must not let the applicant slip past the flag.
	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonPending, d.Reason)
	assert.Empty(t, env.roles.removed)
}

func TestEligibility_CooldownDaysRemaining(t *testing.T) {
	env := newEligEnv(t)
	rejected := application.New("app-1", "user-1", "Shadow", application.Payload{}, 30, application.Analysis{}, testNow().Add(-10*24*time.Hour))
	require.NoError(t, rejected.Reject("reviewer-1", "needs more experience", testNow().Add(-9*24*time.Hour)))
	env.apps.latest = rejected

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonCooldown, d.Reason)
	assert.Equal(t, ActionWait, d.Action)
	assert.Equal(t, 20, d.DaysRemaining)
	require.NotNil(t, d.CanApplyAfter)
	assert.Equal(t, rejected.SubmittedAt.Add(application.Cooldown), *d.CanApplyAfter)
}

func TestEligibility_ValidOverrideSuppressesCooldown(t *testing.T) {
	env := newEligEnv(t)
	rejected := application.New("app-1", "user-1", "Shadow", application.Payload{}, 30, application.Analysis{}, testNow().Add(-10*24*time.Hour))
	require.NoError(t, rejected.Reject("reviewer-1", "needs more experience", testNow().Add(-9*24*time.Hour)))
	require.NoError(t, rejected.GrantOverride("admin-1", testNow().Add(-24*time.Hour)))
	env.apps.latest = rejected

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, d.Eligible)
}

func TestEligibility_ExpiredOverrideReinstatesCooldown(t *testing.T) {
	env := newEligEnv(t)
	rejected := application.New("app-1", "user-1", "Shadow", application.Payload{}, 30, application.Analysis{}, testNow().Add(-10*24*time.Hour))
	require.NoError(t, rejected.Reject("reviewer-1", "needs more experience", testNow().Add(-9*24*time.Hour)))
	require.NoError(t, rejected.GrantOverride("admin-1", testNow().Add(-8*24*time.Hour)))
	env.apps.latest = rejected

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonCooldown, d.Reason)
}

func TestEligibility_PlatformDownFailsClosed(t *testing.T) {
	env := newEligEnv(t)
	env.roster.err = shared.ErrPlatformUnavailable

	_, err := env.handler.Handle(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, shared.IsUnavailable(err))
}

func TestEligibility_CooldownLookupFailureFailsClosed(t *testing.T) {
	env := newEligEnv(t)
	env.apps.latestErr = errors.New("connection reset")

	d, err := env.handler.Handle(context.Background(), "user-1")
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, shared.IsUnavailable(err))
}
