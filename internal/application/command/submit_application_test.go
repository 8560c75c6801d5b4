package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/application/query"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

var testClock = func() time.Time {
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

func validRawAnswers() map[string]any {
	return map[string]any{
		"in_game_name":   "ShadowStriker",
		"age":            21,
		"country":        "Kazakhstan",
		"primary_game":   "Valorant",
		"gameplay_hours": 1200,
		"rank":           "Diamond",
		"experience":     "Five years of competitive play across two titles.",
		"reason":         "I want to improve with a dedicated community and learn from skilled teammates.",
		"contribution":   "I can help organize scrims and coach newer players.",
		"availability":   15,
	}
}

type submitEnv struct {
	repo       *fakeApplicationRepo
	roster     *fakeRoster
	roleMgr    *fakeRoleManager
	syncer     *fakeRoleSyncer
	dispatcher *fakeDispatcher
	auditor    *fakeAuditor
	handler    *SubmitApplicationHandler
}

func newSubmitEnv(t *testing.T) *submitEnv {
	t.Helper()
	env := &submitEnv{
		repo: newFakeApplicationRepo(),
		roster: &fakeRoster{members: map[string]*member.Member{
			"user-1": {ID: "user-1", Username: "shadow", DisplayName: "Shadow"},
		}},
		roleMgr:    &fakeRoleManager{},
		syncer:     &fakeRoleSyncer{},
		dispatcher: &fakeDispatcher{dmOK: true, broadcastOK: true},
		auditor:    &fakeAuditor{},
	}
	eligibility := query.NewCheckEligibilityHandler(
		env.roster, env.roleMgr, env.repo, testRoleSet(), "https://discord.gg/maestros", zap.NewNop(),
	).WithClock(testClock)
	env.handler = NewSubmitApplicationHandler(
		eligibility, env.repo, env.roster, env.syncer, env.dispatcher, env.auditor, zap.NewNop(),
	).WithClock(testClock)
	return env
}

func TestSubmit_HappyPath(t *testing.T) {
	env := newSubmitEnv(t)

	res, err := env.handler.Handle(context.Background(), SubmitApplicationCommand{
		ApplicantID: "user-1",
		RawAnswers:  validRawAnswers(),
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.ApplicationID)
	assert.Greater(t, res.Score, 0.0)
	assert.True(t, res.DMDelivered)

	stored := env.repo.stored(res.ApplicationID)
	require.NotNil(t, stored)
	assert.Equal(t, application.StatusPending, stored.Status)
	assert.Equal(t, "user-1", stored.ApplicantID)
	assert.Equal(t, application.NotificationSent, stored.NotificationStatus)
	assert.Equal(t, testClock().UTC(), stored.SubmittedAt)

	assert.Equal(t, []string{"user-1"}, env.syncer.pendingGranted)
	assert.Equal(t, []string{"user-1"}, env.dispatcher.dms)
	assert.Equal(t, []notification.Broadcast{notification.BroadcastReviewQueue}, env.dispatcher.broadcasts)
	assert.Equal(t, []audit.Action{audit.ActionApplicationSubmitted}, env.auditor.actions())
}

func TestSubmit_ValidationFailureCreatesNothing(t *testing.T) {
	env := newSubmitEnv(t)

	raw := validRawAnswers()
	raw["age"] = 12
	delete(raw, "reason")

	res, err := env.handler.Handle(context.Background(), SubmitApplicationCommand{
		ApplicantID: "user-1",
		RawAnswers:  raw,
	})
	require.Error(t, err)
	assert.Nil(t, res)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "age")
	assert.Contains(t, verr.Fields, "reason")
	assert.True(t, errors.Is(err, shared.ErrValidation))

	// No record, no roles, no messages, no audit trail.
	_, getErr := env.repo.GetPendingByApplicant(context.Background(), "user-1")
	assert.True(t, shared.IsNotFound(getErr))
	assert.Empty(t, env.syncer.pendingGranted)
	assert.Empty(t, env.dispatcher.dms)
	assert.Empty(t, env.dispatcher.broadcasts)
	assert.Empty(t, env.auditor.calls)
}

func TestSubmit_IneligibleAlreadyMember(t *testing.T) {
	env := newSubmitEnv(t)
	env.roster.members["user-1"].Roles = []member.Role{"role-member"}

	_, err := env.handler.Handle(context.Background(), SubmitApplicationCommand{
		ApplicantID: "user-1",
		RawAnswers:  validRawAnswers(),
	})
	require.Error(t, err)

	var nerr *NotEligibleError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, string(query.ReasonAlreadyMember), nerr.Reason)
	assert.Empty(t, env.auditor.calls)
}

func TestSubmit_CooldownBlocks(t *testing.T) {
	env := newSubmitEnv(t)

	old := application.New("app-old", "user-1", "Shadow", application.Payload{}, 20, application.Analysis{}, testClock().Add(-10*24*time.Hour))
	require.NoError(t, old.Reject("reviewer-1", "not enough experience", testClock().Add(-9*24*time.Hour)))
	require.NoError(t, env.repo.Create(context.Background(), old))

	_, err := env.handler.Handle(context.Background(), SubmitApplicationCommand{
		ApplicantID: "user-1",
		RawAnswers:  validRawAnswers(),
	})
	var nerr *NotEligibleError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, string(query.ReasonCooldown), nerr.Reason)
}

func TestSubmit_DuplicatePendingRace(t *testing.T) {
	env := newSubmitEnv(t)
	// A concurrent submission wins between the eligibility read and the
	// insert; the store constraint is the backstop.
	env.repo.failCreate = shared.ErrDuplicatePending

	_, err := env.handler.Handle(context.Background(), SubmitApplicationCommand{
		ApplicantID: "user-1",
		RawAnswers:  validRawAnswers(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicatePending))
	assert.Empty(t, env.syncer.pendingGranted)
	assert.Empty(t, env.auditor.calls)
}

func TestSubmit_DMFailureDoesNotBlock(t *testing.T) {
	env := newSubmitEnv(t)
	env.dispatcher.dmOK = false

	res, err := env.handler.Handle(context.Background(), SubmitApplicationCommand{
		ApplicantID: "user-1",
		RawAnswers:  validRawAnswers(),
	})
	require.NoError(t, err)
	assert.False(t, res.DMDelivered)

	stored := env.repo.stored(res.ApplicationID)
	assert.Equal(t, application.NotificationFailed, stored.NotificationStatus)
	// The rest of the fan-out still ran.
	assert.Equal(t, []notification.Broadcast{notification.BroadcastReviewQueue}, env.dispatcher.broadcasts)
	assert.Len(t, env.auditor.calls, 1)
}

func TestSubmit_PlatformDownFailsClosed(t *testing.T) {
	env := newSubmitEnv(t)
	env.roster.err = shared.ErrPlatformUnavailable

	_, err := env.handler.Handle(context.Background(), SubmitApplicationCommand{
		ApplicantID: "user-1",
		RawAnswers:  validRawAnswers(),
	})
	require.Error(t, err)
	assert.True(t, shared.IsUnavailable(err))
}
