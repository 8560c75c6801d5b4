package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

type reviewEnv struct {
	repo       *fakeApplicationRepo
	syncer     *fakeRoleSyncer
	dispatcher *fakeDispatcher
	auditor    *fakeAuditor
	accept     *AcceptApplicationHandler
	reject     *RejectApplicationHandler
}

func newReviewEnv(t *testing.T) *reviewEnv {
	t.Helper()
	env := &reviewEnv{
		repo:       newFakeApplicationRepo(),
		syncer:     &fakeRoleSyncer{},
		dispatcher: &fakeDispatcher{dmOK: true, broadcastOK: true},
		auditor:    &fakeAuditor{},
	}
	env.accept = NewAcceptApplicationHandler(
		env.repo, env.syncer, env.dispatcher, env.auditor, zap.NewNop(),
	).WithClock(testClock)
	env.reject = NewRejectApplicationHandler(
		env.repo, env.syncer, env.dispatcher, env.auditor, zap.NewNop(),
	).WithClock(testClock)
	return env
}

func (env *reviewEnv) seedPending(t *testing.T, id, applicantID string) *application.Application {
	t.Helper()
	app := application.New(id, applicantID, "Shadow", application.Payload{}, 55, application.Analysis{}, testClock().Add(-24*time.Hour))
	require.NoError(t, env.repo.Create(context.Background(), app))
	return app
}

func TestAccept_HappyPath(t *testing.T) {
	env := newReviewEnv(t)
	env.seedPending(t, "app-1", "user-1")

	res, err := env.accept.Handle(context.Background(), AcceptApplicationCommand{
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.ApplicantID)
	assert.True(t, res.DMDelivered)

	stored := env.repo.stored("app-1")
	assert.Equal(t, application.StatusApproved, stored.Status)
	assert.Equal(t, "reviewer-1", stored.ReviewedBy)
	assert.Equal(t, DefaultAcceptanceNotes, stored.DecisionReason)
	require.NotNil(t, stored.ReviewedAt)
	assert.Equal(t, testClock().UTC(), *stored.ReviewedAt)
	assert.Equal(t, application.NotificationSent, stored.NotificationStatus)

	assert.Equal(t, []string{"user-1"}, env.syncer.pendingRevoked)
	assert.Equal(t, []string{"user-1"}, env.syncer.memberGranted)
	assert.Equal(t, []notification.Broadcast{notification.BroadcastAcceptedLog}, env.dispatcher.broadcasts)

	// Exactly one audit entry per decision.
	require.Len(t, env.auditor.calls, 1)
	assert.Equal(t, audit.ActionApplicationApproved, env.auditor.calls[0].action)
	assert.Equal(t, "reviewer-1", env.auditor.calls[0].actorID)
	assert.Equal(t, "user-1", env.auditor.calls[0].subjectID)
}

func TestAccept_AlreadyDecidedConflicts(t *testing.T) {
	env := newReviewEnv(t)
	app := env.seedPending(t, "app-1", "user-1")
	require.NoError(t, app.Approve("reviewer-1", "ok", testClock()))
	require.NoError(t, env.repo.UpdateDecision(context.Background(), app))

	_, err := env.accept.Handle(context.Background(), AcceptApplicationCommand{
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-2",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotPending))
	assert.True(t, shared.IsConflict(err))

	// First decision stands untouched and no side effects fire.
	stored := env.repo.stored("app-1")
	assert.Equal(t, "reviewer-1", stored.ReviewedBy)
	assert.Empty(t, env.syncer.memberGranted)
	assert.Empty(t, env.dispatcher.dms)
	assert.Empty(t, env.auditor.calls)
}

func TestAccept_NotFound(t *testing.T) {
	env := newReviewEnv(t)

	_, err := env.accept.Handle(context.Background(), AcceptApplicationCommand{
		ApplicationID: "missing",
		ReviewerID:    "reviewer-1",
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestAccept_DMFailureStillApproves(t *testing.T) {
	env := newReviewEnv(t)
	env.seedPending(t, "app-1", "user-1")
	env.dispatcher.dmOK = false

	res, err := env.accept.Handle(context.Background(), AcceptApplicationCommand{
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-1",
	})
	require.NoError(t, err)
	assert.False(t, res.DMDelivered)

	stored := env.repo.stored("app-1")
	assert.Equal(t, application.StatusApproved, stored.Status)
	assert.Equal(t, application.NotificationFailed, stored.NotificationStatus)
	assert.Len(t, env.auditor.calls, 1)
}

func TestReject_HappyPath(t *testing.T) {
	env := newReviewEnv(t)
	env.seedPending(t, "app-1", "user-1")

	res, err := env.reject.Handle(context.Background(), RejectApplicationCommand{
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-1",
		Reason:        "Not enough competitive experience yet.",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.ApplicantID)

	stored := env.repo.stored("app-1")
	assert.Equal(t, application.StatusRejected, stored.Status)
	assert.Equal(t, "Not enough competitive experience yet.", stored.DecisionReason)

	assert.Equal(t, []string{"user-1"}, env.syncer.pendingRevoked)
	assert.Empty(t, env.syncer.memberGranted)
	assert.Equal(t, []notification.Broadcast{notification.BroadcastRejectedLog}, env.dispatcher.broadcasts)

	require.Len(t, env.auditor.calls, 1)
	assert.Equal(t, audit.ActionApplicationRejected, env.auditor.calls[0].action)
}

func TestReject_ReasonLengthBoundary(t *testing.T) {
	env := newReviewEnv(t)
	env.seedPending(t, "app-1", "user-1")

	_, err := env.reject.Handle(context.Background(), RejectApplicationCommand{
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-1",
		Reason:        "too short",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrReasonTooShort))
	assert.True(t, shared.IsValidation(err))

	// Still pending, nothing fired.
	assert.Equal(t, application.StatusPending, env.repo.stored("app-1").Status)
	assert.Empty(t, env.syncer.pendingRevoked)
	assert.Empty(t, env.auditor.calls)

	// Exactly MinRejectReasonLen characters passes.
	_, err = env.reject.Handle(context.Background(), RejectApplicationCommand{
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-1",
		Reason:        "0123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, application.StatusRejected, env.repo.stored("app-1").Status)
}

func TestReject_AlreadyDecidedConflicts(t *testing.T) {
	env := newReviewEnv(t)
	app := env.seedPending(t, "app-1", "user-1")
	require.NoError(t, app.Reject("reviewer-1", "first decision stands", testClock()))
	require.NoError(t, env.repo.UpdateDecision(context.Background(), app))

	_, err := env.reject.Handle(context.Background(), RejectApplicationCommand{
		ApplicationID: "app-1",
		ReviewerID:    "reviewer-2",
		Reason:        "a competing decision",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotPending))
	assert.Empty(t, env.auditor.calls)
}
