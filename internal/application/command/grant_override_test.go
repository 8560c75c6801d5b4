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
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

type overrideEnv struct {
	repo       *fakeApplicationRepo
	dispatcher *fakeDispatcher
	auditor    *fakeAuditor
	handler    *GrantOverrideHandler
}

func newOverrideEnv(t *testing.T) *overrideEnv {
	t.Helper()
	env := &overrideEnv{
		repo:       newFakeApplicationRepo(),
		dispatcher: &fakeDispatcher{dmOK: true, broadcastOK: true},
		auditor:    &fakeAuditor{},
	}
	env.handler = NewGrantOverrideHandler(
		env.repo, env.dispatcher, env.auditor, zap.NewNop(),
	).WithClock(testClock)
	return env
}

func (env *overrideEnv) seedRejected(t *testing.T, id, applicantID string, submittedAt time.Time) *application.Application {
	t.Helper()
	app := application.New(id, applicantID, "Shadow", application.Payload{}, 30, application.Analysis{}, submittedAt)
	require.NoError(t, app.Reject("reviewer-1", "not a good fit right now", submittedAt.Add(time.Hour)))
	require.NoError(t, env.repo.Create(context.Background(), app))
	return app
}

func TestGrantOverride_HappyPath(t *testing.T) {
	env := newOverrideEnv(t)
	env.seedRejected(t, "app-1", "user-1", testClock().Add(-10*24*time.Hour))

	res, err := env.handler.Handle(context.Background(), GrantOverrideCommand{
		ApplicantID: "user-1",
		RequesterID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "app-1", res.ApplicationID)
	assert.Equal(t, testClock().UTC().Add(application.OverrideDays*24*time.Hour), res.ValidUntil)

	stored := env.repo.stored("app-1")
	assert.True(t, stored.OverrideGranted)
	assert.Equal(t, "admin-1", stored.OverrideGrantedBy)
	assert.True(t, stored.HasValidOverride(testClock()))

	assert.Equal(t, []string{"user-1"}, env.dispatcher.dms)
	require.Len(t, env.auditor.calls, 1)
	assert.Equal(t, audit.ActionOverrideGranted, env.auditor.calls[0].action)
	assert.Equal(t, "admin-1", env.auditor.calls[0].actorID)
}

func TestGrantOverride_PicksLatestRejected(t *testing.T) {
	env := newOverrideEnv(t)
	env.seedRejected(t, "app-old", "user-1", testClock().Add(-90*24*time.Hour))
	env.seedRejected(t, "app-new", "user-1", testClock().Add(-5*24*time.Hour))

	res, err := env.handler.Handle(context.Background(), GrantOverrideCommand{
		ApplicantID: "user-1",
		RequesterID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "app-new", res.ApplicationID)
	assert.False(t, env.repo.stored("app-old").OverrideGranted)
}

func TestGrantOverride_NoRejectedRecord(t *testing.T) {
	env := newOverrideEnv(t)

	// Only a pending application exists.
	pending := application.New("app-1", "user-1", "Shadow", application.Payload{}, 50, application.Analysis{}, testClock())
	require.NoError(t, env.repo.Create(context.Background(), pending))

	_, err := env.handler.Handle(context.Background(), GrantOverrideCommand{
		ApplicantID: "user-1",
		RequesterID: "admin-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNoRejectedRecord))
	assert.Empty(t, env.dispatcher.dms)
	assert.Empty(t, env.auditor.calls)
}
