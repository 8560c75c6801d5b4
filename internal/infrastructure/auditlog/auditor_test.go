package auditlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
)

type fakeAuditRepo struct {
	entries   []*audit.Entry
	appendErr error
}

func (f *fakeAuditRepo) Append(_ context.Context, entry *audit.Entry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) ListBySubject(_ context.Context, subjectID string, limit int) ([]*audit.Entry, error) {
	var out []*audit.Entry
	for _, e := range f.entries {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeDispatcher struct {
	broadcasts []notification.Message
	channels   []notification.Broadcast
}

func (f *fakeDispatcher) NotifyUser(_ context.Context, _ string, _ notification.Message) bool {
	return true
}

func (f *fakeDispatcher) Announce(_ context.Context, ch notification.Broadcast, msg notification.Message) bool {
	f.channels = append(f.channels, ch)
	f.broadcasts = append(f.broadcasts, msg)
	return true
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestRecordAppendsAndAnnounces(t *testing.T) {
	repo := &fakeAuditRepo{}
	dispatcher := &fakeDispatcher{}
	auditor := NewAuditor(repo, dispatcher, zap.NewNop()).WithClock(fixedClock)

	auditor.Record(context.Background(), "reviewer-1", audit.ActionApplicationApproved, "applicant-1",
		map[string]any{"application_id": "app-1"})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "reviewer-1", entry.ActorID)
	assert.Equal(t, audit.ActionApplicationApproved, entry.Action)
	assert.Equal(t, "applicant-1", entry.SubjectID)
	assert.Equal(t, fixedClock(), entry.CreatedAt)

	require.Len(t, dispatcher.broadcasts, 1)
	assert.Equal(t, notification.BroadcastAuditLog, dispatcher.channels[0])
	assert.Equal(t, "Audit: Application Approved", dispatcher.broadcasts[0].Title)
}

func TestRecordStillAnnouncesWhenAppendFails(t *testing.T) {
	repo := &fakeAuditRepo{appendErr: errors.New("connection reset")}
	dispatcher := &fakeDispatcher{}
	auditor := NewAuditor(repo, dispatcher, zap.NewNop()).WithClock(fixedClock)

	auditor.Record(context.Background(), "reviewer-1", audit.ActionApplicationRejected, "applicant-1", nil)

	assert.Empty(t, repo.entries)
	require.Len(t, dispatcher.broadcasts, 1)
	assert.Equal(t, "Audit: Application Rejected", dispatcher.broadcasts[0].Title)
}

func TestRecordWithoutDispatcher(t *testing.T) {
	repo := &fakeAuditRepo{}
	auditor := NewAuditor(repo, nil, zap.NewNop()).WithClock(fixedClock)

	auditor.Record(context.Background(), "system", audit.ActionOrphanedRoleRevoked, "member-1",
		map[string]any{"role": "pending"})

	require.Len(t, repo.entries, 1)
	assert.Equal(t, "system", repo.entries[0].ActorID)
}

func TestAuditMessageFieldOrderDeterministic(t *testing.T) {
	entry := audit.New("id-1", "actor", audit.ActionOverrideGranted, "subject",
		map[string]any{"b_key": "2", "a_key": "1", "c_key": "3"}, fixedClock())

	msg := auditMessage(entry)

	// Three fixed fields, then metadata sorted by key.
	require.Len(t, msg.Fields, 6)
	assert.Equal(t, "a_key", msg.Fields[3].Name)
	assert.Equal(t, "b_key", msg.Fields[4].Name)
	assert.Equal(t, "c_key", msg.Fields[5].Name)
}
