// Package auditlog records lifecycle events to the audit store and mirrors
// them to the audit broadcast channel. Both writes are best-effort: an audit
// failure is logged loudly but never blocks the transition it describes.
package auditlog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
)

// Auditor writes audit entries and posts them to the audit channel.
type Auditor struct {
	entries    audit.Repository
	dispatcher notification.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuditor creates an Auditor. The dispatcher may be nil for processes
// that record without broadcasting.
func NewAuditor(entries audit.Repository, dispatcher notification.Dispatcher, logger *zap.Logger) *Auditor {
	return &Auditor{
		entries:    entries,
		dispatcher: dispatcher,
		logger:     logger.With(zap.String("component", "auditlog")),
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (a *Auditor) WithClock(now func() time.Time) *Auditor {
	a.now = now
	return a
}

// Record appends one audit entry and mirrors it to the audit channel.
func (a *Auditor) Record(ctx context.Context, actorID string, action audit.Action, subjectID string, metadata map[string]any) {
	entry := audit.New(uuid.NewString(), actorID, action, subjectID, metadata, a.now())

	if err := a.entries.Append(ctx, entry); err != nil {
		a.logger.Error("failed to append audit entry",
			zap.String("action", string(action)),
			zap.String("actor_id", actorID),
			zap.String("subject_id", subjectID),
			zap.Error(err))
	}

	if a.dispatcher != nil {
		a.dispatcher.Announce(ctx, notification.BroadcastAuditLog, auditMessage(entry))
	}
}

// auditMessage renders an entry for the audit channel.
func auditMessage(entry *audit.Entry) notification.Message {
	msg := notification.Message{
		Title:  "Audit: " + titleFor(entry.Action),
		Footer: entry.CreatedAt.Format("2006-01-02 15:04:05 UTC"),
	}
	msg.AddField("Actor", entry.ActorID, true)
	msg.AddField("Subject", entry.SubjectID, true)
	msg.AddField("Action", string(entry.Action), true)

	// Deterministic field order for the channel rendering.
	keys := make([]string, 0, len(entry.Metadata))
	for k := range entry.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		msg.AddField(k, fmt.Sprintf("%v", entry.Metadata[k]), true)
	}
	return msg
}

func titleFor(action audit.Action) string {
	switch action {
	case audit.ActionApplicationSubmitted:
		return "Application Submitted"
	case audit.ActionApplicationApproved:
		return "Application Approved"
	case audit.ActionApplicationRejected:
		return "Application Rejected"
	case audit.ActionOverrideGranted:
		return "Override Granted"
	case audit.ActionOrphanedRoleRevoked:
		return "Orphaned Role Revoked"
	default:
		return string(action)
	}
}
