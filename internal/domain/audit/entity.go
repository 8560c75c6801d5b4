// Package audit provides the append-only activity record of every lifecycle
// transition. Entries are immutable: the repository offers insert and list
// operations only.
package audit

import (
	"time"
)

// Action names a recorded lifecycle event.
type Action string

const (
	ActionApplicationSubmitted Action = "application_submitted"
	ActionApplicationApproved  Action = "application_approved"
	ActionApplicationRejected  Action = "application_rejected"
	ActionOverrideGranted      Action = "override_granted"
	ActionOrphanedRoleRevoked  Action = "orphaned_role_revoked"
)

// Entry is a single append-only audit record.
type Entry struct {
	ID        string
	ActorID   string // who performed the action
	Action    Action
	SubjectID string // who the action was about
	Metadata  map[string]any
	CreatedAt time.Time
}

// New builds an audit entry stamped at the given instant.
func New(id, actorID string, action Action, subjectID string, metadata map[string]any, now time.Time) *Entry {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Entry{
		ID:        id,
		ActorID:   actorID,
		Action:    action,
		SubjectID: subjectID,
		Metadata:  metadata,
		CreatedAt: now.UTC(),
	}
}
