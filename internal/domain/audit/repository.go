package audit

import "context"

// Repository is the append-only persistence port for audit entries. There is
// deliberately no update or delete.
type Repository interface {
	// Append inserts an entry.
	Append(ctx context.Context, e *Entry) error

	// ListBySubject returns entries about a subject, newest first.
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]*Entry, error)
}
