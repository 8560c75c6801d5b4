package application

import "context"

// Repository is the persistence port for applications. The store is the
// single source of truth for lifecycle state.
type Repository interface {
	// Create inserts a new pending application. The store must enforce
	// the one-pending-per-applicant invariant at insert time and return
	// shared.ErrDuplicatePending when it is violated; callers must not
	// rely on an earlier read to guarantee uniqueness.
	Create(ctx context.Context, app *Application) error

	// GetByID returns an application by record ID, or shared.ErrApplicationNotFound.
	GetByID(ctx context.Context, id string) (*Application, error)

	// GetPendingByApplicant returns the applicant's pending application,
	// or shared.ErrApplicationNotFound when none exists.
	GetPendingByApplicant(ctx context.Context, applicantID string) (*Application, error)

	// GetLatestByApplicant returns the applicant's most recent application
	// of any status, ordered by submission time descending.
	GetLatestByApplicant(ctx context.Context, applicantID string) (*Application, error)

	// GetLatestRejected returns the applicant's most recent rejected
	// application, the only record an override may be granted on.
	GetLatestRejected(ctx context.Context, applicantID string) (*Application, error)

	// UpdateDecision persists a reviewer decision. Implementations must
	// guard the write with the pending precondition (an atomic
	// status='pending' check) and return shared.ErrNotPending when the
	// record was already decided, leaving it unchanged.
	UpdateDecision(ctx context.Context, app *Application) error

	// UpdateOverride persists override fields on a rejected record,
	// guarded by status='rejected'; returns shared.ErrNoRejectedRecord on
	// mismatch.
	UpdateOverride(ctx context.Context, app *Application) error

	// UpdateNotificationStatus records the DM delivery outcome without
	// touching lifecycle fields.
	UpdateNotificationStatus(ctx context.Context, id string, status NotificationStatus) error

	// ListByApplicant returns the applicant's applications, newest first.
	// A nil status returns all of them.
	ListByApplicant(ctx context.Context, applicantID string, status *Status, limit int) ([]*Application, error)

	// ListPending returns pending applications for the review queue,
	// oldest first.
	ListPending(ctx context.Context, limit, offset int) ([]*Application, error)

	// CountByStatus returns per-status totals for the stats snapshot.
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
