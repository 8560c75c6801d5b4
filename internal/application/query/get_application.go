package query

import (
	"context"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ApplicationReads serves the read side of the application endpoints.
type ApplicationReads struct {
	applications application.Repository
}

// NewApplicationReads wires the read handler.
func NewApplicationReads(applications application.Repository) *ApplicationReads {
	return &ApplicationReads{applications: applications}
}

// GetForCaller returns an application if the caller owns it or reviews it.
func (q *ApplicationReads) GetForCaller(ctx context.Context, id, callerID string, reviewer bool) (*application.Application, error) {
	app, err := q.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reviewer && app.ApplicantID != callerID {
		return nil, shared.NewDomainError("application", "Get", shared.ErrForbidden, "access denied")
	}
	return app, nil
}

// ListOwn returns the caller's applications, optionally filtered by status.
func (q *ApplicationReads) ListOwn(ctx context.Context, callerID string, status *application.Status, limit int) ([]*application.Application, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return q.applications.ListByApplicant(ctx, callerID, status, limit)
}

// ListPending returns the review queue, oldest first.
func (q *ApplicationReads) ListPending(ctx context.Context, limit, offset int) ([]*application.Application, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return q.applications.ListPending(ctx, limit, offset)
}

// CountByStatus returns per-status totals.
func (q *ApplicationReads) CountByStatus(ctx context.Context) (map[application.Status]int, error) {
	return q.applications.CountByStatus(ctx)
}
