// Package command contains write operations (CQRS - Commands). The handlers
// here form the application lifecycle controller: they validate preconditions
// against current store state, perform the authoritative transition, and then
// run the best-effort side effects (roles, notifications, audit).
package command

import (
	"context"
	"fmt"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// RoleSyncer applies lifecycle role side effects. Calls are best-effort:
// implementations log and swallow failures, so none of these block a
// transition.
type RoleSyncer interface {
	// GrantPendingMarker adds the visible under-review role.
	GrantPendingMarker(ctx context.Context, applicantID string)

	// RevokePendingMarker removes the under-review role.
	RevokePendingMarker(ctx context.Context, applicantID string)

	// GrantFullMember adds the community member role.
	GrantFullMember(ctx context.Context, applicantID string)
}

// Auditor appends lifecycle transitions to the activity record. Best-effort:
// a failed append is logged by the implementation, never surfaced here.
type Auditor interface {
	Record(ctx context.Context, actorID string, action audit.Action, subjectID string, metadata map[string]any)
}

// ValidationError carries the field-keyed error map of a malformed
// submission. No side effects have occurred when it is returned.
type ValidationError struct {
	Fields application.FieldErrors
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("submission validation failed (%d fields)", len(e.Fields))
}

// Is marks the error as a validation failure for errors.Is().
func (e *ValidationError) Is(target error) bool {
	return target == shared.ErrValidation
}

// NotEligibleError carries the full eligibility decision that blocked a
// submission.
type NotEligibleError struct {
	Decision any
	Reason   string
}

// Error implements the error interface.
func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("applicant not eligible: %s", e.Reason)
}

// Is marks the error as a state conflict for errors.Is().
func (e *NotEligibleError) Is(target error) bool {
	return target == shared.ErrInvalidState
}
