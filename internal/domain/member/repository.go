package member

import "context"

// Repository persists the local membership mirror.
type Repository interface {
	// Upsert inserts or refreshes a mirrored member record.
	Upsert(ctx context.Context, m *Member) error

	// GetByID returns a mirrored member, or shared.ErrMemberNotFound.
	GetByID(ctx context.Context, id string) (*Member, error)

	// MarkLeft records that the member left the community.
	MarkLeft(ctx context.Context, id string) error

	// Count returns the number of currently present members.
	Count(ctx context.Context) (int, error)
}

// Roster is the live-membership port backed by the chat platform. Reads go to
// the platform, not the mirror, because eligibility decisions must not be
// made from stale data.
type Roster interface {
	// FetchMember returns the live member with current roles, or
	// shared.ErrNotInCommunity when the user is not in the community, or
	// shared.ErrPlatformUnavailable when the platform cannot be reached.
	FetchMember(ctx context.Context, userID string) (*Member, error)

	// ListMembers returns the full live roster for the reconcile sweep.
	ListMembers(ctx context.Context) ([]*Member, error)
}

// RoleManager mutates live role state on the chat platform. Implementations
// surface shared.ErrNotInCommunity and shared.ErrRoleNotFound distinctly so
// the role synchronizer can swallow them.
type RoleManager interface {
	AddRole(ctx context.Context, userID string, role Role, reason string) error
	RemoveRole(ctx context.Context, userID string, role Role, reason string) error
}
