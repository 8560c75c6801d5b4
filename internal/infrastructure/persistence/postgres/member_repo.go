// Package postgres implements the PostgreSQL persistence layer for the
// Maestros community backend.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MemberRepository implements member.Repository for PostgreSQL. It is a
// mirror of the live platform roster, refreshed by the roster sweep and the
// join/leave handlers; the platform stays authoritative.
type MemberRepository struct {
	conn *Connection
}

var _ member.Repository = (*MemberRepository)(nil)

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(conn *Connection) *MemberRepository {
	return &MemberRepository{conn: conn}
}

// Upsert inserts or refreshes a member row. A returning member gets the new
// joined_at and a cleared left_at.
func (r *MemberRepository) Upsert(ctx context.Context, m *member.Member) error {
	query := `
		INSERT INTO members (id, username, display_name, roles, joined_at, left_at, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			roles = EXCLUDED.roles,
			joined_at = EXCLUDED.joined_at,
			left_at = EXCLUDED.left_at,
			last_synced_at = EXCLUDED.last_synced_at
	`

	roles := make([]string, 0, len(m.Roles))
	for _, role := range m.Roles {
		roles = append(roles, string(role))
	}

	_, err := r.conn.Exec(ctx, query,
		m.ID,
		m.Username,
		m.DisplayName,
		roles,
		m.JoinedAt,
		m.LeftAt,
		m.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}

	return nil
}

// GetByID returns a mirrored member by platform user ID.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	query := `
		SELECT id, username, display_name, roles, joined_at, left_at, last_synced_at
		FROM members
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanMember(row)
}

// MarkLeft records a departure without deleting the row; join history is
// kept for stats.
func (r *MemberRepository) MarkLeft(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result, err := r.conn.Exec(ctx,
		`UPDATE members SET left_at = $1, last_synced_at = $2 WHERE id = $3`,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark member left: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrMemberNotFound
	}

	return nil
}

// Count returns the number of currently present members.
func (r *MemberRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM members WHERE left_at IS NULL`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

func (r *MemberRepository) scanMember(row pgx.Row) (*member.Member, error) {
	var (
		m     member.Member
		roles []string
	)

	err := row.Scan(
		&m.ID,
		&m.Username,
		&m.DisplayName,
		&roles,
		&m.JoinedAt,
		&m.LeftAt,
		&m.LastSyncedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.Roles = make([]member.Role, 0, len(roles))
	for _, role := range roles {
		m.Roles = append(m.Roles, member.Role(role))
	}

	return &m, nil
}
