// Package postgres implements the PostgreSQL persistence layer for the
// Maestros community backend.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AuditRepository implements audit.Repository for PostgreSQL. Append-only:
// no update or delete statement exists here on purpose.
type AuditRepository struct {
	conn *Connection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(conn *Connection) *AuditRepository {
	return &AuditRepository{conn: conn}
}

// Append inserts one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, action, subject_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.ID,
		entry.ActorID,
		string(entry.Action),
		entry.SubjectID,
		metadataJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// ListBySubject returns the newest entries for one subject.
func (r *AuditRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*audit.Entry, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, actor_id, action, subject_id, metadata, created_at
		FROM audit_log
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var (
			entry        audit.Entry
			action       string
			metadataJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &action, &entry.SubjectID, &metadataJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
		}
		entry.Action = audit.Action(action)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
