// Package postgres implements the PostgreSQL persistence layer for the
// Maestros community backend.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const applicationColumns = `
	id, applicant_id, username, payload, status, score, analysis,
	submitted_at, reviewed_at, reviewed_by, decision_reason,
	override_granted, override_granted_by, override_granted_at, override_expires_at,
	notification_status
`

// ApplicationRepository implements application.Repository for PostgreSQL.
type ApplicationRepository struct {
	conn *Connection
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts a new pending application. The partial unique index on
// pending applications turns a concurrent duplicate into
// shared.ErrDuplicatePending instead of a second live record.
func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	query := `
		INSERT INTO applications (
			id, applicant_id, username, payload, status, score, analysis,
			submitted_at, notification_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	payloadJSON, err := json.Marshal(app.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	analysisJSON, err := json.Marshal(app.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		app.ID,
		app.ApplicantID,
		app.Username,
		payloadJSON,
		string(app.Status),
		app.Score,
		analysisJSON,
		app.SubmittedAt,
		string(app.NotificationStatus),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicatePending
		}
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// UpdateDecision persists a reviewer decision. The status guard makes the
// transition atomic: of two concurrent reviewers exactly one update lands,
// the other gets shared.ErrNotPending.
func (r *ApplicationRepository) UpdateDecision(ctx context.Context, app *application.Application) error {
	query := `
		UPDATE applications SET
			status = $1,
			reviewed_at = $2,
			reviewed_by = $3,
			decision_reason = $4,
			notification_status = $5
		WHERE id = $6 AND status = 'pending'
	`

	result, err := r.conn.Exec(ctx, query,
		string(app.Status),
		app.ReviewedAt,
		app.ReviewedBy,
		app.DecisionReason,
		string(app.NotificationStatus),
		app.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyGuardMiss(ctx, app.ID, shared.ErrNotPending)
	}

	return nil
}

// UpdateOverride persists an override grant. Guarded on the rejected status
// so a record re-submitted or purged in the meantime cannot be marked.
func (r *ApplicationRepository) UpdateOverride(ctx context.Context, app *application.Application) error {
	query := `
		UPDATE applications SET
			override_granted = $1,
			override_granted_by = $2,
			override_granted_at = $3,
			override_expires_at = $4
		WHERE id = $5 AND status = 'rejected'
	`

	result, err := r.conn.Exec(ctx, query,
		app.OverrideGranted,
		app.OverrideGrantedBy,
		app.OverrideGrantedAt,
		app.OverrideExpiresAt,
		app.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update override: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyGuardMiss(ctx, app.ID, shared.ErrNoRejectedRecord)
	}

	return nil
}

// UpdateNotificationStatus records the applicant DM delivery outcome.
func (r *ApplicationRepository) UpdateNotificationStatus(ctx context.Context, id string, status application.NotificationStatus) error {
	result, err := r.conn.Exec(ctx,
		`UPDATE applications SET notification_status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrApplicationNotFound
	}

	return nil
}

// classifyGuardMiss distinguishes a missing row from a row in the wrong state
// after a guarded update matched nothing.
func (r *ApplicationRepository) classifyGuardMiss(ctx context.Context, id string, stateErr error) error {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to classify guarded update: %w", err)
	}
	if !exists {
		return shared.ErrApplicationNotFound
	}
	return stateErr
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns an application by ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanApplication(row)
}

// GetPendingByApplicant returns the applicant's live pending application.
func (r *ApplicationRepository) GetPendingByApplicant(ctx context.Context, applicantID string) (*application.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1 AND status = 'pending'
	`

	row := r.conn.QueryRow(ctx, query, applicantID)
	return r.scanApplication(row)
}

// GetLatestByApplicant returns the applicant's most recent application of
// any status.
func (r *ApplicationRepository) GetLatestByApplicant(ctx context.Context, applicantID string) (*application.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`

	row := r.conn.QueryRow(ctx, query, applicantID)
	return r.scanApplication(row)
}

// GetLatestRejected returns the applicant's most recent rejected application.
func (r *ApplicationRepository) GetLatestRejected(ctx context.Context, applicantID string) (*application.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1 AND status = 'rejected'
		ORDER BY submitted_at DESC
		LIMIT 1
	`

	row := r.conn.QueryRow(ctx, query, applicantID)
	app, err := r.scanApplication(row)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrNoRejectedRecord
		}
		return nil, err
	}
	return app, nil
}

// ListByApplicant returns the applicant's applications, newest first,
// optionally filtered by status.
func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID string, status *application.Status, limit int) ([]*application.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1 AND ($2::varchar IS NULL OR status = $2)
		ORDER BY submitted_at DESC
		LIMIT $3
	`

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := r.conn.Query(ctx, query, applicantID, statusArg, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	return r.scanApplications(rows)
}

// ListPending returns the review queue, oldest submissions first.
func (r *ApplicationRepository) ListPending(ctx context.Context, limit, offset int) ([]*application.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE status = 'pending'
		ORDER BY submitted_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.conn.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending applications: %w", err)
	}
	defer rows.Close()

	return r.scanApplications(rows)
}

// CountByStatus returns application counts grouped by status. Historical
// "accepted" rows fold into the approved bucket.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[application.Status]int, error) {
	rows, err := r.conn.Query(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[application.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[application.ParseStatus(status)] += count
	}

	return counts, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *ApplicationRepository) scanApplication(row pgx.Row) (*application.Application, error) {
	var (
		app                application.Application
		payloadJSON        []byte
		analysisJSON       []byte
		status             string
		notificationStatus string
	)

	err := row.Scan(
		&app.ID,
		&app.ApplicantID,
		&app.Username,
		&payloadJSON,
		&status,
		&app.Score,
		&analysisJSON,
		&app.SubmittedAt,
		&app.ReviewedAt,
		&app.ReviewedBy,
		&app.DecisionReason,
		&app.OverrideGranted,
		&app.OverrideGrantedBy,
		&app.OverrideGrantedAt,
		&app.OverrideExpiresAt,
		&notificationStatus,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}

	if err := json.Unmarshal(payloadJSON, &app.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if err := json.Unmarshal(analysisJSON, &app.Analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}

	app.Status = application.ParseStatus(status)
	app.NotificationStatus = application.NotificationStatus(notificationStatus)

	return &app, nil
}

func (r *ApplicationRepository) scanApplications(rows pgx.Rows) ([]*application.Application, error) {
	var apps []*application.Application
	for rows.Next() {
		app, err := r.scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
