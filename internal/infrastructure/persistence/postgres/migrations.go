// Package postgres implements the PostgreSQL persistence layer for the
// Maestros community backend.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create applications table
-- Version: 001

CREATE TABLE IF NOT EXISTS applications (
    id UUID PRIMARY KEY,
    applicant_id VARCHAR(64) NOT NULL,
    username VARCHAR(100) NOT NULL DEFAULT '',
    payload JSONB NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    score DECIMAL(5,2) NOT NULL DEFAULT 0,
    analysis JSONB NOT NULL DEFAULT '{}'::jsonb,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    reviewed_at TIMESTAMP WITH TIME ZONE,
    reviewed_by VARCHAR(64) NOT NULL DEFAULT '',
    decision_reason TEXT NOT NULL DEFAULT '',
    override_granted BOOLEAN NOT NULL DEFAULT FALSE,
    override_granted_by VARCHAR(64) NOT NULL DEFAULT '',
    override_granted_at TIMESTAMP WITH TIME ZONE,
    override_expires_at TIMESTAMP WITH TIME ZONE,
    notification_status VARCHAR(10) NOT NULL DEFAULT '',

    CONSTRAINT valid_status CHECK (status IN ('pending', 'approved', 'accepted', 'rejected')),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 100),
    CONSTRAINT valid_notification_status CHECK (notification_status IN ('', 'sent', 'failed'))
);

-- One live pending application per applicant, enforced at insert time so
-- concurrent submissions cannot both slip past the eligibility read.
CREATE UNIQUE INDEX IF NOT EXISTS uq_applications_pending
    ON applications(applicant_id) WHERE status = 'pending';

CREATE INDEX IF NOT EXISTS idx_applications_applicant ON applications(applicant_id, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
CREATE INDEX IF NOT EXISTS idx_applications_pending_queue ON applications(submitted_at ASC) WHERE status = 'pending';
`

const migration001Down = `
DROP TABLE IF EXISTS applications;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create members mirror table
-- Version: 002

-- Local mirror of the chat-platform roster. The platform is authoritative;
-- this table only serves stats and join/leave history.
CREATE TABLE IF NOT EXISTS members (
    id VARCHAR(64) PRIMARY KEY,
    username VARCHAR(100) NOT NULL DEFAULT '',
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    roles TEXT[] NOT NULL DEFAULT '{}',
    joined_at TIMESTAMP WITH TIME ZONE,
    left_at TIMESTAMP WITH TIME ZONE,
    last_synced_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_members_present ON members(joined_at) WHERE left_at IS NULL;
`

const migration002Down = `
DROP TABLE IF EXISTS members;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE AUDIT LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create audit log
-- Version: 003

-- Append-only. No update or delete path exists in the repository layer.
CREATE TABLE IF NOT EXISTS audit_log (
    id UUID PRIMARY KEY,
    actor_id VARCHAR(64) NOT NULL,
    action VARCHAR(50) NOT NULL,
    subject_id VARCHAR(64) NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audit_log_subject ON audit_log(subject_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS audit_log;
`
