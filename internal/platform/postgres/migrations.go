package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order and must stay idempotent. The partial
// unique index on claims is the storage-level enforcement of the
// one-non-rejected-claim-per-(family, schedule) invariant; services must not
// reimplement it with read-then-write checks.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS barangays (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		code       TEXT NOT NULL,
		manager_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_barangays_code ON barangays (lower(code))`,

	`CREATE TABLE IF NOT EXISTS users (
		id             UUID PRIMARY KEY,
		barangay_id    UUID REFERENCES barangays(id),
		role           TEXT NOT NULL,
		first_name     TEXT NOT NULL,
		last_name      TEXT NOT NULL,
		phone          TEXT NOT NULL DEFAULT '',
		password_hash  TEXT NOT NULL DEFAULT '',
		is_active      BOOLEAN NOT NULL DEFAULT FALSE,
		marital_status TEXT NOT NULL DEFAULT 'single',
		residency      TEXT NOT NULL DEFAULT 'general',
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS families (
		id             UUID PRIMARY KEY,
		barangay_id    UUID NOT NULL REFERENCES barangays(id),
		head_id        UUID NOT NULL UNIQUE REFERENCES users(id),
		classification TEXT NOT NULL DEFAULT 'UNCLASSIFIED',
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS family_members (
		id              UUID PRIMARY KEY,
		family_id       UUID NOT NULL REFERENCES families(id),
		name            TEXT NOT NULL,
		relation        TEXT NOT NULL,
		age             INTEGER,
		is_student      BOOLEAN NOT NULL DEFAULT FALSE,
		education_level TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS member_attributes (
		member_id    UUID NOT NULL REFERENCES family_members(id),
		kind         TEXT NOT NULL,
		evidence_ref TEXT NOT NULL,
		status       TEXT NOT NULL,
		submitted_at TIMESTAMPTZ NOT NULL,
		decided_at   TIMESTAMPTZ,
		decided_by   UUID,
		PRIMARY KEY (member_id, kind)
	)`,

	`CREATE TABLE IF NOT EXISTS donation_schedules (
		id                    UUID PRIMARY KEY,
		barangay_id           UUID NOT NULL REFERENCES barangays(id),
		title                 TEXT NOT NULL,
		description           TEXT NOT NULL DEFAULT '',
		sched_date            DATE NOT NULL,
		start_time            TEXT NOT NULL DEFAULT '',
		end_time              TEXT NOT NULL DEFAULT '',
		location              TEXT NOT NULL DEFAULT '',
		max_recipients        INTEGER,
		status                TEXT NOT NULL,
		donation_type         TEXT NOT NULL,
		target_classification TEXT NOT NULL,
		created_by            UUID NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS claims (
		id          UUID PRIMARY KEY,
		family_id   UUID NOT NULL REFERENCES families(id),
		schedule_id UUID NOT NULL REFERENCES donation_schedules(id),
		barangay_id UUID NOT NULL,
		claimant_id UUID NOT NULL,
		member_id   UUID,
		status      TEXT NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		verified_by UUID,
		verified_at TIMESTAMPTZ,
		claimed_at  TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_active_family_schedule
		ON claims (family_id, schedule_id) WHERE status <> 'REJECTED'`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		id          UUID PRIMARY KEY,
		actor_id    UUID,
		action      TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema. Safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
