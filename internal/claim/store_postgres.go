package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

const claimColumns = `id, family_id, schedule_id, barangay_id, claimant_id, member_id,
	status, notes, verified_by, verified_at, claimed_at, created_at, updated_at`

// PostgresStore persists claims on a pgx pool. The partial unique index on
// (family_id, schedule_id) WHERE status <> 'REJECTED' is what makes Create
// safe under concurrent callers.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, c *Claim) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID.String(), c.Family.String(), c.Schedule.String(), c.Barangay.String(),
		c.Claimant.String(), nullableMemberID(c.Member), string(c.Status), c.Notes,
		nullableUserID(c.VerifiedBy), c.VerifiedAt, c.ClaimedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("inserting claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, claimID id.ClaimID) (*Claim, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+claimColumns+` FROM claims WHERE id = $1`, claimID.String())
	c, err := scanClaim(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting claim: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Update(ctx context.Context, c *Claim) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE claims
		SET status = $2, notes = $3, verified_by = $4, verified_at = $5,
			claimed_at = $6, updated_at = $7
		WHERE id = $1`,
		c.ID.String(), string(c.Status), c.Notes, nullableUserID(c.VerifiedBy),
		c.VerifiedAt, c.ClaimedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*Claim, error) {
	return s.query(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE family_id = $1 ORDER BY created_at`, familyID.String())
}

func (s *PostgresStore) ListBySchedule(ctx context.Context, scheduleID id.ScheduleID) ([]*Claim, error) {
	return s.query(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE schedule_id = $1 ORDER BY created_at`, scheduleID.String())
}

func (s *PostgresStore) CountBySchedule(ctx context.Context, scheduleID id.ScheduleID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM claims WHERE schedule_id = $1`, scheduleID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting claims: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountActiveBySchedule(ctx context.Context, scheduleID id.ScheduleID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM claims
		WHERE schedule_id = $1 AND status <> $2`,
		scheduleID.String(), string(StatusRejected)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting active claims: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) FindActive(ctx context.Context, familyID id.FamilyID, scheduleID id.ScheduleID) (*Claim, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE family_id = $1 AND schedule_id = $2 AND status <> $3`,
		familyID.String(), scheduleID.String(), string(StatusRejected))
	c, err := scanClaim(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting active claim: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]*Claim, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting claims: %w", err)
	}
	defer rows.Close()

	out := make([]*Claim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClaim(row pgx.Row) (*Claim, error) {
	var (
		c                             Claim
		claimID, familyID, scheduleID string
		barangayID, claimantID        string
		memberID, verifiedBy          *string
		status                        string
		verifiedAt, claimedAt         *time.Time
	)
	err := row.Scan(&claimID, &familyID, &scheduleID, &barangayID, &claimantID,
		&memberID, &status, &c.Notes, &verifiedBy, &verifiedAt, &claimedAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.ID, err = id.ParseClaimID(claimID); err != nil {
		return nil, err
	}
	if c.Family, err = id.ParseFamilyID(familyID); err != nil {
		return nil, err
	}
	if c.Schedule, err = id.ParseScheduleID(scheduleID); err != nil {
		return nil, err
	}
	if c.Barangay, err = id.ParseBarangayID(barangayID); err != nil {
		return nil, err
	}
	if c.Claimant, err = id.ParseUserID(claimantID); err != nil {
		return nil, err
	}
	if memberID != nil {
		v, err := id.ParseMemberID(*memberID)
		if err != nil {
			return nil, err
		}
		c.Member = &v
	}
	if verifiedBy != nil {
		v, err := id.ParseUserID(*verifiedBy)
		if err != nil {
			return nil, err
		}
		c.VerifiedBy = &v
	}
	c.Status = Status(status)
	c.VerifiedAt = verifiedAt
	c.ClaimedAt = claimedAt
	return &c, nil
}

func nullableMemberID(v *id.MemberID) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func nullableUserID(v *id.UserID) any {
	if v == nil {
		return nil
	}
	return v.String()
}
