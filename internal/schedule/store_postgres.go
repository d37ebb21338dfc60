package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

const scheduleColumns = `id, barangay_id, title, description, sched_date, start_time, end_time,
	location, max_recipients, status, donation_type, target_classification,
	created_by, created_at, updated_at`

// PostgresStore persists schedules.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, sched *Schedule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donation_schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		sched.ID.String(), sched.Barangay.String(), sched.Title, sched.Description,
		sched.Date, sched.StartTime, sched.EndTime, sched.Location,
		nullableInt(sched.MaxRecipients), string(sched.Status), string(sched.Type),
		string(sched.Target), sched.CreatedBy.String(), sched.CreatedAt, sched.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting schedule: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, scheduleID id.ScheduleID) (*Schedule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scheduleColumns+` FROM donation_schedules WHERE id = $1`,
		scheduleID.String())
	sched, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting schedule: %w", err)
	}
	return sched, nil
}

func (s *PostgresStore) Update(ctx context.Context, sched *Schedule) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE donation_schedules
		SET title = $2, description = $3, sched_date = $4, start_time = $5,
			end_time = $6, location = $7, max_recipients = $8, status = $9,
			donation_type = $10, target_classification = $11, updated_at = $12
		WHERE id = $1`,
		sched.ID.String(), sched.Title, sched.Description, sched.Date,
		sched.StartTime, sched.EndTime, sched.Location,
		nullableInt(sched.MaxRecipients), string(sched.Status),
		string(sched.Type), string(sched.Target), sched.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, scheduleID id.ScheduleID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM donation_schedules WHERE id = $1`, scheduleID.String())
	if err != nil {
		return fmt.Errorf("deleting schedule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*Schedule, error) {
	return s.query(ctx, `
		SELECT `+scheduleColumns+` FROM donation_schedules
		WHERE barangay_id = $1 ORDER BY sched_date`, barangayID.String())
}

func (s *PostgresStore) ListOpenByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*Schedule, error) {
	return s.query(ctx, `
		SELECT `+scheduleColumns+` FROM donation_schedules
		WHERE barangay_id = $1 AND status = $2 ORDER BY sched_date`,
		barangayID.String(), string(StatusScheduled))
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]*Schedule, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting schedules: %w", err)
	}
	defer rows.Close()

	out := make([]*Schedule, 0)
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		out = append(out, sched)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*Schedule, error) {
	var (
		sched                             Schedule
		scheduleID, barangayID, createdBy string
		status, donationType, targetClass string
		maxRecipients                     sql.NullInt64
	)
	err := row.Scan(&scheduleID, &barangayID, &sched.Title, &sched.Description,
		&sched.Date, &sched.StartTime, &sched.EndTime, &sched.Location,
		&maxRecipients, &status, &donationType, &targetClass,
		&createdBy, &sched.CreatedAt, &sched.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sched.ID, err = id.ParseScheduleID(scheduleID); err != nil {
		return nil, err
	}
	if sched.Barangay, err = id.ParseBarangayID(barangayID); err != nil {
		return nil, err
	}
	if sched.CreatedBy, err = id.ParseUserID(createdBy); err != nil {
		return nil, err
	}
	if maxRecipients.Valid {
		v := int(maxRecipients.Int64)
		sched.MaxRecipients = &v
	}
	sched.Status = Status(status)
	sched.Type = Type(donationType)
	sched.Target = Target(targetClass)
	return &sched, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
