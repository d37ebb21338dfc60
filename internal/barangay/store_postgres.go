package barangay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

// PostgresStore persists barangays in PostgreSQL. Code uniqueness is enforced
// by the unique index on lower(code).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfCodeAvailable(ctx context.Context, b *Barangay) error {
	query := `
		INSERT INTO barangays (id, name, code, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(b.ID), b.Name, b.Code, nullableUserID(b.ManagerID), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert barangay: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, barangayID id.BarangayID) (*Barangay, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, code, manager_id, created_at, updated_at
		FROM barangays WHERE id = $1
	`, uuid.UUID(barangayID))
	return scanBarangay(row)
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*Barangay, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, code, manager_id, created_at, updated_at
		FROM barangays WHERE lower(code) = lower($1)
	`, code)
	return scanBarangay(row)
}

func (s *PostgresStore) Update(ctx context.Context, b *Barangay) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE barangays SET name = $2, code = $3, manager_id = $4, updated_at = $5
		WHERE id = $1
	`, uuid.UUID(b.ID), b.Name, b.Code, nullableUserID(b.ManagerID), b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update barangay: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update barangay: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Barangay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, code, manager_id, created_at, updated_at
		FROM barangays ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list barangays: %w", err)
	}
	defer rows.Close()

	var out []*Barangay
	for rows.Next() {
		b, err := scanBarangay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBarangay(row rowScanner) (*Barangay, error) {
	var (
		b         Barangay
		rawID     uuid.UUID
		managerID uuid.NullUUID
	)
	err := row.Scan(&rawID, &b.Name, &b.Code, &managerID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan barangay: %w", err)
	}
	b.ID = id.BarangayID(rawID)
	if managerID.Valid {
		mid := id.UserID(managerID.UUID)
		b.ManagerID = &mid
	}
	return &b, nil
}

func nullableUserID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
