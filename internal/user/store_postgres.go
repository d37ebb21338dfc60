package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, barangay_id, role, first_name, last_name, phone,
	password_hash, is_active, marital_status, residency, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, uuid.UUID(u.ID), nullableBarangayID(u.Barangay), string(u.Role), u.FirstName,
		u.LastName, u.Phone, u.PasswordHash, u.IsActive, string(u.MaritalStatus),
		string(u.Residency), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *PostgresStore) Update(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET barangay_id = $2, role = $3, first_name = $4, last_name = $5,
			phone = $6, password_hash = $7, is_active = $8, marital_status = $9,
			residency = $10, updated_at = $11
		WHERE id = $1
	`, uuid.UUID(u.ID), nullableBarangayID(u.Barangay), string(u.Role), u.FirstName,
		u.LastName, u.Phone, u.PasswordHash, u.IsActive, string(u.MaritalStatus),
		string(u.Residency), u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE role = $1 AND NOT is_active ORDER BY created_at
	`, string(RoleResident))
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (s *PostgresStore) ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE barangay_id = $1 ORDER BY created_at
	`, uuid.UUID(barangayID))
	if err != nil {
		return nil, fmt.Errorf("list users by barangay: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u          User
		rawID      uuid.UUID
		barangayID uuid.NullUUID
		role       string
		marital    string
		residency  string
	)
	err := row.Scan(&rawID, &barangayID, &role, &u.FirstName, &u.LastName, &u.Phone,
		&u.PasswordHash, &u.IsActive, &marital, &residency, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	if barangayID.Valid {
		bid := id.BarangayID(barangayID.UUID)
		u.Barangay = &bid
	}
	u.Role = Role(role)
	u.MaritalStatus = MaritalStatus(marital)
	u.Residency = Residency(residency)
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]*User, error) {
	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullableBarangayID(b *id.BarangayID) uuid.NullUUID {
	if b == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*b), Valid: true}
}
