package family

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

// PostgresStore persists families. The unique constraint on head_id enforces
// the one-family-per-head invariant under concurrent creates.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfHeadAvailable(ctx context.Context, f *Family) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO families (id, barangay_id, head_id, classification, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(f.ID), uuid.UUID(f.Barangay), uuid.UUID(f.HeadID),
		string(f.Classification), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert family: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, familyID id.FamilyID) (*Family, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, barangay_id, head_id, classification, created_at, updated_at
		FROM families WHERE id = $1
	`, uuid.UUID(familyID))
	return scanFamily(row)
}

func (s *PostgresStore) FindByHead(ctx context.Context, headID id.UserID) (*Family, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, barangay_id, head_id, classification, created_at, updated_at
		FROM families WHERE head_id = $1
	`, uuid.UUID(headID))
	return scanFamily(row)
}

func (s *PostgresStore) ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*Family, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, barangay_id, head_id, classification, created_at, updated_at
		FROM families WHERE barangay_id = $1 ORDER BY created_at
	`, uuid.UUID(barangayID))
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var out []*Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, f *Family) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE families SET classification = $2, updated_at = $3 WHERE id = $1
	`, uuid.UUID(f.ID), string(f.Classification), f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update family: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update family: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFamily(row rowScanner) (*Family, error) {
	var (
		f              Family
		rawID          uuid.UUID
		barangayID     uuid.UUID
		headID         uuid.UUID
		classification string
	)
	err := row.Scan(&rawID, &barangayID, &headID, &classification, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan family: %w", err)
	}
	f.ID = id.FamilyID(rawID)
	f.Barangay = id.BarangayID(barangayID)
	f.HeadID = id.UserID(headID)
	f.Classification = Classification(classification)
	return &f, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// PostgresMemberStore persists members and their attributes. Attribute rows
// live in member_attributes and are rewritten as a set on update, inside one
// transaction with the member row.
type PostgresMemberStore struct {
	db *sql.DB
}

func NewPostgresMemberStore(db *sql.DB) *PostgresMemberStore {
	return &PostgresMemberStore{db: db}
}

func (s *PostgresMemberStore) Create(ctx context.Context, m *Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO family_members (id, family_id, name, relation, age, is_student,
			education_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.UUID(m.ID), uuid.UUID(m.FamilyID), m.Name, string(m.Relation),
		nullableInt(m.Age), m.IsStudent, m.EducationLevel, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	if err := insertAttributes(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresMemberStore) FindByID(ctx context.Context, memberID id.MemberID) (*Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, family_id, name, relation, age, is_student, education_level,
			created_at, updated_at
		FROM family_members WHERE id = $1
	`, uuid.UUID(memberID))
	m, err := scanMember(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadAttributes(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresMemberStore) ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, family_id, name, relation, age, is_student, education_level,
			created_at, updated_at
		FROM family_members WHERE family_id = $1 ORDER BY created_at
	`, uuid.UUID(familyID))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range out {
		if err := s.loadAttributes(ctx, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresMemberStore) Update(ctx context.Context, m *Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE family_members SET name = $2, relation = $3, age = $4, is_student = $5,
			education_level = $6, updated_at = $7
		WHERE id = $1
	`, uuid.UUID(m.ID), m.Name, string(m.Relation), nullableInt(m.Age),
		m.IsStudent, m.EducationLevel, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM member_attributes WHERE member_id = $1`, uuid.UUID(m.ID)); err != nil {
		return fmt.Errorf("clear member attributes: %w", err)
	}
	if err := insertAttributes(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresMemberStore) loadAttributes(ctx context.Context, m *Member) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, evidence_ref, status, submitted_at, decided_at, decided_by
		FROM member_attributes WHERE member_id = $1 ORDER BY kind
	`, uuid.UUID(m.ID))
	if err != nil {
		return fmt.Errorf("load member attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			attr      VerifiableAttribute
			kind      string
			status    string
			decidedAt sql.NullTime
			decidedBy uuid.NullUUID
		)
		if err := rows.Scan(&kind, &attr.EvidenceRef, &status, &attr.SubmittedAt,
			&decidedAt, &decidedBy); err != nil {
			return fmt.Errorf("scan member attribute: %w", err)
		}
		attr.Kind = AttributeKind(kind)
		attr.Status = VerificationStatus(status)
		if decidedAt.Valid {
			t := decidedAt.Time
			attr.DecidedAt = &t
		}
		if decidedBy.Valid {
			uid := id.UserID(decidedBy.UUID)
			attr.DecidedBy = &uid
		}
		m.Attributes = append(m.Attributes, attr)
	}
	return rows.Err()
}

func insertAttributes(ctx context.Context, tx *sql.Tx, m *Member) error {
	for _, attr := range m.Attributes {
		var decidedBy uuid.NullUUID
		if attr.DecidedBy != nil {
			decidedBy = uuid.NullUUID{UUID: uuid.UUID(*attr.DecidedBy), Valid: true}
		}
		var decidedAt sql.NullTime
		if attr.DecidedAt != nil {
			decidedAt = sql.NullTime{Time: *attr.DecidedAt, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO member_attributes (member_id, kind, evidence_ref, status,
				submitted_at, decided_at, decided_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.UUID(m.ID), string(attr.Kind), attr.EvidenceRef, string(attr.Status),
			attr.SubmittedAt, decidedAt, decidedBy)
		if err != nil {
			return fmt.Errorf("insert member attribute: %w", err)
		}
	}
	return nil
}

func scanMember(row rowScanner) (*Member, error) {
	var (
		m        Member
		rawID    uuid.UUID
		familyID uuid.UUID
		relation string
		age      sql.NullInt64
	)
	err := row.Scan(&rawID, &familyID, &m.Name, &relation, &age, &m.IsStudent,
		&m.EducationLevel, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.ID = id.MemberID(rawID)
	m.FamilyID = id.FamilyID(familyID)
	m.Relation = Relation(relation)
	if age.Valid {
		a := int(age.Int64)
		m.Age = &a
	}
	return &m, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
