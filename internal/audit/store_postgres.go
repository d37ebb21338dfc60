package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "bayanihan/pkg/domain"
)

// PostgresStore persists audit events. Rows are append-only; there is no
// update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor_id, action, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), uuid.UUID(event.ActorID), string(event.Action), event.Detail, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actorID id.UserID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT actor_id, action, detail, occurred_at
		FROM audit_events WHERE actor_id = $1 ORDER BY occurred_at
	`, uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT actor_id, action, detail, occurred_at
		FROM audit_events ORDER BY occurred_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var (
			e       Event
			actorID uuid.UUID
			action  string
		)
		if err := rows.Scan(&actorID, &action, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.ActorID = id.UserID(actorID)
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
