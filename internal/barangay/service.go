package barangay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bayanihan/internal/actor"
	"bayanihan/internal/audit"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
	"bayanihan/pkg/platform/sentinel"
)

// AuditPublisher records administrative actions. Failures are logged, never
// propagated.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the barangay registry. Creation and manager assignment are
// admin capabilities.
type Service struct {
	store  Store
	logger *slog.Logger
	audit  AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new barangay with a unique code.
func (s *Service) Create(ctx context.Context, adm actor.Admin, name, code string) (*Barangay, error) {
	b, err := NewBarangay(id.BarangayID(uuid.New()), name, code, time.Now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.store.CreateIfCodeAvailable(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "barangay code must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create barangay")
	}

	s.logAudit(ctx, adm.ID, audit.ActionBarangayCreated, "barangay "+b.Code)
	return b, nil
}

// AssignManager points a barangay at its managing staff account.
func (s *Service) AssignManager(ctx context.Context, adm actor.Admin, barangayID id.BarangayID, managerID id.UserID) (*Barangay, error) {
	b, err := s.store.FindByID(ctx, barangayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "barangay not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load barangay")
	}

	b.ManagerID = &managerID
	b.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign manager")
	}

	s.logAudit(ctx, adm.ID, audit.ActionManagerAssigned, "barangay "+b.Code+" manager "+managerID.String())
	return b, nil
}

// Get returns a barangay by id.
func (s *Service) Get(ctx context.Context, barangayID id.BarangayID) (*Barangay, error) {
	b, err := s.store.FindByID(ctx, barangayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "barangay not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load barangay")
	}
	return b, nil
}

// Exists reports whether a barangay exists without loading it for callers
// that only validate references.
func (s *Service) Exists(ctx context.Context, barangayID id.BarangayID) (bool, error) {
	_, err := s.store.FindByID(ctx, barangayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns all barangays ordered by code.
func (s *Service) List(ctx context.Context) ([]*Barangay, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list barangays")
	}
	return out, nil
}

func (s *Service) logAudit(ctx context.Context, actorID id.UserID, action audit.Action, detail string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"actor_id", actorID.String(), "detail", detail, "log_type", "audit")
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.Event{ActorID: actorID, Action: action, Detail: detail}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
