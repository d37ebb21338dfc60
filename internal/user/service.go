package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bayanihan/internal/actor"
	"bayanihan/internal/audit"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
	"bayanihan/pkg/platform/sentinel"
)

// BarangayChecker validates that a referenced barangay exists.
type BarangayChecker interface {
	Exists(ctx context.Context, barangayID id.BarangayID) (bool, error)
}

// AuditPublisher records account actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles registration, approval and staff provisioning.
type Service struct {
	store     Store
	barangays BarangayChecker
	logger    *slog.Logger
	audit     AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func New(store Store, barangays BarangayChecker, opts ...Option) *Service {
	s := &Service{store: store, barangays: barangays}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a resident account pending admin approval. The account is
// inactive until approved and cannot create families or claims before then.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if exists, err := s.barangays.Exists(ctx, in.Barangay); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check barangay")
	} else if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "barangay not found")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	maritalStatus := in.MaritalStatus
	if maritalStatus == "" {
		maritalStatus = MaritalSingle
	}
	residency := in.Residency
	if residency == "" {
		residency = ResidencyGeneral
	}

	now := time.Now()
	barangayID := in.Barangay
	u := &User{
		ID:            id.UserID(uuid.New()),
		Barangay:      &barangayID,
		Role:          RoleResident,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Phone:         in.Phone,
		PasswordHash:  string(hash),
		IsActive:      false,
		MaritalStatus: maritalStatus,
		Residency:     residency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, u.ID, audit.ActionUserRegistered, "resident registration")
	return u, nil
}

// ApproveResident activates a pending resident account.
func (s *Service) ApproveResident(ctx context.Context, adm actor.Admin, residentID id.UserID) (*User, error) {
	u, err := s.store.FindByID(ctx, residentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if u.Role != RoleResident {
		return nil, dErrors.New(dErrors.CodeValidation, "only resident accounts require approval")
	}
	if u.IsActive {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "resident is already active")
	}

	u.IsActive = true
	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve resident")
	}

	s.logAudit(ctx, adm.ID, audit.ActionResidentApproved, "resident "+residentID.String())
	return u, nil
}

// CreateStaff provisions an active BARANGAY account scoped to one barangay.
func (s *Service) CreateStaff(ctx context.Context, adm actor.Admin, firstName, lastName, phone, password string, barangayID id.BarangayID) (*User, error) {
	in := RegisterInput{
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		Password:  password,
		Barangay:  barangayID,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if exists, err := s.barangays.Exists(ctx, barangayID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check barangay")
	} else if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "barangay not found")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := time.Now()
	u := &User{
		ID:            id.UserID(uuid.New()),
		Barangay:      &barangayID,
		Role:          RoleBarangay,
		FirstName:     firstName,
		LastName:      lastName,
		Phone:         phone,
		PasswordHash:  string(hash),
		IsActive:      true,
		MaritalStatus: MaritalSingle,
		Residency:     ResidencyGeneral,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create staff account")
	}

	s.logAudit(ctx, adm.ID, audit.ActionUserRegistered, "staff account for barangay "+barangayID.String())
	return u, nil
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// ListPending returns resident accounts awaiting approval.
func (s *Service) ListPending(ctx context.Context, _ actor.Admin) ([]*User, error) {
	out, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending residents")
	}
	return out, nil
}

// ActorFor builds the typed actor for a loaded account. Inactive residents
// get no actor: they cannot invoke core operations until approved.
func ActorFor(u *User) (actor.Actor, error) {
	switch u.Role {
	case RoleAdmin:
		return actor.Admin{ID: u.ID}, nil
	case RoleBarangay:
		if u.Barangay == nil {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "barangay staff must manage a barangay")
		}
		return actor.Staff{ID: u.ID, Barangay: *u.Barangay}, nil
	case RoleResident:
		if !u.IsActive {
			return nil, dErrors.New(dErrors.CodeForbidden, "resident account is pending approval")
		}
		if u.Barangay == nil {
			return nil, dErrors.New(dErrors.CodeForbidden, "resident is not assigned to a barangay")
		}
		return actor.Resident{ID: u.ID, Barangay: *u.Barangay}, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown role %q", u.Role)
	}
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
