package family

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bayanihan/internal/actor"
	"bayanihan/internal/audit"
	"bayanihan/internal/platform/metrics"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
	"bayanihan/pkg/platform/sentinel"
)

// AuditPublisher records workflow transitions. Failures are logged, never
// propagated.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates households, the classification registry and the
// attribute verification workflow. Classification and verification decisions
// are capabilities of the managing barangay's staff; cross-tenant access is
// reported as not-found so existence never leaks across barangays.
type Service struct {
	families Store
	members  MemberStore
	logger   *slog.Logger
	audit    AuditPublisher
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(families Store, members MemberStore, opts ...Option) *Service {
	s := &Service{families: families, members: members}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFamily registers the resident as head of a new family in their own
// barangay. A resident heads at most one family.
func (s *Service) CreateFamily(ctx context.Context, res actor.Resident) (*Family, error) {
	f := NewFamily(id.FamilyID(uuid.New()), res.Barangay, res.ID, time.Now())
	if err := s.families.CreateIfHeadAvailable(ctx, f); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "resident already heads a family")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create family")
	}
	s.logAudit(ctx, res.ID, audit.ActionFamilyCreated, "family "+f.ID.String())
	return f, nil
}

// Get returns a family by id.
func (s *Service) Get(ctx context.Context, familyID id.FamilyID) (*Family, error) {
	return s.loadFamily(ctx, familyID)
}

// FamilyOfHead returns the family the given resident heads.
func (s *Service) FamilyOfHead(ctx context.Context, headID id.UserID) (*Family, error) {
	f, err := s.families.FindByHead(ctx, headID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load family")
	}
	return f, nil
}

// AddMember adds a person to the resident's own family.
func (s *Service) AddMember(ctx context.Context, res actor.Resident, familyID id.FamilyID, in MemberInput) (*Member, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	f, err := s.ownedFamily(ctx, res, familyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m := &Member{
		ID:             id.MemberID(uuid.New()),
		FamilyID:       f.ID,
		Name:           in.Name,
		Relation:       in.Relation,
		Age:            in.Age,
		IsStudent:      in.IsStudent,
		EducationLevel: in.EducationLevel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add member")
	}
	s.logAudit(ctx, res.ID, audit.ActionMemberAdded, "member "+m.ID.String()+" of family "+f.ID.String())
	return m, nil
}

// Members lists a family's members with their attributes.
func (s *Service) Members(ctx context.Context, familyID id.FamilyID) ([]*Member, error) {
	out, err := s.members.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return out, nil
}

// SubmitAttribute enters a member's special-status flag into PENDING review.
// The evidence reference is required at submission time and the senior kind
// additionally requires age 60 or above.
func (s *Service) SubmitAttribute(ctx context.Context, res actor.Resident, memberID id.MemberID, kind AttributeKind, evidenceRef string) (*Member, error) {
	m, _, err := s.ownedMember(ctx, res, memberID)
	if err != nil {
		return nil, err
	}
	if err := m.CanSubmitAttribute(kind, evidenceRef); err != nil {
		return nil, err
	}
	m.ApplySubmitAttribute(kind, evidenceRef, time.Now())
	if err := s.members.Update(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit attribute")
	}
	s.logAudit(ctx, res.ID, audit.ActionAttributeSubmitted,
		string(kind)+" for member "+memberID.String())
	return m, nil
}

// ClearAttribute removes a submission so the member can restart the workflow
// with fresh evidence. This is the only path past a decided attribute.
func (s *Service) ClearAttribute(ctx context.Context, res actor.Resident, memberID id.MemberID, kind AttributeKind) (*Member, error) {
	m, _, err := s.ownedMember(ctx, res, memberID)
	if err != nil {
		return nil, err
	}
	if err := m.ClearAttribute(kind, time.Now()); err != nil {
		return nil, err
	}
	if err := s.members.Update(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear attribute")
	}
	return m, nil
}

// DecideAttribute records staff approval or rejection of a PENDING
// submission. One decision per submission; only staff of the member's own
// barangay may decide.
func (s *Service) DecideAttribute(ctx context.Context, staff actor.Staff, memberID id.MemberID, kind AttributeKind, approve bool) (*Member, error) {
	m, err := s.findMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	f, err := s.loadFamily(ctx, m.FamilyID)
	if err != nil {
		return nil, err
	}
	if !staff.Manages(f.Barangay) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err := m.CanDecideAttribute(kind); err != nil {
		return nil, err
	}
	m.ApplyDecideAttribute(kind, approve, staff.ID, time.Now())
	if err := s.members.Update(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record decision")
	}

	action := audit.ActionAttributeApproved
	decision := "approved"
	if !approve {
		action = audit.ActionAttributeRejected
		decision = "rejected"
	}
	s.logAudit(ctx, staff.ID, action, string(kind)+" for member "+memberID.String())
	if s.metrics != nil {
		s.metrics.AttributeDecisions.WithLabelValues(string(kind), decision).Inc()
	}
	return m, nil
}

// SetClassification assigns the family's wealth tier. Only staff of the
// family's barangay may classify.
func (s *Service) SetClassification(ctx context.Context, staff actor.Staff, familyID id.FamilyID, c Classification) (*Family, error) {
	if !validClassifications[c] {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown classification %q", c)
	}
	f, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if !staff.Manages(f.Barangay) {
		return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
	}

	f.Classification = c
	f.UpdatedAt = time.Now()
	if err := s.families.Update(ctx, f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set classification")
	}
	s.logAudit(ctx, staff.ID, audit.ActionClassificationSet,
		"family "+familyID.String()+" to "+string(c))
	return f, nil
}

// GetClassification reads the family's current tier.
func (s *Service) GetClassification(ctx context.Context, familyID id.FamilyID) (Classification, error) {
	f, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return "", err
	}
	return f.Classification, nil
}

func (s *Service) loadFamily(ctx context.Context, familyID id.FamilyID) (*Family, error) {
	f, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load family")
	}
	return f, nil
}

func (s *Service) findMember(ctx context.Context, memberID id.MemberID) (*Member, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

// ownedFamily loads a family and checks the resident heads it. Non-owned
// families are indistinguishable from absent ones.
func (s *Service) ownedFamily(ctx context.Context, res actor.Resident, familyID id.FamilyID) (*Family, error) {
	f, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if f.HeadID != res.ID {
		return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
	}
	return f, nil
}

func (s *Service) ownedMember(ctx context.Context, res actor.Resident, memberID id.MemberID) (*Member, *Family, error) {
	m, err := s.findMember(ctx, memberID)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.loadFamily(ctx, m.FamilyID)
	if err != nil {
		return nil, nil, err
	}
	if f.HeadID != res.ID {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	return m, f, nil
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
