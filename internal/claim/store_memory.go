package claim

import (
	"context"
	"sort"
	"sync"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

// InMemoryStore backs tests and local runs. The mutex spans the uniqueness
// check and the insert, which gives the same atomicity the partial unique
// index gives the Postgres store.
type InMemoryStore struct {
	mu   sync.Mutex
	byID map[id.ClaimID]*Claim
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.ClaimID]*Claim)}
}

func (s *InMemoryStore) Create(_ context.Context, c *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Family == c.Family && existing.Schedule == c.Schedule &&
			existing.Status != StatusRejected {
			return sentinel.ErrDuplicate
		}
	}
	s.byID[c.ID] = copyClaim(c)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, claimID id.ClaimID) (*Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyClaim(c), nil
}

func (s *InMemoryStore) Update(_ context.Context, c *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[c.ID] = copyClaim(c)
	return nil
}

func (s *InMemoryStore) ListByFamily(_ context.Context, familyID id.FamilyID) ([]*Claim, error) {
	return s.filter(func(c *Claim) bool { return c.Family == familyID }), nil
}

func (s *InMemoryStore) ListBySchedule(_ context.Context, scheduleID id.ScheduleID) ([]*Claim, error) {
	return s.filter(func(c *Claim) bool { return c.Schedule == scheduleID }), nil
}

func (s *InMemoryStore) CountBySchedule(_ context.Context, scheduleID id.ScheduleID) (int, error) {
	return len(s.filter(func(c *Claim) bool { return c.Schedule == scheduleID })), nil
}

func (s *InMemoryStore) CountActiveBySchedule(_ context.Context, scheduleID id.ScheduleID) (int, error) {
	return len(s.filter(func(c *Claim) bool {
		return c.Schedule == scheduleID && c.Status != StatusRejected
	})), nil
}

func (s *InMemoryStore) FindActive(_ context.Context, familyID id.FamilyID, scheduleID id.ScheduleID) (*Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Family == familyID && c.Schedule == scheduleID && c.Status != StatusRejected {
			return copyClaim(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) filter(keep func(*Claim) bool) []*Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Claim, 0)
	for _, c := range s.byID {
		if keep(c) {
			out = append(out, copyClaim(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func copyClaim(c *Claim) *Claim {
	cp := *c
	if c.Member != nil {
		v := *c.Member
		cp.Member = &v
	}
	if c.VerifiedBy != nil {
		v := *c.VerifiedBy
		cp.VerifiedBy = &v
	}
	if c.VerifiedAt != nil {
		v := *c.VerifiedAt
		cp.VerifiedAt = &v
	}
	if c.ClaimedAt != nil {
		v := *c.ClaimedAt
		cp.ClaimedAt = &v
	}
	return &cp
}
