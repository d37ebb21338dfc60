package family

import (
	"context"
	"sort"
	"sync"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

// InMemoryStore is the development and test family store.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.FamilyID]*Family
	byHead map[id.UserID]id.FamilyID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.FamilyID]*Family),
		byHead: make(map[id.UserID]id.FamilyID),
	}
}

func (s *InMemoryStore) CreateIfHeadAvailable(_ context.Context, f *Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byHead[f.HeadID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	cp := *f
	s.byID[f.ID] = &cp
	s.byHead[f.HeadID] = f.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, familyID id.FamilyID) (*Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.byID[familyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *InMemoryStore) FindByHead(_ context.Context, headID id.UserID) (*Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	familyID, ok := s.byHead[headID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[familyID]
	return &cp, nil
}

func (s *InMemoryStore) ListByBarangay(_ context.Context, barangayID id.BarangayID) ([]*Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Family
	for _, f := range s.byID {
		if f.Barangay == barangayID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, f *Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[f.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *f
	s.byID[f.ID] = &cp
	return nil
}

// InMemoryMemberStore is the development and test member store.
type InMemoryMemberStore struct {
	mu      sync.RWMutex
	members map[id.MemberID]*Member
}

func NewInMemoryMemberStore() *InMemoryMemberStore {
	return &InMemoryMemberStore{members: make(map[id.MemberID]*Member)}
}

func copyMember(m *Member) *Member {
	cp := *m
	cp.Attributes = append([]VerifiableAttribute(nil), m.Attributes...)
	return &cp
}

func (s *InMemoryMemberStore) Create(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[m.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.members[m.ID] = copyMember(m)
	return nil
}

func (s *InMemoryMemberStore) FindByID(_ context.Context, memberID id.MemberID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyMember(m), nil
}

func (s *InMemoryMemberStore) ListByFamily(_ context.Context, familyID id.FamilyID) ([]*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Member
	for _, m := range s.members {
		if m.FamilyID == familyID {
			out = append(out, copyMember(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryMemberStore) Update(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.members[m.ID] = copyMember(m)
	return nil
}
