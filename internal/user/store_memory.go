package user

import (
	"context"
	"sort"
	"sync"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[id.UserID]*User)}
}

func (s *InMemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListPending(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*User
	for _, u := range s.users {
		if u.Role == RoleResident && !u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *InMemoryStore) ListByBarangay(_ context.Context, barangayID id.BarangayID) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*User
	for _, u := range s.users {
		if u.Barangay != nil && *u.Barangay == barangayID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sortUsers(out)
	return out, nil
}

func sortUsers(users []*User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
