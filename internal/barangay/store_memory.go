package barangay

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

// InMemoryStore is the development and test store.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.BarangayID]*Barangay
	byCode map[string]id.BarangayID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.BarangayID]*Barangay),
		byCode: make(map[string]id.BarangayID),
	}
}

func (s *InMemoryStore) CreateIfCodeAvailable(_ context.Context, b *Barangay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(b.Code)
	if _, taken := s.byCode[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	cp := *b
	s.byID[b.ID] = &cp
	s.byCode[key] = b.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, barangayID id.BarangayID) (*Barangay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[barangayID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*Barangay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	barangayID, ok := s.byCode[strings.ToLower(code)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[barangayID]
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, b *Barangay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[b.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *b
	s.byID[b.ID] = &cp
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Barangay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Barangay, 0, len(s.byID))
	for _, b := range s.byID {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
