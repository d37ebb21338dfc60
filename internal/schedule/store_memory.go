package schedule

import (
	"context"
	"sort"
	"sync"

	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
)

// InMemoryStore backs tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[id.ScheduleID]*Schedule
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.ScheduleID]*Schedule)}
}

func (s *InMemoryStore) Create(_ context.Context, sched *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sched.ID]; ok {
		return sentinel.ErrDuplicate
	}
	s.byID[sched.ID] = copySchedule(sched)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, scheduleID id.ScheduleID) (*Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.byID[scheduleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copySchedule(sched), nil
}

func (s *InMemoryStore) Update(_ context.Context, sched *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sched.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[sched.ID] = copySchedule(sched)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, scheduleID id.ScheduleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[scheduleID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, scheduleID)
	return nil
}

func (s *InMemoryStore) ListByBarangay(_ context.Context, barangayID id.BarangayID) ([]*Schedule, error) {
	return s.list(barangayID, false), nil
}

func (s *InMemoryStore) ListOpenByBarangay(_ context.Context, barangayID id.BarangayID) ([]*Schedule, error) {
	return s.list(barangayID, true), nil
}

func (s *InMemoryStore) list(barangayID id.BarangayID, openOnly bool) []*Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Schedule, 0)
	for _, sched := range s.byID {
		if sched.Barangay != barangayID {
			continue
		}
		if openOnly && sched.Status != StatusScheduled {
			continue
		}
		out = append(out, copySchedule(sched))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func copySchedule(sched *Schedule) *Schedule {
	cp := *sched
	if sched.MaxRecipients != nil {
		v := *sched.MaxRecipients
		cp.MaxRecipients = &v
	}
	return &cp
}
