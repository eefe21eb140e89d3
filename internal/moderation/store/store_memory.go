package store

import (
	"context"
	"sync"

	"fellowship/internal/moderation/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[id.ReportID]*models.Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[id.ReportID]*models.Report)}
}

func (s *InMemoryStore) Create(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.reports[r.ID] = clone(r)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, reportID id.ReportID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemoryStore) Save(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.reports[r.ID] = clone(r)
	return nil
}

// List returns reports matching filter, newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Report, error) {
	s.mu.RLock()
	out := make([]*models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if filter.Matches(r) {
			out = append(out, clone(r))
		}
	}
	s.mu.RUnlock()
	models.NewestFirst(out)
	return out, nil
}

func clone(r *models.Report) *models.Report {
	cp := *r
	if r.Details != nil {
		d := *r.Details
		cp.Details = &d
	}
	if r.ReviewedAt != nil {
		at := *r.ReviewedAt
		cp.ReviewedAt = &at
	}
	return &cp
}
