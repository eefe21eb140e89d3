package store

import (
	"context"
	"sync"

	"fellowship/internal/invite/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

// InMemoryStore indexes invites by code; codes are unique as in the Postgres index.
type InMemoryStore struct {
	mu     sync.RWMutex
	byCode map[string]*models.Invite
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byCode: make(map[string]*models.Invite)}
}

func (s *InMemoryStore) Create(_ context.Context, inv *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[inv.Code]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *inv
	s.byCode[inv.Code] = &cp
	return nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

// CodesByGroup lists the codes of every invite into groupID.
func (s *InMemoryStore) CodesByGroup(_ context.Context, groupID id.GroupID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var codes []string
	for code, inv := range s.byCode {
		if inv.GroupID == groupID {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// DeleteByGroup removes every invite into groupID.
func (s *InMemoryStore) DeleteByGroup(_ context.Context, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, inv := range s.byCode {
		if inv.GroupID == groupID {
			delete(s.byCode, code)
		}
	}
	return nil
}
