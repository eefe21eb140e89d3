package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"fellowship/internal/directory"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

// InMemoryStore is a directory for development and tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*directory.User
}

func NewInMemoryStore(users ...*directory.User) *InMemoryStore {
	s := &InMemoryStore{users: make(map[id.UserID]*directory.User)}
	for _, u := range users {
		s.Put(u)
	}
	return s
}

// Put inserts or replaces a user profile.
func (s *InMemoryStore) Put(user *directory.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryStore) FindByIDs(_ context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.UserID]*directory.User, len(userIDs))
	for _, userID := range userIDs {
		if u, ok := s.users[userID]; ok {
			cp := *u
			out[userID] = &cp
		}
	}
	return out, nil
}

func (s *InMemoryStore) Search(_ context.Context, term string, excludeID id.UserID, limit int) ([]*directory.User, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*directory.User
	for _, u := range s.users {
		if u.ID == excludeID || !matches(u, needle) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID.Less(out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matches(u *directory.User, needle string) bool {
	if needle == "" {
		return false
	}
	full := strings.ToLower(u.FirstName + " " + u.LastName)
	return strings.Contains(full, needle) || strings.Contains(strings.ToLower(u.Email), needle)
}
