package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fellowship/internal/group/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

// InMemoryStore keeps groups and memberships in maps. Membership rows go away with their group.
type InMemoryStore struct {
	mu      sync.RWMutex
	groups  map[id.GroupID]*models.Group
	members map[id.GroupID]map[id.UserID]*models.Member
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		groups:  make(map[id.GroupID]*models.Group),
		members: make(map[id.GroupID]map[id.UserID]*models.Member),
	}
}

func (s *InMemoryStore) Create(_ context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.groups[g.ID] = cloneGroup(g)
	s.members[g.ID] = make(map[id.UserID]*models.Member)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, groupID id.GroupID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneGroup(g), nil
}

// LockByID is FindByID; writers are serialized by the transaction runner.
func (s *InMemoryStore) LockByID(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	return s.FindByID(ctx, groupID)
}

func (s *InMemoryStore) Update(_ context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.groups[g.ID] = cloneGroup(g)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.members, groupID)
	delete(s.groups, groupID)
	return nil
}

func (s *InMemoryStore) Touch(_ context.Context, groupID id.GroupID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if at.After(g.UpdatedAt) {
		g.UpdatedAt = at
	}
	return nil
}

func (s *InMemoryStore) ListForUser(_ context.Context, userID id.UserID) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupsForLocked(userID, ""), nil
}

func (s *InMemoryStore) SearchForUser(_ context.Context, userID id.UserID, term string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupsForLocked(userID, strings.ToLower(strings.TrimSpace(term))), nil
}

func (s *InMemoryStore) groupsForLocked(userID id.UserID, needle string) []*models.Group {
	var out []*models.Group
	for groupID, members := range s.members {
		if _, ok := members[userID]; !ok {
			continue
		}
		g := s.groups[groupID]
		if needle != "" && !strings.Contains(strings.ToLower(g.Name), needle) {
			continue
		}
		out = append(out, cloneGroup(g))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *InMemoryStore) AddMember(_ context.Context, m *models.Member) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[m.GroupID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if _, exists := members[m.UserID]; exists {
		return false, nil
	}
	cp := *m
	members[m.UserID] = &cp
	return true, nil
}

func (s *InMemoryStore) FindMember(_ context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[groupID][userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemoryStore) ListMembers(_ context.Context, groupID id.GroupID) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.members[groupID]))
	for _, m := range s.members[groupID] {
		cp := *m
		out = append(out, &cp)
	}
	models.SortMembers(out)
	return out, nil
}

func (s *InMemoryStore) RemoveMember(_ context.Context, groupID id.GroupID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[groupID][userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.members[groupID], userID)
	return nil
}

func (s *InMemoryStore) SetAdmin(_ context.Context, groupID id.GroupID, userID id.UserID, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[groupID][userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.IsAdmin = isAdmin
	return nil
}

func (s *InMemoryStore) CountMembers(_ context.Context, groupID id.GroupID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members[groupID]), nil
}

func cloneGroup(g *models.Group) *models.Group {
	cp := *g
	if g.Description != nil {
		v := *g.Description
		cp.Description = &v
	}
	if g.AvatarURL != nil {
		v := *g.AvatarURL
		cp.AvatarURL = &v
	}
	return &cp
}
