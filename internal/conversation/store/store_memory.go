package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"fellowship/internal/conversation/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

// InMemoryStore enforces the active-pair uniqueness that Postgres enforces with a partial
// unique index.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[id.ConversationID]*models.Conversation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[id.ConversationID]*models.Conversation)}
}

func (s *InMemoryStore) FindOrCreate(_ context.Context, c *models.Conversation) (*models.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.activeByPairLocked(c.User1ID, c.User2ID); existing != nil {
		return clone(existing), false, nil
	}
	s.conversations[c.ID] = clone(c)
	return clone(c), true, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, convID id.ConversationID) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[convID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

// FindByIDForUpdate is FindByID; the transaction runner already serializes writers.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, convID id.ConversationID) (*models.Conversation, error) {
	return s.FindByID(ctx, convID)
}

func (s *InMemoryStore) FindActiveByPair(_ context.Context, a, b id.UserID) (*models.Conversation, error) {
	user1, user2 := id.CanonicalPair(a, b)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.activeByPairLocked(user1, user2); c != nil {
		return clone(c), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Save(_ context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if c.IsActive {
		if other := s.activeByPairLocked(c.User1ID, c.User2ID); other != nil && other.ID != c.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.conversations[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) Touch(_ context.Context, convID id.ConversationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[convID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.LastMessageAt == nil || at.After(*c.LastMessageAt) {
		t := at
		c.LastMessageAt = &t
	}
	c.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) ListActiveForUser(_ context.Context, userID id.UserID) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Conversation
	for _, c := range s.conversations {
		if c.IsActive && c.HasParticipant(userID) {
			out = append(out, clone(c))
		}
	}
	SortByActivity(out)
	return out, nil
}

func (s *InMemoryStore) activeByPairLocked(user1, user2 id.UserID) *models.Conversation {
	for _, c := range s.conversations {
		if c.IsActive && c.User1ID == user1 && c.User2ID == user2 {
			return c
		}
	}
	return nil
}

// SortByActivity orders conversations by last message time descending with never-messaged
// conversations last, newest first among those.
func SortByActivity(list []*models.Conversation) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.LastMessageAt != nil && b.LastMessageAt != nil:
			if !a.LastMessageAt.Equal(*b.LastMessageAt) {
				return a.LastMessageAt.After(*b.LastMessageAt)
			}
		case a.LastMessageAt != nil:
			return true
		case b.LastMessageAt != nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func clone(c *models.Conversation) *models.Conversation {
	cp := *c
	if c.LastMessageAt != nil {
		t := *c.LastMessageAt
		cp.LastMessageAt = &t
	}
	return &cp
}
