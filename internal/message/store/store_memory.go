package store

import (
	"context"
	"sync"

	"fellowship/internal/chat"
	"fellowship/internal/message/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

// InMemoryStore keeps messages per chat in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	byChat map[string][]*models.Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byChat: make(map[string][]*models.Message)}
}

func (s *InMemoryStore) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := m.Target.String()
	for _, existing := range s.byChat[key] {
		if existing.ID == m.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *m
	s.byChat[key] = append(s.byChat[key], &cp)
	return nil
}

// List returns a page of the chat's messages, newest first.
func (s *InMemoryStore) List(_ context.Context, target chat.Ref, page models.Page) ([]*models.Message, error) {
	page = page.Normalize()
	s.mu.RLock()
	all := make([]*models.Message, 0, len(s.byChat[target.String()]))
	for _, m := range s.byChat[target.String()] {
		if page.Before != nil && !m.CreatedAt.Before(*page.Before) {
			continue
		}
		cp := *m
		all = append(all, &cp)
	}
	s.mu.RUnlock()

	models.NewestFirst(all)
	if len(all) > page.Limit {
		all = all[:page.Limit]
	}
	return all, nil
}

// Latest returns sentinel.ErrNotFound for a chat without messages.
func (s *InMemoryStore) Latest(_ context.Context, target chat.Ref) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := latest(s.byChat[target.String()])
	if m == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// LatestForChats maps each chat that has messages to its newest one, keyed by Ref.String().
func (s *InMemoryStore) LatestForChats(_ context.Context, targets []chat.Ref) (map[string]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.Message, len(targets))
	for _, target := range targets {
		if m := latest(s.byChat[target.String()]); m != nil {
			cp := *m
			out[target.String()] = &cp
		}
	}
	return out, nil
}

// MarkConversationRead flags unread messages not sent by readerID and returns how many changed.
func (s *InMemoryStore) MarkConversationRead(_ context.Context, convID id.ConversationID, readerID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.byChat[chat.ConversationRef{ID: convID}.String()] {
		if m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) DeleteByGroup(_ context.Context, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byChat, chat.GroupRef{ID: groupID}.String())
	return nil
}

func latest(msgs []*models.Message) *models.Message {
	if len(msgs) == 0 {
		return nil
	}
	cp := make([]*models.Message, len(msgs))
	copy(cp, msgs)
	models.NewestFirst(cp)
	return cp[0]
}
