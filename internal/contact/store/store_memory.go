package store

import (
	"context"
	"sync"
	"time"

	"fellowship/internal/contact/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

type linkKey struct {
	owner  id.UserID
	linked id.UserID
}

type fieldKey struct {
	owner id.UserID
	name  string
}

// InMemoryStore mirrors the Postgres unique indexes: one contact per (owner, linked user) and
// one definition per (owner, lower(name)).
type InMemoryStore struct {
	mu       sync.RWMutex
	contacts map[id.ContactID]*models.Contact
	links    map[linkKey]id.ContactID
	fields   map[id.FieldDefinitionID]*models.FieldDefinition
	names    map[fieldKey]id.FieldDefinitionID
	faithful map[id.FaithfulPersonID]*models.FaithfulPerson
}

func NewInMemoryStore(faithful ...*models.FaithfulPerson) *InMemoryStore {
	s := &InMemoryStore{
		contacts: make(map[id.ContactID]*models.Contact),
		links:    make(map[linkKey]id.ContactID),
		fields:   make(map[id.FieldDefinitionID]*models.FieldDefinition),
		names:    make(map[fieldKey]id.FieldDefinitionID),
		faithful: make(map[id.FaithfulPersonID]*models.FaithfulPerson),
	}
	for _, p := range faithful {
		cp := *p
		s.faithful[p.ID] = &cp
	}
	return s
}

// Create returns sentinel.ErrAlreadyUsed when the owner already has the linked user.
func (s *InMemoryStore) Create(_ context.Context, c *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.LinkedUserID != nil {
		key := linkKey{owner: c.OwnerID, linked: *c.LinkedUserID}
		if _, ok := s.links[key]; ok {
			return sentinel.ErrAlreadyUsed
		}
		s.links[key] = c.ID
	}
	s.contacts[c.ID] = c.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, ownerID id.UserID, contactID id.ContactID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.owned(ownerID, contactID)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, c *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.owned(c.OwnerID, c.ID)
	if err != nil {
		return err
	}
	updated := c.Clone()
	updated.LinkedUserID = existing.LinkedUserID
	updated.CustomFields = existing.CustomFields
	s.contacts[c.ID] = updated
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, ownerID id.UserID, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(ownerID, contactID)
	if err != nil {
		return err
	}
	if c.LinkedUserID != nil {
		delete(s.links, linkKey{owner: ownerID, linked: *c.LinkedUserID})
	}
	delete(s.contacts, contactID)
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Contact
	for _, c := range s.contacts {
		if c.OwnerID == ownerID {
			out = append(out, c.Clone())
		}
	}
	models.SortContacts(out)
	return out, nil
}

// MergeCustomField sets key on the contact, leaving other keys untouched.
func (s *InMemoryStore) MergeCustomField(_ context.Context, ownerID id.UserID, contactID id.ContactID, key, value string, at time.Time) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(ownerID, contactID)
	if err != nil {
		return nil, err
	}
	if c.CustomFields == nil {
		c.CustomFields = map[string]string{}
	}
	c.CustomFields[key] = value
	c.UpdatedAt = at
	return c.Clone(), nil
}

func (s *InMemoryStore) RemoveCustomField(_ context.Context, ownerID id.UserID, contactID id.ContactID, key string, at time.Time) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(ownerID, contactID)
	if err != nil {
		return nil, err
	}
	delete(c.CustomFields, key)
	c.UpdatedAt = at
	return c.Clone(), nil
}

// CreateField returns sentinel.ErrAlreadyUsed for a case-insensitive duplicate name.
func (s *InMemoryStore) CreateField(_ context.Context, def *models.FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fieldKey{owner: def.OwnerID, name: def.FoldedName()}
	if _, ok := s.names[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *def
	s.fields[def.ID] = &cp
	s.names[key] = def.ID
	return nil
}

func (s *InMemoryStore) ListFields(_ context.Context, ownerID id.UserID) ([]*models.FieldDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.FieldDefinition
	for _, def := range s.fields {
		if def.OwnerID == ownerID {
			cp := *def
			out = append(out, &cp)
		}
	}
	models.SortFields(out)
	return out, nil
}

func (s *InMemoryStore) DeleteField(_ context.Context, ownerID id.UserID, fieldID id.FieldDefinitionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.fields[fieldID]
	if !ok || def.OwnerID != ownerID {
		return sentinel.ErrNotFound
	}
	delete(s.names, fieldKey{owner: ownerID, name: def.FoldedName()})
	delete(s.fields, fieldID)
	return nil
}

// SaveFaithful inserts or replaces a curated person.
func (s *InMemoryStore) SaveFaithful(_ context.Context, p *models.FaithfulPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.faithful[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListFaithful(_ context.Context) ([]*models.FaithfulPerson, error) {
	return s.filterFaithful(func(*models.FaithfulPerson) bool { return true }), nil
}

func (s *InMemoryStore) SearchFaithful(_ context.Context, term string) ([]*models.FaithfulPerson, error) {
	return s.filterFaithful(func(p *models.FaithfulPerson) bool { return p.Matches(term) }), nil
}

func (s *InMemoryStore) filterFaithful(keep func(*models.FaithfulPerson) bool) []*models.FaithfulPerson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.FaithfulPerson
	for _, p := range s.faithful {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	models.SortFaithful(out)
	return out
}

func (s *InMemoryStore) owned(ownerID id.UserID, contactID id.ContactID) (*models.Contact, error) {
	c, ok := s.contacts[contactID]
	if !ok || c.OwnerID != ownerID {
		return nil, sentinel.ErrNotFound
	}
	return c, nil
}
