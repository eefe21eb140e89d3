package models

import (
	"sort"
	"strings"
	"time"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	pstrings "fellowship/pkg/platform/strings"
)

// FieldDefinition names a custom field an owner reuses across contacts. Names are unique per
// owner regardless of case.
type FieldDefinition struct {
	ID        id.FieldDefinitionID
	OwnerID   id.UserID
	Name      string
	CreatedAt time.Time
}

func NewFieldDefinition(ownerID id.UserID, name string, now time.Time) (*FieldDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "field name is required")
	}
	if pstrings.RuneLen(name) > MaxCustomKeyLength {
		return nil, dErrors.New(dErrors.CodeValidation, "field name is too long")
	}
	return &FieldDefinition{ID: id.NewFieldDefinitionID(), OwnerID: ownerID, Name: name, CreatedAt: now}, nil
}

// FoldedName is the uniqueness key.
func (d *FieldDefinition) FoldedName() string {
	return strings.ToLower(d.Name)
}

// SortFields orders definitions by name.
func SortFields(defs []*FieldDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].FoldedName() < defs[j].FoldedName()
	})
}

// FaithfulPerson is a curated profile surfaced ahead of ordinary search results.
type FaithfulPerson struct {
	ID        id.FaithfulPersonID
	UserID    id.UserID
	Title     string
	Name      string
	AvatarURL string
	SortOrder int
	CreatedAt time.Time
}

// Matches reports whether term occurs in the name or title, ignoring case.
func (p *FaithfulPerson) Matches(term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Title), needle)
}

// SortFaithful orders by SortOrder, then name.
func SortFaithful(people []*FaithfulPerson) {
	sort.SliceStable(people, func(i, j int) bool {
		if people[i].SortOrder != people[j].SortOrder {
			return people[i].SortOrder < people[j].SortOrder
		}
		return people[i].Name < people[j].Name
	})
}
