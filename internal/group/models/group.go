package models

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
)

// MaxNameLength bounds group names in runes.
const MaxNameLength = 100

// Group is a multi-member chat. Description and AvatarURL are optional.
type Group struct {
	ID          id.GroupID
	Name        string
	Description *string
	AvatarURL   *string
	CreatorID   id.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member is one user's membership in a group.
type Member struct {
	GroupID  id.GroupID
	UserID   id.UserID
	IsAdmin  bool
	JoinedAt time.Time
}

// NewGroup validates the name and builds a group owned by creatorID.
func NewGroup(groupID id.GroupID, creatorID id.UserID, name string, description, avatarURL *string, now time.Time) (*Group, error) {
	if creatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "group creator is required")
	}
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	return &Group{
		ID:          groupID,
		Name:        name,
		Description: trimOptional(description),
		AvatarURL:   trimOptional(avatarURL),
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NormalizeName trims name and checks it is non-empty and within MaxNameLength.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "group name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", dErrors.New(dErrors.CodeValidation, "group name is too long")
	}
	return name, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ApplyUpdate changes the fields set in patch.
func (g *Group) ApplyUpdate(patch GroupPatch, now time.Time) error {
	if patch.Name != nil {
		name, err := NormalizeName(*patch.Name)
		if err != nil {
			return err
		}
		g.Name = name
	}
	if patch.Description != nil {
		g.Description = trimOptional(patch.Description)
	}
	if patch.AvatarURL != nil {
		g.AvatarURL = trimOptional(patch.AvatarURL)
	}
	g.UpdatedAt = now
	return nil
}

// GroupPatch carries optional group field updates. An empty string clears an optional field.
type GroupPatch struct {
	Name        *string
	Description *string
	AvatarURL   *string
}

// SortMembers orders members by join time, then user id.
func SortMembers(members []*Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.UserID.Less(b.UserID)
	})
}

// FindMember returns userID's membership from members, or nil.
func FindMember(members []*Member, userID id.UserID) *Member {
	for _, m := range members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}
