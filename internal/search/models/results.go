// Package models holds unified search results.
package models

import (
	"sort"
	"strings"
	"time"

	"fellowship/internal/chat"
	id "fellowship/pkg/domain"
)

const (
	// MinQueryLength is the shortest query, in runes, that runs a search.
	MinQueryLength = 2
	// PersonPreviewLength and ConversationPreviewLength bound direct message previews.
	PersonPreviewLength       = 30
	ConversationPreviewLength = 30
	// GroupPreviewLength bounds a group preview including its sender prefix.
	GroupPreviewLength = 25
	// DirectoryLimit caps directory matches per search.
	DirectoryLimit = 20
)

// Person is a faithful person or a directory user matching the query.
type Person struct {
	UserID        *id.UserID           `json:"user_id,omitempty"`
	FaithfulID    *id.FaithfulPersonID `json:"faithful_id,omitempty"`
	Name          string               `json:"name"`
	Title         string               `json:"title,omitempty"`
	Email         string               `json:"email,omitempty"`
	AvatarURL     string               `json:"avatar_url,omitempty"`
	IsFaithful    bool                 `json:"is_faithful"`
	LastMessage   string               `json:"last_message,omitempty"`
	LastMessageAt *time.Time           `json:"last_message_at,omitempty"`
}

// Chat is a group or an active conversation matching the query.
type Chat struct {
	Type          chat.Kind  `json:"type"`
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

type Results struct {
	People []Person `json:"people"`
	Chats  []Chat   `json:"chats"`
}

// Empty returns results with non-nil lists so they encode as [].
func Empty() *Results {
	return &Results{People: []Person{}, Chats: []Chat{}}
}

// SortPeople puts faithful people first, then the most recent message, then people without a
// message; ties go by name.
func SortPeople(people []Person) {
	sort.SliceStable(people, func(i, j int) bool {
		a, b := people[i], people[j]
		if a.IsFaithful != b.IsFaithful {
			return a.IsFaithful
		}
		if less, decided := byRecency(a.LastMessageAt, b.LastMessageAt); decided {
			return less
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// SortChats orders by last message time, chats without messages last; ties go by name.
func SortChats(chats []Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		a, b := chats[i], chats[j]
		if less, decided := byRecency(a.LastMessageAt, b.LastMessageAt); decided {
			return less
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

func byRecency(a, b *time.Time) (less, decided bool) {
	switch {
	case a != nil && b != nil:
		if a.Equal(*b) {
			return false, false
		}
		return a.After(*b), true
	case a != nil:
		return true, true
	case b != nil:
		return false, true
	}
	return false, false
}
