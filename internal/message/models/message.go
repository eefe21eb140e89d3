// Package models defines chat messages and the send command.
package models

import (
	"sort"
	"strings"
	"time"

	"fellowship/internal/chat"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	pstrings "fellowship/pkg/platform/strings"
)

const (
	// MaxContentLength bounds message content in runes.
	MaxContentLength = 4000
	// DefaultPageSize and MaxPageSize bound history reads.
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Message belongs to exactly one chat, named by Target.
type Message struct {
	ID        id.MessageID
	SenderID  id.UserID
	Content   string
	Target    chat.Ref
	IsRead    bool
	CreatedAt time.Time
}

// NewMessage validates content and builds an unread message.
func NewMessage(senderID id.UserID, target chat.Ref, content string, now time.Time) (*Message, error) {
	if target == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "message target is required")
	}
	content, err := NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        id.NewMessageID(),
		SenderID:  senderID,
		Content:   content,
		Target:    target,
		CreatedAt: now,
	}, nil
}

// NormalizeContent trims content and enforces the length bounds.
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "message content is required")
	}
	if pstrings.RuneLen(content) > MaxContentLength {
		return "", dErrors.New(dErrors.CodeBadRequest, "message content is too long")
	}
	return content, nil
}

// SendCommand names exactly one of ConversationID, GroupID or RecipientID.
type SendCommand struct {
	Content        string
	ConversationID *id.ConversationID
	GroupID        *id.GroupID
	RecipientID    *id.UserID
}

// TargetCount reports how many destinations are set.
func (c SendCommand) TargetCount() int {
	n := 0
	if c.ConversationID != nil {
		n++
	}
	if c.GroupID != nil {
		n++
	}
	if c.RecipientID != nil {
		n++
	}
	return n
}

// Page bounds a history read: messages strictly older than Before (when set), newest first.
type Page struct {
	Before *time.Time
	Limit  int
}

// Normalize clamps Limit into [1, MaxPageSize], defaulting to DefaultPageSize.
func (p Page) Normalize() Page {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	return p
}

// NewestFirst orders by CreatedAt descending, ties by id descending so pages are stable.
func NewestFirst(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
		}
		return msgs[j].ID.String() < msgs[i].ID.String()
	})
}
