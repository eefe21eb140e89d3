package models

import (
	"time"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
)

// Conversation is a direct chat between two users. The pair is stored canonicalized so
// User1ID sorts before User2ID; at most one active conversation exists per pair.
type Conversation struct {
	ID            id.ConversationID
	User1ID       id.UserID
	User2ID       id.UserID
	IsActive      bool
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewConversation builds an active conversation between a and b in canonical order.
func NewConversation(convID id.ConversationID, a, b id.UserID, now time.Time) (*Conversation, error) {
	if a.IsNil() || b.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "conversation participants are required")
	}
	if a == b {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "conversation requires two distinct users")
	}
	user1, user2 := id.CanonicalPair(a, b)
	return &Conversation{
		ID:        convID,
		User1ID:   user1,
		User2ID:   user2,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasParticipant reports whether userID is one of the two users.
func (c *Conversation) HasParticipant(userID id.UserID) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant returns the user on the other side from userID.
func (c *Conversation) OtherParticipant(userID id.UserID) id.UserID {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// CanRestore checks that a restore is a real state change.
func (c *Conversation) CanRestore() error {
	if c.IsActive {
		return dErrors.New(dErrors.CodeConflict, "conversation is already active")
	}
	return nil
}

// ApplyDelete soft-deletes the conversation. It reports false when it was already inactive.
func (c *Conversation) ApplyDelete(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	c.IsActive = false
	c.UpdatedAt = now
	return true
}

// ApplyRestore reactivates the conversation after CanRestore passed.
func (c *Conversation) ApplyRestore(now time.Time) {
	c.IsActive = true
	c.UpdatedAt = now
}
