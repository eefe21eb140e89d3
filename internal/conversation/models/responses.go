package models

import (
	"time"

	id "fellowship/pkg/domain"
)

// Participant is the profile summary of the other side of a conversation.
type Participant struct {
	ID          id.UserID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

type ConversationResponse struct {
	ID            id.ConversationID `json:"id"`
	OtherUser     Participant       `json:"other_user"`
	IsActive      bool              `json:"is_active"`
	LastMessageAt *time.Time        `json:"last_message_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Created       bool              `json:"created,omitempty"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}
