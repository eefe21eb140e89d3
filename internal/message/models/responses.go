package models

import (
	"time"

	"fellowship/internal/chat"
	id "fellowship/pkg/domain"
)

type MessageResponse struct {
	ID             id.MessageID       `json:"id"`
	SenderID       id.UserID          `json:"sender_id"`
	Content        string             `json:"content"`
	ConversationID *id.ConversationID `json:"conversation_id,omitempty"`
	GroupID        *id.GroupID        `json:"group_id,omitempty"`
	IsRead         bool               `json:"is_read"`
	CreatedAt      time.Time          `json:"created_at"`
}

func NewMessageResponse(m *Message) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
	switch t := m.Target.(type) {
	case chat.ConversationRef:
		convID := t.ID
		resp.ConversationID = &convID
	case chat.GroupRef:
		groupID := t.ID
		resp.GroupID = &groupID
	}
	return resp
}

type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type MarkReadResponse struct {
	Updated int `json:"updated"`
}
