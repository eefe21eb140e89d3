package models

import (
	"strings"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
)

type SendMessageRequest struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversation_id,omitempty"`
	GroupID        string `json:"group_id,omitempty"`
	RecipientID    string `json:"recipient_id,omitempty"`

	cmd SendCommand
}

func (r *SendMessageRequest) Normalize() {
	r.ConversationID = strings.TrimSpace(r.ConversationID)
	r.GroupID = strings.TrimSpace(r.GroupID)
	r.RecipientID = strings.TrimSpace(r.RecipientID)
}

func (r *SendMessageRequest) Validate() error {
	cmd := SendCommand{Content: r.Content}
	if r.ConversationID != "" {
		convID, err := id.ParseConversationID(r.ConversationID)
		if err != nil {
			return err
		}
		cmd.ConversationID = &convID
	}
	if r.GroupID != "" {
		groupID, err := id.ParseGroupID(r.GroupID)
		if err != nil {
			return err
		}
		cmd.GroupID = &groupID
	}
	if r.RecipientID != "" {
		recipientID, err := id.ParseUserID(r.RecipientID)
		if err != nil {
			return err
		}
		cmd.RecipientID = &recipientID
	}
	if cmd.TargetCount() != 1 {
		return dErrors.New(dErrors.CodeBadRequest, "exactly one of conversation_id, group_id or recipient_id is required")
	}
	r.cmd = cmd
	return nil
}

func (r *SendMessageRequest) Command() SendCommand {
	return r.cmd
}
