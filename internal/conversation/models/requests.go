package models

import (
	"strings"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
)

// CreateConversationRequest opens (or returns) the conversation with another user.
type CreateConversationRequest struct {
	UserID string `json:"user_id"`

	parsed id.UserID
}

func (r *CreateConversationRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *CreateConversationRequest) Validate() error {
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	parsed, err := id.ParseUserID(r.UserID)
	if err != nil {
		return err
	}
	r.parsed = parsed
	return nil
}

// Target returns the user id parsed by Validate.
func (r *CreateConversationRequest) Target() id.UserID {
	return r.parsed
}
