package models

import (
	"time"

	id "fellowship/pkg/domain"
)

type ContactResponse struct {
	ID           id.ContactID      `json:"id"`
	LinkedUserID *id.UserID        `json:"linked_user_id,omitempty"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Email        string            `json:"email,omitempty"`
	PhoneNumber  string            `json:"phone_number,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	CustomFields map[string]string `json:"custom_fields"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewContactResponse(c *Contact) ContactResponse {
	fields := c.CustomFields
	if fields == nil {
		fields = map[string]string{}
	}
	return ContactResponse{
		ID:           c.ID,
		LinkedUserID: c.LinkedUserID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		PhoneNumber:  c.PhoneNumber,
		Notes:        c.Notes,
		AvatarURL:    c.AvatarURL,
		CustomFields: fields,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type ContactListResponse struct {
	Contacts []ContactResponse `json:"contacts"`
}

type FieldDefinitionResponse struct {
	ID        id.FieldDefinitionID `json:"id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
}

type FieldListResponse struct {
	Fields []FieldDefinitionResponse `json:"fields"`
}

type FaithfulPersonResponse struct {
	ID        id.FaithfulPersonID `json:"id"`
	UserID    id.UserID           `json:"user_id"`
	Title     string              `json:"title"`
	Name      string              `json:"name"`
	AvatarURL string              `json:"avatar_url,omitempty"`
}

type FaithfulListResponse struct {
	People []FaithfulPersonResponse `json:"people"`
}
