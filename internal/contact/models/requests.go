package models

import (
	"strings"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
)

// CreateContactRequest creates a freestanding contact.
type CreateContactRequest struct {
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Email        string            `json:"email"`
	PhoneNumber  string            `json:"phone_number"`
	Notes        string            `json:"notes"`
	AvatarURL    string            `json:"avatar_url"`
	CustomFields map[string]string `json:"custom_fields"`
}

func (r *CreateContactRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name is required")
	}
	return nil
}

func (r *CreateContactRequest) Fields() ContactFields {
	return ContactFields{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		PhoneNumber:  r.PhoneNumber,
		Notes:        r.Notes,
		AvatarURL:    r.AvatarURL,
		CustomFields: r.CustomFields,
	}
}

// AddExistingContactRequest links a system user into the address book.
type AddExistingContactRequest struct {
	UserID string `json:"user_id"`

	userID id.UserID
}

func (r *AddExistingContactRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *AddExistingContactRequest) Validate() error {
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return err
	}
	r.userID = userID
	return nil
}

func (r *AddExistingContactRequest) Target() id.UserID {
	return r.userID
}

type UpdateContactRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

func (r *UpdateContactRequest) Validate() error {
	if r.Patch().IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return nil
}

func (r *UpdateContactRequest) Patch() ContactPatch {
	return ContactPatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Notes:       r.Notes,
		AvatarURL:   r.AvatarURL,
	}
}

type SetCustomFieldRequest struct {
	Value string `json:"value"`
}

type DefineFieldRequest struct {
	Name string `json:"name"`
}

func (r *DefineFieldRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *DefineFieldRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}
