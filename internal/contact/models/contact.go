// Package models holds the address book aggregates: contacts, per-owner custom field
// definitions and the curated faithful people directory.
package models

import (
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/email"
	pstrings "fellowship/pkg/platform/strings"
)

const (
	MaxNameLength        = 100
	MaxPhoneLength       = 32
	MaxNotesLength       = 2000
	MaxCustomKeyLength   = 100
	MaxCustomValueLength = 1000
)

// Contact is an address book entry owned by one user, optionally linked to a system user.
type Contact struct {
	ID           id.ContactID
	OwnerID      id.UserID
	LinkedUserID *id.UserID
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	Notes        string
	AvatarURL    string
	CustomFields map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContactFields is the editable content of a contact.
type ContactFields struct {
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	Notes        string
	AvatarURL    string
	CustomFields map[string]string
}

// ContactPatch changes the fields that are set.
type ContactPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Notes       *string
	AvatarURL   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.PhoneNumber == nil && p.Notes == nil && p.AvatarURL == nil
}

// NewContact validates fields and builds a contact. linked may be nil for a freestanding entry.
func NewContact(contactID id.ContactID, ownerID id.UserID, linked *id.UserID, fields ContactFields, now time.Time) (*Contact, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contact owner is required")
	}
	fields = fields.normalized()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	c := &Contact{
		ID:           contactID,
		OwnerID:      ownerID,
		LinkedUserID: linked,
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		Email:        fields.Email,
		PhoneNumber:  fields.PhoneNumber,
		Notes:        fields.Notes,
		AvatarURL:    fields.AvatarURL,
		CustomFields: make(map[string]string, len(fields.CustomFields)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for key, value := range fields.CustomFields {
		key, value, err := NormalizeCustomField(key, value)
		if err != nil {
			return nil, err
		}
		c.CustomFields[key] = value
	}
	return c, nil
}

func (f ContactFields) normalized() ContactFields {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = email.Normalize(f.Email)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
	f.Notes = strings.TrimSpace(f.Notes)
	f.AvatarURL = strings.TrimSpace(f.AvatarURL)
	return f
}

// Validate checks already-normalized fields.
func (f ContactFields) Validate() error {
	if f.FirstName == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name is required")
	}
	if pstrings.RuneLen(f.FirstName) > MaxNameLength || pstrings.RuneLen(f.LastName) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if f.Email != "" && !email.IsValid(f.Email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if pstrings.RuneLen(f.PhoneNumber) > MaxPhoneLength {
		return dErrors.New(dErrors.CodeValidation, "phone_number is too long")
	}
	if pstrings.RuneLen(f.Notes) > MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	if f.AvatarURL != "" && !govalidator.IsURL(f.AvatarURL) {
		return dErrors.New(dErrors.CodeValidation, "avatar_url must be a valid URL")
	}
	return nil
}

// Fields returns the editable content of c.
func (c *Contact) Fields() ContactFields {
	return ContactFields{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		PhoneNumber:  c.PhoneNumber,
		Notes:        c.Notes,
		AvatarURL:    c.AvatarURL,
		CustomFields: c.CustomFields,
	}
}

// ApplyPatch updates the contact; on error c is unchanged.
func (c *Contact) ApplyPatch(p ContactPatch, now time.Time) error {
	f := c.Fields()
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.FirstName, p.FirstName)
	set(&f.LastName, p.LastName)
	set(&f.Email, p.Email)
	set(&f.PhoneNumber, p.PhoneNumber)
	set(&f.Notes, p.Notes)
	set(&f.AvatarURL, p.AvatarURL)
	f = f.normalized()
	if err := f.Validate(); err != nil {
		return err
	}
	c.FirstName, c.LastName, c.Email = f.FirstName, f.LastName, f.Email
	c.PhoneNumber, c.Notes, c.AvatarURL = f.PhoneNumber, f.Notes, f.AvatarURL
	c.UpdatedAt = now
	return nil
}

// DisplayName renders the contact like a directory user.
func (c *Contact) DisplayName() string {
	return email.DisplayName(c.FirstName, c.LastName, c.Email)
}

// Clone returns a deep copy.
func (c *Contact) Clone() *Contact {
	cp := *c
	if c.LinkedUserID != nil {
		linked := *c.LinkedUserID
		cp.LinkedUserID = &linked
	}
	cp.CustomFields = maps.Clone(c.CustomFields)
	if cp.CustomFields == nil {
		cp.CustomFields = map[string]string{}
	}
	return &cp
}

// NormalizeCustomField trims the key and validates both parts.
func NormalizeCustomField(key, value string) (string, string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "custom field key is required")
	}
	if pstrings.RuneLen(key) > MaxCustomKeyLength {
		return "", "", dErrors.New(dErrors.CodeValidation, "custom field key is too long")
	}
	if pstrings.RuneLen(value) > MaxCustomValueLength {
		return "", "", dErrors.New(dErrors.CodeValidation, "custom field value is too long")
	}
	return key, value, nil
}

// SortContacts orders by first name, then last name, case-insensitively.
func SortContacts(contacts []*Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		if fa, fb := strings.ToLower(a.FirstName), strings.ToLower(b.FirstName); fa != fb {
			return fa < fb
		}
		if la, lb := strings.ToLower(a.LastName), strings.ToLower(b.LastName); la != lb {
			return la < lb
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
