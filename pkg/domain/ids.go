// Package domain defines typed identifiers shared across the messaging modules.
//
// Every identifier is a distinct named UUID type so a GroupID can never be passed where a
// ConversationID is expected. Parse functions are the trust boundary: they reject empty,
// malformed and nil UUIDs with CodeInvalidInput.
package domain

import (
	"bytes"
	"strings"

	"github.com/google/uuid"

	dErrors "fellowship/pkg/domain-errors"
)

// maxIDLength bounds parser input; the longest accepted form is the urn:uuid: prefix.
const maxIDLength = 45

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	if len(raw) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	return parsed, nil
}

func unmarshalUUID(text []byte, kind string) (uuid.UUID, error) {
	if len(text) == 0 {
		return uuid.Nil, nil
	}
	return parseUUID(string(text), kind)
}

// UserID identifies a user.
type UserID uuid.UUID

// NewUserID returns a random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// ParseUserID validates raw as a non-nil UUID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

func (i UserID) String() string { return uuid.UUID(i).String() }
func (i UserID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i UserID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *UserID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "user")
	if err != nil {
		return err
	}
	*i = UserID(parsed)
	return nil
}

// ConversationID identifies a conversation.
type ConversationID uuid.UUID

// NewConversationID returns a random ConversationID.
func NewConversationID() ConversationID { return ConversationID(uuid.New()) }

// ParseConversationID validates raw as a non-nil UUID.
func ParseConversationID(raw string) (ConversationID, error) {
	parsed, err := parseUUID(raw, "conversation")
	return ConversationID(parsed), err
}

func (i ConversationID) String() string { return uuid.UUID(i).String() }
func (i ConversationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i ConversationID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ConversationID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "conversation")
	if err != nil {
		return err
	}
	*i = ConversationID(parsed)
	return nil
}

// MessageID identifies a message.
type MessageID uuid.UUID

// NewMessageID returns a random MessageID.
func NewMessageID() MessageID { return MessageID(uuid.New()) }

// ParseMessageID validates raw as a non-nil UUID.
func ParseMessageID(raw string) (MessageID, error) {
	parsed, err := parseUUID(raw, "message")
	return MessageID(parsed), err
}

func (i MessageID) String() string { return uuid.UUID(i).String() }
func (i MessageID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i MessageID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *MessageID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "message")
	if err != nil {
		return err
	}
	*i = MessageID(parsed)
	return nil
}

// GroupID identifies a group.
type GroupID uuid.UUID

// NewGroupID returns a random GroupID.
func NewGroupID() GroupID { return GroupID(uuid.New()) }

// ParseGroupID validates raw as a non-nil UUID.
func ParseGroupID(raw string) (GroupID, error) {
	parsed, err := parseUUID(raw, "group")
	return GroupID(parsed), err
}

func (i GroupID) String() string { return uuid.UUID(i).String() }
func (i GroupID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i GroupID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *GroupID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "group")
	if err != nil {
		return err
	}
	*i = GroupID(parsed)
	return nil
}

// InviteID identifies a invite.
type InviteID uuid.UUID

// NewInviteID returns a random InviteID.
func NewInviteID() InviteID { return InviteID(uuid.New()) }

// ParseInviteID validates raw as a non-nil UUID.
func ParseInviteID(raw string) (InviteID, error) {
	parsed, err := parseUUID(raw, "invite")
	return InviteID(parsed), err
}

func (i InviteID) String() string { return uuid.UUID(i).String() }
func (i InviteID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i InviteID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *InviteID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "invite")
	if err != nil {
		return err
	}
	*i = InviteID(parsed)
	return nil
}

// ContactID identifies a contact.
type ContactID uuid.UUID

// NewContactID returns a random ContactID.
func NewContactID() ContactID { return ContactID(uuid.New()) }

// ParseContactID validates raw as a non-nil UUID.
func ParseContactID(raw string) (ContactID, error) {
	parsed, err := parseUUID(raw, "contact")
	return ContactID(parsed), err
}

func (i ContactID) String() string { return uuid.UUID(i).String() }
func (i ContactID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i ContactID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ContactID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "contact")
	if err != nil {
		return err
	}
	*i = ContactID(parsed)
	return nil
}

// FieldDefinitionID identifies a custom field.
type FieldDefinitionID uuid.UUID

// NewFieldDefinitionID returns a random FieldDefinitionID.
func NewFieldDefinitionID() FieldDefinitionID { return FieldDefinitionID(uuid.New()) }

// ParseFieldDefinitionID validates raw as a non-nil UUID.
func ParseFieldDefinitionID(raw string) (FieldDefinitionID, error) {
	parsed, err := parseUUID(raw, "custom field")
	return FieldDefinitionID(parsed), err
}

func (i FieldDefinitionID) String() string { return uuid.UUID(i).String() }
func (i FieldDefinitionID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i FieldDefinitionID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *FieldDefinitionID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "custom field")
	if err != nil {
		return err
	}
	*i = FieldDefinitionID(parsed)
	return nil
}

// FaithfulPersonID identifies a faithful person.
type FaithfulPersonID uuid.UUID

// NewFaithfulPersonID returns a random FaithfulPersonID.
func NewFaithfulPersonID() FaithfulPersonID { return FaithfulPersonID(uuid.New()) }

// ParseFaithfulPersonID validates raw as a non-nil UUID.
func ParseFaithfulPersonID(raw string) (FaithfulPersonID, error) {
	parsed, err := parseUUID(raw, "faithful person")
	return FaithfulPersonID(parsed), err
}

func (i FaithfulPersonID) String() string { return uuid.UUID(i).String() }
func (i FaithfulPersonID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i FaithfulPersonID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *FaithfulPersonID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "faithful person")
	if err != nil {
		return err
	}
	*i = FaithfulPersonID(parsed)
	return nil
}

// ReportID identifies a report.
type ReportID uuid.UUID

// NewReportID returns a random ReportID.
func NewReportID() ReportID { return ReportID(uuid.New()) }

// ParseReportID validates raw as a non-nil UUID.
func ParseReportID(raw string) (ReportID, error) {
	parsed, err := parseUUID(raw, "report")
	return ReportID(parsed), err
}

func (i ReportID) String() string { return uuid.UUID(i).String() }
func (i ReportID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i ReportID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ReportID) UnmarshalText(text []byte) error {
	parsed, err := unmarshalUUID(text, "report")
	if err != nil {
		return err
	}
	*i = ReportID(parsed)
	return nil
}

// Less orders user ids by their byte representation, matching Postgres uuid ordering.
func (i UserID) Less(other UserID) bool {
	return bytes.Compare(i[:], other[:]) < 0
}

// CanonicalPair orders two user ids so the smaller comes first. Conversation storage keys
// pairs this way so (a, b) and (b, a) collide on the same unique index.
func CanonicalPair(a, b UserID) (UserID, UserID) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}
