// Package chat treats direct conversations and groups uniformly where callers only need to
// address "a chat": message targets, delete permission checks and deletion.
package chat

import (
	"strings"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
)

// Kind names a chat variant on the wire.
type Kind string

const (
	KindConversation Kind = "conversation"
	KindGroup        Kind = "group"
)

// Ref addresses exactly one chat. The only implementations are ConversationRef and GroupRef.
type Ref interface {
	Kind() Kind
	String() string
	isRef()
}

type ConversationRef struct {
	ID id.ConversationID
}

func (ConversationRef) Kind() Kind       { return KindConversation }
func (r ConversationRef) String() string { return string(KindConversation) + ":" + r.ID.String() }
func (ConversationRef) isRef()           {}

type GroupRef struct {
	ID id.GroupID
}

func (GroupRef) Kind() Kind       { return KindGroup }
func (r GroupRef) String() string { return string(KindGroup) + ":" + r.ID.String() }
func (GroupRef) isRef()           {}

// ParseRef builds a Ref from a kind and id as they appear in URLs.
func ParseRef(kind, raw string) (Ref, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindConversation:
		convID, err := id.ParseConversationID(raw)
		if err != nil {
			return nil, err
		}
		return ConversationRef{ID: convID}, nil
	case KindGroup:
		groupID, err := id.ParseGroupID(raw)
		if err != nil {
			return nil, err
		}
		return GroupRef{ID: groupID}, nil
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "chat type must be conversation or group")
	}
}
