package audit

import (
	"context"
	"time"

	id "fellowship/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events touching personal data (address book entries).
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers moderation and abuse signals.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine chat lifecycle activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// UserID is the acting user.
	UserID id.UserID `json:"user_id"`
	// Subject identifies the affected resource (conversation, group, contact, report id).
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can return what they recorded.
type Reader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

type AuditEvent string

const (
	// Conversation events
	EventConversationCreated  AuditEvent = "conversation_created"
	EventConversationDeleted  AuditEvent = "conversation_deleted"
	EventConversationRestored AuditEvent = "conversation_restored"

	// Group events
	EventGroupCreated       AuditEvent = "group_created"
	EventGroupDeleted       AuditEvent = "group_deleted"
	EventGroupMemberAdded   AuditEvent = "group_member_added"
	EventGroupMemberLeft    AuditEvent = "group_member_left"
	EventGroupMemberRemoved AuditEvent = "group_member_removed"
	EventGroupAdminPromoted AuditEvent = "group_admin_promoted"

	// Invite events
	EventInviteIssued   AuditEvent = "invite_issued"
	EventInviteRedeemed AuditEvent = "invite_redeemed"

	// Contact events
	EventContactCreated AuditEvent = "contact_created"
	EventContactDeleted AuditEvent = "contact_deleted"

	// Moderation events
	EventGroupReported       AuditEvent = "group_reported"
	EventGroupReportReviewed AuditEvent = "group_report_reviewed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventContactCreated: CategoryCompliance,
	EventContactDeleted: CategoryCompliance,

	EventGroupReported:       CategorySecurity,
	EventGroupReportReviewed: CategorySecurity,
	EventGroupMemberRemoved:  CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
