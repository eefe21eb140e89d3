package audit

import (
	"context"
	"log/slog"

	"fellowship/pkg/attrs"
	id "fellowship/pkg/domain"
	"fellowship/pkg/requestcontext"
)

// Emitter is the publishing side services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// subjectKeys are checked in order to find the resource an audit line is about.
var subjectKeys = []string{"report_id", "contact_id", "invite_code", "group_id", "conversation_id"}

// Record writes an audit log line and forwards the event to publisher when one is set.
// attributes use slog key/value form; "user_id" names the actor. Publish failures are
// logged and swallowed so auditing never fails a committed operation.
func Record(ctx context.Context, logger *slog.Logger, publisher Emitter, event AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}
	if publisher == nil {
		return
	}

	userID, _ := id.ParseUserID(attrs.ExtractString(attributes, "user_id"))
	var subject string
	for _, key := range subjectKeys {
		if subject = attrs.ExtractString(attributes, key); subject != "" {
			break
		}
	}
	err := publisher.Emit(ctx, Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   subject,
		Action:    string(event),
		Reason:    attrs.ExtractString(attributes, "reason"),
		RequestID: requestID,
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to publish audit event",
			"event", string(event),
			"error", err,
			"request_id", requestID,
		)
	}
}
