package models

import (
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/authz"
)

// CheckAccess allows participants only.
func CheckAccess(c *Conversation, userID id.UserID) authz.Decision {
	if !c.HasParticipant(userID) {
		return authz.Deny(authz.ReasonNotParticipant)
	}
	return authz.Allow()
}

// CheckDelete allows either participant to delete.
func CheckDelete(c *Conversation, userID id.UserID) authz.Decision {
	return CheckAccess(c, userID)
}
