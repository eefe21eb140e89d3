// Package authz holds the authorization decision value shared by the chat managers.
//
// Checks are pure functions over already-loaded state. They run first in every mutating
// operation, so a denied caller never reaches a store write.
package authz

import dErrors "fellowship/pkg/domain-errors"

// Denial reasons surfaced to clients by permission probes.
const (
	ReasonNotMember      = "not a member"
	ReasonNotAdmin       = "not an admin"
	ReasonNotParticipant = "not a participant"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow returns a positive decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a negative decision carrying reason.
func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Err converts a denial into a coded error; it returns nil when the decision allows.
func (d Decision) Err(code dErrors.Code) error {
	if d.Allowed {
		return nil
	}
	return dErrors.New(code, d.Reason)
}
