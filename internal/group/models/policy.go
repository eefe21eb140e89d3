package models

import "fellowship/pkg/platform/authz"

// CheckMember allows any member. member is nil when the caller has no membership.
func CheckMember(member *Member) authz.Decision {
	if member == nil {
		return authz.Deny(authz.ReasonNotMember)
	}
	return authz.Allow()
}

// CheckAdmin allows admins only.
func CheckAdmin(member *Member) authz.Decision {
	if member == nil {
		return authz.Deny(authz.ReasonNotMember)
	}
	if !member.IsAdmin {
		return authz.Deny(authz.ReasonNotAdmin)
	}
	return authz.Allow()
}
