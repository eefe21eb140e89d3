package models

import (
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/authz"
)

// LeavePlan is what has to happen for a member to leave.
type LeavePlan struct {
	// DeleteGroup is set when the leaver is the last member.
	DeleteGroup bool
	// Promote is the member who becomes admin before the leaver is removed.
	Promote *id.UserID
}

// PlanLeave decides the outcome of leaver leaving a group with members. A non-empty group
// always keeps at least one admin: when the sole admin leaves, the earliest-joined remaining
// member is promoted, ties broken by the lowest user id.
func PlanLeave(members []*Member, leaver id.UserID) (LeavePlan, error) {
	self := FindMember(members, leaver)
	if self == nil {
		return LeavePlan{}, dErrors.New(dErrors.CodeForbidden, authz.ReasonNotMember)
	}
	if len(members) == 1 {
		return LeavePlan{DeleteGroup: true}, nil
	}
	if !self.IsAdmin {
		return LeavePlan{}, nil
	}

	remaining := make([]*Member, 0, len(members)-1)
	for _, m := range members {
		if m.UserID == leaver {
			continue
		}
		if m.IsAdmin {
			return LeavePlan{}, nil
		}
		remaining = append(remaining, m)
	}
	SortMembers(remaining)
	successor := remaining[0].UserID
	return LeavePlan{Promote: &successor}, nil
}

// LeaveOutcome reports side effects of a completed leave.
type LeaveOutcome struct {
	GroupDeleted   bool       `json:"group_deleted"`
	PromotedUserID *id.UserID `json:"promoted_user_id,omitempty"`
}
