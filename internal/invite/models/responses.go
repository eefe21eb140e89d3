package models

import (
	"time"

	groupModels "fellowship/internal/group/models"
)

// IssueResult is returned to the member who asked for a link.
type IssueResult struct {
	Code      string    `json:"code"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedeemResult describes the group joined through an invite.
type RedeemResult struct {
	Group       *groupModels.Group
	IsNewMember bool
	MemberCount int
}

type RedeemResponse struct {
	Group       groupModels.GroupResponse `json:"group"`
	IsNewMember bool                      `json:"is_new_member"`
	MemberCount int                       `json:"member_count"`
}

// MemberPreview is a public member summary on the invite landing page.
type MemberPreview struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Preview is the unauthenticated view of an invite.
type Preview struct {
	GroupName      string          `json:"group_name"`
	GroupAvatarURL *string         `json:"group_avatar_url,omitempty"`
	CreatorName    string          `json:"creator_name"`
	GroupCreatedAt time.Time       `json:"group_created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	MemberCount    int             `json:"member_count"`
	Members        []MemberPreview `json:"members"`
}
