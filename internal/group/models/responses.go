package models

import (
	"time"

	id "fellowship/pkg/domain"
)

// Detail is a group together with its members.
type Detail struct {
	Group   *Group
	Members []*Member
}

type MemberResponse struct {
	UserID      id.UserID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	JoinedAt    time.Time `json:"joined_at"`
}

type GroupResponse struct {
	ID          id.GroupID       `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	AvatarURL   *string          `json:"avatar_url,omitempty"`
	CreatorID   id.UserID        `json:"creator_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	MemberCount int              `json:"member_count,omitempty"`
	Members     []MemberResponse `json:"members,omitempty"`
}

type GroupListResponse struct {
	Groups []GroupResponse `json:"groups"`
}

type AddMembersResponse struct {
	Added []id.UserID `json:"added"`
}

// NewGroupResponse renders g without members.
func NewGroupResponse(g *Group) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		AvatarURL:   g.AvatarURL,
		CreatorID:   g.CreatorID,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
