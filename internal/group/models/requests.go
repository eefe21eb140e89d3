package models

import (
	"strings"

	"github.com/asaskevich/govalidator"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
)

// maxMembersPerRequest caps member ids accepted in one create or add call.
const maxMembersPerRequest = 256

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	AvatarURL   *string  `json:"avatar_url,omitempty"`
	MemberIDs   []string `json:"member_ids"`

	members []id.UserID
}

func (r *CreateGroupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateGroupRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if err := validateAvatar(r.AvatarURL); err != nil {
		return err
	}
	members, err := parseMemberIDs(r.MemberIDs)
	if err != nil {
		return err
	}
	r.members = members
	return nil
}

// Command converts the validated request.
func (r *CreateGroupRequest) Command() CreateGroupCommand {
	return CreateGroupCommand{
		Name:        r.Name,
		Description: r.Description,
		AvatarURL:   r.AvatarURL,
		MemberIDs:   r.members,
	}
}

type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

func (r *UpdateGroupRequest) Validate() error {
	if r.Name == nil && r.Description == nil && r.AvatarURL == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return validateAvatar(r.AvatarURL)
}

func (r *UpdateGroupRequest) Patch() GroupPatch {
	return GroupPatch{Name: r.Name, Description: r.Description, AvatarURL: r.AvatarURL}
}

type AddMembersRequest struct {
	GroupID   string   `json:"group_id"`
	MemberIDs []string `json:"member_ids"`

	groupID id.GroupID
	members []id.UserID
}

func (r *AddMembersRequest) Normalize() {
	r.GroupID = strings.TrimSpace(r.GroupID)
}

func (r *AddMembersRequest) Validate() error {
	groupID, err := id.ParseGroupID(r.GroupID)
	if err != nil {
		return err
	}
	if len(r.MemberIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "member_ids is required")
	}
	members, err := parseMemberIDs(r.MemberIDs)
	if err != nil {
		return err
	}
	r.groupID = groupID
	r.members = members
	return nil
}

func (r *AddMembersRequest) Target() (id.GroupID, []id.UserID) {
	return r.groupID, r.members
}

func parseMemberIDs(raw []string) ([]id.UserID, error) {
	if len(raw) > maxMembersPerRequest {
		return nil, dErrors.New(dErrors.CodeValidation, "too many member ids")
	}
	out := make([]id.UserID, 0, len(raw))
	for _, s := range raw {
		userID, err := id.ParseUserID(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, userID)
	}
	return out, nil
}

func validateAvatar(avatar *string) error {
	if avatar == nil || strings.TrimSpace(*avatar) == "" {
		return nil
	}
	if !govalidator.IsURL(strings.TrimSpace(*avatar)) {
		return dErrors.New(dErrors.CodeValidation, "avatar_url must be a valid URL")
	}
	return nil
}

// CreateGroupCommand is the validated input to group creation.
type CreateGroupCommand struct {
	Name        string
	Description *string
	AvatarURL   *string
	MemberIDs   []id.UserID
}
