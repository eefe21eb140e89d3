package chat

import (
	"context"
	"fmt"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/authz"
)

// Conversations is the conversation manager as seen by chat dispatch.
type Conversations interface {
	CheckDeletePermission(ctx context.Context, userID id.UserID, convID id.ConversationID) (authz.Decision, error)
	Delete(ctx context.Context, userID id.UserID, convID id.ConversationID) error
}

// Groups is the group manager as seen by chat dispatch.
type Groups interface {
	CheckDeletePermission(ctx context.Context, userID id.UserID, groupID id.GroupID) (authz.Decision, error)
	Delete(ctx context.Context, userID id.UserID, groupID id.GroupID) error
}

// PermissionChecker dispatches per-chat operations to the owning manager.
type PermissionChecker struct {
	conversations Conversations
	groups        Groups
}

func NewPermissionChecker(conversations Conversations, groups Groups) (*PermissionChecker, error) {
	if conversations == nil {
		return nil, fmt.Errorf("conversation service is required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group service is required")
	}
	return &PermissionChecker{conversations: conversations, groups: groups}, nil
}

// CheckDelete reports whether userID may delete the chat.
func (p *PermissionChecker) CheckDelete(ctx context.Context, userID id.UserID, ref Ref) (authz.Decision, error) {
	switch r := ref.(type) {
	case ConversationRef:
		return p.conversations.CheckDeletePermission(ctx, userID, r.ID)
	case GroupRef:
		return p.groups.CheckDeletePermission(ctx, userID, r.ID)
	default:
		return authz.Decision{}, dErrors.New(dErrors.CodeBadRequest, "unknown chat type")
	}
}

// Delete removes the chat. Each manager runs its own authorization.
func (p *PermissionChecker) Delete(ctx context.Context, userID id.UserID, ref Ref) error {
	switch r := ref.(type) {
	case ConversationRef:
		return p.conversations.Delete(ctx, userID, r.ID)
	case GroupRef:
		return p.groups.Delete(ctx, userID, r.ID)
	default:
		return dErrors.New(dErrors.CodeBadRequest, "unknown chat type")
	}
}
