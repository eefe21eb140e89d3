package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fellowship/internal/directory"
	"fellowship/internal/group/models"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

// Service defines the group operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, creatorID id.UserID, cmd models.CreateGroupCommand) (*models.Detail, error)
	AddMembers(ctx context.Context, actingUserID id.UserID, groupID id.GroupID, memberIDs []id.UserID) ([]id.UserID, error)
	Leave(ctx context.Context, userID id.UserID, groupID id.GroupID) (models.LeaveOutcome, error)
	Delete(ctx context.Context, actingUserID id.UserID, groupID id.GroupID) error
	Get(ctx context.Context, userID id.UserID, groupID id.GroupID) (*models.Detail, error)
	ListForUser(ctx context.Context, userID id.UserID) ([]*models.Group, error)
	Update(ctx context.Context, actingUserID id.UserID, groupID id.GroupID, patch models.GroupPatch) (*models.Group, error)
	RemoveMember(ctx context.Context, actingUserID id.UserID, groupID id.GroupID, targetID id.UserID) error
}

// Profiles resolves member display names.
type Profiles interface {
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error)
}

type Handler struct {
	service  Service
	profiles Profiles
	logger   *slog.Logger
}

func New(service Service, profiles Profiles, logger *slog.Logger) *Handler {
	return &Handler{service: service, profiles: profiles, logger: logger}
}

// Register mounts the group routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/groups", h.handleCreate)
	r.Get("/groups", h.handleList)
	r.Post("/groups/members", h.handleAddMembers)
	r.Get("/groups/{id}", h.handleGet)
	r.Put("/groups/{id}", h.handleUpdate)
	r.Delete("/groups/{id}", h.handleDelete)
	r.Delete("/groups/{id}/members/{userID}", h.handleRemoveMember)
	r.Post("/groups/{id}/leave", h.handleLeave)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateGroupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	detail, err := h.service.Create(ctx, requestcontext.UserID(ctx), req.Command())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to create group", requestID)
		return
	}
	resp, err := h.renderDetail(ctx, detail)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to load member profiles", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groups, err := h.service.ListForUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to list groups", requestID)
		return
	}
	resp := models.GroupListResponse{Groups: make([]models.GroupResponse, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, models.NewGroupResponse(g))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AddMembersRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	groupID, memberIDs := req.Target()
	added, err := h.service.AddMembers(ctx, requestcontext.UserID(ctx), groupID, memberIDs)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to add group members", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.AddMembersResponse{Added: added})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Get(ctx, requestcontext.UserID(ctx), groupID)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to load group", requestID)
		return
	}
	resp, err := h.renderDetail(ctx, detail)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to load member profiles", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateGroupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	g, err := h.service.Update(ctx, requestcontext.UserID(ctx), groupID, req.Patch())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to update group", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewGroupResponse(g))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, requestcontext.UserID(ctx), groupID); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to delete group", requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	targetID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid member id", requestID)
		return
	}
	if err := h.service.RemoveMember(ctx, requestcontext.UserID(ctx), groupID, targetID); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to remove group member", requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	outcome, err := h.service.Leave(ctx, requestcontext.UserID(ctx), groupID)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to leave group", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) groupID(w http.ResponseWriter, r *http.Request) (id.GroupID, bool) {
	groupID, err := id.ParseGroupID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(r.Context(), w, h.logger, err, "invalid group id", requestcontext.RequestID(r.Context()))
		return id.GroupID{}, false
	}
	return groupID, true
}

func (h *Handler) renderDetail(ctx context.Context, detail *models.Detail) (models.GroupResponse, error) {
	resp := models.NewGroupResponse(detail.Group)
	resp.MemberCount = len(detail.Members)

	userIDs := make([]id.UserID, 0, len(detail.Members))
	for _, m := range detail.Members {
		userIDs = append(userIDs, m.UserID)
	}
	profiles, err := h.profiles.FindByIDs(ctx, userIDs)
	if err != nil {
		return models.GroupResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member profiles")
	}
	for _, m := range detail.Members {
		mr := models.MemberResponse{UserID: m.UserID, IsAdmin: m.IsAdmin, JoinedAt: m.JoinedAt}
		if u, ok := profiles[m.UserID]; ok {
			mr.DisplayName = u.DisplayName()
			mr.AvatarURL = u.AvatarURL
		}
		resp.Members = append(resp.Members, mr)
	}
	return resp, nil
}
