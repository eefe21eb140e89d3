package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fellowship/internal/conversation/models"
	"fellowship/internal/directory"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

// Service defines the conversation operations exposed over HTTP.
type Service interface {
	FindOrCreate(ctx context.Context, requester, other id.UserID) (*models.Conversation, bool, error)
	Get(ctx context.Context, userID id.UserID, convID id.ConversationID) (*models.Conversation, error)
	Delete(ctx context.Context, userID id.UserID, convID id.ConversationID) error
	Restore(ctx context.Context, userID id.UserID, convID id.ConversationID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID id.UserID) ([]*models.Conversation, error)
}

// Profiles resolves the other participant for rendering.
type Profiles interface {
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error)
}

// Handler serves the /conversations routes.
type Handler struct {
	service  Service
	profiles Profiles
	logger   *slog.Logger
}

func New(service Service, profiles Profiles, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		profiles: profiles,
		logger:   logger,
	}
}

// Register mounts the routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/conversations", h.handleList)
	r.Post("/conversations", h.handleCreate)
	r.Get("/conversations/{id}", h.handleGet)
	r.Delete("/conversations/{id}", h.handleDelete)
	r.Post("/conversations/{id}/restore", h.handleRestore)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	list, err := h.service.ListForUser(ctx, userID)
	if err != nil {
		h.fail(ctx, w, err, "failed to list conversations", requestID)
		return
	}
	resp, err := h.render(ctx, userID, list...)
	if err != nil {
		h.fail(ctx, w, err, "failed to load participants", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ConversationListResponse{Conversations: resp})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateConversationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, created, err := h.service.FindOrCreate(ctx, userID, req.Target())
	if err != nil {
		h.fail(ctx, w, err, "failed to open conversation", requestID)
		return
	}
	resp, err := h.render(ctx, userID, c)
	if err != nil {
		h.fail(ctx, w, err, "failed to load participants", requestID)
		return
	}
	resp[0].Created = created
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, resp[0])
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	convID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, userID, convID)
	if err != nil {
		h.fail(ctx, w, err, "failed to load conversation", requestID)
		return
	}
	resp, err := h.render(ctx, userID, c)
	if err != nil {
		h.fail(ctx, w, err, "failed to load participants", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp[0])
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	convID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, requestcontext.UserID(ctx), convID); err != nil {
		h.fail(ctx, w, err, "failed to delete conversation", requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	convID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Restore(ctx, userID, convID)
	if err != nil {
		h.fail(ctx, w, err, "failed to restore conversation", requestID)
		return
	}
	resp, err := h.render(ctx, userID, c)
	if err != nil {
		h.fail(ctx, w, err, "failed to load participants", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp[0])
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (id.ConversationID, bool) {
	convID, err := id.ParseConversationID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid conversation id",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return id.ConversationID{}, false
	}
	return convID, true
}

func (h *Handler) render(ctx context.Context, userID id.UserID, list ...*models.Conversation) ([]models.ConversationResponse, error) {
	others := make([]id.UserID, 0, len(list))
	for _, c := range list {
		others = append(others, c.OtherParticipant(userID))
	}
	profiles, err := h.profiles.FindByIDs(ctx, others)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participants")
	}

	out := make([]models.ConversationResponse, 0, len(list))
	for _, c := range list {
		other := models.Participant{ID: c.OtherParticipant(userID)}
		if u, ok := profiles[other.ID]; ok {
			other.DisplayName = u.DisplayName()
			other.AvatarURL = u.AvatarURL
		}
		out = append(out, models.ConversationResponse{
			ID:            c.ID,
			OtherUser:     other,
			IsActive:      c.IsActive,
			LastMessageAt: c.LastMessageAt,
			CreatedAt:     c.CreatedAt,
		})
	}
	return out, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg, requestID string) {
	httputil.LogAndWriteError(ctx, w, h.logger, err, msg, requestID)
}
