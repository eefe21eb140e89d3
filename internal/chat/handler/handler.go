package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fellowship/internal/chat"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/authz"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

// Checker is satisfied by chat.PermissionChecker.
type Checker interface {
	CheckDelete(ctx context.Context, userID id.UserID, ref chat.Ref) (authz.Decision, error)
	Delete(ctx context.Context, userID id.UserID, ref chat.Ref) error
}

type Handler struct {
	checker Checker
	logger  *slog.Logger
}

func New(checker Checker, logger *slog.Logger) *Handler {
	return &Handler{checker: checker, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/chats/{type}/{id}/delete-permission", h.handleDeletePermission)
	r.Delete("/chats/{type}/{id}", h.handleDelete)
}

func (h *Handler) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	decision, err := h.checker.CheckDelete(ctx, requestcontext.UserID(ctx), ref)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to check delete permission", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	if err := h.checker.Delete(ctx, requestcontext.UserID(ctx), ref); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to delete chat", requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ref(w http.ResponseWriter, r *http.Request) (chat.Ref, bool) {
	ref, err := chat.ParseRef(chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(r.Context(), w, h.logger, err, "invalid chat reference", requestcontext.RequestID(r.Context()))
		return nil, false
	}
	return ref, true
}
