package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fellowship/internal/message/models"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

// Service defines the message operations exposed over HTTP.
type Service interface {
	Send(ctx context.Context, senderID id.UserID, cmd models.SendCommand) (*models.Message, error)
	ListConversationMessages(ctx context.Context, userID id.UserID, convID id.ConversationID, page models.Page) ([]*models.Message, error)
	ListGroupMessages(ctx context.Context, userID id.UserID, groupID id.GroupID, page models.Page) ([]*models.Message, error)
	MarkConversationRead(ctx context.Context, userID id.UserID, convID id.ConversationID) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/messages", h.handleSend)
	r.Get("/conversations/{id}/messages", h.handleConversationHistory)
	r.Post("/conversations/{id}/read", h.handleMarkRead)
	r.Get("/groups/{id}/messages", h.handleGroupHistory)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SendMessageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	msg, err := h.service.Send(ctx, requestcontext.UserID(ctx), req.Command())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to send message", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewMessageResponse(msg))
}

func (h *Handler) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	convID, err := id.ParseConversationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid conversation id", requestID)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid page", requestID)
		return
	}
	msgs, err := h.service.ListConversationMessages(ctx, requestcontext.UserID(ctx), convID, page)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to list messages", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, render(msgs))
}

func (h *Handler) handleGroupHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, err := id.ParseGroupID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid group id", requestID)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid page", requestID)
		return
	}
	msgs, err := h.service.ListGroupMessages(ctx, requestcontext.UserID(ctx), groupID, page)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to list messages", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, render(msgs))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	convID, err := id.ParseConversationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid conversation id", requestID)
		return
	}
	n, err := h.service.MarkConversationRead(ctx, requestcontext.UserID(ctx), convID)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to mark messages read", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.MarkReadResponse{Updated: n})
}

// parsePage reads ?limit= and an RFC 3339 ?before= cursor.
func parsePage(r *http.Request) (models.Page, error) {
	limit, err := httputil.QueryInt(r, "limit", models.DefaultPageSize)
	if err != nil {
		return models.Page{}, err
	}
	page := models.Page{Limit: limit}
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return models.Page{}, dErrors.New(dErrors.CodeBadRequest, "invalid before parameter")
		}
		page.Before = &before
	}
	return page.Normalize(), nil
}

func render(msgs []*models.Message) models.MessageListResponse {
	out := make([]models.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.NewMessageResponse(m))
	}
	return models.MessageListResponse{Messages: out}
}
