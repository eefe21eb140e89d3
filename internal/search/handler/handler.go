package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fellowship/internal/search/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

type Service interface {
	Search(ctx context.Context, userID id.UserID, query string) (*models.Results, error)
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

func (h *Handler) Register(r chi.Router) {
	r.Get("/search", h.handleSearch)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	res, err := h.service.Search(ctx, requestcontext.UserID(ctx), r.URL.Query().Get("query"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "search failed", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
