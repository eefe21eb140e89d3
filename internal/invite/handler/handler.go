package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	groupModels "fellowship/internal/group/models"
	"fellowship/internal/invite/models"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

// Service defines the invite operations exposed over HTTP.
type Service interface {
	Issue(ctx context.Context, groupID id.GroupID, issuerID id.UserID) (*models.IssueResult, error)
	Redeem(ctx context.Context, code string, userID id.UserID) (*models.RedeemResult, error)
	Preview(ctx context.Context, code string) (*models.Preview, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the invite routes that need an authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/groups/{id}/invite-link", h.handleIssue)
	r.Post("/groups/invite/{code}", h.handleRedeem)
}

// RegisterPublic mounts the unauthenticated landing-page route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/groups/invite/{code}/info", h.handlePreview)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, err := id.ParseGroupID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid group id", requestID)
		return
	}
	res, err := h.service.Issue(ctx, groupID, requestcontext.UserID(ctx))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to issue invite", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	code, ok := h.code(w, r)
	if !ok {
		return
	}
	res, err := h.service.Redeem(ctx, code, requestcontext.UserID(ctx))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to redeem invite", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.RedeemResponse{
		Group:       groupModels.NewGroupResponse(res.Group),
		IsNewMember: res.IsNewMember,
		MemberCount: res.MemberCount,
	})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	code, ok := h.code(w, r)
	if !ok {
		return
	}
	p, err := h.service.Preview(ctx, code)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to load invite preview", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) code(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invite code is required"))
		return "", false
	}
	return code, true
}
