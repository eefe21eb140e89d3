package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	groupModels "fellowship/internal/group/models"
	"fellowship/internal/moderation/models"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/requestcontext"
)

// Service defines the moderation operations exposed over HTTP.
type Service interface {
	Report(ctx context.Context, userID id.UserID, groupID id.GroupID, cmd models.ReportCommand) (*models.Report, error)
	ReportAndLeave(ctx context.Context, userID id.UserID, groupID id.GroupID, cmd models.ReportCommand) (*models.Report, groupModels.LeaveOutcome, error)
	ListReports(ctx context.Context, reviewed *bool) ([]*models.Report, error)
	MarkReviewed(ctx context.Context, reportID id.ReportID) (*models.Report, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the member-facing report routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/groups/{id}/report", h.handleReport)
	r.Post("/groups/{id}/report-and-leave", h.handleReportAndLeave)
}

// RegisterAdmin mounts the review queue. Callers guard the router with the admin token.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/group-reports", h.handleList)
	r.Post("/admin/group-reports/{id}/review", h.handleReview)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ReportGroupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	report, err := h.service.Report(ctx, requestcontext.UserID(ctx), groupID, req.Command())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to report group", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewReportResponse(report))
}

func (h *Handler) handleReportAndLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ReportGroupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	report, outcome, err := h.service.ReportAndLeave(ctx, requestcontext.UserID(ctx), groupID, req.Command())
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to report and leave group", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ReportAndLeaveResponse{
		Report: models.NewReportResponse(report),
		Leave:  outcome,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var reviewed *bool
	if raw := r.URL.Query().Get("reviewed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "reviewed must be true or false"))
			return
		}
		reviewed = &v
	}
	reports, err := h.service.ListReports(ctx, reviewed)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to list reports", requestID)
		return
	}
	resp := models.ReportListResponse{Reports: make([]models.ReportResponse, 0, len(reports))}
	for _, report := range reports {
		resp.Reports = append(resp.Reports, models.NewReportResponse(report))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "invalid report id", requestID)
		return
	}
	report, err := h.service.MarkReviewed(ctx, reportID)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, err, "failed to review report", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewReportResponse(report))
}

func (h *Handler) groupID(w http.ResponseWriter, r *http.Request) (id.GroupID, bool) {
	groupID, err := id.ParseGroupID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.LogAndWriteError(r.Context(), w, h.logger, err, "invalid group id", requestcontext.RequestID(r.Context()))
		return id.GroupID{}, false
	}
	return groupID, true
}
