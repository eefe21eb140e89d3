package models

import (
	"time"

	groupModels "fellowship/internal/group/models"
	id "fellowship/pkg/domain"
)

type ReportResponse struct {
	ID         id.ReportID `json:"id"`
	GroupID    id.GroupID  `json:"group_id"`
	ReporterID id.UserID   `json:"reporter_id"`
	Reason     Reason      `json:"reason"`
	Details    *string     `json:"details,omitempty"`
	Reviewed   bool        `json:"reviewed"`
	ReviewedAt *time.Time  `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func NewReportResponse(r *Report) ReportResponse {
	return ReportResponse{
		ID:         r.ID,
		GroupID:    r.GroupID,
		ReporterID: r.ReporterID,
		Reason:     r.Reason,
		Details:    r.Details,
		Reviewed:   r.Reviewed,
		ReviewedAt: r.ReviewedAt,
		CreatedAt:  r.CreatedAt,
	}
}

type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
}

// ReportAndLeaveResponse carries the report and the side effects of leaving.
type ReportAndLeaveResponse struct {
	Report ReportResponse           `json:"report"`
	Leave  groupModels.LeaveOutcome `json:"leave"`
}
