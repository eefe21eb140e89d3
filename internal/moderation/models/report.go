// Package models defines group reports filed by members for moderator review.
package models

import (
	"sort"
	"strings"
	"time"

	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	pstrings "fellowship/pkg/platform/strings"
)

// Reason classifies a report.
type Reason string

const (
	ReasonSpam                 Reason = "spam"
	ReasonHarassment           Reason = "harassment"
	ReasonInappropriateContent Reason = "inappropriate_content"
	ReasonHateSpeech           Reason = "hate_speech"
	ReasonOther                Reason = "other"
)

// MaxDetailsLength bounds report details in runes.
const MaxDetailsLength = 1000

// ParseReason accepts a case-insensitive reason name.
func ParseReason(raw string) (Reason, error) {
	r := Reason(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case ReasonSpam, ReasonHarassment, ReasonInappropriateContent, ReasonHateSpeech, ReasonOther:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "reason must be one of spam, harassment, inappropriate_content, hate_speech, other")
}

type Report struct {
	ID         id.ReportID
	GroupID    id.GroupID
	ReporterID id.UserID
	Reason     Reason
	Details    *string
	Reviewed   bool
	ReviewedAt *time.Time
	CreatedAt  time.Time
}

// NewReport builds an unreviewed report. Blank details are dropped.
func NewReport(groupID id.GroupID, reporterID id.UserID, reason Reason, details *string, now time.Time) (*Report, error) {
	if _, err := ParseReason(string(reason)); err != nil {
		return nil, err
	}
	var kept *string
	if details != nil {
		trimmed := strings.TrimSpace(*details)
		if pstrings.RuneLen(trimmed) > MaxDetailsLength {
			return nil, dErrors.New(dErrors.CodeBadRequest, "details must be at most 1000 characters")
		}
		if trimmed != "" {
			kept = &trimmed
		}
	}
	return &Report{
		ID:         id.NewReportID(),
		GroupID:    groupID,
		ReporterID: reporterID,
		Reason:     reason,
		Details:    kept,
		CreatedAt:  now,
	}, nil
}

// MarkReviewed flags the report as reviewed. It returns false when it already was.
func (r *Report) MarkReviewed(now time.Time) bool {
	if r.Reviewed {
		return false
	}
	r.Reviewed = true
	r.ReviewedAt = &now
	return true
}

// ReportCommand is the validated input to filing a report.
type ReportCommand struct {
	Reason  Reason
	Details *string
}

// Filter narrows a report listing; a nil Reviewed lists everything.
type Filter struct {
	Reviewed *bool
}

func (f Filter) Matches(r *Report) bool {
	return f.Reviewed == nil || *f.Reviewed == r.Reviewed
}

// NewestFirst orders reports by creation time descending.
func NewestFirst(reports []*Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}
