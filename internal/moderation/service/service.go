// Package service files group reports and serves the moderator review queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	groupModels "fellowship/internal/group/models"
	"fellowship/internal/moderation/models"
	"fellowship/internal/platform/metrics"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// Store persists reports. Implementations return sentinel errors.
type Store interface {
	Create(ctx context.Context, r *models.Report) error
	FindByID(ctx context.Context, reportID id.ReportID) (*models.Report, error)
	Save(ctx context.Context, r *models.Report) error
	List(ctx context.Context, filter models.Filter) ([]*models.Report, error)
}

// Groups checks membership and performs the leave half of report-and-leave.
type Groups interface {
	Get(ctx context.Context, userID id.UserID, groupID id.GroupID) (*groupModels.Detail, error)
	Leave(ctx context.Context, userID id.UserID, groupID id.GroupID) (groupModels.LeaveOutcome, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	groups         Groups
	tx             tx.Runner
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, groups Groups, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("report store is required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group manager is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	svc := &Service{
		store:  store,
		groups: groups,
		tx:     runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Report files an unreviewed report against a group the user belongs to.
func (s *Service) Report(ctx context.Context, userID id.UserID, groupID id.GroupID, cmd models.ReportCommand) (*models.Report, error) {
	var report *models.Report
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.file(ctx, userID, groupID, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordFiled(ctx, report, false)
	return report, nil
}

// ReportAndLeave files a report and leaves the group in one transaction. Leaving may promote
// a new admin or delete the group; the outcome is returned as is.
func (s *Service) ReportAndLeave(ctx context.Context, userID id.UserID, groupID id.GroupID, cmd models.ReportCommand) (*models.Report, groupModels.LeaveOutcome, error) {
	var (
		report  *models.Report
		outcome groupModels.LeaveOutcome
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if report, err = s.file(ctx, userID, groupID, cmd); err != nil {
			return err
		}
		outcome, err = s.groups.Leave(ctx, userID, groupID)
		return err
	})
	if err != nil {
		return nil, groupModels.LeaveOutcome{}, err
	}
	s.recordFiled(ctx, report, true)
	return report, outcome, nil
}

func (s *Service) file(ctx context.Context, userID id.UserID, groupID id.GroupID, cmd models.ReportCommand) (*models.Report, error) {
	if _, err := s.groups.Get(ctx, userID, groupID); err != nil {
		return nil, err
	}
	report, err := models.NewReport(groupID, userID, cmd.Reason, cmd.Details, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, report); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to file report")
	}
	return report, nil
}

func (s *Service) recordFiled(ctx context.Context, report *models.Report, left bool) {
	if s.metrics != nil {
		s.metrics.ReportsFiled.WithLabelValues(string(report.Reason)).Inc()
	}
	s.logAudit(ctx, audit.EventGroupReported,
		"user_id", report.ReporterID.String(),
		"group_id", report.GroupID.String(),
		"report_id", report.ID.String(),
		"reason", string(report.Reason),
		"left", left,
	)
}

// ListReports returns reports for moderators, newest first. A nil reviewed lists all.
func (s *Service) ListReports(ctx context.Context, reviewed *bool) ([]*models.Report, error) {
	reports, err := s.store.List(ctx, models.Filter{Reviewed: reviewed})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reports")
	}
	return reports, nil
}

// MarkReviewed flags a report as reviewed. Reviewing twice keeps the first review time.
func (s *Service) MarkReviewed(ctx context.Context, reportID id.ReportID) (*models.Report, error) {
	var (
		report  *models.Report
		changed bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.store.FindByID(ctx, reportID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "report not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load report")
		}
		report = r
		if !r.MarkReviewed(requestcontext.Now(ctx)) {
			return nil
		}
		if err := s.store.Save(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update report")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logAudit(ctx, audit.EventGroupReportReviewed,
			"report_id", report.ID.String(),
			"group_id", report.GroupID.String(),
		)
	}
	return report, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attributes...)
}
