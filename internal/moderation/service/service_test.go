package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Groups,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fellowship/internal/directory"
	dirStore "fellowship/internal/directory/store"
	groupModels "fellowship/internal/group/models"
	groupService "fellowship/internal/group/service"
	groupStore "fellowship/internal/group/store"
	"fellowship/internal/moderation/models"
	"fellowship/internal/moderation/service/mocks"
	reportStore "fellowship/internal/moderation/store"
	"fellowship/internal/platform/metrics"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/audit/publisher"
	auditmemory "fellowship/pkg/platform/audit/store/memory"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// =============================================================================
// Moderation Service Test Suite
// =============================================================================
// Justification: report-and-leave composes with the real group manager so the suite sees
// succession and delete-when-empty happen inside the same transaction as the report.

type ModerationServiceSuite struct {
	suite.Suite
	groups     *groupService.Service
	store      *reportStore.InMemoryStore
	auditStore *auditmemory.InMemoryStore
	metrics    *metrics.Metrics
	service    *Service
	now        time.Time
	denethor   id.UserID
	boromir    id.UserID
	faramir    id.UserID
	gollum     id.UserID
	groupID    id.GroupID
}

func TestModerationServiceSuite(t *testing.T) {
	suite.Run(t, new(ModerationServiceSuite))
}

func (s *ModerationServiceSuite) SetupTest() {
	s.denethor, s.boromir, s.faramir, s.gollum = id.NewUserID(), id.NewUserID(), id.NewUserID(), id.NewUserID()
	users := dirStore.NewInMemoryStore(
		&directory.User{ID: s.denethor, FirstName: "Denethor"},
		&directory.User{ID: s.boromir, FirstName: "Boromir"},
		&directory.User{ID: s.faramir, FirstName: "Faramir"},
		&directory.User{ID: s.gollum, FirstName: "Smeagol"},
	)
	runner := tx.NewLockRunner()
	var err error
	s.groups, err = groupService.New(groupStore.NewInMemoryStore(), users, runner)
	s.Require().NoError(err)

	s.store = reportStore.NewInMemoryStore()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.now = time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC)
	s.service, err = New(s.store, s.groups, runner,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
	s.Require().NoError(err)

	detail, err := s.groups.Create(s.at(0), s.denethor, groupModels.CreateGroupCommand{Name: "Minas Tirith"})
	s.Require().NoError(err)
	s.groupID = detail.Group.ID
	_, _, err = s.groups.AddMember(s.at(time.Minute), s.groupID, s.boromir)
	s.Require().NoError(err)
	_, _, err = s.groups.AddMember(s.at(2*time.Minute), s.groupID, s.faramir)
	s.Require().NoError(err)
}

func (s *ModerationServiceSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func spam(details string) models.ReportCommand {
	return models.ReportCommand{Reason: models.ReasonSpam, Details: &details}
}

// =============================================================================
// Report
// =============================================================================

func (s *ModerationServiceSuite) TestReportPersistsUnreviewed() {
	r, err := s.service.Report(s.at(time.Hour), s.faramir, s.groupID, spam("  palantir sales  "))
	s.Require().NoError(err)
	s.False(r.Reviewed)
	s.Equal("palantir sales", *r.Details)

	stored, err := s.store.FindByID(s.at(0), r.ID)
	s.Require().NoError(err)
	s.Equal(s.faramir, stored.ReporterID)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReportsFiled.WithLabelValues("spam")))
	s.Equal([]string{string(audit.EventGroupReported)}, s.auditStore.Actions(s.faramir))
	s.True(s.isMember(s.faramir), "reporting alone does not leave")
}

func (s *ModerationServiceSuite) TestReportRequiresMembership() {
	_, err := s.service.Report(s.at(0), s.gollum, s.groupID, spam("thief"))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Report(s.at(0), s.faramir, id.NewGroupID(), spam("?"))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	all, err := s.service.ListReports(s.at(0), nil)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ModerationServiceSuite) TestReportRejectsUnknownReason() {
	_, err := s.service.Report(s.at(0), s.faramir, s.groupID, models.ReportCommand{Reason: "rude"})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

// =============================================================================
// Report and leave
// =============================================================================

func (s *ModerationServiceSuite) TestReportAndLeavePromotesEarliestMember() {
	r, outcome, err := s.service.ReportAndLeave(s.at(time.Hour), s.denethor, s.groupID,
		models.ReportCommand{Reason: models.ReasonHarassment})
	s.Require().NoError(err)
	s.Nil(r.Details)
	s.False(outcome.GroupDeleted)
	s.Require().NotNil(outcome.PromotedUserID)
	s.Equal(s.boromir, *outcome.PromotedUserID)
	s.False(s.isMember(s.denethor))

	detail, err := s.groups.Get(s.at(0), s.boromir, s.groupID)
	s.Require().NoError(err)
	boromir := groupModels.FindMember(detail.Members, s.boromir)
	s.Require().NotNil(boromir)
	s.True(boromir.IsAdmin)
}

func (s *ModerationServiceSuite) TestReportAndLeaveLastMemberDeletesGroup() {
	solo, err := s.groups.Create(s.at(0), s.gollum, groupModels.CreateGroupCommand{Name: "Cave"})
	s.Require().NoError(err)

	r, outcome, err := s.service.ReportAndLeave(s.at(time.Hour), s.gollum, solo.Group.ID, spam("fish"))
	s.Require().NoError(err)
	s.True(outcome.GroupDeleted)

	_, err = s.groups.Lookup(s.at(0), solo.Group.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	stored, err := s.store.FindByID(s.at(0), r.ID)
	s.Require().NoError(err, "reports outlive their group")
	s.Equal(solo.Group.ID, stored.GroupID)
}

// =============================================================================
// Review queue
// =============================================================================

func (s *ModerationServiceSuite) TestListAndReview() {
	first, err := s.service.Report(s.at(time.Minute), s.faramir, s.groupID, spam("one"))
	s.Require().NoError(err)
	second, err := s.service.Report(s.at(2*time.Minute), s.boromir, s.groupID, spam("two"))
	s.Require().NoError(err)

	reviewed, err := s.service.MarkReviewed(s.at(time.Hour), first.ID)
	s.Require().NoError(err)
	s.True(reviewed.Reviewed)
	again, err := s.service.MarkReviewed(s.at(2*time.Hour), first.ID)
	s.Require().NoError(err)
	s.True(again.ReviewedAt.Equal(s.now.Add(time.Hour)))

	yes, no := true, false
	done, err := s.service.ListReports(s.at(0), &yes)
	s.Require().NoError(err)
	s.Require().Len(done, 1)
	s.Equal(first.ID, done[0].ID)

	pending, err := s.service.ListReports(s.at(0), &no)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)

	all, err := s.service.ListReports(s.at(0), nil)
	s.Require().NoError(err)
	s.Len(all, 2)

	_, err = s.service.MarkReviewed(s.at(0), id.NewReportID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ModerationServiceSuite) isMember(userID id.UserID) bool {
	ok, err := s.groups.IsMember(s.at(0), s.groupID, userID)
	s.Require().NoError(err)
	return ok
}

// =============================================================================
// Moderation Service Mock Suite
// =============================================================================
// Justification: a failed leave must roll back the report, which needs a leave error the
// real group manager cannot produce for a valid member.

type ModerationServiceMockSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	groups  *mocks.MockGroups
	service *Service
}

func TestModerationServiceMockSuite(t *testing.T) {
	suite.Run(t, new(ModerationServiceMockSuite))
}

func (s *ModerationServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.groups = mocks.NewMockGroups(s.ctrl)
	var err error
	s.service, err = New(s.store, s.groups, tx.NewLockRunner())
	s.Require().NoError(err)
}

func (s *ModerationServiceMockSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ModerationServiceMockSuite) TestLeaveFailurePropagates() {
	userID, groupID := id.NewUserID(), id.NewGroupID()
	s.groups.EXPECT().Get(gomock.Any(), userID, groupID).Return(&groupModels.Detail{}, nil)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.groups.EXPECT().Leave(gomock.Any(), userID, groupID).
		Return(groupModels.LeaveOutcome{}, dErrors.Wrap(errors.New("deadlock"), dErrors.CodeInternal, "failed to remove group member"))

	_, _, err := s.service.ReportAndLeave(context.Background(), userID, groupID, models.ReportCommand{Reason: models.ReasonOther})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ModerationServiceMockSuite) TestStoreFailure() {
	userID, groupID := id.NewUserID(), id.NewGroupID()
	s.groups.EXPECT().Get(gomock.Any(), userID, groupID).Return(&groupModels.Detail{}, nil)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := s.service.Report(context.Background(), userID, groupID, models.ReportCommand{Reason: models.ReasonSpam})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ModerationServiceMockSuite) TestNewRequiresDependencies() {
	runner := tx.NewLockRunner()
	_, err := New(nil, s.groups, runner)
	s.ErrorContains(err, "report store is required")
	_, err = New(s.store, nil, runner)
	s.ErrorContains(err, "group manager is required")
	_, err = New(s.store, s.groups, nil)
	s.ErrorContains(err, "transaction runner is required")
}
