package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"fellowship/internal/directory"
	dirStore "fellowship/internal/directory/store"
	groupModels "fellowship/internal/group/models"
	groupService "fellowship/internal/group/service"
	groupStore "fellowship/internal/group/store"
	"fellowship/internal/invite/models"
	"fellowship/internal/invite/service"
	"fellowship/internal/invite/store"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	svc     *service.Service
	groupID id.GroupID
	owner   id.UserID
	guest   id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.owner, s.guest = id.NewUserID(), id.NewUserID()
	users := dirStore.NewInMemoryStore(
		&directory.User{ID: s.owner, FirstName: "Galadriel"},
		&directory.User{ID: s.guest, FirstName: "Gimli"},
	)
	runner := tx.NewLockRunner()
	groups, err := groupService.New(groupStore.NewInMemoryStore(), users, runner)
	s.Require().NoError(err)
	detail, err := groups.Create(context.Background(), s.owner, groupModels.CreateGroupCommand{Name: "Lothlorien"})
	s.Require().NoError(err)
	s.groupID = detail.Group.ID

	s.svc, err = service.New(store.NewInMemoryStore(), groups, users, runner, service.WithBaseURL("https://fellowship.example/join"))
	s.Require().NoError(err)

	r := chi.NewRouter()
	h := New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Register(r)
	h.RegisterPublic(r)
	s.router = r
}

func (s *HandlerSuite) issue() *models.IssueResult {
	rr := testutil.DoRequest(s.router, testutil.WithUser(
		testutil.NewRequest(s.T(), http.MethodGet, "/groups/"+s.groupID.String()+"/invite-link"), s.owner))
	testutil.AssertStatusOK(s.T(), rr)
	return testutil.UnmarshalResponse[models.IssueResult](s.T(), rr)
}

func (s *HandlerSuite) TestIssueRedeemPreview() {
	res := s.issue()
	s.Equal("https://fellowship.example/join/"+res.Code, res.Link)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/groups/invite/"+res.Code+"/info"))
	testutil.AssertStatusOK(s.T(), rr)
	preview := testutil.UnmarshalResponse[models.Preview](s.T(), rr)
	s.Equal("Lothlorien", preview.GroupName)
	s.Equal("Galadriel", preview.CreatorName)
	s.Equal(1, preview.MemberCount)

	rr = testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodPost, "/groups/invite/"+res.Code), s.guest))
	testutil.AssertStatusOK(s.T(), rr)
	redeemed := testutil.UnmarshalResponse[models.RedeemResponse](s.T(), rr)
	s.True(redeemed.IsNewMember)
	s.Equal(2, redeemed.MemberCount)
	s.Equal(s.groupID, redeemed.Group.ID)
}

func (s *HandlerSuite) TestIssueByOutsiderIsForbidden() {
	rr := testutil.DoRequest(s.router, testutil.WithUser(
		testutil.NewRequest(s.T(), http.MethodGet, "/groups/"+s.groupID.String()+"/invite-link"), s.guest))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
}

func (s *HandlerSuite) TestInvalidGroupID() {
	rr := testutil.DoRequest(s.router, testutil.WithUser(
		testutil.NewRequest(s.T(), http.MethodGet, "/groups/not-a-uuid/invite-link"), s.owner))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestUnknownCode() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/groups/invite/missing/info"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodPost, "/groups/invite/missing"), s.guest))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestExpiredInviteIsGone() {
	res := s.issue()
	req := testutil.WithUser(testutil.NewRequest(s.T(), http.MethodPost, "/groups/invite/"+res.Code), s.guest)
	req = testutil.WithTime(req, res.ExpiresAt.Add(time.Minute))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusGone, "gone")
}
