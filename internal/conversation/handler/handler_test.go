package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"fellowship/internal/conversation/models"
	"fellowship/internal/conversation/service"
	"fellowship/internal/conversation/store"
	"fellowship/internal/directory"
	dirStore "fellowship/internal/directory/store"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/testutil"
)

// HandlerSuite exercises the HTTP mapping over real in-memory components.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	alice  *directory.User
	bob    *directory.User
	carol  *directory.User
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func newUser() *directory.User {
	return &directory.User{
		ID:        id.NewUserID(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
	}
}

func (s *HandlerSuite) SetupTest() {
	s.alice, s.bob, s.carol = newUser(), newUser(), newUser()
	users := dirStore.NewInMemoryStore(s.alice, s.bob, s.carol)
	svc, err := service.New(store.NewInMemoryStore(), users, tx.NewLockRunner())
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(svc, users, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
}

func (s *HandlerSuite) create(as, with *directory.User) *models.ConversationResponse {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/conversations", map[string]string{"user_id": with.ID.String()})
	rr := testutil.DoRequest(s.router, testutil.WithUser(req, as.ID))
	s.Require().Contains([]int{http.StatusOK, http.StatusCreated}, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[models.ConversationResponse](s.T(), rr)
}

func (s *HandlerSuite) TestCreateThenReuse() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/conversations", map[string]string{"user_id": s.bob.ID.String()})
	rr := testutil.DoRequest(s.router, testutil.WithUser(req, s.alice.ID))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	first := testutil.UnmarshalResponse[models.ConversationResponse](s.T(), rr)
	s.True(first.Created)
	s.Equal(s.bob.ID, first.OtherUser.ID)
	s.Equal(s.bob.FirstName+" "+s.bob.LastName, first.OtherUser.DisplayName)

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/conversations", map[string]string{"user_id": s.alice.ID.String()})
	rr = testutil.DoRequest(s.router, testutil.WithUser(req, s.bob.ID))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	second := testutil.UnmarshalResponse[models.ConversationResponse](s.T(), rr)
	s.Equal(first.ID, second.ID)
	s.Equal(s.alice.ID, second.OtherUser.ID)
}

func (s *HandlerSuite) TestCreateValidation() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/conversations", map[string]string{})
	rr := testutil.DoRequest(s.router, testutil.WithUser(req, s.alice.ID))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/conversations", map[string]string{"user_id": "not-a-uuid"})
	rr = testutil.DoRequest(s.router, testutil.WithUser(req, s.alice.ID))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/conversations", map[string]string{"user_id": s.alice.ID.String()})
	rr = testutil.DoRequest(s.router, testutil.WithUser(req, s.alice.ID))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestGetByOutsiderIsForbidden() {
	c := s.create(s.alice, s.bob)

	rr := testutil.DoRequest(s.router, testutil.WithUser(
		testutil.NewRequest(s.T(), http.MethodGet, "/conversations/"+c.ID.String()), s.carol.ID))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
}

func (s *HandlerSuite) TestDeleteAndRestore() {
	c := s.create(s.alice, s.bob)
	path := "/conversations/" + c.ID.String()

	rr := testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodDelete, path), s.alice.ID))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodGet, "/conversations"), s.alice.ID))
	testutil.AssertStatusOK(s.T(), rr)
	list := testutil.UnmarshalResponse[models.ConversationListResponse](s.T(), rr)
	s.Empty(list.Conversations)

	rr = testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodPost, path+"/restore"), s.bob.ID))
	testutil.AssertStatusOK(s.T(), rr)
	restored := testutil.UnmarshalResponse[models.ConversationResponse](s.T(), rr)
	s.True(restored.IsActive)

	rr = testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodPost, path+"/restore"), s.bob.ID))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *HandlerSuite) TestInvalidAndMissingIDs() {
	rr := testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodGet, "/conversations/nope"), s.alice.ID))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)

	rr = testutil.DoRequest(s.router, testutil.WithUser(
		testutil.NewRequest(s.T(), http.MethodDelete, "/conversations/"+id.NewConversationID().String()), s.alice.ID))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}
