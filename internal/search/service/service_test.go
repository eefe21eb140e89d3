package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Faithful,UserDirectory,Conversations,Groups,Messages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fellowship/internal/chat"
	contactModels "fellowship/internal/contact/models"
	contactStore "fellowship/internal/contact/store"
	convService "fellowship/internal/conversation/service"
	convStore "fellowship/internal/conversation/store"
	"fellowship/internal/directory"
	dirStore "fellowship/internal/directory/store"
	groupModels "fellowship/internal/group/models"
	groupService "fellowship/internal/group/service"
	groupStore "fellowship/internal/group/store"
	msgModels "fellowship/internal/message/models"
	msgService "fellowship/internal/message/service"
	msgStore "fellowship/internal/message/store"
	"fellowship/internal/platform/metrics"
	"fellowship/internal/search/models"
	"fellowship/internal/search/service/mocks"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	pstrings "fellowship/pkg/platform/strings"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// =============================================================================
// Search Service Test Suite
// =============================================================================
// Justification: ranking depends on what the other managers persisted (faithful records,
// conversations, latest messages), so the suite seeds them through the real services.

type SearchServiceSuite struct {
	suite.Suite
	messages *msgService.Service
	groups   *groupService.Service
	metrics  *metrics.Metrics
	service  *Service
	now      time.Time
	aragorn  id.UserID
	marigold id.UserID
	marco    id.UserID
	martha   id.UserID
}

func TestSearchServiceSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceSuite))
}

func (s *SearchServiceSuite) SetupTest() {
	s.aragorn, s.marigold, s.marco, s.martha = id.NewUserID(), id.NewUserID(), id.NewUserID(), id.NewUserID()
	users := dirStore.NewInMemoryStore(
		&directory.User{ID: s.aragorn, FirstName: "Aragorn", LastName: "Elessar"},
		&directory.User{ID: s.marigold, FirstName: "Marigold", LastName: "Gamgee"},
		&directory.User{ID: s.marco, FirstName: "Marco", LastName: "Polo"},
		&directory.User{ID: s.martha, FirstName: "Martha", Email: "martha@shire.example"},
	)
	faithful := contactStore.NewInMemoryStore(&contactModels.FaithfulPerson{
		ID:     id.NewFaithfulPersonID(),
		UserID: s.marigold,
		Name:   "Marigold Gamgee",
		Title:  "Keeper of Bag End",
	})
	runner := tx.NewLockRunner()
	conversations, err := convService.New(convStore.NewInMemoryStore(), users, runner)
	s.Require().NoError(err)
	s.groups, err = groupService.New(groupStore.NewInMemoryStore(), users, runner)
	s.Require().NoError(err)
	s.messages, err = msgService.New(msgStore.NewInMemoryStore(), conversations, s.groups, runner)
	s.Require().NoError(err)

	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.now = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s.service, err = New(faithfulSource{faithful}, users, conversations, s.groups, s.messages,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
}

// faithfulSource exposes the store's faithful search under the service's interface.
type faithfulSource struct{ store *contactStore.InMemoryStore }

func (f faithfulSource) SearchFaithful(ctx context.Context, term string) ([]*contactModels.FaithfulPerson, error) {
	return f.store.SearchFaithful(ctx, term)
}

func (s *SearchServiceSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *SearchServiceSuite) dm(offset time.Duration, from, to id.UserID, content string) {
	_, err := s.messages.Send(s.at(offset), from, msgModels.SendCommand{Content: content, RecipientID: &to})
	s.Require().NoError(err)
}

func (s *SearchServiceSuite) searchesObserved() uint64 {
	var m dto.Metric
	s.Require().NoError(s.metrics.SearchDuration.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func personNames(people []models.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Name
	}
	return out
}

// =============================================================================
// People
// =============================================================================

func (s *SearchServiceSuite) TestFaithfulRankedAboveRecentConversation() {
	s.dm(time.Hour, s.aragorn, s.marco, "Have you charted the route east of the Misty Mountains yet?")

	res, err := s.service.Search(s.at(2*time.Hour), s.aragorn, "mar")
	s.Require().NoError(err)

	s.Equal([]string{"Marigold Gamgee", "Marco Polo", "Martha"}, personNames(res.People))
	s.True(res.People[0].IsFaithful)
	s.Require().NotNil(res.People[0].FaithfulID)

	marco := res.People[1]
	s.Require().NotNil(marco.LastMessageAt)
	s.True(marco.LastMessageAt.Equal(s.now.Add(time.Hour)))
	s.Equal(pstrings.Truncate("Have you charted the route east of the Misty Mountains yet?", models.PersonPreviewLength), marco.LastMessage)
	s.True(strings.HasSuffix(marco.LastMessage, pstrings.Ellipsis))

	s.Empty(res.People[2].LastMessage, "no conversation, no preview")
	s.Equal(uint64(1), s.searchesObserved())
}

func (s *SearchServiceSuite) TestPeopleOrderedByMostRecentMessage() {
	s.dm(time.Minute, s.martha, s.aragorn, "second breakfast?")
	s.dm(2*time.Minute, s.aragorn, s.marco, "ahoy")

	res, err := s.service.Search(s.at(time.Hour), s.aragorn, "MAR")
	s.Require().NoError(err)
	s.Equal([]string{"Marigold Gamgee", "Marco Polo", "Martha"}, personNames(res.People))

	s.dm(3*time.Minute, s.martha, s.aragorn, "well?")
	res, err = s.service.Search(s.at(time.Hour), s.aragorn, "mar")
	s.Require().NoError(err)
	s.Equal([]string{"Marigold Gamgee", "Martha", "Marco Polo"}, personNames(res.People))
}

func (s *SearchServiceSuite) TestExcludesCaller() {
	res, err := s.service.Search(s.at(0), s.marco, "mar")
	s.Require().NoError(err)
	s.NotContains(personNames(res.People), "Marco Polo")
}

func (s *SearchServiceSuite) TestShortQueryReturnsEmpty() {
	for _, q := range []string{"", " ", "m", "  é "} {
		res, err := s.service.Search(s.at(0), s.aragorn, q)
		s.Require().NoError(err)
		s.Empty(res.People)
		s.Empty(res.Chats)
		s.NotNil(res.People, "empty lists encode as []")
	}
	s.Zero(s.searchesObserved(), "short queries are not timed")
}

// =============================================================================
// Chats
// =============================================================================

func (s *SearchServiceSuite) TestChatsCombineGroupsAndConversations() {
	mariners, err := s.groups.Create(s.at(0), s.aragorn, groupModels.CreateGroupCommand{Name: "Mariners of Gondor", MemberIDs: []id.UserID{s.marco}})
	s.Require().NoError(err)
	_, err = s.groups.Create(s.at(0), s.aragorn, groupModels.CreateGroupCommand{Name: "Rangers"})
	s.Require().NoError(err)
	_, err = s.groups.Create(s.at(0), s.aragorn, groupModels.CreateGroupCommand{Name: "Marshals"})
	s.Require().NoError(err)

	s.dm(time.Minute, s.marco, s.aragorn, "the tide turns at dawn")
	_, err = s.messages.Send(s.at(2*time.Minute), s.marco, msgModels.SendCommand{
		Content: "ships are ready at the Grey Havens",
		GroupID: &mariners.Group.ID,
	})
	s.Require().NoError(err)

	res, err := s.service.Search(s.at(time.Hour), s.aragorn, "mar")
	s.Require().NoError(err)
	s.Require().Len(res.Chats, 3)

	group := res.Chats[0]
	s.Equal(chat.KindGroup, group.Type)
	s.Equal("Mariners of Gondor", group.Name)
	s.Equal(pstrings.Truncate("Marco: ships are ready at the Grey Havens", models.GroupPreviewLength), group.LastMessage)

	conv := res.Chats[1]
	s.Equal(chat.KindConversation, conv.Type)
	s.Equal("Marco Polo", conv.Name)
	s.Equal("the tide turns at dawn", conv.LastMessage)

	s.Equal("Marshals", res.Chats[2].Name)
	s.Nil(res.Chats[2].LastMessageAt, "chats without messages sort last")
}

// =============================================================================
// Search Service Mock Suite
// =============================================================================
// Justification: a failing leg must cancel the search instead of returning partial results.

type SearchServiceMockSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	faithful      *mocks.MockFaithful
	users         *mocks.MockUserDirectory
	conversations *mocks.MockConversations
	groups        *mocks.MockGroups
	messages      *mocks.MockMessages
	service       *Service
}

func TestSearchServiceMockSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceMockSuite))
}

func (s *SearchServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.faithful = mocks.NewMockFaithful(s.ctrl)
	s.users = mocks.NewMockUserDirectory(s.ctrl)
	s.conversations = mocks.NewMockConversations(s.ctrl)
	s.groups = mocks.NewMockGroups(s.ctrl)
	s.messages = mocks.NewMockMessages(s.ctrl)
	var err error
	s.service, err = New(s.faithful, s.users, s.conversations, s.groups, s.messages)
	s.Require().NoError(err)
}

func (s *SearchServiceMockSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SearchServiceMockSuite) TestLegFailureFailsSearch() {
	userID := id.NewUserID()
	s.faithful.EXPECT().SearchFaithful(gomock.Any(), "gandalf").Return(nil, nil)
	s.users.EXPECT().Search(gomock.Any(), "gandalf", userID, models.DirectoryLimit).Return(nil, errors.New("connection reset"))
	s.conversations.EXPECT().ListForUser(gomock.Any(), userID).Return(nil, nil).AnyTimes()
	s.groups.EXPECT().SearchForUser(gomock.Any(), userID, "gandalf").Return(nil, nil).AnyTimes()
	s.messages.EXPECT().LatestForChats(gomock.Any(), gomock.Any()).Return(map[string]*msgModels.Message{}, nil).AnyTimes()
	s.users.EXPECT().FindByIDs(gomock.Any(), gomock.Any()).Return(map[id.UserID]*directory.User{}, nil).AnyTimes()

	_, err := s.service.Search(context.Background(), userID, "  gandalf ")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *SearchServiceMockSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.users, s.conversations, s.groups, s.messages)
	s.Error(err)
	_, err = New(s.faithful, s.users, s.conversations, s.groups, nil)
	s.Error(err)
}
