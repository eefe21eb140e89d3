//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fellowship/internal/conversation/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) newConversation(a, b id.UserID) *models.Conversation {
	c, err := models.NewConversation(id.NewConversationID(), a, b, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return c
}

func (s *PostgresStoreSuite) TestConcurrentFindOrCreateYieldsOneRow() {
	a, b := id.NewUserID(), id.NewUserID()
	const callers = 12
	results := make([]id.ConversationID, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x, y := a, b
			if i%2 == 0 {
				x, y = b, a
			}
			c, _, err := s.store.FindOrCreate(s.ctx, s.newConversation(x, y))
			s.NoError(err)
			if c != nil {
				results[i] = c.ID
			}
		}()
	}
	wg.Wait()

	for _, got := range results {
		s.Equal(results[0], got)
	}
	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx, `SELECT count(*) FROM conversations`).Scan(&count))
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestRestoreBlockedByNewerActive() {
	a, b := id.NewUserID(), id.NewUserID()
	old, _, err := s.store.FindOrCreate(s.ctx, s.newConversation(a, b))
	s.Require().NoError(err)
	old.ApplyDelete(time.Now())
	s.Require().NoError(s.store.Save(s.ctx, old))

	_, created, err := s.store.FindOrCreate(s.ctx, s.newConversation(a, b))
	s.Require().NoError(err)
	s.True(created)

	old.ApplyRestore(time.Now())
	s.ErrorIs(s.store.Save(s.ctx, old), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestListOrdersNullsLast() {
	me := id.NewUserID()
	quiet, _, err := s.store.FindOrCreate(s.ctx, s.newConversation(me, id.NewUserID()))
	s.Require().NoError(err)
	busy, _, err := s.store.FindOrCreate(s.ctx, s.newConversation(me, id.NewUserID()))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Touch(s.ctx, busy.ID, time.Now()))

	list, err := s.store.ListActiveForUser(s.ctx, me)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(busy.ID, list[0].ID)
	s.Equal(quiet.ID, list[1].ID)
	s.NotNil(list[0].LastMessageAt)
}

func (s *PostgresStoreSuite) TestMissingRows() {
	_, err := s.store.FindByID(s.ctx, id.NewConversationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Touch(s.ctx, id.NewConversationID(), time.Now()), sentinel.ErrNotFound)
}
