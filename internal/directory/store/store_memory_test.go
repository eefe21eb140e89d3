package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"fellowship/internal/directory"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ana   *directory.User
	bruno *directory.User
	carla *directory.User
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ana = &directory.User{ID: id.NewUserID(), FirstName: "Ana", LastName: "Lima", Email: "ana@example.com"}
	s.bruno = &directory.User{ID: id.NewUserID(), FirstName: "Bruno", LastName: "Anaya", Email: "bruno@example.com"}
	s.carla = &directory.User{ID: id.NewUserID(), FirstName: "Carla", LastName: "Souza", Email: "carla@hobbiton.test"}
	s.store = NewInMemoryStore(s.ana, s.bruno, s.carla)
}

func (s *InMemoryStoreSuite) TestFindByID() {
	s.Run("returns a copy of the user", func() {
		u, err := s.store.FindByID(context.Background(), s.ana.ID)
		s.Require().NoError(err)
		u.FirstName = "mutated"

		again, _ := s.store.FindByID(context.Background(), s.ana.ID)
		s.Equal("Ana", again.FirstName)
	})

	s.Run("unknown user is not found", func() {
		_, err := s.store.FindByID(context.Background(), id.NewUserID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestFindByIDsSkipsMissing() {
	found, err := s.store.FindByIDs(context.Background(), []id.UserID{s.ana.ID, id.NewUserID()})
	s.Require().NoError(err)
	s.Len(found, 1)
	s.Contains(found, s.ana.ID)
}

func (s *InMemoryStoreSuite) TestSearch() {
	s.Run("matches names case-insensitively and excludes caller", func() {
		users, err := s.store.Search(context.Background(), "ANA", s.ana.ID, 10)
		s.Require().NoError(err)
		s.Require().Len(users, 1)
		s.Equal(s.bruno.ID, users[0].ID)
	})

	s.Run("matches email", func() {
		users, err := s.store.Search(context.Background(), "hobbiton", id.UserID{}, 10)
		s.Require().NoError(err)
		s.Require().Len(users, 1)
		s.Equal(s.carla.ID, users[0].ID)
	})

	s.Run("respects limit", func() {
		users, err := s.store.Search(context.Background(), "example.com", id.UserID{}, 1)
		s.Require().NoError(err)
		s.Len(users, 1)
	})
}
