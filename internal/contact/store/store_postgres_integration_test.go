//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fellowship/internal/contact/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
	owner id.UserID
	now   time.Time
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
	s.owner = id.NewUserID()
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) create(first string, linked *id.UserID, fields map[string]string) *models.Contact {
	c, err := models.NewContact(id.NewContactID(), s.owner, linked, models.ContactFields{FirstName: first, CustomFields: fields}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *PostgresStoreSuite) TestRoundTripAndOrdering() {
	linked := id.NewUserID()
	s.create("zed", nil, nil)
	c := s.create("Ana", &linked, map[string]string{"city": "Lisbon"})

	got, err := s.store.FindByID(s.ctx, s.owner, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LinkedUserID)
	s.Equal(linked, *got.LinkedUserID)
	s.Equal(map[string]string{"city": "Lisbon"}, got.CustomFields)

	list, err := s.store.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Ana", list[0].FirstName)

	_, err = s.store.FindByID(s.ctx, id.NewUserID(), c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateLinkIsRejectedByIndex() {
	linked := id.NewUserID()
	s.create("Ana", &linked, nil)
	dup, err := models.NewContact(id.NewContactID(), s.owner, &linked, models.ContactFields{FirstName: "Ana"}, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestMergeCustomFieldUsesJSONBConcat() {
	c := s.create("Ana", nil, map[string]string{"city": "Lisbon"})

	got, err := s.store.MergeCustomField(s.ctx, s.owner, c.ID, "pet", "cat", s.now)
	s.Require().NoError(err)
	s.Equal(map[string]string{"city": "Lisbon", "pet": "cat"}, got.CustomFields)

	got, err = s.store.RemoveCustomField(s.ctx, s.owner, c.ID, "city", s.now)
	s.Require().NoError(err)
	s.Equal(map[string]string{"pet": "cat"}, got.CustomFields)

	_, err = s.store.MergeCustomField(s.ctx, id.NewUserID(), c.ID, "pet", "dog", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateAndDelete() {
	c := s.create("Ana", nil, map[string]string{"city": "Lisbon"})
	c.LastName = "Lima"
	c.CustomFields = nil
	s.Require().NoError(s.store.Update(s.ctx, c))

	got, err := s.store.FindByID(s.ctx, s.owner, c.ID)
	s.Require().NoError(err)
	s.Equal("Lima", got.LastName)
	s.Equal("Lisbon", got.CustomFields["city"], "update leaves custom fields alone")

	s.Require().NoError(s.store.Delete(s.ctx, s.owner, c.ID))
	s.ErrorIs(s.store.Delete(s.ctx, s.owner, c.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFieldDefinitionsFoldCase() {
	def, err := models.NewFieldDefinition(s.owner, "Birthday", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateField(s.ctx, def))
	dup, err := models.NewFieldDefinition(s.owner, "birthday", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateField(s.ctx, dup), sentinel.ErrAlreadyUsed)

	defs, err := s.store.ListFields(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(defs, 1)
	s.Require().NoError(s.store.DeleteField(s.ctx, s.owner, def.ID))
}

func (s *PostgresStoreSuite) TestFaithfulSearch() {
	s.Require().NoError(s.store.SaveFaithful(s.ctx, &models.FaithfulPerson{
		ID: id.NewFaithfulPersonID(), UserID: id.NewUserID(), Name: "Sister Clara", Title: "Prioress", CreatedAt: s.now,
	}))
	found, err := s.store.SearchFaithful(s.ctx, "prior")
	s.Require().NoError(err)
	s.Len(found, 1)
	found, err = s.store.SearchFaithful(s.ctx, "100%")
	s.Require().NoError(err)
	s.Empty(found)
}
