//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fellowship/internal/invite/models"
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

func (s *PostgresStoreSuite) newGroup() id.GroupID {
	groupID := id.NewGroupID()
	_, err := s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO groups (id, name, creator_id) VALUES ($1, 'Rivendell', $2)`,
		uuid.UUID(groupID), uuid.New())
	s.Require().NoError(err)
	return groupID
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	inv := models.NewInvite("alpha", s.newGroup(), id.NewUserID(), now, models.DefaultTTL)
	s.Require().NoError(s.store.Create(s.ctx, inv))

	got, err := s.store.FindByCode(s.ctx, "alpha")
	s.Require().NoError(err)
	s.Equal(inv.ID, got.ID)
	s.Equal(inv.GroupID, got.GroupID)
	s.True(inv.ExpiresAt.Equal(got.ExpiresAt))

	_, err = s.store.FindByCode(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateCode() {
	groupID := s.newGroup()
	s.Require().NoError(s.store.Create(s.ctx, models.NewInvite("alpha", groupID, id.NewUserID(), time.Now(), time.Hour)))
	err := s.store.Create(s.ctx, models.NewInvite("alpha", groupID, id.NewUserID(), time.Now(), time.Hour))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestDeleteByGroup() {
	keep, drop := s.newGroup(), s.newGroup()
	s.Require().NoError(s.store.Create(s.ctx, models.NewInvite("keep", keep, id.NewUserID(), time.Now(), time.Hour)))
	s.Require().NoError(s.store.Create(s.ctx, models.NewInvite("drop", drop, id.NewUserID(), time.Now(), time.Hour)))

	codes, err := s.store.CodesByGroup(s.ctx, drop)
	s.Require().NoError(err)
	s.Equal([]string{"drop"}, codes)

	s.Require().NoError(s.store.DeleteByGroup(s.ctx, drop))
	_, err = s.store.FindByCode(s.ctx, "drop")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByCode(s.ctx, "keep")
	s.NoError(err)
}
