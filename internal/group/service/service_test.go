package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,UserDirectory,AuditPublisher

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
	"fellowship/internal/group/models"
	"fellowship/internal/group/service/mocks"
	groupStore "fellowship/internal/group/store"
	"fellowship/internal/platform/metrics"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/audit/publisher"
	auditmemory "fellowship/pkg/platform/audit/store/memory"
	"fellowship/pkg/platform/authz"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// =============================================================================
// Group Service Test Suite
// =============================================================================
// Justification: admin succession and delete-when-empty are multi-step decisions made under
// the group lock. Real in-memory stores let the tests assert the resulting membership state.

type GroupServiceSuite struct {
	suite.Suite
	store      *groupStore.InMemoryStore
	auditStore *auditmemory.InMemoryStore
	metrics    *metrics.Metrics
	purged     []id.GroupID
	changed    []id.GroupID
	service    *Service
	clock      time.Time
	gandalf    id.UserID
	aragorn    id.UserID
	legolas    id.UserID
	gimli      id.UserID
}

func TestGroupServiceSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceSuite))
}

func (s *GroupServiceSuite) SetupTest() {
	s.gandalf, s.aragorn, s.legolas, s.gimli = id.NewUserID(), id.NewUserID(), id.NewUserID(), id.NewUserID()
	users := dirStore.NewInMemoryStore(
		&directory.User{ID: s.gandalf, FirstName: "Gandalf"},
		&directory.User{ID: s.aragorn, FirstName: "Aragorn"},
		&directory.User{ID: s.legolas, FirstName: "Legolas"},
		&directory.User{ID: s.gimli, FirstName: "Gimli"},
	)
	s.store = groupStore.NewInMemoryStore()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.purged = nil
	s.changed = nil
	s.clock = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(s.store, users, tx.NewLockRunner(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		WithPurgeHooks(func(_ context.Context, groupID id.GroupID) error {
			s.purged = append(s.purged, groupID)
			return nil
		}),
		WithChangeHooks(func(_ context.Context, groupID id.GroupID) error {
			s.changed = append(s.changed, groupID)
			return nil
		}),
	)
	s.Require().NoError(err)
}

// ctx advances the request clock so successive joins get distinct JoinedAt values.
func (s *GroupServiceSuite) ctx() context.Context {
	s.clock = s.clock.Add(time.Minute)
	return requestcontext.WithTime(context.Background(), s.clock)
}

func (s *GroupServiceSuite) createGroup(creator id.UserID, members ...id.UserID) *models.Detail {
	detail, err := s.service.Create(s.ctx(), creator, models.CreateGroupCommand{Name: "Fellowship", MemberIDs: members})
	s.Require().NoError(err)
	return detail
}

func (s *GroupServiceSuite) adminsOf(groupID id.GroupID) []id.UserID {
	members, err := s.store.ListMembers(context.Background(), groupID)
	s.Require().NoError(err)
	var admins []id.UserID
	for _, m := range members {
		if m.IsAdmin {
			admins = append(admins, m.UserID)
		}
	}
	return admins
}

// =============================================================================
// Create
// =============================================================================

func (s *GroupServiceSuite) TestCreateAddsCreatorAsAdminAndDedupesMembers() {
	detail := s.createGroup(s.gandalf, s.aragorn, s.aragorn, s.gandalf, s.legolas)

	s.Len(detail.Members, 3)
	s.Equal([]id.UserID{s.gandalf}, s.adminsOf(detail.Group.ID))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.GroupsCreated))
	s.Equal([]string{string(audit.EventGroupCreated)}, s.auditStore.Actions(s.gandalf))
}

func (s *GroupServiceSuite) TestCreateRejectsUnknownMembers() {
	_, err := s.service.Create(s.ctx(), s.gandalf, models.CreateGroupCommand{
		Name:      "Fellowship",
		MemberIDs: []id.UserID{s.aragorn, id.NewUserID()},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	groups, err := s.service.ListForUser(s.ctx(), s.gandalf)
	s.Require().NoError(err)
	s.Empty(groups)
}

func (s *GroupServiceSuite) TestCreateRejectsBlankName() {
	_, err := s.service.Create(s.ctx(), s.gandalf, models.CreateGroupCommand{Name: "  "})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// =============================================================================
// AddMembers / AddMember
// =============================================================================

func (s *GroupServiceSuite) TestAddMembersRequiresAdmin() {
	detail := s.createGroup(s.gandalf, s.aragorn)

	_, err := s.service.AddMembers(s.ctx(), s.aragorn, detail.Group.ID, []id.UserID{s.legolas})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal(authz.ReasonNotAdmin, dErrors.MessageOf(err))

	_, err = s.service.AddMembers(s.ctx(), s.gimli, detail.Group.ID, []id.UserID{s.legolas})
	s.Equal(authz.ReasonNotMember, dErrors.MessageOf(err))
}

func (s *GroupServiceSuite) TestAddMembersReturnsOnlyNewIDs() {
	detail := s.createGroup(s.gandalf, s.aragorn)

	added, err := s.service.AddMembers(s.ctx(), s.gandalf, detail.Group.ID, []id.UserID{s.aragorn, s.legolas, s.legolas})
	s.Require().NoError(err)
	s.Equal([]id.UserID{s.legolas}, added)
}

func (s *GroupServiceSuite) TestAddMemberReportsInsertOutcome() {
	detail := s.createGroup(s.gandalf)

	added, count, err := s.service.AddMember(s.ctx(), detail.Group.ID, s.gimli)
	s.Require().NoError(err)
	s.True(added)
	s.Equal(2, count)

	added, count, err = s.service.AddMember(s.ctx(), detail.Group.ID, s.gimli)
	s.Require().NoError(err)
	s.False(added)
	s.Equal(2, count)

	_, _, err = s.service.AddMember(s.ctx(), id.NewGroupID(), s.gimli)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Leave
// =============================================================================

func (s *GroupServiceSuite) TestCreatorLeavesPromotesEarliestJoined() {
	detail := s.createGroup(s.gandalf)
	groupID := detail.Group.ID
	_, _, err := s.service.AddMember(s.ctx(), groupID, s.aragorn)
	s.Require().NoError(err)
	_, _, err = s.service.AddMember(s.ctx(), groupID, s.legolas)
	s.Require().NoError(err)

	outcome, err := s.service.Leave(s.ctx(), s.gandalf, groupID)
	s.Require().NoError(err)
	s.False(outcome.GroupDeleted)
	s.Require().NotNil(outcome.PromotedUserID)
	s.Equal(s.aragorn, *outcome.PromotedUserID)
	s.Equal([]id.UserID{s.aragorn}, s.adminsOf(groupID))
	s.Contains(s.auditStore.Actions(s.aragorn), string(audit.EventGroupAdminPromoted))

	isMember, err := s.service.IsMember(s.ctx(), groupID, s.gandalf)
	s.Require().NoError(err)
	s.False(isMember)
}

func (s *GroupServiceSuite) TestAdminInvariantHoldsAcrossLeaveSequence() {
	detail := s.createGroup(s.gandalf, s.aragorn, s.legolas, s.gimli)
	groupID := detail.Group.ID

	for _, leaver := range []id.UserID{s.gandalf, s.legolas, s.aragorn} {
		_, err := s.service.Leave(s.ctx(), leaver, groupID)
		s.Require().NoError(err)
		s.Len(s.adminsOf(groupID), 1, "a non-empty group keeps an admin")
	}

	outcome, err := s.service.Leave(s.ctx(), s.gimli, groupID)
	s.Require().NoError(err)
	s.True(outcome.GroupDeleted)
}

func (s *GroupServiceSuite) TestSoloLeaveDeletesGroup() {
	detail := s.createGroup(s.gandalf)

	outcome, err := s.service.Leave(s.ctx(), s.gandalf, detail.Group.ID)
	s.Require().NoError(err)
	s.True(outcome.GroupDeleted)
	s.Equal([]id.GroupID{detail.Group.ID}, s.purged)

	_, err = s.service.Get(s.ctx(), s.gandalf, detail.Group.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.GroupsDeleted))
}

func (s *GroupServiceSuite) TestNonMemberCannotLeave() {
	detail := s.createGroup(s.gandalf)
	_, err := s.service.Leave(s.ctx(), s.gimli, detail.Group.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

// =============================================================================
// Delete and permissions
// =============================================================================

func (s *GroupServiceSuite) TestDeleteRequiresAdminAndRunsPurgeHooks() {
	detail := s.createGroup(s.gandalf, s.aragorn)

	err := s.service.Delete(s.ctx(), s.aragorn, detail.Group.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Empty(s.purged)

	s.Require().NoError(s.service.Delete(s.ctx(), s.gandalf, detail.Group.ID))
	s.Equal([]id.GroupID{detail.Group.ID}, s.purged)

	count, err := s.store.CountMembers(context.Background(), detail.Group.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *GroupServiceSuite) TestCheckDeletePermission() {
	detail := s.createGroup(s.gandalf, s.aragorn)

	decision, err := s.service.CheckDeletePermission(s.ctx(), s.gandalf, detail.Group.ID)
	s.Require().NoError(err)
	s.True(decision.Allowed)

	decision, err = s.service.CheckDeletePermission(s.ctx(), s.aragorn, detail.Group.ID)
	s.Require().NoError(err)
	s.Equal(authz.Deny(authz.ReasonNotAdmin), decision)

	decision, err = s.service.CheckDeletePermission(s.ctx(), s.gimli, detail.Group.ID)
	s.Require().NoError(err)
	s.Equal(authz.Deny(authz.ReasonNotMember), decision)

	_, err = s.service.CheckDeletePermission(s.ctx(), s.gandalf, id.NewGroupID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Update, RemoveMember, reads
// =============================================================================

func (s *GroupServiceSuite) TestUpdateByAdmin() {
	detail := s.createGroup(s.gandalf, s.aragorn)
	name := "The Fellowship of the Ring"

	_, err := s.service.Update(s.ctx(), s.aragorn, detail.Group.ID, models.GroupPatch{Name: &name})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	updated, err := s.service.Update(s.ctx(), s.gandalf, detail.Group.ID, models.GroupPatch{Name: &name})
	s.Require().NoError(err)
	s.Equal(name, updated.Name)
	s.True(updated.UpdatedAt.After(detail.Group.UpdatedAt))
}

func (s *GroupServiceSuite) TestRemoveMember() {
	detail := s.createGroup(s.gandalf, s.aragorn)

	err := s.service.RemoveMember(s.ctx(), s.gandalf, detail.Group.ID, s.gandalf)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	err = s.service.RemoveMember(s.ctx(), s.gandalf, detail.Group.ID, s.gimli)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Require().NoError(s.service.RemoveMember(s.ctx(), s.gandalf, detail.Group.ID, s.aragorn))
	isMember, err := s.service.IsMember(s.ctx(), detail.Group.ID, s.aragorn)
	s.Require().NoError(err)
	s.False(isMember)
}

func (s *GroupServiceSuite) TestChangeHooksFireAfterCommittedChanges() {
	detail := s.createGroup(s.gandalf, s.aragorn)
	groupID := detail.Group.ID
	name := "Company of the Ring"

	_, err := s.service.AddMembers(s.ctx(), s.gandalf, groupID, []id.UserID{s.aragorn})
	s.Require().NoError(err)
	s.Empty(s.changed, "no new members, no change")

	_, err = s.service.Update(s.ctx(), s.aragorn, groupID, models.GroupPatch{Name: &name})
	s.Require().Error(err)
	s.Empty(s.changed, "rejected updates do not notify")

	_, err = s.service.AddMembers(s.ctx(), s.gandalf, groupID, []id.UserID{s.legolas})
	s.Require().NoError(err)
	_, _, err = s.service.AddMember(s.ctx(), groupID, s.gimli)
	s.Require().NoError(err)
	_, err = s.service.Update(s.ctx(), s.gandalf, groupID, models.GroupPatch{Name: &name})
	s.Require().NoError(err)
	s.Require().NoError(s.service.RemoveMember(s.ctx(), s.gandalf, groupID, s.gimli))
	_, err = s.service.Leave(s.ctx(), s.legolas, groupID)
	s.Require().NoError(err)
	s.Len(s.changed, 5)

	solo := s.createGroup(s.gimli)
	s.changed = nil
	_, err = s.service.Leave(s.ctx(), s.gimli, solo.Group.ID)
	s.Require().NoError(err)
	s.Empty(s.changed, "deleted groups go through purge hooks")
	s.Contains(s.purged, solo.Group.ID)
}

func (s *GroupServiceSuite) TestGetIsMemberOnly() {
	detail := s.createGroup(s.gandalf, s.aragorn)

	got, err := s.service.Get(s.ctx(), s.aragorn, detail.Group.ID)
	s.Require().NoError(err)
	s.Len(got.Members, 2)

	_, err = s.service.Get(s.ctx(), s.gimli, detail.Group.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *GroupServiceSuite) TestSearchAndTouchOrdering() {
	older := s.createGroup(s.gandalf)
	newer, err := s.service.Create(s.ctx(), s.gandalf, models.CreateGroupCommand{Name: "Council of Elrond"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Touch(s.ctx(), older.Group.ID, s.clock.Add(time.Hour)))
	groups, err := s.service.ListForUser(s.ctx(), s.gandalf)
	s.Require().NoError(err)
	s.Require().Len(groups, 2)
	s.Equal(older.Group.ID, groups[0].ID)

	found, err := s.service.SearchForUser(s.ctx(), s.gandalf, "elrond")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(newer.Group.ID, found[0].ID)
}

// =============================================================================
// Error Propagation (mocks)
// =============================================================================
// Justification: a failed write inside Leave must abort the whole decision, and purge hook
// failures must stop the group row from being deleted.

type GroupServiceMockSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	mockUsers *mocks.MockUserDirectory
	mockAudit *mocks.MockAuditPublisher
}

func TestGroupServiceMockSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceMockSuite))
}

func (s *GroupServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockUsers = mocks.NewMockUserDirectory(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
}

func (s *GroupServiceMockSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GroupServiceMockSuite) newService(opts ...Option) *Service {
	opts = append(opts,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
	)
	svc, err := New(s.mockStore, s.mockUsers, tx.NewLockRunner(), opts...)
	s.Require().NoError(err)
	return svc
}

func (s *GroupServiceMockSuite) TestNewRequiresCollaborators() {
	_, err := New(nil, s.mockUsers, tx.NewLockRunner())
	s.ErrorContains(err, "group store is required")
	_, err = New(s.mockStore, nil, tx.NewLockRunner())
	s.ErrorContains(err, "user directory is required")
	_, err = New(s.mockStore, s.mockUsers, nil)
	s.ErrorContains(err, "transaction runner is required")
}

func (s *GroupServiceMockSuite) TestLeavePromotionFailureAborts() {
	groupID := id.NewGroupID()
	admin, other := id.NewUserID(), id.NewUserID()
	now := time.Now()
	s.mockStore.EXPECT().LockByID(gomock.Any(), groupID).Return(&models.Group{ID: groupID}, nil)
	s.mockStore.EXPECT().ListMembers(gomock.Any(), groupID).Return([]*models.Member{
		{GroupID: groupID, UserID: admin, IsAdmin: true, JoinedAt: now},
		{GroupID: groupID, UserID: other, JoinedAt: now.Add(time.Second)},
	}, nil)
	s.mockStore.EXPECT().SetAdmin(gomock.Any(), groupID, other, true).Return(errors.New("deadlock detected"))
	s.mockStore.EXPECT().RemoveMember(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.newService().Leave(context.Background(), admin, groupID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *GroupServiceMockSuite) TestPurgeHookFailureKeepsGroup() {
	groupID := id.NewGroupID()
	admin := id.NewUserID()
	s.mockStore.EXPECT().LockByID(gomock.Any(), groupID).Return(&models.Group{ID: groupID}, nil)
	s.mockStore.EXPECT().FindMember(gomock.Any(), groupID, admin).Return(&models.Member{UserID: admin, IsAdmin: true}, nil)
	s.mockStore.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	svc := s.newService(WithPurgeHooks(func(context.Context, id.GroupID) error {
		return errors.New("message purge failed")
	}))
	err := svc.Delete(context.Background(), admin, groupID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *GroupServiceMockSuite) TestChangeHookFailureDoesNotFailRemoval() {
	groupID := id.NewGroupID()
	admin, target := id.NewUserID(), id.NewUserID()
	s.mockStore.EXPECT().LockByID(gomock.Any(), groupID).Return(&models.Group{ID: groupID}, nil)
	s.mockStore.EXPECT().FindMember(gomock.Any(), groupID, admin).Return(&models.Member{UserID: admin, IsAdmin: true}, nil)
	s.mockStore.EXPECT().RemoveMember(gomock.Any(), groupID, target).Return(nil)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	calls := 0
	svc := s.newService(WithChangeHooks(func(context.Context, id.GroupID) error {
		calls++
		return errors.New("cache unavailable")
	}))
	s.Require().NoError(svc.RemoveMember(context.Background(), admin, groupID, target))
	s.Equal(1, calls)
}

func (s *GroupServiceMockSuite) TestCreateDirectoryFailure() {
	s.mockUsers.EXPECT().FindByIDs(gomock.Any(), gomock.Any()).Return(nil, errors.New("directory down"))
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.newService().Create(context.Background(), id.NewUserID(), models.CreateGroupCommand{
		Name:      "Rohirrim",
		MemberIDs: []id.UserID{id.NewUserID()},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *GroupServiceMockSuite) TestIsMemberStoreFailure() {
	s.mockStore.EXPECT().FindMember(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	_, err := s.newService().IsMember(context.Background(), id.NewGroupID(), id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
