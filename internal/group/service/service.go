// Package service implements group lifecycle and membership, including admin succession when
// members leave.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fellowship/internal/directory"
	"fellowship/internal/group/models"
	"fellowship/internal/platform/metrics"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/authz"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// Store persists groups and memberships. Implementations return sentinel errors.
type Store interface {
	Create(ctx context.Context, g *models.Group) error
	FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error)
	LockByID(ctx context.Context, groupID id.GroupID) (*models.Group, error)
	Update(ctx context.Context, g *models.Group) error
	Delete(ctx context.Context, groupID id.GroupID) error
	Touch(ctx context.Context, groupID id.GroupID, at time.Time) error
	ListForUser(ctx context.Context, userID id.UserID) ([]*models.Group, error)
	SearchForUser(ctx context.Context, userID id.UserID, term string) ([]*models.Group, error)
	AddMember(ctx context.Context, member *models.Member) (bool, error)
	FindMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error)
	ListMembers(ctx context.Context, groupID id.GroupID) ([]*models.Member, error)
	RemoveMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error
	SetAdmin(ctx context.Context, groupID id.GroupID, userID id.UserID, isAdmin bool) error
	CountMembers(ctx context.Context, groupID id.GroupID) (int, error)
}

// UserDirectory verifies that prospective members exist.
type UserDirectory interface {
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error)
}

// AuditPublisher receives audit events for group changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// PurgeHook removes data owned by a group. Hooks run inside the deleting transaction, before
// the group row goes away.
type PurgeHook func(ctx context.Context, groupID id.GroupID) error

// ChangeHook observes committed changes to a group's details or membership. Hook failures are
// logged and do not fail the change.
type ChangeHook func(ctx context.Context, groupID id.GroupID) error

type Service struct {
	store          Store
	users          UserDirectory
	tx             tx.Runner
	purgeHooks     []PurgeHook
	changeHooks    []ChangeHook
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

func WithPurgeHooks(hooks ...PurgeHook) Option {
	return func(s *Service) {
		s.purgeHooks = append(s.purgeHooks, hooks...)
	}
}

func WithChangeHooks(hooks ...ChangeHook) Option {
	return func(s *Service) {
		s.changeHooks = append(s.changeHooks, hooks...)
	}
}

func New(store Store, users UserDirectory, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("group store is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	svc := &Service{
		store: store,
		users: users,
		tx:    runner,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create persists the group with creatorID as admin and the distinct cmd.MemberIDs, minus
// the creator, as regular members.
func (s *Service) Create(ctx context.Context, creatorID id.UserID, cmd models.CreateGroupCommand) (*models.Detail, error) {
	now := requestcontext.Now(ctx)
	g, err := models.NewGroup(id.NewGroupID(), creatorID, cmd.Name, cmd.Description, cmd.AvatarURL, now)
	if err != nil {
		return nil, err
	}
	memberIDs := distinctExcluding(cmd.MemberIDs, creatorID)

	detail := &models.Detail{Group: g}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireUsers(ctx, memberIDs); err != nil {
			return err
		}
		if err := s.store.Create(ctx, g); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create group")
		}
		creator := &models.Member{GroupID: g.ID, UserID: creatorID, IsAdmin: true, JoinedAt: now}
		if _, err := s.store.AddMember(ctx, creator); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add group creator")
		}
		detail.Members = append(detail.Members, creator)
		for _, userID := range memberIDs {
			m := &models.Member{GroupID: g.ID, UserID: userID, JoinedAt: now}
			if _, err := s.store.AddMember(ctx, m); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add group member")
			}
			detail.Members = append(detail.Members, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	models.SortMembers(detail.Members)
	if s.metrics != nil {
		s.metrics.GroupsCreated.Inc()
	}
	s.logAudit(ctx, audit.EventGroupCreated,
		"user_id", creatorID.String(),
		"group_id", g.ID.String(),
		"member_count", len(detail.Members),
	)
	return detail, nil
}

// AddMembers adds users to the group on behalf of an admin and returns the ids that were not
// already members.
func (s *Service) AddMembers(ctx context.Context, actingUserID id.UserID, groupID id.GroupID, memberIDs []id.UserID) ([]id.UserID, error) {
	candidates := distinctExcluding(memberIDs, actingUserID)
	added := make([]id.UserID, 0, len(candidates))
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockGroup(ctx, groupID); err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, groupID, actingUserID); err != nil {
			return err
		}
		if err := s.requireUsers(ctx, candidates); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		for _, userID := range candidates {
			ok, err := s.store.AddMember(ctx, &models.Member{GroupID: groupID, UserID: userID, JoinedAt: now})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add group member")
			}
			if ok {
				added = append(added, userID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, userID := range added {
		s.logAudit(ctx, audit.EventGroupMemberAdded,
			"user_id", actingUserID.String(),
			"group_id", groupID.String(),
			"member_id", userID.String(),
		)
	}
	if len(added) > 0 {
		s.notifyChanged(ctx, groupID)
	}
	return added, nil
}

// AddMember inserts userID as a regular member without an authorization check. It reports
// whether the user was newly added, from the insert itself, and the resulting member count.
func (s *Service) AddMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (bool, int, error) {
	var (
		added bool
		count int
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockGroup(ctx, groupID); err != nil {
			return err
		}
		var err error
		added, err = s.store.AddMember(ctx, &models.Member{GroupID: groupID, UserID: userID, JoinedAt: requestcontext.Now(ctx)})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add group member")
		}
		count, err = s.store.CountMembers(ctx, groupID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count group members")
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	if added {
		s.logAudit(ctx, audit.EventGroupMemberAdded,
			"user_id", userID.String(),
			"group_id", groupID.String(),
			"member_id", userID.String(),
		)
		s.notifyChanged(ctx, groupID)
	}
	return added, count, nil
}

// Leave removes userID from the group. The last member leaving deletes the group; the sole
// admin leaving promotes a successor first.
func (s *Service) Leave(ctx context.Context, userID id.UserID, groupID id.GroupID) (models.LeaveOutcome, error) {
	var outcome models.LeaveOutcome
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockGroup(ctx, groupID); err != nil {
			return err
		}
		members, err := s.store.ListMembers(ctx, groupID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group members")
		}
		plan, err := models.PlanLeave(members, userID)
		if err != nil {
			return err
		}
		if plan.DeleteGroup {
			outcome.GroupDeleted = true
			return s.deleteLocked(ctx, groupID)
		}
		if plan.Promote != nil {
			if err := s.store.SetAdmin(ctx, groupID, *plan.Promote, true); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to promote group admin")
			}
			outcome.PromotedUserID = plan.Promote
		}
		if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove group member")
		}
		return nil
	})
	if err != nil {
		return models.LeaveOutcome{}, err
	}

	if s.metrics != nil {
		s.metrics.MembersLeft.Inc()
	}
	s.logAudit(ctx, audit.EventGroupMemberLeft,
		"user_id", userID.String(),
		"group_id", groupID.String(),
	)
	if outcome.PromotedUserID != nil {
		s.logAudit(ctx, audit.EventGroupAdminPromoted,
			"user_id", outcome.PromotedUserID.String(),
			"group_id", groupID.String(),
		)
	}
	if outcome.GroupDeleted {
		s.recordDeleted(ctx, userID, groupID)
	} else {
		s.notifyChanged(ctx, groupID)
	}
	return outcome, nil
}

// Delete removes the group, its memberships and everything the purge hooks own.
func (s *Service) Delete(ctx context.Context, actingUserID id.UserID, groupID id.GroupID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockGroup(ctx, groupID); err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, groupID, actingUserID); err != nil {
			return err
		}
		return s.deleteLocked(ctx, groupID)
	})
	if err != nil {
		return err
	}
	s.recordDeleted(ctx, actingUserID, groupID)
	return nil
}

// CheckDeletePermission reports whether userID may delete the group.
func (s *Service) CheckDeletePermission(ctx context.Context, userID id.UserID, groupID id.GroupID) (authz.Decision, error) {
	if _, err := s.loadGroup(ctx, groupID); err != nil {
		return authz.Decision{}, err
	}
	member, err := s.findMember(ctx, groupID, userID)
	if err != nil {
		return authz.Decision{}, err
	}
	return models.CheckAdmin(member), nil
}

// Get returns the group and its members to a member.
func (s *Service) Get(ctx context.Context, userID id.UserID, groupID id.GroupID) (*models.Detail, error) {
	detail, err := s.Lookup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := models.CheckMember(models.FindMember(detail.Members, userID)).Err(dErrors.CodeForbidden); err != nil {
		return nil, err
	}
	return detail, nil
}

// Lookup returns the group and its members without an authorization check.
func (s *Service) Lookup(ctx context.Context, groupID id.GroupID) (*models.Detail, error) {
	g, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group members")
	}
	return &models.Detail{Group: g, Members: members}, nil
}

func (s *Service) ListForUser(ctx context.Context, userID id.UserID) ([]*models.Group, error) {
	groups, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list groups")
	}
	return groups, nil
}

// SearchForUser returns the user's groups whose name contains term.
func (s *Service) SearchForUser(ctx context.Context, userID id.UserID, term string) ([]*models.Group, error) {
	groups, err := s.store.SearchForUser(ctx, userID, term)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search groups")
	}
	return groups, nil
}

// Update changes group details on behalf of an admin.
func (s *Service) Update(ctx context.Context, actingUserID id.UserID, groupID id.GroupID, patch models.GroupPatch) (*models.Group, error) {
	var updated *models.Group
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		g, err := s.lockGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, groupID, actingUserID); err != nil {
			return err
		}
		if err := g.ApplyUpdate(patch, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, g); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update group")
		}
		updated = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, groupID)
	return updated, nil
}

// RemoveMember removes another member on behalf of an admin. Members remove themselves with
// Leave so succession applies.
func (s *Service) RemoveMember(ctx context.Context, actingUserID id.UserID, groupID id.GroupID, targetID id.UserID) error {
	if actingUserID == targetID {
		return dErrors.New(dErrors.CodeBadRequest, "use leave to remove yourself")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockGroup(ctx, groupID); err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, groupID, actingUserID); err != nil {
			return err
		}
		if err := s.store.RemoveMember(ctx, groupID, targetID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "member not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove group member")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventGroupMemberRemoved,
		"user_id", actingUserID.String(),
		"group_id", groupID.String(),
		"member_id", targetID.String(),
	)
	s.notifyChanged(ctx, groupID)
	return nil
}

// IsMember reports whether userID belongs to the group.
func (s *Service) IsMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (bool, error) {
	member, err := s.findMember(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// Touch records message activity on the group.
func (s *Service) Touch(ctx context.Context, groupID id.GroupID, at time.Time) error {
	if err := s.store.Touch(ctx, groupID, at); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update group activity")
	}
	return nil
}

func (s *Service) deleteLocked(ctx context.Context, groupID id.GroupID) error {
	for _, hook := range s.purgeHooks {
		if err := hook(ctx, groupID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge group data")
		}
	}
	if err := s.store.Delete(ctx, groupID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete group")
	}
	return nil
}

func (s *Service) notifyChanged(ctx context.Context, groupID id.GroupID) {
	for _, hook := range s.changeHooks {
		if err := hook(ctx, groupID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "group change hook failed",
				"error", err,
				"group_id", groupID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
}

func (s *Service) recordDeleted(ctx context.Context, userID id.UserID, groupID id.GroupID) {
	if s.metrics != nil {
		s.metrics.GroupsDeleted.Inc()
	}
	s.logAudit(ctx, audit.EventGroupDeleted,
		"user_id", userID.String(),
		"group_id", groupID.String(),
	)
}

func (s *Service) requireAdmin(ctx context.Context, groupID id.GroupID, userID id.UserID) error {
	member, err := s.findMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	return models.CheckAdmin(member).Err(dErrors.CodeForbidden)
}

func (s *Service) requireUsers(ctx context.Context, userIDs []id.UserID) error {
	if len(userIDs) == 0 {
		return nil
	}
	found, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up users")
	}
	for _, userID := range userIDs {
		if _, ok := found[userID]; !ok {
			return dErrors.New(dErrors.CodeBadRequest, "unknown member "+userID.String())
		}
	}
	return nil
}

// findMember returns nil without error when userID is not a member.
func (s *Service) findMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error) {
	member, err := s.store.FindMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group member")
	}
	return member, nil
}

func (s *Service) loadGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	return s.translateGroup(s.store.FindByID(ctx, groupID))
}

func (s *Service) lockGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	return s.translateGroup(s.store.LockByID(ctx, groupID))
}

func (s *Service) translateGroup(g *models.Group, err error) (*models.Group, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group")
	}
	return g, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attributes...)
}

func distinctExcluding(ids []id.UserID, exclude id.UserID) []id.UserID {
	seen := make(map[id.UserID]struct{}, len(ids))
	out := make([]id.UserID, 0, len(ids))
	for _, userID := range ids {
		if userID == exclude || userID.IsNil() {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		out = append(out, userID)
	}
	return out
}
