// Package service issues, redeems and previews group invite links.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fellowship/internal/directory"
	groupModels "fellowship/internal/group/models"
	"fellowship/internal/invite/models"
	"fellowship/internal/platform/metrics"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

const (
	// maxCodeAttempts bounds regeneration when a fresh code collides with an existing one.
	maxCodeAttempts = 3
	// previewMembers is how many members the public landing page shows.
	previewMembers = 5
)

// Store persists invites. Create returns sentinel.ErrAlreadyUsed on a code collision.
type Store interface {
	Create(ctx context.Context, inv *models.Invite) error
	FindByCode(ctx context.Context, code string) (*models.Invite, error)
	CodesByGroup(ctx context.Context, groupID id.GroupID) ([]string, error)
	DeleteByGroup(ctx context.Context, groupID id.GroupID) error
}

// Groups is the slice of the group manager invites depend on.
type Groups interface {
	Lookup(ctx context.Context, groupID id.GroupID) (*groupModels.Detail, error)
	AddMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (bool, int, error)
}

// UserDirectory renders creator and member names for previews.
type UserDirectory interface {
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error)
}

// PreviewCache holds rendered previews keyed by invite code.
type PreviewCache interface {
	Get(ctx context.Context, code string) (*models.Preview, bool, error)
	Set(ctx context.Context, code string, p *models.Preview, validFor time.Duration) error
	Invalidate(ctx context.Context, code string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	groups         Groups
	users          UserDirectory
	tx             tx.Runner
	cache          PreviewCache
	ttl            time.Duration
	baseURL        string
	generateCode   func() (string, error)
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

// WithPreviewCache enables preview caching. Without it every preview reads the stores.
func WithPreviewCache(cache PreviewCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithTTL overrides models.DefaultTTL for newly issued invites.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBaseURL sets the prefix of issued links.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCodeGenerator replaces models.GenerateCode.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.generateCode = fn
		}
	}
}

func New(store Store, groups Groups, users UserDirectory, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("invite store is required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group service is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	svc := &Service{
		store:        store,
		groups:       groups,
		users:        users,
		tx:           runner,
		ttl:          models.DefaultTTL,
		generateCode: models.GenerateCode,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue creates a new invite link into groupID. Only members may invite.
func (s *Service) Issue(ctx context.Context, groupID id.GroupID, issuerID id.UserID) (*models.IssueResult, error) {
	detail, err := s.groups.Lookup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if groupModels.FindMember(detail.Members, issuerID) == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "only group members can create invites")
	}

	now := requestcontext.Now(ctx)
	var inv *models.Invite
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invite code")
		}
		candidate := models.NewInvite(code, groupID, issuerID, now, s.ttl)
		err = s.store.Create(ctx, candidate)
		if err == nil {
			inv = candidate
			break
		}
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save invite")
		}
	}
	if inv == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "failed to generate a unique invite code")
	}

	if s.metrics != nil {
		s.metrics.InvitesIssued.Inc()
	}
	s.logAudit(ctx, audit.EventInviteIssued,
		"user_id", issuerID.String(),
		"group_id", groupID.String(),
		"invite_code", inv.Code,
	)
	return &models.IssueResult{
		Code:      inv.Code,
		Link:      s.baseURL + "/" + inv.Code,
		ExpiresAt: inv.ExpiresAt,
	}, nil
}

// Redeem joins userID to the invite's group. Redeeming as an existing member changes nothing.
func (s *Service) Redeem(ctx context.Context, code string, userID id.UserID) (*models.RedeemResult, error) {
	var result models.RedeemResult
	var groupID id.GroupID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv, err := s.findInvite(ctx, code)
		if err != nil {
			return err
		}
		groupID = inv.GroupID
		if inv.IsExpired(requestcontext.Now(ctx)) {
			s.countRedeem("expired")
			return dErrors.New(dErrors.CodeGone, "invite has expired")
		}
		added, count, err := s.groups.AddMember(ctx, inv.GroupID, userID)
		if err != nil {
			return err
		}
		detail, err := s.groups.Lookup(ctx, inv.GroupID)
		if err != nil {
			return err
		}
		result = models.RedeemResult{Group: detail.Group, IsNewMember: added, MemberCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.IsNewMember {
		s.invalidate(ctx, code)
		s.countRedeem("joined")
		s.logAudit(ctx, audit.EventInviteRedeemed,
			"user_id", userID.String(),
			"group_id", groupID.String(),
			"invite_code", code,
		)
	} else {
		s.countRedeem("already_member")
	}
	return &result, nil
}

// Preview renders the public landing page for an invite.
func (s *Service) Preview(ctx context.Context, code string) (*models.Preview, error) {
	now := requestcontext.Now(ctx)
	inv, err := s.findInvite(ctx, code)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.invalidate(ctx, code)
		}
		return nil, err
	}
	if inv.IsExpired(now) {
		return nil, dErrors.New(dErrors.CodeGone, "invite has expired")
	}
	if cached := s.cached(ctx, code); cached != nil {
		return cached, nil
	}
	detail, err := s.groups.Lookup(ctx, inv.GroupID)
	if err != nil {
		return nil, err
	}

	shown := detail.Members
	if len(shown) > previewMembers {
		shown = shown[:previewMembers]
	}
	lookup := make([]id.UserID, 0, len(shown)+1)
	lookup = append(lookup, detail.Group.CreatorID)
	for _, m := range shown {
		lookup = append(lookup, m.UserID)
	}
	users, err := s.users.FindByIDs(ctx, lookup)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invite members")
	}

	p := &models.Preview{
		GroupName:      detail.Group.Name,
		GroupAvatarURL: detail.Group.AvatarURL,
		GroupCreatedAt: detail.Group.CreatedAt,
		ExpiresAt:      inv.ExpiresAt,
		MemberCount:    len(detail.Members),
		Members:        make([]models.MemberPreview, 0, len(shown)),
	}
	if creator, ok := users[detail.Group.CreatorID]; ok {
		p.CreatorName = creator.DisplayName()
	}
	for _, m := range shown {
		u, ok := users[m.UserID]
		if !ok {
			continue
		}
		p.Members = append(p.Members, models.MemberPreview{DisplayName: u.DisplayName(), AvatarURL: u.AvatarURL})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, code, p, inv.Remaining(now)); err != nil {
			s.warn(ctx, "failed to cache invite preview", err)
		}
	}
	return p, nil
}

// DeleteByGroup drops every invite into groupID and their cached previews; registered as a
// group purge hook.
func (s *Service) DeleteByGroup(ctx context.Context, groupID id.GroupID) error {
	codes, err := s.store.CodesByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list group invites: %w", err)
	}
	if err := s.store.DeleteByGroup(ctx, groupID); err != nil {
		return err
	}
	for _, code := range codes {
		s.invalidate(ctx, code)
	}
	return nil
}

// InvalidateGroup drops the cached previews of every invite into groupID; registered as a
// group change hook so member counts and group details are rendered fresh.
func (s *Service) InvalidateGroup(ctx context.Context, groupID id.GroupID) error {
	if s.cache == nil {
		return nil
	}
	codes, err := s.store.CodesByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list group invites: %w", err)
	}
	for _, code := range codes {
		if err := s.cache.Invalidate(ctx, code); err != nil {
			return fmt.Errorf("invalidate invite preview: %w", err)
		}
	}
	return nil
}

func (s *Service) findInvite(ctx context.Context, code string) (*models.Invite, error) {
	inv, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "invite not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invite")
	}
	return inv, nil
}

func (s *Service) cached(ctx context.Context, code string) *models.Preview {
	if s.cache == nil {
		return nil
	}
	p, ok, err := s.cache.Get(ctx, code)
	if err != nil {
		s.warn(ctx, "failed to read invite preview cache", err)
		return nil
	}
	if !ok {
		return nil
	}
	return p
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.warn(ctx, "failed to invalidate invite preview", err)
	}
}

func (s *Service) countRedeem(outcome string) {
	if s.metrics != nil {
		s.metrics.InvitesRedeemed.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attrs ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attrs...)
}
