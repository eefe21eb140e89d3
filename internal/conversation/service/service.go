// Package service implements direct conversation lifecycle: find-or-create, soft delete,
// restore and listing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fellowship/internal/conversation/models"
	"fellowship/internal/directory"
	"fellowship/internal/platform/metrics"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/audit"
	"fellowship/pkg/platform/authz"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// Store persists conversations. Implementations return sentinel errors.
type Store interface {
	FindOrCreate(ctx context.Context, c *models.Conversation) (*models.Conversation, bool, error)
	FindByID(ctx context.Context, convID id.ConversationID) (*models.Conversation, error)
	FindByIDForUpdate(ctx context.Context, convID id.ConversationID) (*models.Conversation, error)
	FindActiveByPair(ctx context.Context, a, b id.UserID) (*models.Conversation, error)
	Save(ctx context.Context, c *models.Conversation) error
	Touch(ctx context.Context, convID id.ConversationID, at time.Time) error
	ListActiveForUser(ctx context.Context, userID id.UserID) ([]*models.Conversation, error)
}

// UserDirectory checks that a counterparty exists.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*directory.User, error)
}

// AuditPublisher receives audit events for conversation lifecycle changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	users          UserDirectory
	tx             tx.Runner
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

func New(store Store, users UserDirectory, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("conversation store is required")
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

// FindOrCreate returns the active conversation between requester and other, creating it when
// none exists. The created flag is false when an existing conversation was returned.
func (s *Service) FindOrCreate(ctx context.Context, requester, other id.UserID) (*models.Conversation, bool, error) {
	if requester == other {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "cannot start a conversation with yourself")
	}

	var (
		result  *models.Conversation
		created bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, other); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
		}

		candidate, err := models.NewConversation(id.NewConversationID(), requester, other, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		result, created, err = s.store.FindOrCreate(ctx, candidate)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to find or create conversation")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		if s.metrics != nil {
			s.metrics.ConversationsCreated.Inc()
		}
		s.logAudit(ctx, audit.EventConversationCreated,
			"user_id", requester.String(),
			"conversation_id", result.ID.String(),
		)
	}
	return result, created, nil
}

// Get returns a conversation visible to userID.
func (s *Service) Get(ctx context.Context, userID id.UserID, convID id.ConversationID) (*models.Conversation, error) {
	c, err := s.load(ctx, convID, false)
	if err != nil {
		return nil, err
	}
	if err := models.CheckAccess(c, userID).Err(dErrors.CodeForbidden); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckDeletePermission reports whether userID may delete the conversation. Only a missing
// conversation is an error; a refusal is a denied Decision.
func (s *Service) CheckDeletePermission(ctx context.Context, userID id.UserID, convID id.ConversationID) (authz.Decision, error) {
	c, err := s.load(ctx, convID, false)
	if err != nil {
		return authz.Decision{}, err
	}
	return models.CheckDelete(c, userID), nil
}

// Delete soft-deletes the conversation. Deleting an inactive conversation is a no-op.
func (s *Service) Delete(ctx context.Context, userID id.UserID, convID id.ConversationID) error {
	var changed bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.load(ctx, convID, true)
		if err != nil {
			return err
		}
		if err := models.CheckDelete(c, userID).Err(dErrors.CodeForbidden); err != nil {
			return err
		}
		if !c.ApplyDelete(requestcontext.Now(ctx)) {
			return nil
		}
		if err := s.store.Save(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete conversation")
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.logAudit(ctx, audit.EventConversationDeleted,
			"user_id", userID.String(),
			"conversation_id", convID.String(),
		)
	}
	return nil
}

// Restore reactivates a soft-deleted conversation for one of its participants. It fails with
// a conflict when the conversation is active or the pair already has another active one.
func (s *Service) Restore(ctx context.Context, userID id.UserID, convID id.ConversationID) (*models.Conversation, error) {
	var restored *models.Conversation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.load(ctx, convID, true)
		if err != nil {
			return err
		}
		if err := models.CheckAccess(c, userID).Err(dErrors.CodeForbidden); err != nil {
			return err
		}
		if err := c.CanRestore(); err != nil {
			return err
		}
		c.ApplyRestore(requestcontext.Now(ctx))
		if err := s.store.Save(ctx, c); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "another active conversation exists for this pair")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore conversation")
		}
		restored = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventConversationRestored,
		"user_id", userID.String(),
		"conversation_id", convID.String(),
	)
	return restored, nil
}

// ListForUser returns the user's active conversations, most recent activity first.
func (s *Service) ListForUser(ctx context.Context, userID id.UserID) ([]*models.Conversation, error) {
	list, err := s.store.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list conversations")
	}
	return list, nil
}

// FindActiveBetween returns the active conversation of a pair, or nil when none exists.
func (s *Service) FindActiveBetween(ctx context.Context, a, b id.UserID) (*models.Conversation, error) {
	c, err := s.store.FindActiveByPair(ctx, a, b)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up conversation")
	}
	return c, nil
}

// Touch records message activity on the conversation.
func (s *Service) Touch(ctx context.Context, convID id.ConversationID, at time.Time) error {
	if err := s.store.Touch(ctx, convID, at); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "conversation not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update conversation activity")
	}
	return nil
}

func (s *Service) load(ctx context.Context, convID id.ConversationID, forUpdate bool) (*models.Conversation, error) {
	var (
		c   *models.Conversation
		err error
	)
	if forUpdate {
		c, err = s.store.FindByIDForUpdate(ctx, convID)
	} else {
		c, err = s.store.FindByID(ctx, convID)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "conversation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
	}
	return c, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attributes...)
}
