// Package service routes messages to conversations and groups, and serves chat history.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fellowship/internal/chat"
	convModels "fellowship/internal/conversation/models"
	"fellowship/internal/message/models"
	"fellowship/internal/platform/metrics"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
	"fellowship/pkg/requestcontext"
)

// Store persists messages. Implementations return sentinel errors.
type Store interface {
	Create(ctx context.Context, msg *models.Message) error
	List(ctx context.Context, target chat.Ref, page models.Page) ([]*models.Message, error)
	Latest(ctx context.Context, target chat.Ref) (*models.Message, error)
	LatestForChats(ctx context.Context, targets []chat.Ref) (map[string]*models.Message, error)
	MarkConversationRead(ctx context.Context, convID id.ConversationID, readerID id.UserID) (int, error)
	DeleteByGroup(ctx context.Context, groupID id.GroupID) error
}

// Conversations resolves and touches direct conversations.
type Conversations interface {
	FindOrCreate(ctx context.Context, requester, other id.UserID) (*convModels.Conversation, bool, error)
	Get(ctx context.Context, userID id.UserID, convID id.ConversationID) (*convModels.Conversation, error)
	Touch(ctx context.Context, convID id.ConversationID, at time.Time) error
}

// Groups checks membership and touches groups.
type Groups interface {
	IsMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (bool, error)
	Touch(ctx context.Context, groupID id.GroupID, at time.Time) error
}

// Publisher fans a committed message out to realtime subscribers.
type Publisher interface {
	Publish(ctx context.Context, msg *models.Message) error
}

type Service struct {
	store         Store
	conversations Conversations
	groups        Groups
	tx            tx.Runner
	publisher     Publisher
	tracer        trace.Tracer
	logger        *slog.Logger
	metrics       *metrics.Metrics
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

// WithPublisher enables fan-out of sent messages.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, conversations Conversations, groups Groups, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("message store is required")
	}
	if conversations == nil {
		return nil, fmt.Errorf("conversation manager is required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group manager is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}

	svc := &Service{
		store:         store,
		conversations: conversations,
		groups:        groups,
		tx:            runner,
		tracer:        otel.Tracer("fellowship/message"),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Send stores a message in its chat and bumps the chat's activity in one transaction, then
// hands it to the publisher.
func (s *Service) Send(ctx context.Context, senderID id.UserID, cmd models.SendCommand) (*models.Message, error) {
	ctx, span := s.tracer.Start(ctx, "message.Send")
	defer span.End()

	msg, err := s.send(ctx, senderID, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("chat.kind", string(msg.Target.Kind())),
		attribute.String("message.id", msg.ID.String()),
	)

	if s.metrics != nil {
		s.metrics.MessagesSent.WithLabelValues(string(msg.Target.Kind())).Inc()
	}
	s.publish(ctx, msg)
	return msg, nil
}

func (s *Service) send(ctx context.Context, senderID id.UserID, cmd models.SendCommand) (*models.Message, error) {
	if cmd.TargetCount() != 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "exactly one of conversation_id, group_id or recipient_id is required")
	}
	content, err := models.NormalizeContent(cmd.Content)
	if err != nil {
		return nil, err
	}
	if cmd.RecipientID != nil && *cmd.RecipientID == senderID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot message yourself")
	}

	var msg *models.Message
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		target, err := s.resolveTarget(ctx, senderID, cmd)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		msg, err = models.NewMessage(senderID, target, content, now)
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, msg); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store message")
		}
		return s.touch(ctx, target, now)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) resolveTarget(ctx context.Context, senderID id.UserID, cmd models.SendCommand) (chat.Ref, error) {
	switch {
	case cmd.ConversationID != nil:
		c, err := s.conversations.Get(ctx, senderID, *cmd.ConversationID)
		if err != nil {
			return nil, err
		}
		if !c.IsActive {
			return nil, dErrors.New(dErrors.CodeForbidden, "conversation has been deleted")
		}
		return chat.ConversationRef{ID: c.ID}, nil
	case cmd.GroupID != nil:
		if err := s.requireMember(ctx, *cmd.GroupID, senderID); err != nil {
			return nil, err
		}
		return chat.GroupRef{ID: *cmd.GroupID}, nil
	default:
		c, _, err := s.conversations.FindOrCreate(ctx, senderID, *cmd.RecipientID)
		if err != nil {
			return nil, err
		}
		return chat.ConversationRef{ID: c.ID}, nil
	}
}

func (s *Service) touch(ctx context.Context, target chat.Ref, at time.Time) error {
	switch t := target.(type) {
	case chat.ConversationRef:
		return s.conversations.Touch(ctx, t.ID, at)
	case chat.GroupRef:
		return s.groups.Touch(ctx, t.ID, at)
	}
	return dErrors.New(dErrors.CodeInvariantViolation, "unknown chat target")
}

func (s *Service) publish(ctx context.Context, msg *models.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to publish message",
			"message_id", msg.ID.String(),
			"chat", msg.Target.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

// ListConversationMessages returns a page of history to a participant, newest first.
func (s *Service) ListConversationMessages(ctx context.Context, userID id.UserID, convID id.ConversationID, page models.Page) ([]*models.Message, error) {
	if _, err := s.conversations.Get(ctx, userID, convID); err != nil {
		return nil, err
	}
	return s.list(ctx, chat.ConversationRef{ID: convID}, page)
}

// ListGroupMessages returns a page of history to a member, newest first.
func (s *Service) ListGroupMessages(ctx context.Context, userID id.UserID, groupID id.GroupID, page models.Page) ([]*models.Message, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.list(ctx, chat.GroupRef{ID: groupID}, page)
}

func (s *Service) list(ctx context.Context, target chat.Ref, page models.Page) ([]*models.Message, error) {
	msgs, err := s.store.List(ctx, target, page.Normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return msgs, nil
}

// MarkConversationRead marks the other participant's messages read and returns how many changed.
func (s *Service) MarkConversationRead(ctx context.Context, userID id.UserID, convID id.ConversationID) (int, error) {
	if _, err := s.conversations.Get(ctx, userID, convID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkConversationRead(ctx, convID, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark messages read")
	}
	return n, nil
}

// LatestInConversation returns the newest message, or nil for an empty conversation.
func (s *Service) LatestInConversation(ctx context.Context, convID id.ConversationID) (*models.Message, error) {
	return s.latest(ctx, chat.ConversationRef{ID: convID})
}

// LatestInGroup returns the newest message, or nil for an empty group.
func (s *Service) LatestInGroup(ctx context.Context, groupID id.GroupID) (*models.Message, error) {
	return s.latest(ctx, chat.GroupRef{ID: groupID})
}

func (s *Service) latest(ctx context.Context, target chat.Ref) (*models.Message, error) {
	m, err := s.store.Latest(ctx, target)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest message")
	}
	return m, nil
}

// LatestForChats maps each chat with messages to its newest one, keyed by Ref.String().
func (s *Service) LatestForChats(ctx context.Context, targets []chat.Ref) (map[string]*models.Message, error) {
	if len(targets) == 0 {
		return map[string]*models.Message{}, nil
	}
	out, err := s.store.LatestForChats(ctx, targets)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest messages")
	}
	return out, nil
}

// DeleteByGroup purges a deleted group's history.
func (s *Service) DeleteByGroup(ctx context.Context, groupID id.GroupID) error {
	if err := s.store.DeleteByGroup(ctx, groupID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete group messages")
	}
	return nil
}

func (s *Service) requireMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error {
	ok, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "not a member of this group")
	}
	return nil
}
