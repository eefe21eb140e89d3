// Package service answers unified search across people and chats.
//
// A search runs four read-only legs concurrently: faithful people, directory users, the
// caller's matching groups and the caller's active conversations. Legs never join a
// transaction; ranking tolerates read-committed views.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"fellowship/internal/chat"
	contactModels "fellowship/internal/contact/models"
	convModels "fellowship/internal/conversation/models"
	"fellowship/internal/directory"
	groupModels "fellowship/internal/group/models"
	msgModels "fellowship/internal/message/models"
	"fellowship/internal/platform/metrics"
	"fellowship/internal/search/models"
	id "fellowship/pkg/domain"
	dErrors "fellowship/pkg/domain-errors"
	pstrings "fellowship/pkg/platform/strings"
)

type Faithful interface {
	SearchFaithful(ctx context.Context, term string) ([]*contactModels.FaithfulPerson, error)
}

type UserDirectory interface {
	Search(ctx context.Context, term string, excludeID id.UserID, limit int) ([]*directory.User, error)
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error)
}

type Conversations interface {
	ListForUser(ctx context.Context, userID id.UserID) ([]*convModels.Conversation, error)
}

type Groups interface {
	SearchForUser(ctx context.Context, userID id.UserID, term string) ([]*groupModels.Group, error)
}

type Messages interface {
	LatestForChats(ctx context.Context, targets []chat.Ref) (map[string]*msgModels.Message, error)
}

type Service struct {
	faithful      Faithful
	users         UserDirectory
	conversations Conversations
	groups        Groups
	messages      Messages
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

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(faithful Faithful, users UserDirectory, conversations Conversations, groups Groups, messages Messages, opts ...Option) (*Service, error) {
	switch {
	case faithful == nil:
		return nil, fmt.Errorf("faithful source is required")
	case users == nil:
		return nil, fmt.Errorf("user directory is required")
	case conversations == nil:
		return nil, fmt.Errorf("conversation manager is required")
	case groups == nil:
		return nil, fmt.Errorf("group manager is required")
	case messages == nil:
		return nil, fmt.Errorf("message router is required")
	}
	svc := &Service{
		faithful:      faithful,
		users:         users,
		conversations: conversations,
		groups:        groups,
		messages:      messages,
		tracer:        otel.Tracer("fellowship/search"),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// directChat is an active conversation with its counterpart and newest message.
type directChat struct {
	conv   *convModels.Conversation
	other  *directory.User
	latest *msgModels.Message
}

type gathered struct {
	faithful []*contactModels.FaithfulPerson
	users    []*directory.User
	direct   map[id.UserID]directChat
	groups   []*groupModels.Group
	latestIn map[string]*msgModels.Message
	senders  map[id.UserID]*directory.User
}

// Search returns people and chats matching query. Queries shorter than two runes match nothing.
func (s *Service) Search(ctx context.Context, userID id.UserID, query string) (*models.Results, error) {
	query = strings.TrimSpace(query)
	if pstrings.RuneLen(query) < models.MinQueryLength {
		return models.Empty(), nil
	}

	start := time.Now()
	defer s.metrics.ObserveSearch(start)
	ctx, span := s.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.Int("search.query_length", pstrings.RuneLen(query)),
	))
	defer span.End()

	g, err := s.gather(ctx, userID, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}

	res := &models.Results{
		People: s.people(userID, query, g),
		Chats:  s.chats(query, g),
	}
	span.SetAttributes(
		attribute.Int("search.people", len(res.People)),
		attribute.Int("search.chats", len(res.Chats)),
	)
	return res, nil
}

func (s *Service) gather(ctx context.Context, userID id.UserID, query string) (*gathered, error) {
	eg, ctx := errgroup.WithContext(ctx)
	out := &gathered{}

	eg.Go(func() error {
		people, err := s.faithful.SearchFaithful(ctx, query)
		if err != nil {
			return err
		}
		out.faithful = people
		return nil
	})

	eg.Go(func() error {
		users, err := s.users.Search(ctx, query, userID, models.DirectoryLimit)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to search users")
		}
		out.users = users
		return nil
	})

	eg.Go(func() error {
		direct, err := s.directChats(ctx, userID)
		if err != nil {
			return err
		}
		out.direct = direct
		return nil
	})

	eg.Go(func() error {
		groups, err := s.groups.SearchForUser(ctx, userID, query)
		if err != nil {
			return err
		}
		refs := make([]chat.Ref, 0, len(groups))
		for _, grp := range groups {
			refs = append(refs, chat.GroupRef{ID: grp.ID})
		}
		latest, err := s.messages.LatestForChats(ctx, refs)
		if err != nil {
			return err
		}
		senderIDs := make([]id.UserID, 0, len(latest))
		for _, m := range latest {
			senderIDs = append(senderIDs, m.SenderID)
		}
		senders, err := s.users.FindByIDs(ctx, senderIDs)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load message senders")
		}
		out.groups, out.latestIn, out.senders = groups, latest, senders
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// directChats maps each counterpart of the caller's active conversations to that chat.
func (s *Service) directChats(ctx context.Context, userID id.UserID) (map[id.UserID]directChat, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]chat.Ref, 0, len(convs))
	others := make([]id.UserID, 0, len(convs))
	for _, c := range convs {
		refs = append(refs, chat.ConversationRef{ID: c.ID})
		others = append(others, c.OtherParticipant(userID))
	}
	latest, err := s.messages.LatestForChats(ctx, refs)
	if err != nil {
		return nil, err
	}
	profiles, err := s.users.FindByIDs(ctx, others)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participants")
	}

	out := make(map[id.UserID]directChat, len(convs))
	for _, c := range convs {
		other := c.OtherParticipant(userID)
		out[other] = directChat{
			conv:   c,
			other:  profiles[other],
			latest: latest[chat.ConversationRef{ID: c.ID}.String()],
		}
	}
	return out, nil
}

func (s *Service) people(userID id.UserID, query string, g *gathered) []models.Person {
	out := make([]models.Person, 0, len(g.faithful)+len(g.users))
	surfaced := make(map[id.UserID]struct{}, len(g.faithful))

	for _, f := range g.faithful {
		if f.UserID == userID {
			continue
		}
		faithfulID := f.ID
		p := models.Person{
			FaithfulID: &faithfulID,
			Name:       f.Name,
			Title:      f.Title,
			AvatarURL:  f.AvatarURL,
			IsFaithful: true,
		}
		if !f.UserID.IsNil() {
			linked := f.UserID
			p.UserID = &linked
			annotate(&p, g.direct[linked])
			surfaced[linked] = struct{}{}
		}
		out = append(out, p)
	}

	for _, u := range g.users {
		if u.ID == userID {
			continue
		}
		if _, ok := surfaced[u.ID]; ok {
			continue
		}
		uid := u.ID
		p := models.Person{
			UserID:    &uid,
			Name:      u.DisplayName(),
			Email:     u.Email,
			AvatarURL: u.AvatarURL,
		}
		annotate(&p, g.direct[u.ID])
		out = append(out, p)
	}

	models.SortPeople(out)
	return out
}

func annotate(p *models.Person, dc directChat) {
	if dc.latest == nil {
		return
	}
	at := dc.latest.CreatedAt
	p.LastMessage = pstrings.Truncate(dc.latest.Content, models.PersonPreviewLength)
	p.LastMessageAt = &at
}

func (s *Service) chats(query string, g *gathered) []models.Chat {
	out := make([]models.Chat, 0, len(g.groups)+len(g.direct))

	for _, grp := range g.groups {
		c := models.Chat{
			Type: chat.KindGroup,
			ID:   grp.ID.String(),
			Name: grp.Name,
		}
		if grp.AvatarURL != nil {
			c.AvatarURL = *grp.AvatarURL
		}
		if m := g.latestIn[chat.GroupRef{ID: grp.ID}.String()]; m != nil {
			at := m.CreatedAt
			c.LastMessage = groupPreview(g.senders[m.SenderID], m.Content)
			c.LastMessageAt = &at
		}
		out = append(out, c)
	}

	needle := strings.ToLower(query)
	for _, dc := range g.direct {
		if dc.other == nil || !strings.Contains(strings.ToLower(dc.other.DisplayName()), needle) {
			continue
		}
		c := models.Chat{
			Type:      chat.KindConversation,
			ID:        dc.conv.ID.String(),
			Name:      dc.other.DisplayName(),
			AvatarURL: dc.other.AvatarURL,
		}
		if dc.latest != nil {
			at := dc.latest.CreatedAt
			c.LastMessage = pstrings.Truncate(dc.latest.Content, models.ConversationPreviewLength)
			c.LastMessageAt = &at
		}
		out = append(out, c)
	}

	models.SortChats(out)
	return out
}

// groupPreview prefixes content with the sender's first name, as in "Ana: hello".
func groupPreview(sender *directory.User, content string) string {
	if sender != nil {
		if name := sender.ShortName(); name != "" {
			content = name + ": " + content
		}
	}
	return pstrings.Truncate(content, models.GroupPreviewLength)
}
