package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fellowship/internal/chat"
	"fellowship/internal/message/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
)

func seed(t *testing.T, s *InMemoryStore, sender id.UserID, target chat.Ref, content string, at time.Time) *models.Message {
	t.Helper()
	m, err := models.NewMessage(sender, target, content, at)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), m))
	return m
}

func TestInMemoryStore_ListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewInMemoryStore()
	conv := chat.ConversationRef{ID: id.NewConversationID()}
	sender := id.NewUserID()

	for i := range 5 {
		seed(t, s, sender, conv, "msg", base.Add(time.Duration(i)*time.Minute))
	}
	seed(t, s, sender, chat.GroupRef{ID: id.NewGroupID()}, "elsewhere", base)

	page, err := s.List(ctx, conv, models.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.Equal(base.Add(4*time.Minute)))
	assert.True(t, page[1].CreatedAt.Equal(base.Add(3*time.Minute)))

	cursor := page[1].CreatedAt
	rest, err := s.List(ctx, conv, models.Page{Before: &cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 3)
	for _, m := range rest {
		assert.True(t, m.CreatedAt.Before(cursor))
	}
}

func TestInMemoryStore_LatestAndBatch(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewInMemoryStore()
	conv := chat.ConversationRef{ID: id.NewConversationID()}
	group := chat.GroupRef{ID: id.NewGroupID()}
	empty := chat.GroupRef{ID: id.NewGroupID()}

	_, err := s.Latest(ctx, conv)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	seed(t, s, id.NewUserID(), conv, "first", base)
	newest := seed(t, s, id.NewUserID(), conv, "second", base.Add(time.Second))
	inGroup := seed(t, s, id.NewUserID(), group, "hello all", base)

	got, err := s.Latest(ctx, conv)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)

	batch, err := s.LatestForChats(ctx, []chat.Ref{conv, group, empty})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, newest.ID, batch[conv.String()].ID)
	assert.Equal(t, inGroup.ID, batch[group.String()].ID)
}

func TestInMemoryStore_MarkReadAndPurge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewInMemoryStore()
	convID := id.NewConversationID()
	conv := chat.ConversationRef{ID: convID}
	reader, other := id.NewUserID(), id.NewUserID()

	seed(t, s, other, conv, "one", now)
	seed(t, s, other, conv, "two", now.Add(time.Second))
	seed(t, s, reader, conv, "mine", now.Add(2*time.Second))

	n, err := s.MarkConversationRead(ctx, convID, reader)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = s.MarkConversationRead(ctx, convID, reader)
	require.NoError(t, err)
	assert.Zero(t, n, "already read")

	msgs, err := s.List(ctx, conv, models.Page{})
	require.NoError(t, err)
	for _, m := range msgs {
		assert.Equal(t, m.SenderID != reader, m.IsRead)
	}

	groupID := id.NewGroupID()
	seed(t, s, reader, chat.GroupRef{ID: groupID}, "bye", now)
	require.NoError(t, s.DeleteByGroup(ctx, groupID))
	_, err = s.Latest(ctx, chat.GroupRef{ID: groupID})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = s.Latest(ctx, conv)
	assert.NoError(t, err, "conversation messages survive a group purge")
}
