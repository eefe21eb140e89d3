package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fellowship/internal/chat"
	"fellowship/internal/message/models"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/circuit"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	err  error
	sent []published
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{subject: subject, data: data})
	return nil
}

func TestSubject(t *testing.T) {
	convID := id.NewConversationID()
	groupID := id.NewGroupID()
	assert.Equal(t, "chat.conversation."+convID.String(), Subject(chat.ConversationRef{ID: convID}))
	assert.Equal(t, "chat.group."+groupID.String(), Subject(chat.GroupRef{ID: groupID}))
}

func TestPublishEncodesEnvelope(t *testing.T) {
	conn := &fakeConn{}
	p := New(conn)
	groupID := id.NewGroupID()
	m, err := models.NewMessage(id.NewUserID(), chat.GroupRef{ID: groupID}, "the beacons are lit", time.Now())
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), m))
	require.Len(t, conn.sent, 1)
	assert.Equal(t, "chat.group."+groupID.String(), conn.sent[0].subject)

	var got models.MessageResponse
	require.NoError(t, json.Unmarshal(conn.sent[0].data, &got))
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "the beacons are lit", got.Content)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, groupID, *got.GroupID)
}

func TestPublishTripsBreaker(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := New(conn, WithBreaker(circuit.New("nats",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)))
	m, err := models.NewMessage(id.NewUserID(), chat.ConversationRef{ID: id.NewConversationID()}, "hi", now)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, m))
	assert.Error(t, p.Publish(ctx, m))
	assert.ErrorIs(t, p.Publish(ctx, m), ErrCircuitOpen)

	conn.err = nil
	now = now.Add(time.Minute)
	require.NoError(t, p.Publish(ctx, m), "probe after cooldown")
	require.NoError(t, p.Publish(ctx, m), "closed after a successful probe")
	assert.Len(t, conn.sent, 2)
}

func TestConnectWithoutURL(t *testing.T) {
	conn, err := Connect("", nil)
	assert.NoError(t, err)
	assert.Nil(t, conn)
}
