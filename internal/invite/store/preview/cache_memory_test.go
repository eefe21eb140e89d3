package preview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fellowship/internal/invite/models"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := NewInMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "code", &models.Preview{GroupName: "Fellowship"}, time.Hour))
	got, ok, err := c.Get(ctx, "code")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fellowship", got.GroupName)

	now = now.Add(MaxTTL)
	_, ok, err = c.Get(ctx, "code")
	require.NoError(t, err)
	assert.False(t, ok, "entries never outlive MaxTTL")

	require.NoError(t, c.Set(ctx, "short", &models.Preview{}, time.Second))
	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx, "short")
	assert.False(t, ok, "entries never outlive the invite")

	require.NoError(t, c.Set(ctx, "expired", &models.Preview{}, 0))
	_, ok, _ = c.Get(ctx, "expired")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "gone", &models.Preview{}, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "gone"))
	_, ok, _ = c.Get(ctx, "gone")
	assert.False(t, ok)
}
