package models

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fellowship/pkg/domain"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		code, err := GenerateCode()
		require.NoError(t, err)
		raw, err := base64.RawURLEncoding.DecodeString(code)
		require.NoError(t, err)
		assert.Len(t, raw, CodeBytes)
		assert.False(t, seen[code])
		seen[code] = true
	}
}

func TestIsExpiredAtBoundary(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	inv := NewInvite("code", id.NewGroupID(), id.NewUserID(), now, DefaultTTL)

	assert.Equal(t, now.Add(7*24*time.Hour), inv.ExpiresAt)
	assert.False(t, inv.IsExpired(inv.ExpiresAt.Add(-time.Nanosecond)))
	assert.True(t, inv.IsExpired(inv.ExpiresAt))
	assert.True(t, inv.IsExpired(inv.ExpiresAt.Add(time.Second)))

	assert.Equal(t, time.Hour, inv.Remaining(inv.ExpiresAt.Add(-time.Hour)))
	assert.Zero(t, inv.Remaining(inv.ExpiresAt))
}
