package models

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	id "fellowship/pkg/domain"
)

const (
	// CodeBytes is the entropy of an invite code: 192 bits.
	CodeBytes = 24
	// DefaultTTL is how long an invite stays redeemable.
	DefaultTTL = 7 * 24 * time.Hour
)

// Invite is a shareable, multi-use link into a group.
type Invite struct {
	ID        id.InviteID
	Code      string
	GroupID   id.GroupID
	CreatorID id.UserID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// GenerateCode returns a fresh URL-safe invite code.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func NewInvite(code string, groupID id.GroupID, creatorID id.UserID, now time.Time, ttl time.Duration) *Invite {
	return &Invite{
		ID:        id.NewInviteID(),
		Code:      code,
		GroupID:   groupID,
		CreatorID: creatorID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the invite can no longer be redeemed at now. The expiry instant
// itself is already expired.
func (i *Invite) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Remaining is the validity left at now, zero once expired.
func (i *Invite) Remaining(now time.Time) time.Duration {
	if i.IsExpired(now) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}
