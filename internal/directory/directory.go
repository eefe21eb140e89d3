// Package directory reads user profiles from the identity collaborator.
//
// The messaging core never writes users; it needs existence checks, batch profile lookups for
// rendering, and a name/email search for the people leg of unified search.
package directory

import (
	"context"
	"time"

	id "fellowship/pkg/domain"
	"fellowship/pkg/email"
)

// User is the profile the identity service exposes to messaging.
type User struct {
	ID          id.UserID
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	AvatarURL   string
	CreatedAt   time.Time
}

// DisplayName renders the user's name, derived from the email when no name is set.
func (u *User) DisplayName() string {
	return email.DisplayName(u.FirstName, u.LastName, u.Email)
}

// ShortName is the first name used to prefix group message previews.
func (u *User) ShortName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	first, _ := email.DeriveNameFromEmail(u.Email)
	return first
}

// Directory is implemented by the directory stores.
type Directory interface {
	// FindByID returns sentinel.ErrNotFound when the user does not exist.
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	// FindByIDs returns the users that exist; missing ids are simply absent from the map.
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*User, error)
	// Search matches term against first name, last name, full name and email.
	Search(ctx context.Context, term string, excludeID id.UserID, limit int) ([]*User, error)
}
