package testutil

import (
	"net/http"
	"time"

	id "fellowship/pkg/domain"
	"fellowship/pkg/requestcontext"
)

// WithUser authenticates req as userID the way the bearer middleware does.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithTime pins the request clock, as the requesttime middleware would.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
