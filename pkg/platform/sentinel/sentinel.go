package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped) so services
// can translate them into domain errors:
//   - ErrNotFound: row does not exist (or is not visible to the caller's scope)
//   - ErrAlreadyUsed: a uniqueness constraint rejected the write
//   - ErrExpired: a time-limited record is past its expiry
//   - ErrInvalidState: the row is in the wrong state for the requested transition
//   - ErrUnavailable: a backing service is temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
