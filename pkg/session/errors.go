package session

import "errors"

var (
	// ErrRefreshInvalid indicates a refresh token with a bad signature or
	// expired claim; the user must re-authenticate.
	ErrRefreshInvalid = errors.New("session.refresh_invalid")

	// ErrTokenReused indicates a refresh token with a valid signature that is
	// absent from the store. All sessions for the subject have been revoked.
	ErrTokenReused = errors.New("session.token_reused")

	// ErrUserNotFound indicates the token subject no longer exists as an
	// active principal. All sessions for the subject have been revoked.
	ErrUserNotFound = errors.New("session.user_not_found")

	// ErrDuplicateToken indicates a uniqueness violation on insert. The
	// lifecycle retries issuance with fresh randomness before surfacing it.
	ErrDuplicateToken = errors.New("session.duplicate_token")

	// ErrSessionNotFound indicates no record exists for the token.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrStoreUnavailable indicates a backing store failure. The operation is
	// not retried by this layer.
	ErrStoreUnavailable = errors.New("session.store_unavailable")

	// ErrInvalidSession indicates a malformed record passed to a store.
	ErrInvalidSession = errors.New("session.invalid")
)
