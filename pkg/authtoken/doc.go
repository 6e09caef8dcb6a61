// Package authtoken creates and verifies the signed bearer tokens used by the
// budgetkit session layer: short-lived access tokens and long-lived refresh
// tokens, each bound to its own HMAC-SHA256 signing key.
//
// The codec is a stateless set of pure functions. Access tokens are never
// persisted; their validity is signature plus expiry. Refresh tokens are
// additionally recorded in the session store (see pkg/session) and are only
// valid while a matching record exists.
//
// # Usage
//
//	codec, err := authtoken.New(accessKey, refreshKey,
//	    authtoken.WithAccessTTL(15*time.Minute),
//	    authtoken.WithRefreshTTL(7*24*time.Hour),
//	)
//
//	access, _ := codec.IssueAccess(userID)
//	refresh, expiresAt, _ := codec.IssueRefresh(userID)
//
//	subject, err := codec.Verify(refresh, authtoken.KindRefresh)
//
// # Error Handling
//
//   - ErrInvalidSignature – signature does not match the key for the kind
//   - ErrExpiredToken     – expiry claim is in the past
//   - ErrInvalidToken     – malformed token or claims
package authtoken
