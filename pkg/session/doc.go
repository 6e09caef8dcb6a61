// Package session is the refresh-token session layer of budgetkit: it
// persists issued refresh tokens for revocation and multi-device tracking,
// rotates them on every use, and treats presentation of an already-consumed
// token as evidence of theft.
//
// # Architecture
//
// A Lifecycle orchestrates the per-token state machine. It consumes a
// stateless token codec (pkg/authtoken), a Store for persistence, and a
// narrow PrincipalResolver owned by the identity subsystem. A Sweeper purges
// expired records out-of-band.
//
//	┌────────┐  refresh token  ┌───────────┐
//	│ Client │ ──────────────► │ Lifecycle │ ──► authtoken.Codec
//	└────────┘                 └───────────┘
//	                                 │ insert / lookup / delete
//	                                 ▼
//	                            ┌────────┐
//	                            │ Store  │ (postgres, redis, mongo, memory)
//	                            └────────┘
//	                                 ▲
//	                            ┌────────┐
//	                            │Sweeper │ periodic DeleteExpired
//	                            └────────┘
//
// The package is storage-agnostic: any backend satisfying Store can be
// plugged in. Postgres, Redis, MongoDB, and in-memory implementations ship
// out of the box.
//
// # Token lifecycle
//
// A refresh token is usable exactly once. Rotate verifies the signature,
// looks the token up, confirms the subject still exists, deletes the consumed
// record, and only then issues the replacement. A token with a valid
// signature but no store record was already consumed or revoked: Rotate
// revokes every session of the subject and fails with ErrTokenReused.
//
// # Usage
//
//	codec, _ := authtoken.New(accessKey, refreshKey)
//	store := session.NewPGStore(pool)
//	lifecycle := session.NewLifecycle(store, codec, principals,
//	    session.WithLogger(log),
//	)
//
//	pair, err := lifecycle.Issue(ctx, userID, r.UserAgent())
//	pair, err = lifecycle.Rotate(ctx, pair.RefreshToken, r.UserAgent())
//
// # Error Handling
//
// Every failure of Rotate means the caller must re-authenticate:
//
//   - ErrRefreshInvalid – bad signature or expired claim
//   - ErrTokenReused    – reuse detected; all sessions revoked
//   - ErrUserNotFound   – subject vanished; all sessions revoked
//
// Transport layers should report these uniformly and leave the distinction to
// internal logs.
package session
