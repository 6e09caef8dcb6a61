// Package auth provides the email/password authentication module: account
// registration, credential verification, and the HTTP surface over the
// session lifecycle (refresh rotation, logout, session listing, account
// deletion).
//
// Wiring order matters because the session layer checks principal existence
// through this module's storage:
//
//	storage := auth.NewMemoryStorage() // or a persistent implementation
//	resolver := auth.NewPrincipalResolver(storage)
//	lifecycle := session.NewLifecycle(store, codec, resolver)
//	svc := auth.NewService(storage, lifecycle)
//
//	r := chi.NewRouter()
//	r.Mount("/auth", auth.Router(svc, codec))
//
// Route map:
//
//	POST   /register    create account, returns token pair (201)
//	POST   /login       verify credentials, returns token pair (200)
//	POST   /refresh     rotate refresh token (200, any failure is 401)
//	POST   /logout      revoke one refresh token (200, idempotent)
//	POST   /logout-all  revoke all sessions          [bearer access token]
//	GET    /sessions    list active sessions         [bearer access token]
//	DELETE /account     revoke all, delete the user  [bearer access token]
//
// Refresh failures are deliberately uniform: the response never reveals
// whether the token expired, was forged, or tripped reuse detection.
package auth
