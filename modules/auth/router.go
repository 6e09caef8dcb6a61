package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/budgetkit/pkg/authtoken"
	"github.com/dmitrymomot/budgetkit/pkg/session"
)

// maxBodyBytes bounds request bodies; auth payloads are tiny.
const maxBodyBytes = 64 << 10

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type revokedResponse struct {
	Revoked int64 `json:"revoked"`
}

type sessionsResponse struct {
	Sessions []session.Info `json:"sessions"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Router builds the auth module's HTTP surface. Token-pair endpoints are
// public; session management requires a verified access token.
func Router(svc *Service, codec *authtoken.Codec) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", svc.handleRegister)
	r.Post("/login", svc.handleLogin)
	r.Post("/refresh", svc.handleRefresh)
	r.Post("/logout", svc.handleLogout)

	r.Group(func(protected chi.Router) {
		protected.Use(RequireAccessToken(codec))
		protected.Post("/logout-all", svc.handleLogoutAll)
		protected.Get("/sessions", svc.handleSessions)
		protected.Delete("/account", svc.handleDeleteAccount)
	})

	return r
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := s.Register(r.Context(), req.Email, req.Password, r.UserAgent())
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		respondError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		s.log.ErrorContext(r.Context(), "registration failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	default:
		respondJSON(w, http.StatusCreated, pair)
	}
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := s.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case err != nil:
		s.log.ErrorContext(r.Context(), "login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	default:
		respondJSON(w, http.StatusOK, pair)
	}
}

// handleRefresh renders every authentication failure identically. Expiry,
// forgery, reuse detection, and a deleted account all mean the same thing to
// the client: re-authenticate. The session layer logs the actual reason. A
// store outage is not an authentication verdict and must not make clients
// discard a still-valid refresh token, so it surfaces as a server error.
func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := s.Refresh(r.Context(), req.RefreshToken, r.UserAgent())
	switch {
	case errors.Is(err, session.ErrRefreshInvalid),
		errors.Is(err, session.ErrTokenReused),
		errors.Is(err, session.ErrUserNotFound):
		respondError(w, http.StatusUnauthorized, "must re-authenticate")
	case err != nil:
		s.log.ErrorContext(r.Context(), "token refresh failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	default:
		respondJSON(w, http.StatusOK, pair)
	}
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.Logout(r.Context(), req.RefreshToken); err != nil {
		s.log.ErrorContext(r.Context(), "logout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Service) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	n, err := s.LogoutAll(r.Context(), userID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "logout-all failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, revokedResponse{Revoked: n})
}

func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	infos, err := s.Sessions(r.Context(), userID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "session listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if infos == nil {
		infos = []session.Info{}
	}
	respondJSON(w, http.StatusOK, sessionsResponse{Sessions: infos})
}

func (s *Service) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := s.DeleteAccount(r.Context(), userID); err != nil {
		s.log.ErrorContext(r.Context(), "account deletion failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
