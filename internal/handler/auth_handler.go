package handler

import (
	"encoding/json"
	"net/http"

	"gravizot/internal/middleware"
	"gravizot/internal/model"
	"gravizot/internal/service"
	"gravizot/internal/session"
	"gravizot/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	cookies *session.Manager
}

func NewAuthHandler(service *service.AuthService, cookies *session.Manager) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

// Csrf exists so a fresh client has a safe endpoint to hit; the CSRF
// middleware plants the cookie on any safe request that lacks one.
func (h *AuthHandler) Csrf(w http.ResponseWriter, _ *http.Request) {
	writeOK(w)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	sess, err := h.service.Signup(r.Context(), payload.Email, payload.Password, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetSession(w, sess.AccessToken, sess.RefreshToken.Raw, sess.RefreshToken.ExpiresAt)
	writeUser(w, http.StatusCreated, sess.User)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	sess, err := h.service.Login(r.Context(), payload.Email, payload.Password, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetSession(w, sess.AccessToken, sess.RefreshToken.Raw, sess.RefreshToken.ExpiresAt)
	writeUser(w, http.StatusOK, sess.User)
}

// Logout always succeeds: revocation is best effort and both cookies are
// cleared unconditionally.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.RefreshCookie); err == nil {
		h.service.Logout(r.Context(), cookie.Value)
	}

	h.cookies.ClearSession(w)
	writeOK(w)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.RefreshCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, apierror.Unauthorized("no refresh token"))
		return
	}

	sess, err := h.service.Refresh(r.Context(), cookie.Value, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetSession(w, sess.AccessToken, sess.RefreshToken.Raw, sess.RefreshToken.ExpiresAt)
	writeOK(w)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeUser(w, http.StatusOK, user)
}
