package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler serves registration, login/logout, the current-user profile
// and, when configured, the GitHub sign-in redirect pair.
type AuthHandler struct {
	auth   *service.AuthService
	github *auth.GitHubProvider // nil when GitHub sign-in is off
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, github: github, logger: logger}
}

type registerRequest struct {
	Username     string `json:"username" validate:"required,max=150"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"firstName" validate:"max=150"`
	LastName     string `json:"lastName" validate:"max=150"`
	Password     string `json:"password" validate:"required,max=72"`
	Confirmation string `json:"confirmation" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an account and signs it in.
//
// HTTP: POST /auth/register → 201 with the new user
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Password:     req.Password,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.auth.TokenTTL())
	writeJSON(w, http.StatusCreated, res.User)
}

// HandleLogin checks a username and password.
//
// HTTP: POST /auth/login → 200 with the user, 401 on bad credentials
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.auth.TokenTTL())
	writeJSON(w, http.StatusOK, res.User)
}

// HandleLogout drops the session cookie.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HandleMe returns the signed-in user's profile.
//
// HTTP: GET /api/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin redirects to GitHub with a one-time state value that
// is also stored in a short-lived cookie for the callback to check.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the OAuth flow and signs the user in.
//
// HTTP: GET /auth/github/callback?code=…&state=…
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || q.Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, r, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		writeError(w, r, h.logger, apperror.Unauthenticated("GitHub sign-in was cancelled"))
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.auth.TokenTTL())
	http.Redirect(w, r, "/api/me", http.StatusSeeOther)
}
