package handlers

import (
	"context"
	"net/http"

	"github.com/gamehub/apiserver/internal/services"
	"github.com/gamehub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthHandler provides registration, login, password recovery and
// session endpoints.
type AuthHandler struct {
	auth     *services.AuthService
	recovery *services.RecoveryService
	log      *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(auth *services.AuthService, recovery *services.RecoveryService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, recovery: recovery, log: log}
}

// AuthRouter registers auth routes on the given router. limit guards the
// credential endpoints and may be nil.
func AuthRouter(
	r chi.Router,
	auth *services.AuthService,
	recovery *services.RecoveryService,
	authMiddleware func(http.Handler) http.Handler,
	limit func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	handler := NewAuthHandler(auth, recovery, log)

	limited := r
	if limit != nil {
		limited = r.With(limit)
	}
	limited.Post("/register", handler.Register)
	limited.Post("/login", handler.Login)
	limited.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password/{token}", handler.ResetPassword)
	r.Post("/me", handler.Me)
	r.With(authMiddleware).Post("/logout", handler.Logout)
}

// Protect verifies the bearer token and attaches the user and claims to
// the request context.
func Protect(auth *services.AuthService, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token or wrong format")
				return
			}

			user, claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if services.KindOf(err) == services.KindAuth {
					log.Debug("token rejected", zap.Error(err))
				}
				writeServiceError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			ctx = context.WithValue(ctx, contextClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string            `json:"message"`
	User    types.UserSummary `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    types.UserSummary `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type MeRequest struct {
	Token string `json:"token"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.auth.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{Message: "User created successfully!", User: summary})
}

// Login verifies credentials and returns a session token. Credential
// failures answer 400 so the response does not hint at which part failed.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, summary, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if services.KindOf(err) == services.KindAuth {
			writeError(w, http.StatusBadRequest, services.MessageOf(err))
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Message: "Logged in successfully!", Token: token, User: summary})
}

// ForgotPassword starts a password reset.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	message, err := h.recovery.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// ResetPassword completes a password reset with the emailed token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	message, err := h.recovery.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// Me returns the user referenced by the token in the request body.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	var req MeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.auth.Me(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout revokes the bearer token used for the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token or wrong format")
		return
	}

	if err := h.auth.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully."})
}
