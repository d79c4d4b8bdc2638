package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gamehub/apiserver/internal/services"
	"github.com/gamehub/apiserver/types"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type contextKey string

const (
	contextUserKey   contextKey = "user"
	contextClaimsKey contextKey = "claims"
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse carries a message and the updated user.
type UserResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

func claimsFromContext(ctx context.Context) (services.Claims, bool) {
	claims, ok := ctx.Value(contextClaimsKey).(services.Claims)
	return claims, ok
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst zeroed.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindConflict, services.KindToken:
		return http.StatusBadRequest
	case services.KindAuth:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a service error to its status and client-safe
// message. Internal causes are logged, never written.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := statusForKind(services.KindOf(err))
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, services.MessageOf(err))
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "ok"})
}
