package handlers

import (
	"net/http"

	"github.com/gamehub/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatsHandler records game results and favorites for the signed-in user.
type StatsHandler struct {
	stats *services.StatsService
	log   *zap.Logger
}

func NewStatsHandler(stats *services.StatsService, log *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, log: log}
}

// StatsRouter registers the protected stats and favorites routes.
func StatsRouter(r chi.Router, stats *services.StatsService, authMiddleware func(http.Handler) http.Handler, log *zap.Logger) {
	handler := NewStatsHandler(stats, log)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/stats/record", handler.RecordResult)
		r.Post("/favorites/add", handler.AddFavorite)
		r.Post("/favorites/remove", handler.RemoveFavorite)
	})
}

type RecordResultRequest struct {
	GameID string `json:"gameId"`
	Result string `json:"result"`
	Value  *int64 `json:"value"`
}

type FavoriteRequest struct {
	GameID string `json:"gameId"`
}

func (h *StatsHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token or wrong format")
		return
	}

	var req RecordResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.stats.RecordGameResult(r.Context(), user, req.GameID, req.Result, req.Value)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Message: services.ResultRecorded, User: updated})
}

func (h *StatsHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, true)
}

func (h *StatsHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, false)
}

func (h *StatsHandler) toggleFavorite(w http.ResponseWriter, r *http.Request, add bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token or wrong format")
		return
	}

	var req FavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, message, err := h.stats.ToggleFavorite(r.Context(), user, req.GameID, add)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Message: message, User: updated})
}
