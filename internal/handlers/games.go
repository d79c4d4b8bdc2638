package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gamehub/apiserver/internal/catalog"
	"github.com/gamehub/apiserver/internal/storage"
	"github.com/gamehub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GamesHandler serves the game catalog and its cover images.
type GamesHandler struct {
	assets *storage.Storage
	log    *zap.Logger
}

func NewGamesHandler(assets *storage.Storage, log *zap.Logger) *GamesHandler {
	return &GamesHandler{assets: assets, log: log}
}

// GamesRouter registers catalog routes. assets may be nil, in which case
// image requests answer 404.
func GamesRouter(r chi.Router, assets *storage.Storage, log *zap.Logger) {
	handler := NewGamesHandler(assets, log)

	r.Get("/", handler.ListGames)
	r.Route("/{gameID}", func(r chi.Router) {
		r.Get("/", handler.GetGame)
		r.Get("/image", handler.GetImage)
	})
}

type GameListResponse struct {
	Games []types.Game `json:"games"`
	Tags  []string     `json:"tags"`
}

func (h *GamesHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, GameListResponse{
		Games: catalog.Filter(q.Get("q"), q.Get("tag")),
		Tags:  catalog.Tags,
	})
}

func (h *GamesHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, ok := catalog.Find(chi.URLParam(r, "gameID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *GamesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	game, ok := catalog.Find(chi.URLParam(r, "gameID"))
	if !ok || h.assets == nil {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}

	obj, err := h.assets.OpenImage(r.Context(), catalog.ImageName(game))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "Image not found")
			return
		}
		h.log.Error("open game image", zap.String("game_id", game.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.Warn("stream game image", zap.String("game_id", game.ID), zap.Error(err))
	}
}
