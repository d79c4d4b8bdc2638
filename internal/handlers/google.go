package handlers

import (
	"net/http"
	"net/url"

	"github.com/gamehub/apiserver/internal/oauth"
	"github.com/gamehub/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GoogleHandler runs the Google sign-in redirect flow and hands the
// session token to the frontend.
type GoogleHandler struct {
	auth        *services.AuthService
	provider    oauth.Provider
	state       *oauth.StateSigner
	frontendURL string
	secure      bool
	log         *zap.Logger
}

func NewGoogleHandler(
	auth *services.AuthService,
	provider oauth.Provider,
	state *oauth.StateSigner,
	frontendURL string,
	secure bool,
	log *zap.Logger,
) *GoogleHandler {
	return &GoogleHandler{
		auth:        auth,
		provider:    provider,
		state:       state,
		frontendURL: frontendURL,
		secure:      secure,
		log:         log,
	}
}

// GoogleRouter registers /google and /google/callback.
func GoogleRouter(r chi.Router, handler *GoogleHandler) {
	r.Get("/google", handler.Begin)
	r.Get("/google/callback", handler.Callback)
}

func (h *GoogleHandler) Begin(w http.ResponseWriter, r *http.Request) {
	state, err := h.state.Issue()
	if err != nil {
		h.log.Error("issue oauth state", zap.Error(err))
		h.fail(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauth.StateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(h.state.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

func (h *GoogleHandler) Callback(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauth.StateCookie,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	cookieState := ""
	if c, err := r.Cookie(oauth.StateCookie); err == nil {
		cookieState = c.Value
	}
	q := r.URL.Query()
	if err := h.state.Verify(cookieState, q.Get("state")); err != nil {
		h.log.Warn("google callback rejected", zap.Error(err))
		h.fail(w, r)
		return
	}
	if q.Get("error") != "" {
		h.log.Info("google sign-in cancelled", zap.String("error", q.Get("error")))
		h.fail(w, r)
		return
	}

	profile, err := h.provider.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		h.log.Warn("google exchange failed", zap.Error(err))
		h.fail(w, r)
		return
	}

	token, user, err := h.auth.AuthenticateGoogle(r.Context(), profile)
	if err != nil {
		if services.KindOf(err) == services.KindInternal {
			h.log.Error("google sign-in failed", zap.Error(err))
		}
		h.fail(w, r)
		return
	}

	h.log.Info("google sign-in", zap.String("user_id", user.ID))
	http.Redirect(w, r, h.frontendURL+"/?token="+url.QueryEscape(token), http.StatusFound)
}

func (h *GoogleHandler) fail(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"/login", http.StatusFound)
}
