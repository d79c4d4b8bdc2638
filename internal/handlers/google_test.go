package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gamehub/apiserver/internal/cache"
	"github.com/gamehub/apiserver/internal/oauth"
	"github.com/gamehub/apiserver/internal/services"
	"github.com/gamehub/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fakeProvider struct {
	profile services.GoogleProfile
	err     error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (services.GoogleProfile, error) {
	if code != "good-code" {
		return services.GoogleProfile{}, errors.New("bad code")
	}
	return p.profile, p.err
}

func newGoogleRouter(t *testing.T, provider oauth.Provider) (*chi.Mux, *services.AuthService) {
	t.Helper()

	tokens, err := services.NewTokenIssuer("handler-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	signer, err := oauth.NewStateSigner("session-secret")
	if err != nil {
		t.Fatalf("state signer: %v", err)
	}
	auth := services.NewAuthService(store.NewMemoryUserRepository(), tokens, cache.NewMemoryDenylist(), zap.NewNop())

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		GoogleRouter(r, NewGoogleHandler(auth, provider, signer, "http://frontend.test", false, zap.NewNop()))
	})
	return router, auth
}

func beginGoogle(t *testing.T, router http.Handler) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == oauth.StateCookie {
			loc := rec.Header().Get("Location")
			if !strings.Contains(loc, url.QueryEscape(c.Value)) {
				t.Fatalf("redirect %q does not carry the state", loc)
			}
			return c
		}
	}
	t.Fatalf("state cookie not set")
	return nil
}

func callback(router http.Handler, cookie *http.Cookie, state, code string) *httptest.ResponseRecorder {
	q := url.Values{"state": {state}, "code": {code}}
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+q.Encode(), nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGoogleCallbackIssuesToken(t *testing.T) {
	provider := &fakeProvider{profile: services.GoogleProfile{Subject: "123", Email: "g@example.com", Name: "Gee"}}
	router, auth := newGoogleRouter(t, provider)

	cookie := beginGoogle(t, router)
	rec := callback(router, cookie, cookie.Value, "good-code")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Host != "frontend.test" || loc.Path != "/" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	token := loc.Query().Get("token")
	user, err := auth.Me(context.Background(), token)
	if err != nil {
		t.Fatalf("token from redirect is unusable: %v", err)
	}
	if user.Email != "g@example.com" || user.Name != "Gee" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestGoogleCallbackFailuresRedirectToLogin(t *testing.T) {
	router, _ := newGoogleRouter(t, &fakeProvider{profile: services.GoogleProfile{Email: "g@example.com"}})
	cookie := beginGoogle(t, router)

	cases := map[string]*httptest.ResponseRecorder{
		"missing cookie":  callback(router, nil, cookie.Value, "good-code"),
		"state mismatch":  callback(router, cookie, "other", "good-code"),
		"exchange failed": callback(router, cookie, cookie.Value, "bad-code"),
	}
	for name, rec := range cases {
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "http://frontend.test/login" {
			t.Fatalf("%s: expected redirect to login, got %d %q", name, rec.Code, rec.Header().Get("Location"))
		}
	}
}
