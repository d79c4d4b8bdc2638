package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gamehub/apiserver/internal/cache"
	"github.com/gamehub/apiserver/internal/services"
	"github.com/gamehub/apiserver/internal/storage"
	"github.com/gamehub/apiserver/internal/store"
	"github.com/gamehub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type capturingMailer struct {
	mu   sync.Mutex
	sent []services.PasswordResetMail
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, mail services.PasswordResetMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

type testAPI struct {
	router *chi.Mux
	repo   *store.MemoryUserRepository
	mailer *capturingMailer
	assets *storage.Storage
}

func newTestAPI(t *testing.T, limiter cache.Limiter) *testAPI {
	t.Helper()

	log := zap.NewNop()
	repo := store.NewMemoryUserRepository()
	tokens, err := services.NewTokenIssuer("handler-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	mailer := &capturingMailer{}
	assets := storage.NewStorage(storage.NewMemoryStorage("assets"))

	auth := services.NewAuthService(repo, tokens, cache.NewMemoryDenylist(), log)
	recovery := services.NewRecoveryService(repo, mailer, "http://frontend.test", time.Hour, log)
	stats := services.NewStatsService(repo, log)

	var limit func(http.Handler) http.Handler
	if limiter != nil {
		limit = RateLimit(limiter, log)
	}

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/api", func(r chi.Router) {
		protect := Protect(auth, log)
		AuthRouter(r, auth, recovery, protect, limit, log)
		StatsRouter(r, stats, protect, log)
		r.Route("/games", func(r chi.Router) {
			GamesRouter(r, assets, log)
		})
	})

	return &testAPI{router: router, repo: repo, mailer: mailer, assets: assets}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func (a *testAPI) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/register", "", RegisterRequest{Name: "Ana", Email: email, Password: "secret1"})
	expectStatus(t, rec, http.StatusCreated)

	rec = a.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: email, Password: "secret1"})
	expectStatus(t, rec, http.StatusOK)
	login := decode[LoginResponse](t, rec)
	if login.Token == "" {
		t.Fatalf("expected a token")
	}
	return login.Token
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/register", "", RegisterRequest{Name: "Ana", Email: "Ana@Example.com", Password: "secret1"})
	expectStatus(t, rec, http.StatusCreated)
	registered := decode[RegisterResponse](t, rec)
	if registered.Message != "User created successfully!" || registered.User.Email != "ana@example.com" || registered.User.ID == "" {
		t.Fatalf("unexpected register response %+v", registered)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("register response leaked a password field: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/api/register", "", RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode[ErrorResponse](t, rec).Message; msg != "Email already in use" {
		t.Fatalf("unexpected duplicate message %q", msg)
	}

	rec = api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	expectStatus(t, rec, http.StatusBadRequest)
	wrongPassword := decode[ErrorResponse](t, rec).Message

	rec = api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	expectStatus(t, rec, http.StatusBadRequest)
	if unknown := decode[ErrorResponse](t, rec).Message; unknown != wrongPassword || unknown != "Invalid credentials" {
		t.Fatalf("login failures should be indistinguishable: %q vs %q", unknown, wrongPassword)
	}

	rec = api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "ana@example.com", Password: "secret1"})
	expectStatus(t, rec, http.StatusOK)
	login := decode[LoginResponse](t, rec)
	if login.Message != "Logged in successfully!" || login.User.ID != registered.User.ID {
		t.Fatalf("unexpected login response %+v", login)
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t, nil)

	cases := []struct {
		name string
		body RegisterRequest
		want string
	}{
		{name: "missing fields", body: RegisterRequest{Email: "a@b.co"}, want: "All fields are required"},
		{name: "short password", body: RegisterRequest{Name: "A", Email: "a@b.co", Password: "123"}, want: "Password must be at least 6 characters"},
		{name: "bad email", body: RegisterRequest{Name: "A", Email: "not-an-email", Password: "123456"}, want: "Please fill a valid email address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/register", "", tc.body)
			expectStatus(t, rec, http.StatusBadRequest)
			if msg := decode[ErrorResponse](t, rec).Message; msg != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, msg)
			}
		})
	}
}

func TestMe(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.registerAndLogin(t, "me@example.com")

	rec := api.do(t, http.MethodPost, "/api/me", "", MeRequest{Token: token})
	expectStatus(t, rec, http.StatusOK)
	user := decode[types.User](t, rec)
	if user.Email != "me@example.com" || user.FavoriteGames == nil {
		t.Fatalf("unexpected user %+v", user)
	}

	rec = api.do(t, http.MethodPost, "/api/me", "", MeRequest{})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = api.do(t, http.MethodPost, "/api/me", "", MeRequest{Token: "garbage"})
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestRecordResultScenario(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.registerAndLogin(t, "player@example.com")

	rec := api.do(t, http.MethodPost, "/api/stats/record", token, RecordResultRequest{GameID: "tic-tac-toe", Result: "win"})
	expectStatus(t, rec, http.StatusOK)
	rec = api.do(t, http.MethodPost, "/api/stats/record", token, RecordResultRequest{GameID: "tic-tac-toe", Result: "loss"})
	expectStatus(t, rec, http.StatusOK)

	resp := decode[UserResponse](t, rec)
	if resp.Message != services.ResultRecorded {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	want := types.GameStats{TotalPlayed: 2, Wins: 1, Losses: 1}
	if resp.User.GameStats != want {
		t.Fatalf("expected %+v, got %+v", want, resp.User.GameStats)
	}

	score := int64(12)
	rec = api.do(t, http.MethodPost, "/api/stats/record", token, RecordResultRequest{GameID: "snake", Result: "score", Value: &score})
	expectStatus(t, rec, http.StatusOK)
	resp = decode[UserResponse](t, rec)
	if resp.User.HighScores["snake"] != 12 || resp.User.GameStats.TotalPlayed != 2 {
		t.Fatalf("unexpected user after score %+v", resp.User)
	}
}

func TestRecordResultRejections(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.registerAndLogin(t, "reject@example.com")

	rec := api.do(t, http.MethodPost, "/api/stats/record", "", RecordResultRequest{GameID: "snake", Result: "win"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = api.do(t, http.MethodPost, "/api/stats/record", token, RecordResultRequest{Result: "win"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.do(t, http.MethodPost, "/api/stats/record", token, RecordResultRequest{GameID: "snake", Result: "victory"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.do(t, http.MethodPost, "/api/stats/record", token, RecordResultRequest{GameID: "snake", Result: "score"})
	expectStatus(t, rec, http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/stats/record", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	bad := httptest.NewRecorder()
	api.router.ServeHTTP(bad, req)
	expectStatus(t, bad, http.StatusBadRequest)
}

func TestFavorites(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.registerAndLogin(t, "fav@example.com")

	steps := []struct {
		path    string
		message string
		favs    int
	}{
		{"/api/favorites/add", services.FavoriteAdded, 1},
		{"/api/favorites/add", services.FavoriteAlreadyPresent, 1},
		{"/api/favorites/remove", services.FavoriteRemoved, 0},
		{"/api/favorites/remove", services.FavoriteNotPresent, 0},
	}
	for _, step := range steps {
		rec := api.do(t, http.MethodPost, step.path, token, FavoriteRequest{GameID: "pong"})
		expectStatus(t, rec, http.StatusOK)
		resp := decode[UserResponse](t, rec)
		if resp.Message != step.message || len(resp.User.FavoriteGames) != step.favs {
			t.Fatalf("%s: unexpected response %+v", step.path, resp)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.registerAndLogin(t, "bye@example.com")

	rec := api.do(t, http.MethodPost, "/api/logout", token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodPost, "/api/favorites/add", token, FavoriteRequest{GameID: "pong"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = api.do(t, http.MethodPost, "/api/logout", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestPasswordResetFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	api.registerAndLogin(t, "forgot@example.com")

	rec := api.do(t, http.MethodPost, "/api/forgot-password", "", ForgotPasswordRequest{Email: "nobody@example.com"})
	expectStatus(t, rec, http.StatusOK)
	generic := decode[MessageResponse](t, rec).Message

	rec = api.do(t, http.MethodPost, "/api/forgot-password", "", ForgotPasswordRequest{Email: "forgot@example.com"})
	expectStatus(t, rec, http.StatusOK)
	if msg := decode[MessageResponse](t, rec).Message; msg != generic {
		t.Fatalf("forgot-password should not reveal accounts: %q vs %q", msg, generic)
	}

	api.mailer.mu.Lock()
	if len(api.mailer.sent) != 1 {
		api.mailer.mu.Unlock()
		t.Fatalf("expected exactly one mail, got %d", len(api.mailer.sent))
	}
	link := api.mailer.sent[0].ResetURL
	api.mailer.mu.Unlock()
	token := link[strings.LastIndex(link, "/")+1:]

	rec = api.do(t, http.MethodPost, "/api/reset-password/"+token, "", ResetPasswordRequest{Password: "123"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.do(t, http.MethodPost, "/api/reset-password/"+token, "", ResetPasswordRequest{Password: "newpass1"})
	expectStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodPost, "/api/reset-password/"+token, "", ResetPasswordRequest{Password: "newpass2"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "forgot@example.com", Password: "newpass1"})
	expectStatus(t, rec, http.StatusOK)
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, cache.NewMemoryRateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "x@example.com", Password: "secret1"})
		expectStatus(t, rec, http.StatusBadRequest)
	}
	rec := api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "x@example.com", Password: "secret1"})
	expectStatus(t, rec, http.StatusTooManyRequests)

	rec = api.do(t, http.MethodPost, "/api/me", "", MeRequest{})
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestGames(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/games?tag=2+Player", "", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decode[GameListResponse](t, rec)
	if len(list.Games) == 0 || len(list.Tags) == 0 {
		t.Fatalf("unexpected list %+v", list)
	}
	for _, g := range list.Games {
		if !g.HasTag("2 Player") {
			t.Fatalf("game %q does not carry the tag", g.ID)
		}
	}

	rec = api.do(t, http.MethodGet, "/api/games/snake", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if g := decode[types.Game](t, rec); g.Title != "Snake" {
		t.Fatalf("unexpected game %+v", g)
	}

	rec = api.do(t, http.MethodGet, "/api/games/unknown", "", nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = api.do(t, http.MethodGet, "/api/games/snake/image", "", nil)
	expectStatus(t, rec, http.StatusNotFound)

	if err := api.assets.PutImage(context.Background(), "snake.jpg", strings.NewReader("jpeg"), 4, "image/jpeg"); err != nil {
		t.Fatalf("put image: %v", err)
	}
	rec = api.do(t, http.MethodGet, "/api/games/snake/image", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Type") != "image/jpeg" || rec.Body.String() != "jpeg" {
		t.Fatalf("unexpected image response %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}
