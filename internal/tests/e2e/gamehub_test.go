//go:build e2e

package e2e

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/client"
	"github.com/gamehub/apiserver/internal/db"
	"github.com/gamehub/apiserver/internal/game"
	"github.com/gamehub/apiserver/internal/game/connectfour"
	"github.com/gamehub/apiserver/internal/server"
	"github.com/gamehub/apiserver/internal/services"
	"github.com/gamehub/apiserver/internal/store"
	"github.com/gamehub/apiserver/types"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	mongoServerPort    = 18080
	postgresServerPort = 18081
	mongoURI           = "mongodb://localhost:27017"
)

// resetSeeder plants a known reset token so the reset endpoint can be driven
// without reading mail.
type resetSeeder interface {
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
}

type backend struct {
	name    string
	baseURL string
	seeder  resetSeeder
	srv     *server.Server
}

var (
	backends    []*backend
	mongoConn   *mongo.Client
	postgresDB  *sql.DB
	mongoDBName = fmt.Sprintf("gamehub_e2e_%d", time.Now().Unix())
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d", "mongo", "postgres", "redis"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	code := 1
	if err := setup(ctx, root); err != nil {
		fmt.Fprintf(os.Stderr, "e2e setup failed: %v\n", err)
	} else {
		code = m.Run()
	}

	teardown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func setup(ctx context.Context, root string) error {
	setBaseEnv()

	if err := waitForMongo(ctx); err != nil {
		return fmt.Errorf("mongo not ready: %w", err)
	}
	if err := waitForPostgres(ctx); err != nil {
		return fmt.Errorf("postgres not ready: %w", err)
	}
	if err := runMigrations(root); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	mongoCfg := backendConfig(config.StoreMongo, mongoServerPort)
	mc, database, err := db.ConnectMongo(ctx, mongoCfg)
	if err != nil {
		return err
	}
	mongoConn = mc

	postgresCfg := backendConfig(config.StorePostgres, postgresServerPort)
	pg, err := db.Open(ctx, postgresCfg)
	if err != nil {
		return err
	}
	postgresDB = pg

	for _, b := range []struct {
		cfg    config.Config
		seeder resetSeeder
	}{
		{mongoCfg, store.NewMongoUserRepository(database, db.UsersCollection)},
		{postgresCfg, store.NewUserRepository(pg)},
	} {
		srv, err := startServer(ctx, b.cfg)
		if err != nil {
			return fmt.Errorf("start %s server: %w", b.cfg.StoreBackend, err)
		}
		be := &backend{
			name:    b.cfg.StoreBackend,
			baseURL: fmt.Sprintf("http://localhost:%d", b.cfg.ServerPort),
			seeder:  b.seeder,
			srv:     srv,
		}
		backends = append(backends, be)

		if err := waitForHealth(ctx, be.baseURL+"/healthz"); err != nil {
			return fmt.Errorf("%s server not healthy: %w", be.name, err)
		}
	}
	return nil
}

func teardown() {
	for _, b := range backends {
		_ = b.srv.Shutdown(context.Background())
	}
	if mongoConn != nil {
		_ = mongoConn.Disconnect(context.Background())
	}
	if postgresDB != nil {
		_ = postgresDB.Close()
	}
}

// forEachBackend runs fn once per store backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, b *backend)) {
	t.Helper()
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b)
		})
	}
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
}

func expectAPIStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != status {
		t.Fatalf("expected API error with status %d, got %v", status, err)
	}
}

func TestPlayerScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b *backend) {
		ctx := context.Background()
		c := client.New(b.baseURL, nil)
		email := uniqueEmail("player")

		if _, err := c.Register(ctx, "Player", email, "testpass123"); err != nil {
			t.Fatalf("register: %v", err)
		}

		session := client.NewSession(c, nil, nil)
		if _, err := session.Login(ctx, email, "testpass123"); err != nil {
			t.Fatalf("login: %v", err)
		}
		token := session.Token()

		if _, err := c.RecordResult(ctx, token, types.NewGameResult("tic-tac-toe", types.Win())); err != nil {
			t.Fatalf("record win: %v", err)
		}
		user, err := c.RecordResult(ctx, token, types.NewGameResult("tic-tac-toe", types.Loss()))
		if err != nil {
			t.Fatalf("record loss: %v", err)
		}
		want := types.GameStats{TotalPlayed: 2, Wins: 1, Losses: 1}
		if user.GameStats != want {
			t.Fatalf("expected %+v, got %+v", want, user.GameStats)
		}

		ctrl := game.NewController[connectfour.State, int](connectfour.Rules{}, client.NewReporter(c, session, nil), nil, nil)
		for _, col := range []int{0, 1, 0, 1, 0, 1, 0} {
			ctrl.Input(ctx, col)
		}
		if err := ctrl.ReportErr(); err != nil {
			t.Fatalf("controller report: %v", err)
		}
		if u, _ := session.User(); u.GameStats.TotalPlayed != 3 || u.GameStats.Wins != 2 {
			t.Fatalf("unexpected stats after controller report: %+v", u.GameStats)
		}

		if err := session.Logout(ctx); err != nil {
			t.Fatalf("logout: %v", err)
		}
		if _, err := c.RecordResult(ctx, token, types.NewGameResult("tic-tac-toe", types.Win())); !client.IsUnauthorized(err) {
			t.Fatalf("expected revoked token to be rejected, got %v", err)
		}
	})
}

func TestScoreAndMovesRecords(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b *backend) {
		ctx := context.Background()
		c := client.New(b.baseURL, nil)
		email := uniqueEmail("scores")

		if _, err := c.Register(ctx, "Scores", email, "testpass123"); err != nil {
			t.Fatalf("register: %v", err)
		}
		login, err := c.Login(ctx, email, "testpass123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}

		var user types.User
		for _, result := range []types.GameResult{
			types.NewGameResult("snake", types.Score(5)),
			types.NewGameResult("snake", types.Score(3)),
			types.NewGameResult("sliding-puzzle", types.Moves(40)),
			types.NewGameResult("sliding-puzzle", types.Moves(30)),
			types.NewGameResult("sliding-puzzle", types.Moves(50)),
		} {
			user, err = c.RecordResult(ctx, login.Token, result)
			if err != nil {
				t.Fatalf("record %+v: %v", result, err)
			}
		}

		if got := user.HighScores["snake"]; got != 5 {
			t.Fatalf("expected high score 5, got %d", got)
		}
		if got := user.BestMoves["sliding-puzzle"]; got != 30 {
			t.Fatalf("expected best moves 30, got %d", got)
		}
		want := types.GameStats{TotalPlayed: 3, Wins: 3}
		if user.GameStats != want {
			t.Fatalf("expected %+v, got %+v", want, user.GameStats)
		}
	})
}

func TestConcurrentRecordsAreAtomic(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b *backend) {
		ctx := context.Background()
		c := client.New(b.baseURL, nil)
		email := uniqueEmail("burst")

		if _, err := c.Register(ctx, "Burst", email, "testpass123"); err != nil {
			t.Fatalf("register: %v", err)
		}
		login, err := c.Login(ctx, email, "testpass123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}

		const n = 20
		errc := make(chan error, n)
		for i := 0; i < n; i++ {
			go func() {
				_, err := c.RecordResult(ctx, login.Token, types.NewGameResult("pong", types.Win()))
				errc <- err
			}()
		}
		for i := 0; i < n; i++ {
			if err := <-errc; err != nil {
				t.Fatalf("record: %v", err)
			}
		}

		user, err := c.Me(ctx, login.Token)
		if err != nil {
			t.Fatalf("me: %v", err)
		}
		if user.GameStats.TotalPlayed != n || user.GameStats.Wins != n {
			t.Fatalf("lost updates: %+v", user.GameStats)
		}
	})
}

func TestConcurrentRegistrationKeepsEmailUnique(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b *backend) {
		ctx := context.Background()
		c := client.New(b.baseURL, nil)
		email := uniqueEmail("race")

		const n = 5
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			failures  []error
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Register(ctx, "Racer", email, "testpass123")
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
					return
				}
				failures = append(failures, err)
			}()
		}
		wg.Wait()

		if succeeded != 1 {
			t.Fatalf("expected exactly one registration, got %d", succeeded)
		}
		for _, err := range failures {
			expectAPIStatus(t, err, http.StatusBadRequest)
		}
	})
}

func TestFavoritesAreIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b *backend) {
		ctx := context.Background()
		c := client.New(b.baseURL, nil)
		email := uniqueEmail("fav")

		if _, err := c.Register(ctx, "Fav", email, "testpass123"); err != nil {
			t.Fatalf("register: %v", err)
		}
		login, err := c.Login(ctx, email, "testpass123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}

		steps := []struct {
			add     bool
			message string
			count   int
		}{
			{true, services.FavoriteAdded, 1},
			{true, services.FavoriteAlreadyPresent, 1},
			{false, services.FavoriteRemoved, 0},
			{false, services.FavoriteNotPresent, 0},
		}
		for i, step := range steps {
			var (
				user types.User
				msg  string
			)
			if step.add {
				user, msg, err = c.AddFavorite(ctx, login.Token, "snake")
			} else {
				user, msg, err = c.RemoveFavorite(ctx, login.Token, "snake")
			}
			if err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			if msg != step.message {
				t.Fatalf("step %d: expected %q, got %q", i, step.message, msg)
			}
			if len(user.FavoriteGames) != step.count {
				t.Fatalf("step %d: expected %d favorites, got %v", i, step.count, user.FavoriteGames)
			}
		}
	})
}

func TestResetTokenIsSingleUse(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b *backend) {
		ctx := context.Background()
		c := client.New(b.baseURL, nil)
		email := uniqueEmail("reset")

		summary, err := c.Register(ctx, "Reset", email, "testpass123")
		if err != nil {
			t.Fatalf("register: %v", err)
		}

		const raw = "0123456789abcdef0123456789abcdef"
		if err := b.seeder.SetResetToken(ctx, summary.ID, services.HashResetToken(raw), time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("seed reset token: %v", err)
		}

		if _, err := c.ResetPassword(ctx, raw, "newpass456"); err != nil {
			t.Fatalf("reset password: %v", err)
		}
		_, err = c.ResetPassword(ctx, raw, "otherpass789")
		expectAPIStatus(t, err, http.StatusBadRequest)

		if _, err := c.Login(ctx, email, "testpass123"); err == nil {
			t.Fatalf("old password still accepted")
		}
		if _, err := c.Login(ctx, email, "newpass456"); err != nil {
			t.Fatalf("login with new password: %v", err)
		}

		const expired = "fedcba9876543210fedcba9876543210"
		if err := b.seeder.SetResetToken(ctx, summary.ID, services.HashResetToken(expired), time.Now().Add(-time.Minute)); err != nil {
			t.Fatalf("seed expired token: %v", err)
		}
		_, err = c.ResetPassword(ctx, expired, "otherpass789")
		expectAPIStatus(t, err, http.StatusBadRequest)
	})
}

func waitForMongo(ctx context.Context) error {
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return err
	}
	defer mc.Disconnect(context.Background())

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := mc.Ping(ctx, nil); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func waitForPostgres(ctx context.Context) error {
	pg, err := sql.Open("postgres", db.PostgresURL(config.LoadConfig()))
	if err != nil {
		return err
	}
	defer pg.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := pg.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	httpClient := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.PostgresURL(config.LoadConfig()))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func setBaseEnv() {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("MONGO_URI", mongoURI)
	_ = os.Setenv("MONGO_DATABASE", mongoDBName)
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "gamehub")
	_ = os.Setenv("DB_PASSWORD", "gamehub")
	_ = os.Setenv("DB_NAME", "gamehub_e2e")
	_ = os.Setenv("DB_SSL", "false")
	_ = os.Setenv("REDIS_URI", "redis://localhost:6379/0")
	_ = os.Setenv("RATE_LIMIT_REQUESTS", "1000")
}

func backendConfig(storeBackend string, port int) config.Config {
	cfg := config.LoadConfig()
	cfg.StoreBackend = storeBackend
	cfg.ServerPort = port
	return cfg
}

func startServer(ctx context.Context, cfg config.Config) (*server.Server, error) {
	srv, err := server.New(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
