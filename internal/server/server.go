package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/cache"
	"github.com/gamehub/apiserver/internal/db"
	"github.com/gamehub/apiserver/internal/handlers"
	"github.com/gamehub/apiserver/internal/mail"
	"github.com/gamehub/apiserver/internal/mq"
	"github.com/gamehub/apiserver/internal/oauth"
	"github.com/gamehub/apiserver/internal/services"
	"github.com/gamehub/apiserver/internal/storage"
	"github.com/gamehub/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server wraps the HTTP server, router and the backing connections.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *zap.Logger

	db          *sql.DB
	mongoClient *mongo.Client
	redis       *redis.Client
	queue       *mq.MQ
}

// New wires every dependency selected by cfg and builds the router. On
// error, connections opened so far are closed.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{log: log}

	if err := s.build(ctx, cfg); err != nil {
		_ = s.closeBackends(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Server) build(ctx context.Context, cfg config.Config) error {
	repo, err := s.openUserRepository(ctx, cfg)
	if err != nil {
		return err
	}

	redisClient, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	s.redis = redisClient

	var (
		denylist services.Denylist
		limiter  cache.Limiter
	)
	if redisClient != nil {
		denylist = cache.NewRedisDenylist(redisClient)
		limiter = cache.NewRedisRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		denylist = cache.NewMemoryDenylist()
		limiter = cache.NewMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		return err
	}
	s.queue = queue

	mailer, err := s.newMailer(cfg, queue)
	if err != nil {
		return err
	}

	assets, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	tokens, err := services.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("JWT_SECRET is required: %w", err)
	}

	authService := services.NewAuthService(repo, tokens, denylist, s.log)
	recoveryService := services.NewRecoveryService(repo, mailer, cfg.FrontendURL, cfg.Auth.ResetTokenTTL, s.log)
	statsService := services.NewStatsService(repo, s.log)

	var google *handlers.GoogleHandler
	if cfg.Google.Enabled() {
		provider, err := oauth.NewGoogleProvider(ctx, cfg.Google)
		if err != nil {
			return err
		}
		secret := cfg.Auth.SessionSecret
		if secret == "" {
			secret = cfg.Auth.JWTSecret
		}
		signer, err := oauth.NewStateSigner(secret)
		if err != nil {
			return err
		}
		google = handlers.NewGoogleHandler(authService, provider, signer, cfg.FrontendURL, cfg.IsProduction(), s.log)
	}

	authMiddleware := handlers.Protect(authService, s.log)
	rateLimit := handlers.RateLimit(limiter, s.log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if cfg.TrustProxy {
		// Forwarding headers are client-controlled unless a proxy rewrites them.
		router.Use(middleware.RealIP)
	}
	router.Use(
		requestLogger(s.log),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		handlers.AuthRouter(r, authService, recoveryService, authMiddleware, rateLimit, s.log)
		handlers.StatsRouter(r, statsService, authMiddleware, s.log)
		r.Route("/games", func(r chi.Router) {
			handlers.GamesRouter(r, assets, s.log)
		})
	})
	if google != nil {
		router.Route("/auth", func(r chi.Router) {
			handlers.GoogleRouter(r, google)
		})
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 3001
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

func (s *Server) openUserRepository(ctx context.Context, cfg config.Config) (services.UserRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreMongo, "":
		client, database, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.mongoClient = client
		return store.NewMongoUserRepository(database, db.UsersCollection), nil
	case config.StorePostgres:
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.db = dbConn
		return store.NewUserRepository(dbConn), nil
	case config.StoreMemory:
		s.log.Warn("using in-memory user store; data is lost on restart")
		return store.NewMemoryUserRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func (s *Server) newMailer(cfg config.Config, queue *mq.MQ) (services.Mailer, error) {
	switch {
	case queue != nil:
		return mail.NewQueueMailer(queue), nil
	case cfg.SMTP.Enabled():
		sender, err := mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		return sender, nil
	default:
		s.log.Warn("no mail transport configured; reset links are logged")
		return mail.NewLogMailer(s.log), nil
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	errs = append(errs, s.closeBackends(ctx))
	return errors.Join(errs...)
}

func (s *Server) closeBackends(ctx context.Context) error {
	var errs []error
	if s.queue != nil {
		errs = append(errs, s.queue.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.mongoClient != nil {
		errs = append(errs, s.mongoClient.Disconnect(ctx))
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
