package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studentquiz/config"
	"studentquiz/database"
	"studentquiz/handlers"
	"studentquiz/middleware"
	"studentquiz/routes"
	"studentquiz/schemas"
	"studentquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize database
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	denylist, closeRedis := newDenylist(ctx, cfg)
	defer closeRedis()

	if err := schemas.RegisterValidators(); err != nil {
		return err
	}

	// Initialize services
	authService, err := services.NewAuthService(db, services.TokenConfig{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.JWTAlgorithm,
		TTL:       cfg.AccessTokenTTL(),
	}, denylist)
	if err != nil {
		return err
	}

	hub := services.NewHub()
	go hub.Run(ctx)

	quizService := services.NewQuizService(db, hub)

	// Initialize handlers
	rootHandler := handlers.NewRootHandler(cfg.ProjectName, db)
	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService)
	feedHandler := handlers.NewFeedHandler(hub, quizService)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS())

	routes.SetupRoutes(router, rootHandler, authHandler, quizHandler, feedHandler, authService)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "project", cfg.ProjectName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDenylist uses Redis when REDIS_ADDR is set and reachable, and falls back
// to an in-process denylist otherwise.
func newDenylist(ctx context.Context, cfg *config.Config) (services.Denylist, func()) {
	if cfg.RedisAddr == "" {
		slog.Info("redis not configured, using in-memory token denylist")
		return services.NewMemoryDenylist(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, using in-memory token denylist", "addr", cfg.RedisAddr, "error", err)
		client.Close()
		return services.NewMemoryDenylist(), func() {}
	}

	slog.Info("redis connected", "addr", cfg.RedisAddr)
	return services.NewRedisDenylist(client), func() { client.Close() }
}
