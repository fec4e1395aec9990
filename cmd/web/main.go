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

	"members/internal/auth"
	"members/internal/config"
	"members/internal/database"
	"members/internal/logger"
	"members/internal/metrics"
	"members/internal/password"
	"members/internal/server"
	"members/internal/session"
	"members/internal/storage"
	"members/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	lgr := logger.NewFromEnv()
	logger.SetDefault(lgr)

	if err := run(lgr); err != nil {
		lgr.Error("members stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(lgr *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	lgr.Info("Starting members",
		"port", cfg.Server.Port,
		"env", cfg.Env,
		"redis", cfg.Redis.Addr,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cfg.Migrate {
		if err := database.Migrate(cfg.Database.DSN()); err != nil {
			return err
		}
		lgr.Info("Database migrations applied")
	}

	db, err := database.New(ctx, cfg.Database, lgr)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			lgr.Warn("Failed to close redis client", "error", err)
		}
	}()

	store := session.NewRedisStore(redisClient)
	if err := store.Ping(ctx); err != nil {
		return err
	}
	lgr.Info("Connected to Redis")

	sealer, err := session.NewSealer(cfg.Session.EncryptionSecret)
	if err != nil {
		return err
	}
	sessionMgr := session.NewManager(store, sealer, session.WithLifetime(cfg.Session.Lifetime()))

	health := map[string]server.HealthFunc{
		"database": db.Health,
		"redis":    server.PingHealth(store.Ping),
	}

	var images auth.ImageResolver = storage.Local{}
	if cfg.S3Enabled() {
		s3Images, err := storage.NewS3(ctx, cfg.S3, lgr)
		if err != nil {
			return err
		}
		images = s3Images
		health["storage"] = server.PingHealth(s3Images.Health)
	}

	m := metrics.New()
	authService := auth.NewService(
		users.NewRepository(db),
		password.NewBcrypt(password.DefaultCost),
		sessionMgr,
		lgr,
		auth.WithMemberImages(cfg.MemberImages),
		auth.WithRecorder(m),
	)
	authHandler := auth.NewHandler(authService, images, lgr)

	srv := server.New(cfg, authHandler, m, lgr, health).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		lgr.Info("Server is running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		lgr.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	lgr.Info("Server stopped")
	return nil
}
