// Package main runs the event booking HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventboard/backend/config"
	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/server"
	"github.com/eventboard/backend/internal/session"
	"github.com/eventboard/backend/internal/store"
	"github.com/eventboard/backend/internal/store/memory"
	"github.com/eventboard/backend/internal/store/postgres"
	"github.com/eventboard/backend/pkg/database"
	"github.com/eventboard/backend/pkg/redis"
	"github.com/eventboard/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	deps := server.Deps{Logger: logger}

	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		}, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		deps.Events = postgres.NewCollection[models.Event](pool, store.Events)
		deps.Organizations = postgres.NewCollection[models.Organization](pool, store.Organizations)
		deps.Users = postgres.NewCollection[models.User](pool, store.Users)
		deps.Reservations = postgres.NewCollection[models.Reservation](pool, store.Reservations)
	case config.StoreMemory:
		logger.Warn("using in-memory document store; data is lost on restart")
		deps.Events = memory.NewCollection[models.Event](store.Events)
		deps.Organizations = memory.NewCollection[models.Organization](store.Organizations)
		deps.Users = memory.NewCollection[models.User](store.Users, memory.Unique(models.UsernameField))
		deps.Reservations = memory.NewCollection[models.Reservation](store.Reservations)
	}

	var sessionStore session.Store
	switch cfg.Session.Store {
	case config.SessionRedis:
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		sessionStore = session.NewRedisStore(rdb)
	case config.SessionMemory:
		logger.Warn("using in-memory session store; sessions are lost on restart")
		mem := session.NewMemoryStore(cfg.Session.PurgeInterval)
		defer mem.Close()
		sessionStore = mem
	}
	if cfg.Session.InsecureSecret() {
		logger.Warn("SESSION_SECRET is not set; session cookies are signed with the public default secret")
	}
	deps.Sessions = session.NewManager(
		sessionStore,
		session.NewSigner(cfg.Session.Secret),
		cfg.Session.TTL(),
		session.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
	)

	opts := server.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes(),
		DefaultLocale:      cfg.DefaultLocale,
	}
	switch cfg.Upload.Backend {
	case config.UploadS3:
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ImagesBucket:    cfg.AWS.ImagesBucket,
			PublicBaseURL:   cfg.AWS.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		deps.Images = s3Client
	case config.UploadDisk:
		disk, err := storage.NewDisk(cfg.Upload.Dir, cfg.Upload.PublicPath)
		if err != nil {
			logger.Fatal("upload dir", zap.Error(err))
		}
		deps.Images = disk
		opts.UploadDir = disk.Dir()
		opts.UploadPublicPath = cfg.Upload.PublicPath
	}

	router := server.NewRouter(deps, opts)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
			zap.String("sessions", cfg.Session.Store),
			zap.String("uploads", cfg.Upload.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
