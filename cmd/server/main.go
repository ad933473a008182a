package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/zingg/config"
	"github.com/d60-Lab/zingg/internal/api"
	"github.com/d60-Lab/zingg/internal/api/handler"
	"github.com/d60-Lab/zingg/internal/api/middleware"
	"github.com/d60-Lab/zingg/internal/auth"
	"github.com/d60-Lab/zingg/internal/repository"
	"github.com/d60-Lab/zingg/internal/service"
	"github.com/d60-Lab/zingg/pkg/database"
	"github.com/d60-Lab/zingg/pkg/logger"
	"github.com/d60-Lab/zingg/pkg/telemetry"
)

// @title           zingg API
// @version         1.0
// @description     身份与关系链服务
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Named("server")

	shutdownTracing, err := telemetry.Init(context.Background(), cfg.Tracing)
	if err != nil {
		log.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("shutdown tracing", zap.Error(err))
		}
	}()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			log.Warn("init sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}()

	var revoker auth.Revoker = auth.NoopRevoker{}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("ping redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		revoker = auth.NewRedisRevoker(rdb)
	}

	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	likes := repository.NewLikeRepository(db)
	blogs := repository.NewBlogRepository(db)
	comments := repository.NewCommentRepository(db)

	allocator := service.NewUsernameAllocator(cfg.Auth.PlatformName)
	tokens := auth.NewTokenManager(cfg.JWT)

	h := handler.NewHandler(handler.Options{
		Identity:  service.NewIdentityService(users, follows, allocator, cfg.Auth.BcryptCost),
		Relation:  service.NewRelationshipService(users, follows, likes, blogs),
		Mention:   service.NewMentionService(users),
		Comment:   service.NewCommentService(comments, blogs),
		Tokens:    tokens,
		Providers: auth.NewProviderVerifier(cfg.Auth),
		Revoker:   revoker,
	})
	router := api.NewRouter(cfg, h, middleware.NewAuthenticator(tokens, revoker), db)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
