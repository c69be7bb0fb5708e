// Package main runs the polling platform HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pollwise/backend/config"
	"github.com/pollwise/backend/internal/access"
	"github.com/pollwise/backend/internal/auth"
	"github.com/pollwise/backend/internal/cache"
	"github.com/pollwise/backend/internal/middleware"
	"github.com/pollwise/backend/internal/polls"
	"github.com/pollwise/backend/internal/realtime"
	"github.com/pollwise/backend/internal/votes"
	"github.com/pollwise/backend/internal/worker"
	"github.com/pollwise/backend/pkg/database"
	"github.com/pollwise/backend/pkg/queue"
	"github.com/pollwise/backend/pkg/redis"
	"github.com/pollwise/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	guard := access.NewGuard(cfg.Polls.AdminEmails)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Polls
	pollRepo := polls.NewRepository(pool)
	voteRepo := votes.NewRepository(pool)
	viewCache := cache.NewViewCache(rdb.Client, time.Duration(cfg.Polls.ViewCacheTTLSeconds)*time.Second, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	pollHandler := polls.NewHandler(pollRepo, voteRepo, guard, viewCache, hub, jobQueue, logger)

	// Votes
	tokenStore := votes.NewTokenStore(rdb.Client, time.Duration(cfg.Polls.VoteTokenTTLMinutes)*time.Minute)
	voteService := votes.NewService(pollRepo, voteRepo, tokenStore, cfg.Polls.AnonPolicy)
	voteHandler := votes.NewHandler(voteService, tokenStore, viewCache, hub, cfg.Polls.AnonPolicy, logger)

	reconciler := worker.NewReconciler(pollRepo, jobQueue, logger)

	jwtValidate := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID.String(), nil
	}
	pollExists := func(pollID uuid.UUID) bool {
		lookupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := pollRepo.GetByID(lookupCtx, pollID)
		return err == nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public reads and voting; identity is used when supplied.
	public := router.Group("")
	public.Use(middleware.OptionalJWT(jwtService))
	{
		public.GET("/polls", pollHandler.List)
		public.GET("/polls/:id", pollHandler.Get)
		public.GET("/p/:slug", pollHandler.GetBySlug)
		public.GET("/polls/:id/results", pollHandler.Results)
		public.POST("/polls/:id/vote-token", voteHandler.IssueToken)
		public.POST("/polls/:id/votes", voteHandler.Cast)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireAdmin(guard), authHandler.List)

		api.POST("/polls", pollHandler.Create)
		api.GET("/me/polls", pollHandler.ListMine)
		api.PUT("/polls/:id", pollHandler.Update)
		api.DELETE("/polls/:id", pollHandler.Delete)
		api.GET("/polls/:id/votes/me", voteHandler.HasVoted)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate, pollExists))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background reconciler (repairs half-deleted polls)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go reconciler.Run(workerCtx)
	logger.Info("reconcile worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
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
