package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/wowcampus/auth-api/api/swagger"
	"github.com/wowcampus/auth-api/internal/handler"
	"github.com/wowcampus/auth-api/internal/middleware"
	"github.com/wowcampus/auth-api/internal/models"
	"github.com/wowcampus/auth-api/internal/repository"
	"github.com/wowcampus/auth-api/internal/service"
	"github.com/wowcampus/auth-api/internal/token"
	"github.com/wowcampus/auth-api/pkg/cache"
	"github.com/wowcampus/auth-api/pkg/config"
	"github.com/wowcampus/auth-api/pkg/database"
	"github.com/wowcampus/auth-api/pkg/logger"
	corsmiddleware "github.com/wowcampus/auth-api/pkg/middleware/cors"
	reqidmiddleware "github.com/wowcampus/auth-api/pkg/middleware/requestid"
)

// @title WOW-CAMPUS Auth API
// @version 1.0.0
// @description Token lifecycle service: registration, login, refresh and logout
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(db, redisClient, logr, metricsSvc)
	auditRepo := repository.NewAuditRepository(db)

	codec := token.NewCodec(cfg.JWT.Secret, cfg.JWT.Issuer)
	validate := validator.New()

	auditSvc := service.NewAuditService(auditRepo, cfg.Auth, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(userRepo, refreshRepo, blacklistRepo, codec, validate, logr, auditSvc, metricsSvc)

	purgeSvc := service.NewPurgeService(refreshRepo, blacklistRepo, cfg.Auth, logr, metricsSvc)
	if cfg.Auth.PurgeEnabled {
		purgeSvc.Start(ctx)
		defer purgeSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc, cfg.Env == config.EnvProduction)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		// Admins can force-logout anyone; users only themselves.
		auth.DELETE("/users/:id/sessions",
			middleware.JWT(authSvc),
			middleware.RBAC(string(models.RoleAdmin), "SELF"),
			authHandler.RevokeSessions)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
