package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/tutoring-api/api/swagger"
	"github.com/noah-isme/tutoring-api/internal/handler"
	"github.com/noah-isme/tutoring-api/internal/middleware"
	"github.com/noah-isme/tutoring-api/internal/repository"
	"github.com/noah-isme/tutoring-api/internal/scheduler"
	"github.com/noah-isme/tutoring-api/internal/service"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	"github.com/noah-isme/tutoring-api/pkg/cache"
	"github.com/noah-isme/tutoring-api/pkg/config"
	"github.com/noah-isme/tutoring-api/pkg/database"
	"github.com/noah-isme/tutoring-api/pkg/logger"
	"github.com/noah-isme/tutoring-api/pkg/mail"
	corsmiddleware "github.com/noah-isme/tutoring-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutoring-api/pkg/middleware/requestid"
)

// @title Peer Tutoring API
// @version 0.1.0
// @description Student-tutor matching over weekly availability
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	grid, err := timetable.New(cfg.Schedule)
	if err != nil {
		logr.Sugar().Fatalw("invalid schedule configuration", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	mailer := mail.New(cfg.Mail, logr)
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	capabilityRepo := repository.NewCapabilityRepository(db)
	pairingRepo := repository.NewPairingRepository(db)
	proposalStore := repository.NewProposalStore(redisClient, logr)
	resetStore := repository.NewResetStore(redisClient)

	authService := service.NewAuthService(userRepo, resetStore, mailer, cfg.JWT, cfg.Accounts, validate, logr)
	availabilityService := service.NewAvailabilityService(availabilityRepo, grid, validate, logr)
	expirationService := service.NewExpirationService(availabilityService, availabilityRepo, grid, metrics, logr)
	capabilityService := service.NewCapabilityService(capabilityRepo, cfg.Subjects, validate, logr)
	matchingService := service.NewMatchingService(userRepo, capabilityRepo, proposalStore, availabilityService, grid, cfg.Subjects, cfg.Matching, metrics, validate, logr)
	pairingService := service.NewPairingService(pairingRepo, userRepo, proposalStore, expirationService, grid, cfg.Matching, mailer, metrics, validate, logr)
	broadcastService := service.NewBroadcastService(userRepo, capabilityService, cfg.Subjects, mailer, metrics, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daily := scheduler.NewDaily(expirationService, userRepo, mailer, cfg.Sweep, cfg.Mail.ServiceName, logr)
	daily.Start(ctx)
	defer daily.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.Register(api, handler.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Availability: handler.NewAvailabilityHandler(availabilityService),
		Capability:   handler.NewCapabilityHandler(capabilityService),
		Match:        handler.NewMatchHandler(matchingService, pairingService),
		Pairing:      handler.NewPairingHandler(pairingService),
		Broadcast:    handler.NewBroadcastHandler(broadcastService),
	}, authService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "slots", grid.Count())

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		logr.Info("shutting down")
		_ = srv.Shutdown(context.Background())
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
