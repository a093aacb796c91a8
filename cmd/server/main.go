package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"investment_tracker/internal/config"
	"investment_tracker/internal/handler"
	"investment_tracker/internal/logger"
	"investment_tracker/internal/metrics"
	"investment_tracker/internal/middleware"
	"investment_tracker/internal/model"
	"investment_tracker/internal/repository"
	"investment_tracker/internal/scheduler"
	"investment_tracker/internal/service"
	"investment_tracker/internal/sms"
	"investment_tracker/internal/utils"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// Claims outlive one month so a replica restarting late in the period cannot refire it
const guardTTL = 40 * 24 * time.Hour

func main() {
	defer logger.Sync()

	// --- Configuration ---
	cfg, err := config.Load(".env")
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	if err := logger.Init(cfg.LogEnv); err != nil {
		logger.Fatal("Failed to configure logger", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var (
		userRepo       repository.UserRepository
		investmentRepo repository.InvestmentRepository
		storagePinger  handler.Pinger
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		userRepo, investmentRepo = store.Users(), store.Investments()
	default:
		dbPool, err := config.ConnectDB(ctx, cfg.DSN())
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		defer dbPool.Close()

		if err := config.Migrate(ctx, dbPool); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
		userRepo = repository.NewUserRepository(dbPool)
		investmentRepo = repository.NewInvestmentRepository(dbPool)
		storagePinger = dbPool
	}

	// --- SMS ---
	var sender sms.Sender = sms.DisabledSender{}
	if cfg.SMSEnabled() {
		sender = sms.NewTwilioSender(sms.TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFromNumber,
			BaseURL:    cfg.TwilioBaseURL,
			Timeout:    cfg.SMSTimeout,
		})
	} else {
		logger.Warn("Twilio credentials not set, SMS notifications are disabled")
	}

	// --- Services ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecretKey, cfg.JWTExpirationHours)
	authService := service.NewAuthService([]service.Operator{
		{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash, Role: model.RoleAdmin},
		{Username: cfg.ViewerUsername, PasswordHash: cfg.ViewerPasswordHash, Role: model.RoleViewer},
	}, jwtUtil)
	userService := service.NewUserService(userRepo, sender)
	investmentService := service.NewInvestmentService(userRepo, investmentRepo, sender, cfg.CurrencySymbol)
	summaryService := service.NewSummaryService(userRepo, investmentRepo, sender, cfg.CurrencySymbol)

	// --- Scheduler ---
	hour, minute, err := cfg.ScheduleClock()
	if err != nil {
		logger.Fatal("Invalid schedule", "error", err)
	}
	location, err := cfg.ScheduleLocation()
	if err != nil {
		logger.Fatal("Invalid schedule timezone", "error", err)
	}
	opts := []scheduler.Option{}
	if cfg.RedisAddr != "" {
		redisClient, err := scheduler.Connect(ctx, &goredis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		opts = append(opts, scheduler.WithGuard(scheduler.NewRedisGuard(redisClient, cfg.RedisKeyPrefix, guardTTL)))
	}
	monthly := scheduler.New(scheduler.Schedule{
		DayOfMonth:    cfg.ScheduleDayOfMonth,
		Hour:          hour,
		Minute:        minute,
		Location:      location,
		CheckInterval: cfg.ScheduleCheckInterval,
	}, summaryService.SendMonthlyUpdates, opts...)

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		_ = monthly.Run(ctx)
	}()

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	investmentHandler := handler.NewInvestmentHandler(investmentService)
	adminHandler := handler.NewAdminHandler(summaryService, monthly)
	healthHandler := handler.NewHealthHandler(storagePinger)

	// --- Setup Gin Router ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)
	viewerRoleMW := middleware.ViewerMiddleware()
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := router.Group("/api/v1")
	authHandler.RegisterAuthRoutes(apiGroup)
	userHandler.RegisterUserRoutes(apiGroup, jwtAuthMW, viewerRoleMW, adminRoleMW)
	investmentHandler.RegisterInvestmentRoutes(apiGroup, jwtAuthMW, viewerRoleMW, adminRoleMW)
	adminHandler.RegisterAdminRoutes(apiGroup, jwtAuthMW, adminRoleMW)

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.ServerPort, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	<-schedulerDone

	logger.Info("Server exiting")
}
