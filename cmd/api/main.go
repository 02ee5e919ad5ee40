package main

import (
	"context"
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

	_ "github.com/volve-hq/attendance-api/api/swagger"
	"github.com/volve-hq/attendance-api/internal/handler"
	"github.com/volve-hq/attendance-api/internal/middleware"
	"github.com/volve-hq/attendance-api/internal/models"
	"github.com/volve-hq/attendance-api/internal/repository"
	"github.com/volve-hq/attendance-api/internal/service"
	"github.com/volve-hq/attendance-api/pkg/cache"
	"github.com/volve-hq/attendance-api/pkg/config"
	"github.com/volve-hq/attendance-api/pkg/database"
	"github.com/volve-hq/attendance-api/pkg/logger"
	corsmiddleware "github.com/volve-hq/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/volve-hq/attendance-api/pkg/middleware/requestid"
)

// @title Volve Attendance API
// @version 1.0.0
// @description Employee attendance, leave and notification service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	location, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid attendance timezone", "timezone", cfg.Attendance.Timezone, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, logr, cfg.Dashboard.CacheEnabled && cacheRepo != nil, cfg.Dashboard.CacheTTL)

	notificationSvc := service.NewNotificationService(notificationRepo, logr, cfg.Attendance.LateCutoff,
		cfg.Notifications.QueueWorkers, cfg.Notifications.QueueRetries)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, notificationSvc, validate, logr, service.AttendanceServiceConfig{
		LateCutoff:   cfg.Attendance.LateCutoff,
		Location:     location,
		HistoryLimit: cfg.Attendance.HistoryLimit,
	})
	leaveSvc := service.NewLeaveService(leaveRepo, notificationSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(attendanceRepo, leaveRepo, userRepo, notificationSvc, cacheSvc, logr, service.DashboardServiceConfig{
		ReminderCutoff: cfg.Attendance.ReminderCutoff,
		Location:       location,
	})

	if cfg.Attendance.SweepEnabled {
		go runReminderSweep(ctx, dashboardSvc, cfg.Attendance.SweepInterval)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, metricsSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/me", authHandler.Me)

		authed.GET("/attendance/today", attendanceHandler.Today)
		authed.POST("/attendance/check-in", attendanceHandler.CheckIn)
		authed.POST("/attendance/check-out", attendanceHandler.CheckOut)
		authed.GET("/attendance/history", attendanceHandler.History)
		authed.GET("/attendance/history/export", attendanceHandler.ExportHistory)

		authed.POST("/leaves", leaveHandler.Submit)
		authed.GET("/leaves", leaveHandler.ListOwn)

		authed.GET("/notifications", notificationHandler.List)
		authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

		authed.GET("/dashboard/summary", dashboardHandler.Summary)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/attendance", attendanceHandler.ListAll)
		admin.GET("/leaves", leaveHandler.ListAll)
		admin.POST("/leaves/:id/approve", leaveHandler.Decide)
		admin.GET("/dashboard-summary", dashboardHandler.CompanySummary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func runReminderSweep(ctx context.Context, svc *service.DashboardService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.SweepReminders(ctx)
		}
	}
}
