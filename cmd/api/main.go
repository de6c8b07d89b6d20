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

	_ "github.com/noah-isme/signup-sheets-api/api/swagger"
	"github.com/noah-isme/signup-sheets-api/internal/fields"
	"github.com/noah-isme/signup-sheets-api/internal/handler"
	"github.com/noah-isme/signup-sheets-api/internal/middleware"
	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/repository"
	"github.com/noah-isme/signup-sheets-api/internal/service"
	"github.com/noah-isme/signup-sheets-api/pkg/cache"
	"github.com/noah-isme/signup-sheets-api/pkg/config"
	"github.com/noah-isme/signup-sheets-api/pkg/database"
	"github.com/noah-isme/signup-sheets-api/pkg/jobs"
	"github.com/noah-isme/signup-sheets-api/pkg/logger"
	"github.com/noah-isme/signup-sheets-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/signup-sheets-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/signup-sheets-api/pkg/middleware/requestid"
)

// @title Sign-Up Sheets API
// @version 1.0.0
// @description Volunteer sign-up sheet and task management service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	validate := validator.New()
	registry := fields.NewRegistry()
	sender := mailer.FromConfig(cfg.Mailer, logr)
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	sheetRepo := repository.NewSheetRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	signupRepo := repository.NewSignupRepository(db)
	validationRepo := repository.NewValidationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "signup-sheets-api",
	})

	templateService := service.NewTemplateService(templateRepo, validate, logr)

	validationService := service.NewValidationService(validationRepo, signupRepo, sender, validate, logr, service.ValidationConfig{
		CookieSecret: cfg.Validation.CookieSecret,
		CookieTTL:    cfg.Validation.CookieTTL,
		CodeTTL:      cfg.Validation.CodeTTL,
		PublicURL:    cfg.PublicURL,
	})

	var sheetService *service.SheetService
	if cacheRepo != nil {
		sheetService = service.NewSheetService(sheetRepo, taskRepo, cacheRepo, cfg.Sweeps.EntityCacheTTL, registry, validate, logr)
	} else {
		sheetService = service.NewSheetService(sheetRepo, taskRepo, nil, cfg.Sweeps.EntityCacheTTL, registry, validate, logr)
	}
	taskService := service.NewTaskService(taskRepo, sheetRepo, registry, validate, logr)
	signupService := service.NewSignupService(signupRepo, taskRepo, sheetRepo, templateService, registry, sender, metricsService, validate, logr)
	exportService := service.NewExportService(signupRepo, sheetRepo, logr, nil, nil)

	sweepService := service.NewSweepService(signupRepo, validationRepo, metricsService, logr, service.SweepConfig{
		Interval:       cfg.Sweeps.Interval,
		CodeTTL:        cfg.Sweeps.CodeTTL,
		UnvalidatedTTL: cfg.Sweeps.UnvalidatedTTL,
	})

	reminderService := service.NewReminderService(signupRepo, sheetRepo, taskRepo, templateService, sender, metricsService, logr, cfg.Reminders.Interval, jobs.QueueConfig{
		Workers:    cfg.Reminders.WorkerConcurrency,
		MaxRetries: cfg.Reminders.WorkerRetries,
		Logger:     logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sweeps.Background {
		go sweepService.Run(ctx)
	}
	if cfg.Reminders.Enabled {
		reminderService.Start(ctx)
		defer reminderService.Stop()
	}

	authHandler := handler.NewAuthHandler(authService)
	sheetHandler := handler.NewSheetHandler(sheetService)
	taskHandler := handler.NewTaskHandler(taskService)
	signupHandler := handler.NewSignupHandler(signupService, validationService, cfg.Validation.CookieName)
	validationHandler := handler.NewValidationHandler(validationService, cfg.Validation.CookieName, cfg.Env == config.EnvProduction)
	templateHandler := handler.NewTemplateHandler(templateService)
	exportHandler := handler.NewExportHandler(exportService)
	maintenanceHandler := handler.NewMaintenanceHandler(sweepService, reminderService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("", middleware.JWT(authService))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	// Public surface. OptionalJWT lets admins act through the same
	// endpoints with their privileges attached.
	public := api.Group("", middleware.OptionalJWT(authService))
	public.GET("/sheets", sheetHandler.List)
	public.GET("/sheets/:id", sheetHandler.Get)
	public.GET("/sheets/:id/tasks", taskHandler.ListBySheet)
	public.GET("/tasks/:id", taskHandler.Get)
	public.GET("/tasks/:id/spots", signupHandler.Spots)
	public.POST("/signups", signupHandler.Create)
	public.PUT("/signups/:id", signupHandler.Update)
	public.DELETE("/signups/:id", signupHandler.Clear)
	public.GET("/signups/mine", signupHandler.Mine)
	public.POST("/validate/request", validationHandler.Request)
	public.GET("/validate", validationHandler.Confirm)

	admin := api.Group("", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
	admin.POST("/sheets", sheetHandler.Create)
	admin.PUT("/sheets/:id", sheetHandler.Update)
	admin.PUT("/sheets/:id/dates", sheetHandler.ApplyDates)
	admin.DELETE("/sheets/:id", sheetHandler.Trash)
	admin.PUT("/sheets/:id/restore", sheetHandler.Restore)
	admin.DELETE("/sheets/:id/purge", sheetHandler.Destroy)
	admin.POST("/sheets/:id/tasks", taskHandler.Create)
	admin.PUT("/sheets/:id/tasks/order", taskHandler.Reorder)
	admin.PUT("/tasks/:id", taskHandler.Update)
	admin.DELETE("/tasks/:id", taskHandler.Delete)
	admin.GET("/tasks/:id/signups", signupHandler.ListForTask)
	admin.GET("/templates", templateHandler.List)
	admin.GET("/templates/:id", templateHandler.Get)
	admin.POST("/templates", templateHandler.Create)
	admin.PUT("/templates/:id", templateHandler.Update)
	admin.DELETE("/templates/:id", templateHandler.Delete)
	if cfg.Exports.Enabled {
		admin.GET("/sheets/:id/export", exportHandler.Roster)
	}

	ops := api.Group("", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	ops.POST("/maintenance/sweep", maintenanceHandler.Sweep)
	ops.POST("/maintenance/reminders", maintenanceHandler.DispatchReminders)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
