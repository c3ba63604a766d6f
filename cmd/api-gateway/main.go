package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/symbohub-api/api/swagger"
	"github.com/noah-isme/symbohub-api/internal/handler"
	internalmiddleware "github.com/noah-isme/symbohub-api/internal/middleware"
	"github.com/noah-isme/symbohub-api/internal/repository"
	"github.com/noah-isme/symbohub-api/internal/service"
	"github.com/noah-isme/symbohub-api/pkg/cache"
	"github.com/noah-isme/symbohub-api/pkg/config"
	"github.com/noah-isme/symbohub-api/pkg/database"
	"github.com/noah-isme/symbohub-api/pkg/logger"
	"github.com/noah-isme/symbohub-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/symbohub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/symbohub-api/pkg/middleware/requestid"
	"github.com/noah-isme/symbohub-api/pkg/storage"
)

// @title SymboHub API
// @version 1.0.0
// @description Colleges, departments and brochure distribution with delivery tracking
// @BasePath /api
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	blobs, err := storage.NewFromConfig(cfg.Storage)
	if err != nil {
		logr.Fatal("failed to init storage", zap.Error(err))
	}

	sender, err := mailer.New(cfg.SMTP, logr)
	if err != nil {
		logr.Fatal("failed to init mailer", zap.Error(err))
	}

	adminRepo := repository.NewAdminRepository(db)
	collegeRepo := repository.NewCollegeRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	brochureRepo := repository.NewBrochureRepository(db)
	historyRepo := repository.NewEmailHistoryRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	var guard *service.LoginGuard
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		guard = service.NewLoginGuard(repository.NewLoginAttemptRepository(client), cfg.LoginGuard, logr)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	notifications := service.NewNotificationService(sender, historyRepo, cfg.Notification, metrics, logr)
	notifications.Start(ctx)
	defer notifications.Stop()

	tokens := service.NewTokenService(adminRepo, collegeRepo, departmentRepo, service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "symbohub-api",
	})
	authService := service.NewAuthService(adminRepo, collegeRepo, departmentRepo, tokens, guard, metrics, validate, logr)
	collegeService := service.NewCollegeService(collegeRepo, departmentRepo, db, blobs, notifications, metrics, validate, logr)
	departmentService := service.NewDepartmentService(departmentRepo, collegeRepo, validate, logr)
	brochureService := service.NewBrochureService(brochureRepo, departmentRepo, historyRepo, db, blobs, notifications, metrics, validate, logr)
	historyService := service.NewEmailHistoryService(historyRepo, departmentRepo, validate, logr)
	exportService := service.NewExportService(brochureService, logr)
	fileService := service.NewFileService(blobs)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Stats:       dashboardRepo,
		Colleges:    collegeRepo,
		Departments: departmentRepo,
		Brochures:   brochureRepo,
		History:     historyRepo,
		Logger:      logr,
	})

	if created, err := service.NewAdminService(adminRepo, logr).Bootstrap(ctx, cfg.Admin); err != nil {
		logr.Fatal("failed to bootstrap admin", zap.Error(err))
	} else if created {
		logr.Info("bootstrap admin created", zap.String("username", cfg.Admin.Username))
	}

	if cfg.Digest.Enabled {
		digest := service.NewDigestService(collegeRepo, adminRepo, notifications, logr)
		if err := digest.Start(cfg.Digest.Schedule); err != nil {
			logr.Fatal("failed to schedule digest", zap.Error(err))
		}
		defer digest.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(metrics))
	}
	r.Use(internalmiddleware.Authenticate(authService))
	r.Use(internalmiddleware.Authorize(handler.AccessPolicy(cfg.APIPrefix)))

	ops := handler.NewOpsHandler(metrics, db)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", ops.Prometheus)
	}
	if cfg.Swagger.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Colleges:     handler.NewCollegeHandler(collegeService, dashboardService),
		Departments:  handler.NewDepartmentHandler(departmentService, dashboardService),
		Brochures:    handler.NewBrochureHandler(brochureService, exportService),
		EmailHistory: handler.NewEmailHistoryHandler(historyService),
		Admin:        handler.NewAdminHandler(collegeService, departmentService, dashboardService),
		Files:        handler.NewFileHandler(fileService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
