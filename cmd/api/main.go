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

	"github.com/ssug-dev/ssug-api/internal/handler"
	"github.com/ssug-dev/ssug-api/internal/middleware"
	"github.com/ssug-dev/ssug-api/internal/repository"
	"github.com/ssug-dev/ssug-api/internal/service"
	"github.com/ssug-dev/ssug-api/pkg/cache"
	"github.com/ssug-dev/ssug-api/pkg/config"
	"github.com/ssug-dev/ssug-api/pkg/database"
	"github.com/ssug-dev/ssug-api/pkg/logger"
	corsmiddleware "github.com/ssug-dev/ssug-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ssug-dev/ssug-api/pkg/middleware/requestid"
	"github.com/ssug-dev/ssug-api/pkg/storage"
)

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
	defer db.Close() //nolint:errcheck

	var store *cache.Store
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			store = cache.NewStore(redisClient, "ssug:", cfg.Cache.TTL)
		}
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	periodRepo := repository.NewPeriodRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	collectiveRepo := repository.NewCollectiveRepository(db)
	contactRepo := repository.NewContactRepository(db)
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	qrCodeRepo := repository.NewQRCodeRepository(db)

	metricsSvc := service.NewMetricsService()

	reportSvc := service.NewReportService(periodRepo, activityRepo, uploads, nil, logr, service.ReportConfig{
		ImageMaxWidth: cfg.Reports.ImageMaxWidth,
		ImageQuality:  cfg.Reports.ImageQuality,
		Workers:       cfg.Reports.WorkerConcurrency,
		Retries:       cfg.Reports.WorkerRetries,
	})
	reportSvc.SetMetrics(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportSvc.Start(ctx)
	defer reportSvc.Stop()

	authSvc := service.NewAuthService(adminRepo, userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	periodSvc := service.NewPeriodService(periodRepo, activityRepo, collectiveRepo, uploads, reportSvc, store, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, periodRepo, uploads, store, validate, logr)
	collectiveSvc := service.NewCollectiveService(collectiveRepo, periodRepo, validate, logr)
	contactSvc := service.NewContactService(contactRepo, periodRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	qrCodeSvc := service.NewQRCodeService(qrCodeRepo, validate, logr)

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Periods:     handler.NewPeriodHandler(periodSvc),
		Activities:  handler.NewActivityHandler(activitySvc),
		Collectives: handler.NewCollectiveHandler(collectiveSvc),
		Contacts:    handler.NewContactHandler(contactSvc),
		Users:       handler.NewUserHandler(userSvc),
		Admins:      handler.NewAdminHandler(adminSvc),
		Reports:     handler.NewReportHandler(reportSvc, uploads),
		QRCodes:     handler.NewQRCodeHandler(qrCodeSvc),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
