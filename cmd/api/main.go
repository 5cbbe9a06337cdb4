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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/handler"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/repository"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/service"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/cache"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/config"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/database"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/jobs"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/logger"
)

// @title I Can Swim Booking API
// @version 1.0.0
// @description Adaptive swim lesson booking engine: capacity, funding authorizations, floating sessions and skill progression.
// @BasePath /api/v1
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	notifyQueue := jobs.NewQueue("notifications", service.NotificationHandler(service.NewLogNotifier(logr)), jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()
	notifier := service.NewNotificationService(notifyQueue, logr)

	validate := validator.New()
	retry := database.RetryPolicy{Attempts: 2, Backoff: cfg.Booking.TxRetryBackoff}

	swimmers := repository.NewSwimmerRepository(db)
	sessions := repository.NewSessionRepository(db)
	bookings := repository.NewBookingRepository(db)
	floating := repository.NewFloatingSessionRepository(db)

	roles := repository.NewUserRoleRepository(db)
	identity := service.NewIdentityService(roles, service.IdentityConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	}, logr)
	ledger := service.NewCapacityLedger(sessions, bookings)
	funding := service.NewFundingService(db, swimmers, repository.NewAuthorizationRepository(db), validate, notifier, metrics, logr, retry, service.FundingRules{
		DefaultAllowedLessons: cfg.Booking.DefaultAllowedLessons,
		AuthorizationMonths:   cfg.Booking.AuthorizationMonths,
	})
	bookingSvc := service.NewBookingService(db, service.BookingStores{
		Swimmers:      swimmers,
		Sessions:      sessions,
		Bookings:      bookings,
		Floating:      floating,
		Cancellations: repository.NewCancellationRepository(db),
		Roles:         roles,
	}, ledger, funding, cacheSvc, notifier, metrics, validate, logr, retry, service.BookingRules{
		LateCancelWindow:      cfg.Booking.LateCancelWindow,
		FloatingClaimLeadTime: cfg.Booking.FloatingClaimLeadTime,
	})
	floatingSvc := service.NewFloatingSessionService(db, floating, swimmers, sessions, bookingSvc, cacheSvc, notifier, metrics, validate, logr, retry)
	sessionSvc := service.NewSessionService(db, sessions, bookingSvc, cacheSvc, validate, logr, retry)
	progressSvc := service.NewProgressService(db, swimmers, repository.NewCurriculumRepository(db), repository.NewProgressRepository(db), cacheSvc, notifier, metrics, validate, logr, retry)

	floatingSvc.StartSweeper(ctx, cfg.Sweeper.FloatingInterval)

	dependencies := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		dependencies["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := newRouter(cfg, logr, routerDeps{
		identity: identity,
		metrics:  metrics,
		bookings: handler.NewBookingHandler(bookingSvc),
		sessions: handler.NewSessionHandler(sessionSvc),
		funding:  handler.NewFundingHandler(funding),
		floating: handler.NewFloatingHandler(floatingSvc),
		progress: handler.NewProgressHandler(progressSvc),
		ops:      handler.NewMetricsHandler(metrics.Handler(), dependencies),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
