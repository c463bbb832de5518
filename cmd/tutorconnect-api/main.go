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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutorconnect-api/api/swagger"
	"github.com/noah-isme/tutorconnect-api/internal/handler"
	"github.com/noah-isme/tutorconnect-api/internal/middleware"
	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/internal/repository"
	"github.com/noah-isme/tutorconnect-api/internal/service"
	"github.com/noah-isme/tutorconnect-api/pkg/cache"
	"github.com/noah-isme/tutorconnect-api/pkg/calendar"
	"github.com/noah-isme/tutorconnect-api/pkg/config"
	"github.com/noah-isme/tutorconnect-api/pkg/database"
	"github.com/noah-isme/tutorconnect-api/pkg/jobs"
	"github.com/noah-isme/tutorconnect-api/pkg/logger"
	"github.com/noah-isme/tutorconnect-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/tutorconnect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutorconnect-api/pkg/middleware/requestid"
	"github.com/noah-isme/tutorconnect-api/pkg/observability"
)

// @title TutorConnect API
// @version 1.0.0
// @description Tutoring marketplace: availability, bookings, meeting links and notifications.
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

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	loc, err := time.LoadLocation(cfg.Meeting.TimeZone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Meeting.TimeZone, err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	accounts := repository.NewAccountRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	availability := repository.NewAvailabilityRepository(db)
	bookings := repository.NewBookingRepository(db)
	resources := repository.NewResourceRepository(db)
	blacklist := repository.NewTokenBlacklistRepository(redisClient)

	validate := models.NewValidator()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Slots.CacheTTL, logr, cfg.Slots.CacheEnabled)

	meetings := newMeetingService(ctx, cfg, metrics, logr)

	var mail service.Mailer = mailer.NewLogMailer(logr)
	if cfg.Email.SendGridKey != "" {
		mail = mailer.NewSendGrid(cfg.Email)
	} else {
		logr.Warn("SENDGRID_KEY not set; notifications are logged only")
	}
	notifications := service.NewNotificationService(mail, metrics, logr)
	queue := jobs.NewQueue("notifications", notifications.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnFailure:  notifications.HandleFailure,
	})
	notifications.UseQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()

	authSvc := service.NewAuthService(accounts, students, teachers, blacklist, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		RefreshTokenSecret: cfg.JWT.RefreshSecret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           []string{cfg.JWT.Audience},
	})
	if cfg.Bootstrap.AdminEmail != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	bookingSvc := service.NewBookingService(bookings, teachers, availability, service.BookingCollaborators{
		Meetings: meetings,
		Notifier: notifications,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Location: loc,
	}, validate, logr)
	teacherSvc := service.NewTeacherService(teachers, availability, cacheSvc, validate, logr)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Bookings:  handler.NewBookingHandler(bookingSvc, service.NewExportService(bookings, logr)),
		Teachers:  handler.NewTeacherHandler(teacherSvc, service.NewAvailabilityService(availability, cacheSvc, validate, logr, loc)),
		Students:  handler.NewStudentHandler(service.NewStudentService(students, bookings, teachers, validate, logr), teacherSvc),
		Resources: handler.NewResourceHandler(service.NewResourceService(resources, validate, logr)),
		Admin:     handler.NewAdminHandler(service.NewAdminService(accounts, teachers, logr)),
		Metrics:   handler.NewMetricsHandler(metrics),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health"))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", handlers.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
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

// newMeetingService returns a provisioner backed by Google Calendar, or a
// disabled one when no refresh token has been configured.
func newMeetingService(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.MeetingService {
	meetingCfg := service.MeetingConfig{
		MaxAttempts:    cfg.Meeting.MaxAttempts,
		RetryDelay:     cfg.Meeting.RetryDelay,
		AttemptTimeout: cfg.Meeting.AttemptTimeout,
	}
	if !cfg.Google.Enabled() {
		logr.Warn("google calendar not configured; bookings confirm without meeting links")
		return service.NewMeetingService(nil, meetingCfg, metrics, logr)
	}
	client, err := calendar.NewGoogleClient(ctx, cfg.Google)
	if err != nil {
		logr.Warn("google calendar unavailable; bookings confirm without meeting links", zap.Error(err))
		return service.NewMeetingService(nil, meetingCfg, metrics, logr)
	}
	return service.NewMeetingService(client, meetingCfg, metrics, logr)
}
