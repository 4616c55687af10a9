package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carebook/carebook-platform/internal/api/router"
	"github.com/carebook/carebook-platform/internal/appointments"
	appconfig "github.com/carebook/carebook-platform/internal/config"
	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/http/handlers"
	"github.com/carebook/carebook-platform/internal/notify"
	"github.com/carebook/carebook-platform/internal/observability/metrics"
	"github.com/carebook/carebook-platform/internal/payments"
	"github.com/carebook/carebook-platform/internal/slots"
	"github.com/carebook/carebook-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting carebook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		profiles directory.Repository
		store    appointments.Store
		orders   payments.OrderStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		profiles = directory.NewPostgresRepository(pool)
		store = appointments.NewPostgresStore(pool)
		orders = payments.NewPostgresOrderStore(pool)
		logger.Info("using postgres storage")
	} else {
		profiles = directory.NewInMemoryRepository()
		store = appointments.NewInMemoryStore()
		orders = payments.NewInMemoryOrderStore()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Payment velocity limiting via Redis, fails open when absent.
	var velocity *payments.VelocityChecker
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		velocityCfg := payments.DefaultVelocityConfig()
		velocityCfg.MaxOrdersPerAppointment = cfg.OrderMaxAttempts
		velocityCfg.OrderWindow = cfg.OrderAttemptWindow
		velocity = payments.NewVelocityChecker(redisClient, velocityCfg, logger)
		logger.Info("payment velocity limiting enabled", "redis", cfg.RedisAddr)
	}

	// Payment gateway: Razorpay with credentials, fake only when allowed.
	var gateway payments.Gateway
	if g := payments.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger); g != nil {
		gateway = g
	} else if cfg.AllowFakeGateway {
		gateway = payments.NewFakeGateway()
		logger.Warn("razorpay credentials not set, using fake gateway")
	} else {
		logger.Error("razorpay credentials required (set ALLOW_FAKE_GATEWAY=true for development)")
		os.Exit(1)
	}

	notifier := buildNotifier(ctx, cfg, profiles, logger)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	clock := slots.SystemClock()
	catalog := slots.NewCatalog(profiles, store, slots.Options{
		Clock:       clock,
		SlotSize:    time.Duration(cfg.SlotMinutes) * time.Minute,
		HorizonDays: cfg.SlotHorizonDays,
	})

	bookingSvc := appointments.NewService(store, profiles, catalog, clock, notifier, bookingMetrics, logger)
	paymentSvc := payments.NewService(orders, store, gateway, velocity, cfg.RazorpayKeySecret, cfg.Currency, notifier, paymentMetrics, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		SlotsHandler:        slots.NewHandler(catalog, clock, logger),
		AppointmentsHandler: appointments.NewHandler(bookingSvc, logger),
		PaymentsHandler:     payments.NewHandler(paymentSvc, logger),
		AdminSuspensions:    handlers.NewAdminSuspensions(profiles, bookingSvc, logger),
		MetricsHandler:      promhttp.Handler(),
		AdminJWTSecret:      cfg.AdminJWTSecret,
		PatientJWTSecret:    cfg.PatientJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildNotifier picks the email provider from config. Notifications always
// degrade to logging; a missing provider never blocks bookings.
func buildNotifier(ctx context.Context, cfg *appconfig.Config, profiles directory.Repository, logger *logging.Logger) *notify.Service {
	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			sender = s
		}
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
		} else if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			sender = s
		}
	}
	if sender == nil {
		sender = notify.NewStubEmailSender(logger)
		logger.Info("email notifications disabled, using stub sender")
	}
	return notify.NewService(sender, profiles, logger)
}
