package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // For comparing server errors
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal notifications
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"digicoop/internal/api"     // Custom package for API handlers
	"digicoop/internal/config"  // Custom package for configuration
	"digicoop/internal/db"      // Database connection
	"digicoop/internal/gateway" // Payment and identity providers
	"digicoop/internal/ledger"  // Ledger engine
	"digicoop/internal/service" // Use cases
	"digicoop/internal/utils"   // Cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable logs in production
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	log := logrus.WithField("service", "digicoop")

	// Connect to the database
	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup cache
	cache, closeCache, err := newCache(cfg, log)
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Ledger and external providers
	engine := ledger.NewEngine(gdb, cfg.Currency,
		ledger.WithLogger(log.WithField("component", "ledger")),
		ledger.WithMaxRetries(cfg.LedgerMaxRetries),
	)
	payments := gateway.NewFlutterwaveClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, nil)
	identity := gateway.NewSmileIdentityClient(cfg.KycBaseURL, cfg.KycPartnerID, cfg.KycAPIKey, nil)
	sms := gateway.NewTermiiClient(cfg.SmsBaseURL, cfg.SmsAPIKey, cfg.SmsSenderID, nil)
	paymentOpts := service.PaymentOptions{
		Currency:    cfg.Currency,
		RedirectURL: cfg.PaymentRedirectURL,
		WebhookHash: cfg.PaymentWebhookHash,
	}
	if cfg.PaymentWebhookHash == "" {
		log.Warn("PAYMENT_WEBHOOK_HASH is not set, every webhook will be rejected")
	}
	if cfg.SmsAPIKey == "" {
		log.Warn("TERMII_API_KEY is not set, OTP requests will fail")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup routes
	r := api.NewRouter(api.RouterConfig{
		DB:     gdb,
		Ledger: engine,
		Services: api.Services{
			Auth:          service.NewAuthService(gdb, engine, cfg.JWTSecret),
			Admin:         service.NewAdminService(gdb),
			Savings:       service.NewSavingsService(gdb, engine),
			Loans:         service.NewLoanService(gdb, engine),
			GroupBuy:      service.NewGroupBuyService(gdb, engine),
			Investments:   service.NewInvestmentService(gdb, engine, log.WithField("component", "investments")),
			Governance:    service.NewGovernanceService(gdb, engine),
			Payments:      service.NewPaymentService(gdb, engine, payments, paymentOpts, log.WithField("component", "payments")),
			Kyc:           service.NewKycService(gdb, identity, log.WithField("component", "kyc")),
			Notifications: service.NewNotificationService(gdb, sms, log.WithField("component", "notifications")),
		},
		Cache:     api.CacheConfig{Cache: cache, TTL: time.Duration(cfg.CacheTTL) * time.Second},
		JWTSecret: cfg.JWTSecret,
		Log:       log.WithField("component", "http"),
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server
	go func() {
		log.Infof("Server running on %s", cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for an interrupt, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	closeCache()
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newCache connects to Redis, or falls back to an in-process cache when REDIS_ADDR is unset
func newCache(cfg *config.Config, log *logrus.Entry) (utils.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR is not set, caching in process")
		return utils.NewMemoryCache(), func() {}, nil
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		_ = redisClient.Close()
		return nil, nil, err
	}
	return utils.NewRedisCache(redisClient), func() { _ = redisClient.Close() }, nil
}
