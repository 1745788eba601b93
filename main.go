package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"mocca-storefront/config"
	"mocca-storefront/database"
	"mocca-storefront/handlers"
	"mocca-storefront/middleware"
	"mocca-storefront/queue"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/checkout"
	"mocca-storefront/services/email"
	"mocca-storefront/services/media"
	"mocca-storefront/services/payment"
	"mocca-storefront/services/pricing"
	"mocca-storefront/utils"
	"mocca-storefront/worker"
)

const notificationQueue = "mocca:notifications"

func main() {
	cfg := config.Load()

	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.Int("cpus", runtime.NumCPU()))

	// Database, with retry
	var db *database.Connection
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg.Database, logger)
		if err == nil {
			break
		}
		retryDelay := time.Duration(retries+1) * time.Second
		logger.Warn("failed to connect to database",
			zap.Int("attempt", retries+1),
			zap.Duration("retry_in", retryDelay),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	if err != nil {
		logger.Fatal("failed to connect to database after retries", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}
	ledger := database.NewLedger(db, logger)

	// Redis: notification queue, rate limits and pending payments share one client
	jobQueue, err := queue.NewQueue(cfg.Redis.URL, notificationQueue, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer jobQueue.Close()
	logger.Info("connected to redis")

	emailService := email.NewSMTPService(cfg.SMTP)
	notificationWorker := worker.NewWorker(jobQueue, emailService, logger)
	notificationWorker.Start(cfg.Redis.WorkerConcurrency)
	defer notificationWorker.Stop()

	client := backend.NewClient(backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, logger)
	sessions := auth.NewManager(auth.Options{
		Secret: cfg.Session.Secret,
		Domain: cfg.Session.Domain,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	}, logger)
	gateway := payment.NewGateway(payment.Config{
		KeyID:        cfg.Razorpay.KeyID,
		Currency:     cfg.Razorpay.Currency,
		MerchantName: cfg.Razorpay.MerchantName,
		ThemeColor:   cfg.Razorpay.ThemeColor,
	}, logger)
	checkoutService := checkout.NewService(checkout.Config{
		Fees: pricing.Fees{DeliveryFee: cfg.Pricing.DeliveryFee, GST: cfg.Pricing.GST},
	}, gateway, ledger, jobQueue, jobQueue.Client(), logger)
	uploader := media.NewUploader(media.Config{
		CloudName:    cfg.Cloudinary.CloudName,
		UploadPreset: cfg.Cloudinary.UploadPreset,
	}, logger)

	router := newRouter(routerDeps{
		logger:   logger,
		auth:     handlers.NewAuthHandler(client, sessions, logger),
		catalog:  handlers.NewCatalogHandler(client, sessions, logger),
		cart:     handlers.NewCartHandler(client, sessions, logger),
		account:  handlers.NewAccountHandler(client, sessions, logger),
		checkout: handlers.NewCheckoutHandler(client, sessions, checkoutService, logger),
		admin:    handlers.NewAdminHandler(client, sessions, ledger, uploader, jobQueue, logger),
		health: handlers.NewHealthHandler(db, handlers.PingFunc(func(ctx context.Context) error {
			return jobQueue.Client().Ping(ctx).Err()
		})),
	})

	limiter := middleware.NewRateLimiter(jobQueue.Client(), logger)
	var handler http.Handler = router
	handler = limiter.Middleware()(handler)
	handler = middleware.RequestLogger(logger, 500*time.Millisecond)(handler)
	handler = middleware.Session(sessions)(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.CORS(cfg.Server.AllowedOrigin)(handler)
	handler = middleware.Recoverer(logger)(handler)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("stopping notification worker")
	notificationWorker.Stop()

	logger.Info("closing redis connections")
	jobQueue.Close()

	logger.Info("closing database connections")
	db.Close()

	logger.Info("server exited properly")
}
