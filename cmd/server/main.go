package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/UmangSinghal0504/lms/internal/config"
	"github.com/UmangSinghal0504/lms/internal/database"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/payment"
	"github.com/UmangSinghal0504/lms/internal/metrics"
	"github.com/UmangSinghal0504/lms/internal/repo"
	"github.com/UmangSinghal0504/lms/internal/service"
	"github.com/UmangSinghal0504/lms/internal/web"
	"github.com/UmangSinghal0504/lms/internal/worker"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	log.Info("starting lms server", slog.String("env", cfg.Env))

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	metrics.Register()

	purchaseRepo := repo.NewPurchaseRepo(db)
	courseRepo := repo.NewCourseRepo(db)
	userRepo := repo.NewUserRepo(db)
	enrollmentRepo := repo.NewEnrollmentRepo(db)
	progressRepo := repo.NewProgressRepo(db)

	var gateway payment.Gateway
	if cfg.FastPay.APIURL != "" {
		gateway = payment.NewClient(cfg.FastPay.APIURL, cfg.FastPay.APIKey)
	} else {
		log.Warn("FASTPAY_API_URL not set, using in-memory payment simulator")
		gateway = payment.NewSimulator()
	}

	checkoutService := service.NewCheckoutService(
		db, purchaseRepo, courseRepo, userRepo, enrollmentRepo, gateway,
		service.CheckoutConfig{
			SuccessURL: cfg.FastPay.SuccessURL,
			CancelURL:  cfg.FastPay.CancelURL,
			Currency:   "usd",
		},
		log,
	)
	webhookService := service.NewWebhookService(
		db, purchaseRepo, enrollmentRepo,
		[]byte(cfg.FastPay.WebhookSecret), cfg.FastPay.Tolerance, log,
	)
	identityService := service.NewIdentityService(
		userRepo, []byte(cfg.Identity.WebhookSecret), cfg.Identity.Tolerance, log,
	)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, purchaseRepo, courseRepo, userRepo, progressRepo)
	progressService := service.NewProgressService(progressRepo, enrollmentRepo, courseRepo)
	courseService := service.NewCourseService(db, courseRepo)

	sweeper := worker.NewReconciliationWorker(
		purchaseRepo, gateway, webhookService,
		cfg.Sweeper.Interval, cfg.Sweeper.PendingTTL, cfg.Sweeper.BatchSize,
		log,
	)
	go sweeper.Run(ctx)

	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := web.NewHandler(
		db, checkoutService, webhookService, identityService,
		enrollmentService, progressService, courseService, log,
	)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: web.NewRouter(handler),
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	log.Info("server started", slog.String("addr", cfg.HTTP.Addr))

	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server crashed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
	}
	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case envLocal:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envProd:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
