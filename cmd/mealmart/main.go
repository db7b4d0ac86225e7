package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"mealmart/internal/cache"
	"mealmart/internal/config"
	"mealmart/internal/database"
	"mealmart/internal/events"
	"mealmart/internal/handler"
	"mealmart/internal/metrics"
	"mealmart/internal/mw"
	"mealmart/internal/service"
	"mealmart/internal/store"
	"mealmart/internal/worker"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	// Stores
	orderStore := store.NewPostgresOrderStore(db)
	userStore := store.NewPostgresUserStore(db)

	// Optional collaborators
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPub.Close()
		publisher = kafkaPub
	}

	var reportCache *cache.ReportCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		reportCache = cache.NewReportCache(rdb, cfg.ReportCacheTTL)
	}

	// Services
	authSvc := service.NewAuthService(db)
	lifecycle := service.NewLifecycleManager(orderStore, publisher)
	reportSvc := service.NewReportService(orderStore, userStore, cfg.TopSellersLimit)
	snapshotSvc := service.NewSnapshotService(orderStore, userStore)

	// Reconciler
	sweepMetrics := metrics.NewSweepMetrics(prometheus.DefaultRegisterer)
	reconciler := worker.NewReconciler(lifecycle, orderStore, worker.Config{
		UnpaidSpec:        cfg.UnpaidSweepSpec,
		StaleDeliverySpec: cfg.StaleDeliverySweepSpec,
		UnpaidTimeout:     cfg.UnpaidTimeout,
		DeliveryGrace:     cfg.DeliveryGrace,
	}, sweepMetrics)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/admin/register", handler.RegisterHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/admin/login", handler.LoginHandler(authSvc, cfg.JWTSecret))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/api/admin/report/turnover", handler.TurnoverReportHandler(reportSvc, reportCache))
		r.Get("/api/admin/report/users", handler.UserReportHandler(reportSvc, reportCache))
		r.Get("/api/admin/report/orders", handler.OrderReportHandler(reportSvc, reportCache))
		r.Get("/api/admin/report/top10", handler.TopSellersHandler(reportSvc, reportCache))

		r.Get("/api/admin/workspace/business", handler.BusinessDataHandler(snapshotSvc))
		r.Get("/api/admin/workspace/overview/orders", handler.OrderOverviewHandler(snapshotSvc))

		r.Put("/api/admin/orders/{id}/cancel", handler.CancelOrderHandler(lifecycle))
		r.Put("/api/admin/orders/{id}/complete", handler.CompleteOrderHandler(lifecycle))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := reconciler.Start(ctx); err != nil {
		slog.Error("failed to start reconciler", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	reconciler.Stop()
	cancel()

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
