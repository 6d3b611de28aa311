package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dental-dashboard/internal/config"
	"dental-dashboard/internal/events"
	appointmentCreate "dental-dashboard/internal/http-server/handlers/appointments/create"
	appointmentGet "dental-dashboard/internal/http-server/handlers/appointments/get"
	appointmentStatus "dental-dashboard/internal/http-server/handlers/appointments/status"
	availabilityGet "dental-dashboard/internal/http-server/handlers/availability/get"
	doctorGet "dental-dashboard/internal/http-server/handlers/doctors/get"
	notificationCreate "dental-dashboard/internal/http-server/handlers/notifications/create"
	notificationGet "dental-dashboard/internal/http-server/handlers/notifications/get"
	notificationRead "dental-dashboard/internal/http-server/handlers/notifications/read"
	notificationReadAll "dental-dashboard/internal/http-server/handlers/notifications/readall"
	"dental-dashboard/internal/http-server/handlers/refresh"
	scheduleCreate "dental-dashboard/internal/http-server/handlers/schedules/create"
	scheduleGet "dental-dashboard/internal/http-server/handlers/schedules/get"
	scheduleStatus "dental-dashboard/internal/http-server/handlers/schedules/status"
	treatmentCreate "dental-dashboard/internal/http-server/handlers/treatments/create"
	treatmentGet "dental-dashboard/internal/http-server/handlers/treatments/get"
	"dental-dashboard/internal/lock"
	"dental-dashboard/internal/metrics"
	"dental-dashboard/internal/realtime"
	svc "dental-dashboard/internal/service"
	"dental-dashboard/internal/storage/postgres"
	"dental-dashboard/pkg/handlers/slogpretty"
	"dental-dashboard/pkg/middleware/mwLogger"
	"dental-dashboard/pkg/retry"
	"dental-dashboard/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting dashboard", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	if err := run(cfg, log); err != nil {
		log.Error("Dashboard stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("Shutdown finished, server stopped")
}

// run owns every resource it opens, so each return path closes them.
func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer closeStorage(log, storage)

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate storage: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancelPing()
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	realtimeMetrics := metrics.NewRealtimeMetrics(registry)

	reconciler := realtime.NewReconciler(log, realtimeMetrics)

	hub := events.NewHub(log, realtimeMetrics)
	reconciler.OnEvent(hub.Broadcast)

	bus := events.NewRedisBus(
		redisClient,
		cfg.Realtime.Channel,
		retry.Fixed(cfg.Realtime.MaxReconnectAttempts, cfg.Realtime.ReconnectDelay),
		log,
	)

	service := svc.NewService(log, storage, lock.NewRedisLock(redisClient), bus, reconciler, svc.Config{
		StatusLockTTL:              cfg.Realtime.StatusLockTTL,
		PatientIncludeZeroCapacity: cfg.Availability.PatientIncludeZeroCapacity,
	})

	if err := service.Refresh(ctx); err != nil {
		log.Error("Initial refresh failed, serving until the next one", sl.Err(err))
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Schedules
	router.Get("/schedules", scheduleGet.New(log, service))
	router.Post("/schedules", scheduleCreate.New(log, service))
	router.Put("/schedules/{id}/status", scheduleStatus.New(log, service))

	// Calendar
	router.Get("/availability", availabilityGet.New(log, service))
	router.Get("/doctors", doctorGet.New(log, service))

	// Appointments
	router.Get("/appointments", appointmentGet.New(log, service))
	router.Post("/appointments", appointmentCreate.New(log, service))
	router.Put("/appointments/{id}/status", appointmentStatus.New(log, service))

	// Treatments
	router.Get("/treatments", treatmentGet.New(log, service))
	router.Post("/treatments", treatmentCreate.New(log, service))

	// Notifications
	router.Get("/notifications", notificationGet.New(log, service))
	router.Post("/notifications", notificationCreate.New(log, service))
	router.Put("/notifications/read-all", notificationReadAll.New(log, service))
	router.Put("/notifications/{id}/read", notificationRead.New(log, service))

	router.Post("/refresh", refresh.New(log, service))
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Handle("/ws", hub)

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return bus.Run(gctx, reconciler.Handle)
	})

	g.Go(func() error {
		return service.RunRefresher(gctx, cfg.Realtime.RefreshInterval)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownTimeout := cfg.HTTPServer.ShutdownTimeout
		log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Close()
		return serv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func closeStorage(log *slog.Logger, storage *postgres.Storage) {
	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
		return
	}
	log.Info("Storage closed")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
