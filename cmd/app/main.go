package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"fitsync-schedule/internal/auth"
	"fitsync-schedule/internal/cache"
	"fitsync-schedule/internal/config"
	"fitsync-schedule/internal/events"
	availCreate "fitsync-schedule/internal/http-server/handlers/availability/create"
	availDelete "fitsync-schedule/internal/http-server/handlers/availability/delete"
	availGet "fitsync-schedule/internal/http-server/handlers/availability/get"
	bookingCancel "fitsync-schedule/internal/http-server/handlers/bookings/cancel"
	bookingCreate "fitsync-schedule/internal/http-server/handlers/bookings/create"
	bookingGet "fitsync-schedule/internal/http-server/handlers/bookings/get"
	bookingList "fitsync-schedule/internal/http-server/handlers/bookings/list"
	bookingReschedule "fitsync-schedule/internal/http-server/handlers/bookings/reschedule"
	bookingTransition "fitsync-schedule/internal/http-server/handlers/bookings/transition"
	scheduleFree "fitsync-schedule/internal/http-server/handlers/schedule/free"
	sessionCreate "fitsync-schedule/internal/http-server/handlers/sessions/create"
	sessionEnroll "fitsync-schedule/internal/http-server/handlers/sessions/enroll"
	sessionList "fitsync-schedule/internal/http-server/handlers/sessions/list"
	"fitsync-schedule/internal/lock"
	svc "fitsync-schedule/internal/service"
	"fitsync-schedule/internal/storage/memory"
	"fitsync-schedule/internal/storage/postgres"
	"fitsync-schedule/pkg/handlers/slogpretty"
	"fitsync-schedule/pkg/middleware/mwlogger"
	"fitsync-schedule/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

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

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	var closers []func() error

	var store svc.Store
	if cfg.StoragePath != "" {
		pg, err := postgres.New(cfg.StoragePath)
		if err != nil {
			log.Error("Failed to init storage", sl.Err(err))
			os.Exit(1)
		}
		closers = append(closers, pg.Close)
		store = pg
	} else {
		log.Info("No storage_path configured, using in-memory store")
		store = memory.New()
	}

	var locker lock.Locker
	var freeCache cache.FreeIntervalsCache
	var publisher events.Publisher

	if cfg.RedisAddr != "" {
		redisLock, err := lock.NewRedisLock(cfg.RedisAddr)
		if err != nil {
			log.Error("Failed to init redis lock", sl.Err(err))
			os.Exit(1)
		}
		closers = append(closers, redisLock.Close)
		locker = redisLock

		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.Cache.FreeIntervalsTTL)
		if err != nil {
			log.Error("Failed to init redis cache", sl.Err(err))
			os.Exit(1)
		}
		closers = append(closers, redisCache.Close)
		freeCache = redisCache

		redisEvents, err := events.NewRedisPublisher(cfg.RedisAddr, log)
		if err != nil {
			log.Error("Failed to init event publisher", sl.Err(err))
			os.Exit(1)
		}
		closers = append(closers, redisEvents.Close)
		publisher = redisEvents
	} else {
		log.Info("No redis_addr configured, using in-process lock, no cache, no events")
		locker = lock.NewKeyedMutex()
	}

	service := svc.NewService(store, locker, freeCache, publisher, svc.Options{
		MinLeadTime:           cfg.Booking.MinLeadTime,
		AutoConfirm:           cfg.Booking.AutoConfirm,
		CancellationGrace:     cfg.Booking.CancellationGrace,
		AllowOverlappingSlots: cfg.Booking.AllowOverlappingSlots,
		LockTTL:               cfg.Booking.LockTTL,
		LockWait:              cfg.Booking.LockWait,
	})

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(log, cfg.Auth.JWTSecret))

		// Availability
		r.With(auth.RequireRole("trainer")).Post("/availability", availCreate.New(log, service))
		r.Get("/availability/{trainerID}", availGet.New(log, service))
		r.With(auth.RequireRole("trainer")).Delete("/availability/{slotID}", availDelete.New(log, service))

		// Free intervals
		r.Get("/schedule/{trainerID}/free", scheduleFree.New(log, service))

		// Bookings
		r.Post("/bookings", bookingCreate.New(log, service))
		r.Get("/bookings", bookingList.New(log, service))
		r.Get("/bookings/{bookingID}", bookingGet.New(log, service))
		r.Post("/bookings/{bookingID}/reschedule", bookingReschedule.New(log, service))
		r.Post("/bookings/{bookingID}/cancel", bookingCancel.New(log, service))
		r.With(auth.RequireRole("trainer")).Post("/bookings/{bookingID}/confirm",
			bookingTransition.New(log, "confirm", service.ConfirmBooking))
		r.With(auth.RequireRole("trainer")).Post("/bookings/{bookingID}/complete",
			bookingTransition.New(log, "complete", service.CompleteBooking))
		r.With(auth.RequireRole("trainer")).Post("/bookings/{bookingID}/no-show",
			bookingTransition.New(log, "no-show", service.MarkNoShow))

		// Group sessions
		r.With(auth.RequireRole("trainer")).Post("/sessions", sessionCreate.New(log, service))
		r.Get("/sessions", sessionList.New(log, service))
		r.Post("/sessions/{sessionID}/enroll", sessionEnroll.New(log, service))
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error("Failed to close resource", sl.Err(err))
		}
	}

	log.Info("Shutdown finished, server stopped")

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
