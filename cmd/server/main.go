package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/app"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/handler"
	"github.com/stemsi/certify-backend/internal/logger"
	"github.com/stemsi/certify-backend/internal/router"
	"github.com/stemsi/certify-backend/internal/validator"
	"github.com/stemsi/certify-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("location", cfg.Location.String()).
		Msg("Starting " + cfg.AppName)

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	rt, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer rt.Close()

	// ─── Initialize Services ──────────────────────────────────────────
	svc := app.NewServices(ctx, cfg, rt.Store, app.NewMailer(cfg, log), log)
	stopWatch := svc.Admin.Watch(ctx, rt.Bus)
	defer stopWatch()

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(svc.Auth),
		Setting:      handler.NewSettingHandler(svc.Setting),
		Schedule:     handler.NewScheduleHandler(svc.Booking),
		Appointment:  handler.NewAppointmentHandler(svc.Booking, svc.Admin),
		Dashboard:    handler.NewDashboardHandler(svc.Dashboard),
		Notification: handler.NewNotificationHandler(svc.Notification, svc.Admin),
		Quiz:         handler.NewQuizHandler(svc.Quiz),
		Test:         handler.NewTestHandler(svc.Admin),
		User:         handler.NewUserHandler(svc.Admin),
		WS:           handler.NewWSHandler(rt.Bus, svc.Auth, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	var wg sync.WaitGroup
	reminderWorker := worker.NewReminderWorker(svc.Admin, svc.Notification, cfg.Location, cfg.ReminderInterval, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reminderWorker.Start(ctx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, svc.Auth, handlers, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop workers; the deferred rt.Close flushes the relay.
	cancel()
	wg.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
