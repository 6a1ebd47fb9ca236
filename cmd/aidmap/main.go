package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	httpadapter "github.com/moxalise/aidmap/internal/adapter/http"
	"github.com/moxalise/aidmap/internal/app"
	"github.com/moxalise/aidmap/internal/config"
	"github.com/moxalise/aidmap/internal/mapview"
	"github.com/moxalise/aidmap/internal/observability"
	"github.com/moxalise/aidmap/internal/push"
	"github.com/moxalise/aidmap/internal/source"
	"github.com/moxalise/aidmap/internal/state"
	"github.com/moxalise/aidmap/internal/volunteer"
)

// logNotifier surfaces the assistance reminder to the service log; browser
// clients render their own toast from the pin click counter.
type logNotifier struct {
	log *slog.Logger
}

func (n logNotifier) ShowReminder(message string) {
	n.log.Info("assistance reminder", "message", message)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := state.Open(cfg.StatePath)
	if err != nil {
		logger.Error("failed to open state store", "path", cfg.StatePath, "error", err)
		os.Exit(1)
	}
	logger.Info("state store opened", "path", cfg.StatePath, "session_id", store.SessionID())

	eng := mapview.NewMemory()
	eng.SetStyle(cfg.MapStyle)

	records := source.NewRecords(cfg.SheetURL, cfg.VillagesURL, logger, metrics)
	volunteers := source.NewVolunteers(cfg.VolunteerAPIURL, cfg.VolunteerCSVURL, cfg.VolunteerLocalPath, clock, logger, metrics)
	lifecycle := volunteer.NewLifecycle(volunteers, clock, logger, metrics)
	pusher := push.NewClient(cfg.LocationAPIURL, cfg.WebhookURL, logger, metrics)

	controller := app.NewController(eng, records, store, logNotifier{log: logger}, clock, logger, metrics)
	eng.CompleteStyleLoad()

	if cfg.StartRecordID != "" {
		controller.HandleDeepLink(cfg.StartRecordID)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, controller, eng, lifecycle, pusher, controller, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load; the readiness probe stays negative until it succeeds.
	go func() {
		if err := controller.LoadData(ctx); err != nil {
			logger.Error("initial data load failed", "error", err)
		}
		lifecycle.Refresh(ctx)
	}()

	// Periodic volunteer refresh.
	scheduler := cron.New()
	scheduler.Schedule(cron.Every(cfg.RefreshInterval), cron.FuncJob(func() {
		lifecycle.Refresh(ctx)
	}))
	scheduler.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
