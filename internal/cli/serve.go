package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"househunt/internal/api"
	"househunt/internal/geocoding"
	"househunt/internal/metrics"
	"househunt/internal/processor"
	"househunt/internal/queue"
	"househunt/internal/scheduler"
	"househunt/internal/telegram"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.SetOutput(os.Stdout)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger
	cfg := a.cfg

	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()

	q := queue.NewPropertyQueue(cfg.BatchProcessing.QueueSize, logger)
	m.RegisterQueueDepth(q.Len)
	batchProcessor := processor.NewBatchProcessor(db.GetDB(), db, q, cfg, m, logger)
	batchProcessor.Start()
	defer batchProcessor.Stop()

	var geocoder *geocoding.Geocoder
	if cfg.Geocoding.Enabled {
		geocoder = geocoding.NewGeocoder(logger, geocoding.Options{
			BaseURL:      cfg.Geocoding.BaseURL,
			Country:      cfg.Geocoding.Country,
			UserAgent:    cfg.Geocoding.UserAgent,
			CacheFile:    cfg.Geocoding.CacheFile,
			RequestDelay: cfg.GeocodeRequestDelay(),
		}, m)
		defer func() {
			if err := geocoder.SaveCache(); err != nil {
				logger.WithError(err).Error("Failed to save geocoding cache")
			}
		}()
	} else {
		logger.Info("Geocoding disabled")
	}

	notifier, err := telegram.NewService(logger, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.ScoreThreshold, m)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram: %w", err)
	}
	if !notifier.Enabled() {
		logger.Info("Telegram alerts disabled")
	}

	sched := scheduler.NewScheduler(logger)
	if geocoder != nil {
		sched.AddJob(scheduler.JobTypeGeocode, time.Duration(cfg.Scheduler.GeocodeInterval)*time.Minute,
			scheduler.GeocodeJob(db, geocoder, logger))
	}
	var messenger scheduler.Messenger
	if notifier.Enabled() {
		messenger = notifier
	}
	sched.AddJob(scheduler.JobTypeStaleReport, time.Duration(cfg.Scheduler.StaleReportInterval)*time.Minute,
		scheduler.StaleReportJob(db, messenger, logger))

	router, err := api.NewRouter(api.Dependencies{
		Context:        ctx,
		DB:             db,
		Logger:         logger,
		Geocoder:       geocoder,
		Queue:          q,
		Notifier:       notifier,
		Metrics:        m,
		BatchSize:      cfg.BatchProcessing.MaxBatchSize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sched.Start(gctx)
		if geocoder != nil && cfg.Scheduler.GeocodeInterval > 0 {
			logger.Info("Starting initial geocoding of properties without coordinates")
			if err := sched.RunNow(gctx, scheduler.JobTypeGeocode); err != nil {
				logger.WithError(err).Error("Failed to update coordinates")
			}
		}
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
