package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmigration/backend/internal/config"
	"github.com/mmigration/backend/internal/intake"
	"github.com/mmigration/backend/internal/reviews"
	"github.com/mmigration/backend/internal/server"
	"github.com/mmigration/backend/internal/sharepoint"
)

// shutdownTimeout bounds graceful shutdown: in-flight submissions get
// this long to finish their uploads before the process exits.
const shutdownTimeout = 15 * time.Second

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(flagConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := buildLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := defaultHTTPClient()

	spCfg := cfg.SharePointSettings()

	var uploader intake.Uploader
	if spCfg.Configured() {
		uploader = sharepoint.NewUploader(ctx, spCfg, httpClient, logger)
	} else {
		logger.Warn("sharepoint credentials missing, submissions will not be relayed")
	}

	svc := intake.NewService(uploader, logger)

	provider := reviews.NewFromConfig(ctx, cfg.ReviewSettings(), httpClient, logger)

	var finder server.PlaceFinder
	if pc, ok := provider.(*reviews.PlacesClient); ok {
		finder = pc
	}

	engine := server.New(server.Options{
		Intake:               svc,
		Provider:             provider,
		Finder:               finder,
		SharePointConfigured: spCfg.Configured(),
		CORSOrigin:           cfg.Server.CORSOrigin,
		Logger:               logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("server listening",
			slog.Int("port", cfg.Server.Port),
			slog.Bool("sharepoint", spCfg.Configured()),
			slog.Bool("reviews", provider != nil),
			slog.String("endpoints", "/health /api/forms/:id /api/reviews /api/reviews/stats /api/reviews/place-id"),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
