package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgermatch/sheetgate/internal/config"
	httpapp "github.com/ledgermatch/sheetgate/internal/http"
	"github.com/ledgermatch/sheetgate/internal/logging"
	"github.com/ledgermatch/sheetgate/internal/metrics"
	"github.com/ledgermatch/sheetgate/internal/sheets"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the spreadsheet acquisition HTTP server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "sheetgate serve"})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := sheets.NewClient(sheets.ClientOptions{
		HTTPClient: &http.Client{Timeout: cfg.FetchTimeout},
	})

	srv, err := httpapp.NewEchoServer(cfg, client, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		var metricsErr error
		select {
		case <-groupCtx.Done():
		case metricsErr = <-metricsErrCh: // nil channel blocks forever when metrics are disabled
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return metricsErr
	})

	return group.Wait()
}
