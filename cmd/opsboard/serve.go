package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsboard/opsboard/internal/api"
	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/dashboard"
	httpapp "github.com/opsboard/opsboard/internal/http"
	"github.com/opsboard/opsboard/internal/http/handlers"
	"github.com/opsboard/opsboard/internal/logging"
	"github.com/opsboard/opsboard/internal/metrics"
	"github.com/opsboard/opsboard/internal/models"
	"github.com/opsboard/opsboard/internal/notify"
	"github.com/opsboard/opsboard/internal/push"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	eventBuffer     = 64
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the dashboard HTTP server, refresh loop and live feed.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{
		Command: cmd.CommandPath(),
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	center := notify.New(nil)
	defer center.Close()

	client, err := api.New(cfg.APIBaseURL, cfg.APITimeout, center)
	if err != nil {
		return err
	}
	client.ToastDuration = cfg.ToastDuration

	state := dashboard.NewViewState(dashboard.FeedCapacity)
	// Recent tickets fail silently; everything else raises a toast.
	controller := dashboard.NewController(client, client.WithNotifier(nil), state, dashboard.Options{
		Logger:        logging.WithComponent(logger, "dashboard"),
		Interval:      cfg.RefreshInterval,
		LogLimit:      cfg.LogLimit,
		RecentTickets: cfg.RecentTickets,
	})

	var events chan models.Event
	if !cfg.PushDisabled && cfg.PushURL != "" {
		events = make(chan models.Event, eventBuffer)
		sub := &push.Subscriber{
			URL:            cfg.PushURL,
			ReconnectDelay: cfg.PushReconnectDelay,
			Logger:         logging.WithComponent(logger, "push"),
		}
		go func() {
			if err := sub.Run(ctx, events); err != nil {
				logger.Error("live feed subscriber stopped", "err", err)
			}
		}()
	} else {
		logger.Info("live feed disabled")
	}

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		controller.Run(ctx, events)
	}()

	_, metricsErr := metrics.StartServer(ctx, cfg.MetricsAddr, logging.WithComponent(logger, "metrics"))

	srv, err := httpapp.NewEchoServer(&handlers.Handlers{
		Cfg:       cfg,
		State:     state,
		Toasts:    center,
		Refresher: controller,
	}, logging.WithComponent(logger, "http"))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "api", cfg.APIBaseURL, "interval", cfg.RefreshInterval)
		errCh <- srv.StartServer(httpServer)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-metricsErr:
		runErr = err
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	<-runDone
	return runErr
}
