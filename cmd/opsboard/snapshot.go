package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/opsboard/opsboard/internal/api"
	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/dashboard"
	"github.com/opsboard/opsboard/internal/logging"
	"github.com/opsboard/opsboard/internal/notify"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// exitRefreshFailed is returned when the one-shot refresh cycle fails.
const exitRefreshFailed = 2

var snapshotCmd = &cobra.Command{
	Use:         "snapshot",
	Short:       "Run one refresh cycle against the backend and print the view as JSON.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd)
	},
}

type snapshotOutput struct {
	View   dashboard.View `json:"view"`
	Toasts []notify.Toast `json:"toasts,omitempty"`
}

func runSnapshot(cmd *cobra.Command) error {
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
	controller := dashboard.NewController(client, client.WithNotifier(nil), state, dashboard.Options{
		Logger:        logging.WithComponent(logger, "dashboard"),
		LogLimit:      cfg.LogLimit,
		RecentTickets: cfg.RecentTickets,
	})

	loadErr := controller.Load(ctx)
	controller.Wait()

	out := snapshotOutput{View: state.Render(), Toasts: center.Toasts()}
	if err := writeSnapshot(cmd.OutOrStdout(), out, isTerminal(cmd.OutOrStdout())); err != nil {
		return err
	}
	if loadErr != nil {
		return &exitError{code: exitRefreshFailed, err: loadErr}
	}
	return nil
}

func writeSnapshot(w io.Writer, out snapshotOutput, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
