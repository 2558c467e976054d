package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/store"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Employee roster tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(newGenCmd(), newImportCmd(), newListCmd())
	return cmd
}

// openService loads configuration from the environment and opens the store
// it names. The returned func closes the store.
func openService(ctx context.Context) (*core.Service, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	svc := core.NewService(st, core.Options{
		IngestTimeout:   cfg.Upload.Timeout,
		DefaultPageSize: cfg.Paging.DefaultSize,
		MaxPageSize:     cfg.Paging.MaxSize,
	})
	return svc, cfg, func() { st.Close() }, nil
}

// userError turns a service error into the message shown to the operator.
func userError(err error) error {
	if core.IsUserFacing(err) {
		return errors.New(core.FormatUserError(err))
	}
	return err
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
