package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/docmap/internal/platform"
	"github.com/aretw0/docmap/pkg/adapters/lifecycle"
)

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print change events until interrupted (fs adapter)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, flags, pattern)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob filter on record IDs (e.g. \"3fa8*\")")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, flags *rootFlags, pattern string) error {
	store, err := openStore(cmd, flags, platform.WithWatcherErrorHandler(logWatchError))
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.Watch(ctx, pattern)
	if err != nil {
		return err
	}

	source := lifecycle.NewSource(events)
	if err := source.Start(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for e := range source.Events() {
		fmt.Fprintln(out, e)
	}
	return nil
}

func logWatchError(err error) {
	slog.Warn("watcher failed", "error", err)
}
