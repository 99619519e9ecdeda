package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/docmap/internal/config"
	"github.com/aretw0/docmap/internal/platform"
)

type rootFlags struct {
	verbose bool
	adapter string
	path    string
	format  string
}

// newRootCmd builds the command tree. Settings come from DOCMAP_* variables
// and are overridden by flags the user sets explicitly.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "docmap",
		Short: "Persist domain entities through mapped documents",
		Long: `docmap saves domain entities by mapping them to documents, storing the
documents in a backend (files, sqlite, redis, memory), and mapping the
stored result back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.Level()
			if flags.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVarP(&flags.adapter, "adapter", "a", "", "Storage adapter: fs, memory, sqlite, redis (env DOCMAP_ADAPTER)")
	pf.StringVarP(&flags.path, "path", "p", "", "Store location: directory, database file, or redis address (env DOCMAP_PATH)")
	pf.StringVarP(&flags.format, "format", "f", "", "File format for the fs adapter: .json, .yaml, .md (env DOCMAP_FORMAT)")

	cmd.AddCommand(
		newSaveCmd(flags),
		newListCmd(flags),
		newWatchCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// openStore resolves configuration and opens the selected backend.
func openStore(cmd *cobra.Command, flags *rootFlags, extra ...platform.Option) (*platform.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("adapter") {
		cfg.Adapter = flags.adapter
	}
	if pf.Changed("format") {
		cfg.Format = flags.format
	}
	if pf.Changed("path") {
		cfg.Path = flags.path
		cfg.RedisAddr = flags.path
	}

	opts := append(cfg.Options(), platform.WithLogger(slog.Default()))
	opts = append(opts, extra...)
	slog.Debug("opening store", "adapter", cfg.Adapter, "uri", cfg.URI())
	return platform.Open(cfg.URI(), opts...)
}
