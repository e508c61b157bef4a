// Package cli implements the landbook command-line front-end.
// Every command opens the configured store, initializes a registry over it,
// runs one operation and closes the store again.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/warp/landbook/config"
	"github.com/warp/landbook/registry"
	"github.com/warp/landbook/store/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Locale     string
	Format     string // "text" | "json"
	Verbose    bool

	// OpenStore opens the store at path. Defaults to the SQLite store.
	OpenStore func(path string) (registry.Store, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the landbook CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.OpenStore == nil {
		opts.OpenStore = func(path string) (registry.Store, error) {
			return sqlite.New(path)
		}
	}

	cmd := &cobra.Command{
		Use:           "landbook",
		Short:         "Track clients, land parcels and their debts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Locale, "locale", "", "locale for dates, e.g. es-AR (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newClientCommand(opts))
	cmd.AddCommand(newParcelCommand(opts))
	cmd.AddCommand(newDebtCommand(opts))
	cmd.AddCommand(newFormatDateCommand(opts))

	return cmd
}

// session opens the store, runs fn against an initialized registry and closes the store.
func (o *RootOptions) session(cmd *cobra.Command, fn func(ctx context.Context, reg *registry.Registry) error) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.Locale != "" {
		cfg.Locale = o.Locale
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	tag, _ := cfg.LocaleTag()
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	store, err := o.OpenStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := registry.New(store, registry.WithLocale(tag), registry.WithLogger(logger))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := reg.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, reg)
}

func (o *RootOptions) printer(cmd *cobra.Command) *printer {
	return &printer{w: cmd.OutOrStdout(), json: o.Format == "json"}
}

func newFormatDateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "format-date [value]",
		Short: "Format a date with the configured locale",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 1 {
				value = args[0]
			}
			return opts.session(cmd, func(_ context.Context, reg *registry.Registry) error {
				return opts.printer(cmd).line(reg.FormatDate(value))
			})
		},
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func parseID(s string) (registry.ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return registry.ID(n), nil
}

type printer struct {
	w    io.Writer
	json bool
}
