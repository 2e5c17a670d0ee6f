// Package cli implements the nestedforms command line tool.
package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/internal/config"
	"github.com/goliatone/go-nestedforms/internal/logging"
	"github.com/goliatone/go-nestedforms/pkg/prompt"
)

// ValidFormats lists the accepted values of --format.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the settings resolved from them.
type RootOptions struct {
	ConfigPath string
	Format     string
	Component  string

	Config config.Config
	Logger *zap.SugaredLogger

	driver prompt.Driver
}

// Option customises the root command, mostly for tests.
type Option func(*RootOptions)

// WithPromptDriver replaces the terminal prompt driver used by fill.
func WithPromptDriver(driver prompt.Driver) Option {
	return func(o *RootOptions) {
		o.driver = driver
	}
}

// NewRootCommand creates the root command of the nestedforms CLI.
func NewRootCommand(options ...Option) *cobra.Command {
	opts := &RootOptions{Logger: logging.Nop()}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	v := config.New()

	cmd := &cobra.Command{
		Use:           "nestedforms",
		Short:         "Validate and save nested form submissions",
		Long:          "Build a parent form with nested formsets from a declaration file, then validate, save or fill submissions against it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return errors.Newf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, opts.ConfigPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogJSON)
			if err != nil {
				return err
			}
			opts.Config, opts.Logger = cfg, logger
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, config.KeyConfig, "", "config file (yaml, json or toml)")
	flags.String(config.KeyDSN, config.DefaultDSN, "SQLite database records are saved to")
	flags.StringP(config.KeyDeclaration, "d", "", "form declaration file (yaml or json), or an OpenAPI document with --component")
	flags.StringVar(&opts.Component, "component", "", "OpenAPI component schema to derive the declaration from")
	flags.String(config.KeyLogLevel, "info", "log level (debug|info|warn|error)")
	flags.Bool(config.KeyLogJSON, false, "log as JSON")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
