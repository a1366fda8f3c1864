// Package cli implements the minrx command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys. Each can come from a flag, from minrx.yaml or from a
// MINRX_ environment variable (MINRX_LOG_LEVEL, MINRX_WINDOW, ...).
const (
	KeyLogLevel = "log-level"
	KeyFormat   = "format"
	KeyWindow   = "window"
	KeyRate     = "rate"
	KeyDB       = "db"
	KeyJournal  = "journal"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds state shared by every command.
type RootOptions struct {
	ConfigFile string
	Config     *viper.Viper
	Logger     *logrus.Logger
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{
		Config: viper.New(),
		Logger: logrus.New(),
	}

	cmd := &cobra.Command{
		Use:   "minrx",
		Short: "minrx - push-based reactive dataflow",
		Long:  "Replays scripted sessions through a push-based reactive graph and reports what it produced.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(); err != nil {
				return err
			}
			opts.Logger.SetOutput(cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./minrx.yaml)")
	cmd.PersistentFlags().String(KeyLogLevel, "warning", "log level (trace|debug|info|warning|error)")
	cmd.PersistentFlags().String(KeyFormat, "text", "output format (json|text)")
	_ = opts.Config.BindPFlag(KeyLogLevel, cmd.PersistentFlags().Lookup(KeyLogLevel))
	_ = opts.Config.BindPFlag(KeyFormat, cmd.PersistentFlags().Lookup(KeyFormat))

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// load reads the config file and environment and applies the log level.
func (o *RootOptions) load() error {
	v := o.Config
	v.SetEnvPrefix("MINRX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
	} else {
		v.SetConfigName("minrx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.ConfigFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	level, err := logrus.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return err
	}
	o.Logger.SetLevel(level)
	o.Logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if format := v.GetString(KeyFormat); !lo.Contains(ValidFormats, format) {
		return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
	}
	return nil
}

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "minrx %s\n", Version)
	return err
}
