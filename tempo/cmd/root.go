// Package cmd provides the command-line interface for tempo.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables read by the commands. Flags take precedence.
const (
	EnvLogLevel    = "TEMPO_LOG_LEVEL"
	EnvMonitorPort = "TEMPO_MONITOR_PORT"
	EnvOutput      = "TEMPO_OUTPUT"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
	EnvFile  string

	logger *logrus.Logger
}

// Logger returns the logger configured by the root command.
func (o *RootOptions) Logger() *logrus.Logger {
	if o.logger == nil {
		o.logger = logrus.New()
	}

	return o.logger
}

// NewRootCommand creates the root command of the tempo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tempo",
		Short: "tempo runs deterministic time-curve simulations.",
		Long: `tempo runs deterministic time-curve simulations. It can run the ` +
			`bounce demo from a scenario file and replay recorded runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"log level (trace|debug|info|warn|error), overrides "+EnvLogLevel)
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env",
		"file with environment overrides")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.EnvFile != "" {
		err := godotenv.Load(o.EnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	level := o.LogLevel
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	if level == "" {
		level = "info"
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	log := o.Logger()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(parsed)

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers, such as pending recorder flushes, run before
// the process exits.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
