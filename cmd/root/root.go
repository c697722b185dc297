// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/bankflow/internal/config"
	"fjacquet/bankflow/internal/container"
	"fjacquet/bankflow/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

var (
	// SharedFlags holds the persistent flags.
	SharedFlags = CommonFlags{}

	app *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "bankflow",
		Short: "Import bank CSV exports and categorize transactions.",
		Long: `bankflow imports bank-exported CSV files, normalizes dates, amounts and
directions, assigns every transaction a two-level category and skips
transactions that were already imported.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app != nil {
				return nil
			}
			return setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return Close()
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in $HOME/.bankflow, .bankflow or .)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format override (text, json)")
}

func setup(cmd *cobra.Command) error {
	if _, err := config.LoadEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.InitializeConfigFrom(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = SharedFlags.LogFormat
	}

	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
	c, err := container.NewContainer(cmd.Context(), cfg, container.WithLogger(logger))
	if err != nil {
		return err
	}
	app = c
	return nil
}

// UseContainer installs a prebuilt container; the next command run uses it
// instead of loading configuration.
func UseContainer(c *container.Container) {
	app = c
}

// Close releases the container if one is open. Cobra skips
// PersistentPostRunE when a command fails, so callers of Execute must
// also call Close.
func Close() error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	return err
}

// Container returns the container built for the running command.
func Container() (*container.Container, error) {
	if app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}
