// Package cli holds the smpc command tree: the web server, the terminal UI
// and a few one-shot commands that query the upstream API directly.
package cli

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/giygas/smpc-comparator/config"
	"github.com/giygas/smpc-comparator/fieldnames"
	"github.com/giygas/smpc-comparator/logging"
)

const envFileFlag = "env-file"

// New builds the root command
func New() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "smpc <command> [flags]",
		Short:         "SmPC data comparator",
		Long:          "Browse medicinal product SmPC records and compare two of them field by field.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: heredoc.Doc(`
			$ smpc serve
			$ smpc tui
			$ smpc list --name paracetamol
			$ smpc compare 1042 1043 --only-diff
		`),
	}

	rootCmd.PersistentFlags().String(envFileFlag, ".env", "Environment file read before the configuration")

	rootCmd.AddCommand(
		serveCmd(),
		tuiCmd(),
		listCmd(),
		compareCmd(),
		fieldsCmd(),
		versionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree until it finishes or the process is
// interrupted, and returns the exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := New()
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

// loadConfig reads the env file and the environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString(envFileFlag)
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

// initLogger installs the global logger with console output on w
func initLogger(cfg *config.Config, w io.Writer) (io.Closer, error) {
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Level:          lvl,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
		Console:        w,
	})
}

// setup loads the configuration, the logger and the field label table shared
// by every command.
func setup(cmd *cobra.Command, console io.Writer) (*config.Config, *fieldnames.Registry, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	closer, err := initLogger(cfg, console)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := closer.Close(); err != nil {
			logging.Warn("Failed to close log file", "error", err)
		}
	}

	names := fieldnames.NewRegistry()
	if cfg.FieldNamesFile != "" {
		if err := names.LoadOverrides(cfg.FieldNamesFile); err != nil {
			cleanup()
			return nil, nil, nil, err
		}
	}
	return cfg, names, cleanup, nil
}
