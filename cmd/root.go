// Package cmd defines and implements the file2text command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/file2text/internal/app"
	"github.com/JakeFAU/file2text/internal/config"
	"github.com/JakeFAU/file2text/internal/logging"
	"github.com/JakeFAU/file2text/internal/metrics"
	"github.com/JakeFAU/file2text/internal/progress"
)

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App is what commands need from the service container.
type App interface {
	Config() config.Config
	Logger() *zap.Logger
	Metrics() *metrics.Metrics
	Consumers(ctx context.Context, operationID string) ([]progress.Consumer, error)
	Serve(ctx context.Context) error
	Close() error
}

// newApp is the application factory. Tests replace it to inject publishers.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

type cli struct {
	root *cobra.Command
	app  App
}

func newCLI() *cli {
	c := &cli{}
	root := &cobra.Command{
		Use:   "file2text",
		Short: "Turn documents, images and audio into text",
		Long: `file2text converts PDFs, images, audio and text files into plain text.
Long-running work reports progress as a terminal bar, as throttled log lines,
on a Prometheus registry, on a status API and as Pub/Sub completion notices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Config and services are built once the subcommand's flags are parsed.
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.Bool("progress", false, "render progress for long-running work")
	flags.BoolP("verbose", "v", false, "log throttled progress lines and lower the log level to debug")
	flags.String("progress-mode", "auto", "progress renderer: auto, bar, log or none")
	flags.String("log-level", "info", "minimum log level")
	flags.String("status-addr", "", "serve health, metrics and progress on this address")

	root.AddCommand(newScanCmd())
	c.root = root
	return c
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.Logging.Level
	if cfg.Progress.Verbose {
		level = "debug"
	}
	logger, err := logging.New(cfg.Logging.Development, level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	instance, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	c.app = instance
	cmd.SetContext(context.WithValue(cmd.Context(), appKey, instance))
	return nil
}

func (c *cli) execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c.root.SetArgs(args)
	c.root.SetOut(stdout)
	c.root.SetErr(stderr)
	err := c.root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := newCLI().execute(ctx, args, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "file2text: %v\n", err)
		return 1
	}
	return 0
}

func resolveApp(ctx context.Context) (App, error) {
	instance, ok := ctx.Value(appKey).(App)
	if !ok || instance == nil {
		return nil, errors.New("application services not initialized")
	}
	return instance, nil
}
