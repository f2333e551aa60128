// Package app holds the long-lived services of one file2text process and
// builds the per-operation progress consumers that feed them.
package app

import (
	"context"
	"errors"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/file2text/internal/api"
	"github.com/JakeFAU/file2text/internal/config"
	"github.com/JakeFAU/file2text/internal/metrics"
	"github.com/JakeFAU/file2text/internal/progress"
	"github.com/JakeFAU/file2text/internal/progress/consumers"
	pubsubpublisher "github.com/JakeFAU/file2text/internal/publisher/pubsub"
	"github.com/JakeFAU/file2text/internal/telemetry"
)

// Version is stamped on trace resources. Override with -ldflags -X.
var Version = "dev"

// Publisher is a closable completion notice sink.
type Publisher interface {
	consumers.Publisher
	Close() error
}

// App is the dependency container shared by the CLI commands.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracker   *api.Tracker
	publisher Publisher
	tracer    *sdktrace.TracerProvider
}

// Option overrides a service New would otherwise build from configuration.
type Option func(*App)

// WithPublisher replaces the configured Pub/Sub publisher.
func WithPublisher(p Publisher) Option {
	return func(a *App) {
		a.publisher = p
	}
}

// New wires the services cfg asks for. A Pub/Sub client is dialled only when
// pubsub.project_id is set and no publisher was injected.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		tracker: api.NewTracker(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Version:     Version,
			ProjectID:   cfg.Tracing.ProjectID,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.tracer = tp
	}
	if a.publisher == nil && cfg.PubSub.ProjectID != "" {
		p, err := pubsubpublisher.Dial(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		logger.Info("publishing completion notices",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.Topic),
		)
		a.publisher = p
	}
	return a, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Metrics returns the process registry and service counters.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Tracker returns the snapshot index served by the status API.
func (a *App) Tracker() *api.Tracker { return a.tracker }

// Consumers builds the service-backed consumers for one operation: a
// Prometheus gauge set, the status API snapshot and, when a publisher is
// configured, completion notices. ctx bounds the publish calls.
func (a *App) Consumers(ctx context.Context, operationID string) ([]progress.Consumer, error) {
	prom, err := consumers.NewPrometheus(a.metrics.Registry(), operationID)
	if err != nil {
		return nil, err
	}
	out := []progress.Consumer{prom, a.tracker.Track(operationID)}
	if a.publisher != nil {
		out = append(out, consumers.NewCompletionPublisher(ctx, a.publisher, a.cfg.PubSub.Topic, operationID))
	}
	return out, nil
}

// Serve runs the status server until ctx ends. It returns immediately when no
// status address is configured.
func (a *App) Serve(ctx context.Context) error {
	if a.cfg.Status.Addr == "" {
		return nil
	}
	srv := api.NewServer(a.tracker, a.metrics, a.logger.Named("api"))
	return srv.Run(ctx, a.cfg.Status.Addr)
}

// Close releases the publisher, flushes pending spans and the logger.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	// Sync fails on terminals (ENOTTY/EINVAL); that is not worth reporting.
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	return errors.Join(errs...)
}
