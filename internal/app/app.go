package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/engine"
	"github.com/vk/aether/internal/metrics"
	"github.com/vk/aether/internal/registry"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/modules/root"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	ctx      context.Context
	config   *Config
	registry *registry.Registry
	metrics  *metrics.Metrics
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Manifest and registry errors are programmer errors and panic.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.LoadManifests(ctx, cfg.ModulesPath); err != nil {
		panic(fmt.Errorf("failed to load manifests: %w", err))
	}
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.", "types", reg.TypeNames())

	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		registry: reg,
		metrics:  metrics.New(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Metrics returns the application's collectors.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Seed is the root context every engine starts from.
func Seed(bounds surface.Region) map[string]any {
	return map[string]any{root.BoundsKey: bounds}
}

// newEngine builds an engine drawing into a fresh recorder sized from the
// configuration. With logFrames, every flush is logged and the recorder is
// cleared afterwards.
func (a *App) newEngine(ctx context.Context, notify comms.Sender[comms.Notification], journal engine.Recorder, fps int, logFrames bool) (*engine.Engine, *surface.Recorder, error) {
	bounds := surface.Region{Width: float64(a.config.Width), Height: float64(a.config.Height)}
	rec := surface.NewRecorder(bounds)
	observers := schedulerObservers{a.metrics}
	if logFrames {
		observers = append(observers, &frameLog{rec: rec, logger: ctxlog.FromContext(ctx)})
	}
	eng, err := engine.New(ctx, a.registry, rec, notify, engine.Options{
		Mode:              a.config.TreeMode(),
		FPS:               fps,
		Seed:              Seed(bounds),
		Journal:           journal,
		Observer:          a.metrics,
		TreeObserver:      a.metrics,
		SchedulerObserver: observers,
	})
	if err != nil {
		return nil, nil, err
	}
	return eng, rec, nil
}
