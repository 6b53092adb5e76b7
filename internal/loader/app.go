package loader

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
	"github.com/GriffinCanCode/SuperApp/backend/internal/sandbox"
)

// App is a loaded micro-app: its metadata and an evaluated component bound to
// the runtime that produced it. An App is never mutated after Load.
type App struct {
	Metadata manifest.App
	// Degraded lists relative modules that were replaced by stubs.
	Degraded []string
	LoadedAt time.Time

	ev      sandbox.Evaluator
	module  *sandbox.Module
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// Render invokes the app's component with props.
func (a *App) Render(ctx context.Context, props map[string]any) (*sandbox.Node, error) {
	if a.ev == nil {
		return nil, sandbox.ErrRuntimeClosed
	}
	start := time.Now()
	node, err := a.ev.Render(ctx, a.module, props)
	if a.metrics != nil {
		a.metrics.RecordRender(time.Since(start))
	}
	if err != nil {
		a.log.Warn("Render failed", zap.String("app_id", a.Metadata.ID), zap.Error(err))
		return nil, err
	}
	return node, nil
}

// Console returns what the bundle wrote to its console.
func (a *App) Console() []sandbox.LogEntry {
	if a.ev == nil {
		return nil
	}
	return a.ev.Console()
}

// Close releases the app's runtime.
func (a *App) Close() error {
	if a.ev == nil {
		return nil
	}
	return a.ev.Close()
}
