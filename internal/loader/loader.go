package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
	"github.com/GriffinCanCode/SuperApp/backend/internal/sandbox"
)

// BundleFetcher downloads module source and probes for module existence.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, rawURL string) (string, error)
	Exists(ctx context.Context, rawURL string) bool
}

// Options configures a Loader.
type Options struct {
	Extensions    []string
	AllowPatterns []string
	// Timeout bounds fetching and evaluating one app; zero means none.
	Timeout time.Duration
	Sandbox sandbox.Config
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	// NewEvaluator overrides how the per-app runtime is created.
	NewEvaluator func(sandbox.Config) (sandbox.Evaluator, error)
}

// Loader fetches and evaluates micro-app bundles.
type Loader struct {
	fetcher BundleFetcher
	opts    Options
	log     *zap.Logger
}

// New creates a loader.
func New(fetcher BundleFetcher, opts Options) *Loader {
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".js", ".jsx", ".ts", ".tsx"}
	}
	if len(opts.AllowPatterns) == 0 {
		opts.AllowPatterns = []string{"**"}
	}
	if opts.NewEvaluator == nil {
		opts.NewEvaluator = func(cfg sandbox.Config) (sandbox.Evaluator, error) {
			return sandbox.New(cfg)
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Sandbox.Logger == nil {
		opts.Sandbox.Logger = log
	}

	return &Loader{
		fetcher: fetcher,
		opts:    opts,
		log:     log,
	}
}

// Load fetches meta's bundle, evaluates it with a fresh module cache and
// returns the loaded app. On error nothing is retained.
func (l *Loader) Load(ctx context.Context, meta manifest.App) (*App, error) {
	start := time.Now()
	app, err := l.load(ctx, meta)
	if l.opts.Metrics != nil {
		l.opts.Metrics.RecordAppLoad(loadOutcome(err), time.Since(start))
	}
	if err != nil {
		l.log.Error("Failed to load micro-app",
			zap.String("app_id", meta.ID),
			zap.String("bundle_url", meta.BundleURL),
			zap.Error(err),
		)
		return nil, err
	}

	l.log.Info("Loaded micro-app",
		zap.String("app_id", meta.ID),
		zap.Int("degraded_imports", len(app.Degraded)),
		zap.Duration("took", time.Since(start)),
	)
	return app, nil
}

func (l *Loader) load(ctx context.Context, meta manifest.App) (*App, error) {
	if err := l.allowed(meta.BundleURL); err != nil {
		return nil, err
	}

	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	source, err := l.fetcher.FetchBundle(ctx, meta.BundleURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBundleFetchFailed, meta.ID, err)
	}

	ev, err := l.opts.NewEvaluator(l.opts.Sandbox)
	if err != nil {
		return nil, fmt.Errorf("create sandbox for %s: %w", meta.ID, err)
	}

	graph := newModuleGraph(ctx, l, meta.ID, meta.BundleURL)
	mod, err := ev.Evaluate(ctx, meta.BundleURL, source, graph.require)
	if err != nil {
		_ = ev.Close()
		return nil, fmt.Errorf("load %s: %w", meta.ID, err)
	}

	return &App{
		Metadata: meta,
		Degraded: graph.degraded,
		LoadedAt: time.Now(),
		ev:       ev,
		module:   mod,
		log:      l.log,
		metrics:  l.opts.Metrics,
	}, nil
}

func loadOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrBundleNotAllowed):
		return "not_allowed"
	case errors.Is(err, ErrBundleFetchFailed):
		return "fetch_failed"
	case errors.Is(err, ErrUnknownDependency):
		return "unknown_dependency"
	case errors.Is(err, ErrInvalidComponentExport):
		return "invalid_export"
	default:
		return "error"
	}
}
