package loader

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/sandbox"
)

type cacheEntry struct {
	exports goja.Value
	loaded  bool
}

// moduleGraph is the module cache of one Load call. It is only touched from
// inside the sandbox Run that evaluates the entry module.
type moduleGraph struct {
	ctx      context.Context
	l        *Loader
	appID    string
	cache    map[string]*cacheEntry
	degraded []string
}

func newModuleGraph(ctx context.Context, l *Loader, appID, entryURL string) *moduleGraph {
	return &moduleGraph{
		ctx:   ctx,
		l:     l,
		appID: appID,
		cache: map[string]*cacheEntry{entryURL: {}},
	}
}

func (g *moduleGraph) require(s *sandbox.Scope, from, specifier string) (goja.Value, error) {
	if !isRelative(specifier) {
		return s.Resolve(specifier)
	}

	target, err := g.l.resolveRelative(g.ctx, from, specifier)
	if err != nil {
		return g.stub(s, specifier, specifier, err), nil
	}

	if entry, ok := g.cache[target]; ok {
		if entry.loaded {
			return entry.exports, nil
		}
		g.l.log.Debug("Circular import, returning empty exports",
			zap.String("app_id", g.appID),
			zap.String("module", target),
		)
		return s.VM().NewObject(), nil
	}

	entry := &cacheEntry{}
	g.cache[target] = entry

	exports, err := g.evaluate(s, target)
	if err != nil {
		entry.exports = g.stub(s, specifier, target, err)
	} else {
		entry.exports = exports
	}
	entry.loaded = true
	return entry.exports, nil
}

func (g *moduleGraph) evaluate(s *sandbox.Scope, target string) (goja.Value, error) {
	if err := g.l.allowed(target); err != nil {
		return nil, err
	}
	source, err := g.l.fetcher.FetchBundle(g.ctx, target)
	if err != nil {
		return nil, err
	}
	return s.EvaluateModule(target, source, g.require)
}

// stub stands in for a relative module that failed to load.
func (g *moduleGraph) stub(s *sandbox.Scope, specifier, target string, cause error) goja.Value {
	g.degraded = append(g.degraded, target)
	g.l.log.Warn("Relative import failed, substituting empty component",
		zap.String("app_id", g.appID),
		zap.String("specifier", specifier),
		zap.String("module", target),
		zap.Error(fmt.Errorf("%w: %w", ErrRelativeImportFailed, cause)),
	)
	if g.l.opts.Metrics != nil {
		g.l.opts.Metrics.RecordDegradedImport()
	}

	vm := s.VM()
	obj := vm.NewObject()
	noop := s.NoopComponent()
	_ = obj.Set("default", noop)
	if name := stubName(specifier); name != "" && name != "default" {
		_ = obj.Set(name, noop)
	}
	_ = obj.Set("__stub", true)
	return obj
}
