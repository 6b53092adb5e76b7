package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
)

// LoadApp loads id from the latest manifest. An already loaded id is returned
// without fetching, and concurrent calls for one id share a single load. The
// load itself is not cancelled by ctx; ctx only bounds this caller's wait.
func (m *Manager) LoadApp(ctx context.Context, id string) (*loader.App, error) {
	m.mu.Lock()
	meta, ok := m.available.Lookup(id)
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, id)
	}
	if app, ok := m.loaded[id]; ok {
		m.mu.Unlock()
		return app, nil
	}
	p, ok := m.inflight[id]
	if !ok {
		p = &pendingLoad{epoch: m.epoch, bundleURL: meta.BundleURL, done: make(chan struct{})}
		m.inflight[id] = p
		go m.runLoad(context.WithoutCancel(ctx), meta, p)
	}
	m.mu.Unlock()

	select {
	case <-p.done:
		return p.app, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) runLoad(ctx context.Context, meta manifest.App, p *pendingLoad) {
	id := meta.ID
	app, err := m.loader.Load(ctx, meta)

	m.mu.Lock()
	if m.inflight[id] == p {
		delete(m.inflight, id)
	}
	if err == nil {
		current, ok := m.available.Lookup(id)
		if p.epoch != m.epoch || !ok || current.BundleURL != meta.BundleURL {
			m.log.Info("Discarding stale load",
				zap.String("app_id", id),
				zap.Uint64("load_epoch", p.epoch),
				zap.Uint64("epoch", m.epoch),
			)
			if m.metrics != nil {
				m.metrics.RecordStale("load")
			}
			_ = app.Close()
			app, err = nil, fmt.Errorf("%w: %s", ErrStaleLoad, id)
		} else {
			m.loaded[id] = app
			m.updateSizeLocked()
			m.publishLocked(EventLoaded, id, "")
		}
	}
	p.app, p.err = app, err
	close(p.done)
	m.mu.Unlock()
}
