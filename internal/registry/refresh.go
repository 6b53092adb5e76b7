package registry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
)

// Refresh fetches the manifest for the current auth state and reconciles the
// registry with it. A fetch failure hard-resets the state and returns the
// error. A result superseded by a later-launched refresh returns
// ErrStaleRefresh and changes nothing. A refresh abandoned through ctx returns
// the context error and also changes nothing.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.launched++
	seq := m.launched
	token := m.token
	m.mu.Unlock()

	start := time.Now()
	res, fetchErr := m.manifests.Fetch(ctx, token)

	if fetchErr != nil && ctx.Err() != nil {
		m.log.Debug("Manifest refresh abandoned", zap.Uint64("seq", seq), zap.Error(fetchErr))
		return ctx.Err()
	}

	m.mu.Lock()
	if seq <= m.applied {
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.RecordStale("refresh")
		}
		if res != nil {
			m.log.Debug("Discarding superseded manifest", zap.Uint64("seq", seq), zap.String("url", res.URL))
		}
		return ErrStaleRefresh
	}
	m.applied = seq

	if fetchErr != nil {
		m.lastErr = fetchErr.Error()
		m.refreshed = time.Now()
		closing := m.resetLocked("manifest_unavailable")
		m.mu.Unlock()

		closeApps(closing)
		if m.metrics != nil {
			m.metrics.RecordManifestRefresh("failure", "", time.Since(start))
		}
		m.log.Error("Manifest refresh failed", zap.Error(fetchErr))
		return fetchErr
	}

	closing := m.applyLocked(res)
	m.mu.Unlock()

	closeApps(closing)
	if m.metrics != nil {
		m.metrics.RecordManifestRefresh("success", string(res.Variant), time.Since(start))
	}
	return nil
}

// applyLocked installs a fetched manifest: loaded apps whose ids vanished are
// evicted and a vanished selection is cleared.
func (m *Manager) applyLocked(res *manifest.Result) []*loader.App {
	ids := res.Manifest.IDSet()

	var closing []*loader.App
	for id, app := range m.loaded {
		if _, ok := ids[id]; ok {
			continue
		}
		delete(m.loaded, id)
		closing = append(closing, app)
		m.publishLocked(EventUnloaded, id, "removed from manifest")
	}
	if m.current != nil {
		if _, ok := ids[*m.current]; !ok {
			m.log.Info("Selected app left the manifest", zap.String("app_id", *m.current))
			m.current = nil
			m.publishLocked(EventSelected, "", "")
		}
	}

	for id, p := range m.inflight {
		if meta, ok := res.Manifest.Lookup(id); !ok || meta.BundleURL != p.bundleURL {
			delete(m.inflight, id)
		}
	}

	m.available = res.Manifest
	m.variant = res.Variant
	m.sourceURL = res.URL
	m.refreshed = res.FetchedAt
	m.lastErr = ""

	m.updateSizeLocked()
	m.publishLocked(EventRefreshed, "", string(res.Variant))
	m.log.Debug("Manifest applied",
		zap.String("variant", string(res.Variant)),
		zap.String("url", res.URL),
		zap.Strings("apps", res.Manifest.IDs()),
		zap.Int("evicted", len(closing)),
	)
	return closing
}

// RequestRefresh asks Run to refresh soon. Requests coalesce.
func (m *Manager) RequestRefresh(reason string) {
	select {
	case m.triggers <- reason:
	default:
	}
}

// Run refreshes immediately, then on every interval tick and every requested
// refresh, until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if m.interval > 0 {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	m.runRefresh(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			m.runRefresh(ctx, "timer")
		case reason := <-m.triggers:
			m.runRefresh(ctx, reason)
		}
	}
}

func (m *Manager) runRefresh(ctx context.Context, reason string) {
	err := m.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleRefresh):
		m.log.Debug("Refresh superseded", zap.String("trigger", reason))
	case ctx.Err() != nil:
	default:
		m.log.Warn("Refresh left the registry empty", zap.String("trigger", reason), zap.Error(err))
	}
}
