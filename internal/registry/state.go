package registry

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
)

// LoadedInfo summarises a loaded app.
type LoadedInfo struct {
	ID       string    `json:"id"`
	Version  string    `json:"version,omitempty"`
	Degraded []string  `json:"degraded,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// State is a consistent copy of the whole registry.
type State struct {
	SessionID     string                    `json:"session_id"`
	Epoch         uint64                    `json:"epoch"`
	Authenticated bool                      `json:"authenticated"`
	Source        manifest.Base             `json:"source"`
	Variant       manifest.Variant          `json:"variant,omitempty"`
	ManifestURL   string                    `json:"manifest_url,omitempty"`
	Available     []manifest.App            `json:"available_apps"`
	Loaded        []LoadedInfo              `json:"loaded_apps"`
	CurrentApp    *string                   `json:"current_app"`
	AppProps      map[string]map[string]any `json:"app_props"`
	RefreshedAt   time.Time                 `json:"refreshed_at"`
	LastError     string                    `json:"last_error,omitempty"`
}

// Stats holds registry counters for diagnostics.
type Stats struct {
	Available   int    `json:"available"`
	Loaded      int    `json:"loaded"`
	InFlight    int    `json:"in_flight"`
	Epoch       uint64 `json:"epoch"`
	Launched    uint64 `json:"refreshes_launched"`
	Applied     uint64 `json:"refreshes_applied"`
	Subscribers int    `json:"subscribers"`
}

// Snapshot returns every field of the state read under one lock.
func (m *Manager) Snapshot() State {
	source := m.manifests.Preferred()

	m.mu.RLock()
	defer m.mu.RUnlock()

	loaded := make([]LoadedInfo, 0, len(m.loaded))
	for id, app := range m.loaded {
		loaded = append(loaded, LoadedInfo{
			ID:       id,
			Version:  app.Metadata.Version,
			Degraded: slices.Clone(app.Degraded),
			LoadedAt: app.LoadedAt,
		})
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].ID < loaded[j].ID })

	props := make(map[string]map[string]any, len(m.props))
	for id, p := range m.props {
		props[id] = maps.Clone(p)
	}

	var current *string
	if m.current != nil {
		id := *m.current
		current = &id
	}

	return State{
		SessionID:     m.sessionID,
		Epoch:         m.epoch,
		Authenticated: m.token != "",
		Source:        source,
		Variant:       m.variant,
		ManifestURL:   m.sourceURL,
		Available:     slices.Clone(m.available.Apps),
		Loaded:        loaded,
		CurrentApp:    current,
		AppProps:      props,
		RefreshedAt:   m.refreshed,
		LastError:     m.lastErr,
	}
}

// Stats returns registry counters.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Available:   len(m.available.Apps),
		Loaded:      len(m.loaded),
		InFlight:    len(m.inflight),
		Epoch:       m.epoch,
		Launched:    m.launched,
		Applied:     m.applied,
		Subscribers: m.events.count(),
	}
}
