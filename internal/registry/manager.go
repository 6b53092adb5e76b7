package registry

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
)

// ManifestSource fetches the manifest for a given auth state.
type ManifestSource interface {
	Fetch(ctx context.Context, token string) (*manifest.Result, error)
	Preferred() manifest.Base
	SetPreferred(base manifest.Base)
}

// AppLoader turns manifest entries into loaded apps.
type AppLoader interface {
	Load(ctx context.Context, meta manifest.App) (*loader.App, error)
}

// Options configures a Manager.
type Options struct {
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

type pendingLoad struct {
	epoch     uint64
	bundleURL string
	done      chan struct{}
	app       *loader.App
	err       error
}

// Manager owns the registry state
type Manager struct {
	mu        sync.RWMutex
	available *manifest.Manifest        // Protected by mu
	variant   manifest.Variant          // Protected by mu
	sourceURL string                    // Protected by mu
	loaded    map[string]*loader.App    // Protected by mu
	current   *string                   // Protected by mu
	props     map[string]map[string]any // Protected by mu
	token     string                    // Protected by mu
	inflight  map[string]*pendingLoad   // Protected by mu
	epoch     uint64                    // Protected by mu
	launched  uint64                    // Protected by mu
	applied   uint64                    // Protected by mu
	refreshed time.Time                 // Protected by mu
	lastErr   string                    // Protected by mu

	sessionID string
	manifests ManifestSource
	loader    AppLoader
	interval  time.Duration
	triggers  chan string
	events    *broker
	log       *zap.Logger
	metrics   *monitoring.Metrics
}

// NewManager creates an empty registry.
func NewManager(manifests ManifestSource, apps AppLoader, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Manager{
		available: emptyManifest(),
		loaded:    make(map[string]*loader.App),
		props:     make(map[string]map[string]any),
		inflight:  make(map[string]*pendingLoad),
		sessionID: uuid.NewString(),
		manifests: manifests,
		loader:    apps,
		interval:  opts.RefreshInterval,
		triggers:  make(chan string, 1),
		events:    newBroker(),
		log:       log,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// SessionID identifies this registry instance.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Authenticate stores token and schedules a refresh for the full manifest.
func (m *Manager) Authenticate(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	m.mu.Lock()
	m.token = token
	m.invalidateRefreshesLocked()
	m.publishLocked(EventAuth, "", "login")
	m.mu.Unlock()

	m.log.Info("Session authenticated")
	m.RequestRefresh("login")
	return nil
}

// Logout clears the token and hard-resets the state in one step, then
// schedules a refresh for the public manifest.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.invalidateRefreshesLocked()
	closing := m.resetLocked("logout")
	m.publishLocked(EventAuth, "", "logout")
	m.mu.Unlock()

	closeApps(closing)
	m.log.Info("Session logged out")
	m.RequestRefresh("logout")
}

// IsAuthenticated reports whether a token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// SwitchSource changes which manifest base is tried first and schedules a
// refresh. Refreshes launched against the old base are discarded.
func (m *Manager) SwitchSource(base manifest.Base) {
	m.manifests.SetPreferred(base)

	m.mu.Lock()
	m.invalidateRefreshesLocked()
	m.publishLocked(EventSource, "", string(base))
	m.mu.Unlock()

	m.RequestRefresh("source")
}

// Source returns the preferred manifest base.
func (m *Manager) Source() manifest.Base {
	return m.manifests.Preferred()
}

// AvailableApps returns the apps of the latest manifest in order.
func (m *Manager) AvailableApps() []manifest.App {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.available.Apps)
}

// LoadedApps returns the loaded apps by id.
func (m *Manager) LoadedApps() map[string]*loader.App {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.loaded)
}

// LoadedApp returns one loaded app.
func (m *Manager) LoadedApp(id string) (*loader.App, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.loaded[id]
	return app, ok
}

// SetCurrentApp selects id, or clears the selection when id is nil.
func (m *Manager) SetCurrentApp(id *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == nil {
		m.current = nil
		m.publishLocked(EventSelected, "", "")
		return nil
	}
	if _, ok := m.available.Lookup(*id); !ok {
		return ErrUnknownApp
	}
	selected := *id
	m.current = &selected
	m.publishLocked(EventSelected, selected, "")
	return nil
}

// CurrentApp returns the selected app id.
func (m *Manager) CurrentApp() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	return *m.current, true
}

// SetAppProps shallow-merges props into id's overrides.
func (m *Manager) SetAppProps(id string, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.available.Lookup(id); !ok {
		return ErrUnknownApp
	}
	overrides := m.props[id]
	if overrides == nil {
		overrides = make(map[string]any, len(props))
		m.props[id] = overrides
	}
	maps.Copy(overrides, props)
	m.publishLocked(EventProps, id, "")
	return nil
}

// AppProps returns id's default props with its overrides merged on top.
func (m *Manager) AppProps(id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.available.Lookup(id)
	if !ok {
		return nil, ErrUnknownApp
	}
	merged := make(map[string]any, len(app.DefaultProps)+len(m.props[id]))
	maps.Copy(merged, app.DefaultProps)
	maps.Copy(merged, m.props[id])
	return merged, nil
}

// Subscribe returns a channel of state changes and a function that ends the
// subscription.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.events.subscribe()
}

// Close releases every loaded runtime.
func (m *Manager) Close() {
	m.mu.Lock()
	closing := m.resetLocked("shutdown")
	m.mu.Unlock()
	closeApps(closing)
}

// resetLocked clears the session state and returns the apps whose runtimes
// the caller must close after unlocking.
func (m *Manager) resetLocked(reason string) []*loader.App {
	closing := make([]*loader.App, 0, len(m.loaded))
	for _, app := range m.loaded {
		closing = append(closing, app)
	}

	m.available = emptyManifest()
	m.variant = ""
	m.sourceURL = ""
	m.loaded = make(map[string]*loader.App)
	m.current = nil
	m.props = make(map[string]map[string]any)
	m.inflight = make(map[string]*pendingLoad)
	m.epoch++

	if m.metrics != nil {
		m.metrics.RecordReset(reason)
	}
	m.updateSizeLocked()
	m.publishLocked(EventReset, "", reason)
	m.log.Warn("Registry state reset", zap.String("reason", reason), zap.Uint64("epoch", m.epoch))
	return closing
}

func (m *Manager) invalidateRefreshesLocked() {
	m.applied = m.launched
}

func (m *Manager) publishLocked(t EventType, appID, detail string) {
	m.events.publish(Event{
		Type:   t,
		AppID:  appID,
		Epoch:  m.epoch,
		Detail: detail,
		Time:   time.Now(),
	})
}

func (m *Manager) updateSizeLocked() {
	if m.metrics != nil {
		m.metrics.SetRegistrySize(len(m.available.Apps), len(m.loaded))
	}
}

func closeApps(apps []*loader.App) {
	for _, app := range apps {
		_ = app.Close()
	}
}

func emptyManifest() *manifest.Manifest {
	return &manifest.Manifest{Apps: []manifest.App{}}
}
