package http

import (
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
	"github.com/GriffinCanCode/SuperApp/backend/internal/registry"
	"github.com/GriffinCanCode/SuperApp/backend/internal/utils"
)

// BreakerReporter reports circuit breaker states by upstream host.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *registry.Manager
	log      *zap.Logger
	metrics  *monitoring.Metrics
	breakers BreakerReporter
}

// NewHandlers creates a new handler set
func NewHandlers(reg *registry.Manager, log *zap.Logger, metrics *monitoring.Metrics) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		registry: reg,
		log:      log,
		metrics:  metrics,
	}
}

// WithBreakers adds upstream breaker states to /health and /stats
func (h *Handlers) WithBreakers(b BreakerReporter) *Handlers {
	h.breakers = b
	return h
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/state", h.State)
	r.GET("/stats", h.Stats)

	r.GET("/apps", h.ListApps)
	r.POST("/apps/refresh", h.Refresh)
	r.POST("/apps/:id/load", h.LoadApp)
	r.GET("/apps/:id/props", h.GetProps)
	r.PATCH("/apps/:id/props", h.PatchProps)
	r.POST("/apps/:id/render", h.Render)
	r.GET("/apps/:id/console", h.Console)

	r.GET("/current", h.GetCurrent)
	r.PUT("/current", h.SetCurrent)
	r.PUT("/source", h.SetSource)

	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)

	r.POST("/logs", h.StreamLogs)
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "super-app shell",
		"session_id": h.registry.SessionID(),
		"registry":   h.registry.Stats(),
		"breakers":   h.breakerStates(),
	})
}

// State returns a consistent snapshot of the registry
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Snapshot())
}

// Stats returns registry counters and upstream breaker states
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"registry": h.registry.Stats(),
		"breakers": h.breakerStates(),
	})
}

func (h *Handlers) breakerStates() map[string]string {
	if h.breakers == nil {
		return map[string]string{}
	}
	return h.breakers.BreakerStates()
}

type appView struct {
	manifest.App
	Loaded   bool     `json:"loaded"`
	Degraded []string `json:"degraded,omitempty"`
}

// ListApps lists the apps of the latest manifest with their load status
func (h *Handlers) ListApps(c *gin.Context) {
	available := h.registry.AvailableApps()
	loaded := h.registry.LoadedApps()

	apps := make([]appView, 0, len(available))
	for _, meta := range available {
		view := appView{App: meta}
		if app, ok := loaded[meta.ID]; ok {
			view.Loaded = true
			view.Degraded = app.Degraded
		}
		apps = append(apps, view)
	}

	current, _ := h.registry.CurrentApp()
	c.JSON(http.StatusOK, gin.H{
		"apps":    apps,
		"current": current,
		"stats":   h.registry.Stats(),
	})
}

// Refresh fetches the manifest now instead of waiting for the next tick
func (h *Handlers) Refresh(c *gin.Context) {
	if err := h.registry.Refresh(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.registry.Snapshot())
}

// LoadApp loads a micro-app's bundle, or returns the already loaded one
func (h *Handlers) LoadApp(c *gin.Context) {
	id, ok := appID(c)
	if !ok {
		return
	}
	app, err := h.registry.LoadApp(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loadedView(app))
}

// GetProps returns the merged props of an app
func (h *Handlers) GetProps(c *gin.Context) {
	id, ok := appID(c)
	if !ok {
		return
	}
	props, err := h.registry.AppProps(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"app_id": id, "props": props})
}

// PatchProps shallow-merges the request body into an app's prop overrides
func (h *Handlers) PatchProps(c *gin.Context) {
	id, ok := appID(c)
	if !ok {
		return
	}
	var patch map[string]any
	if !bindProps(c, &patch) {
		return
	}

	if err := h.registry.SetAppProps(id, patch); err != nil {
		h.fail(c, err)
		return
	}
	props, err := h.registry.AppProps(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"app_id": id, "props": props})
}

// Render loads the app if needed and renders its component with the merged
// props plus any one-off props from the request body
func (h *Handlers) Render(c *gin.Context) {
	id, ok := appID(c)
	if !ok {
		return
	}
	var extra map[string]any
	if c.Request.ContentLength != 0 && !bindProps(c, &extra) {
		return
	}

	props, err := h.registry.AppProps(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	maps.Copy(props, extra)

	ctx := c.Request.Context()
	app, err := h.registry.LoadApp(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	tree, err := app.Render(ctx, props)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"app_id": id,
		"props":  props,
		"tree":   tree,
	})
}

// Console returns what an app's bundle wrote to its console
func (h *Handlers) Console(c *gin.Context) {
	id, ok := appID(c)
	if !ok {
		return
	}
	app, ok := h.registry.LoadedApp(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "app is not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"app_id": id, "entries": app.Console()})
}

// GetCurrent returns the selected app id, or null
func (h *Handlers) GetCurrent(c *gin.Context) {
	id, ok := h.registry.CurrentApp()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type currentRequest struct {
	ID *string `json:"id"`
}

// SetCurrent selects an app; {"id": null} returns to the grid
func (h *Handlers) SetCurrent(c *gin.Context) {
	var req currentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ID != nil {
		if err := utils.ValidateID(*req.ID, "id"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.registry.SetCurrentApp(req.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID})
}

type sourceRequest struct {
	Source string `json:"source" binding:"required"`
}

// SetSource switches the preferred manifest base
func (h *Handlers) SetSource(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source is required"})
		return
	}
	base, ok := manifest.ParseBase(req.Source)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be primary or fallback"})
		return
	}
	h.registry.SwitchSource(base)
	c.JSON(http.StatusAccepted, gin.H{"source": base})
}

type loginRequest struct {
	Token string `json:"token" binding:"required"`
}

// Login stores the session token and schedules a refresh
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if err := h.registry.Authenticate(req.Token); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"authenticated": true})
}

// Logout clears the session token and the registry state
func (h *Handlers) Logout(c *gin.Context) {
	h.registry.Logout()
	c.JSON(http.StatusAccepted, gin.H{"authenticated": false})
}

// appID validates the :id path parameter and answers 400 when it is malformed.
func appID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id, "app_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

func bindProps(c *gin.Context, props *map[string]any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxRequestSize)
	if err := c.ShouldBindJSON(props); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "props must be a JSON object"})
		return false
	}
	if err := utils.ValidateProps(*props); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

type loadedResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Version  string    `json:"version,omitempty"`
	Degraded []string  `json:"degraded,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

func loadedView(app *loader.App) loadedResponse {
	return loadedResponse{
		ID:       app.Metadata.ID,
		Name:     app.Metadata.Name,
		Version:  app.Metadata.Version,
		Degraded: slices.Clone(app.Degraded),
		LoadedAt: app.LoadedAt,
	}
}
