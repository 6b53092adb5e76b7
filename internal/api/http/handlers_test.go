package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SuperApp/backend/internal/fetch"
	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
	"github.com/GriffinCanCode/SuperApp/backend/internal/registry"
	"github.com/GriffinCanCode/SuperApp/backend/internal/sandbox"
)

const greetingBundle = `
var jsx = require('react/jsx-runtime');
var RN = require('react-native');
exports.default = function (props) {
  return jsx.jsx(RN.Text, { children: props.title + ' / ' + props.theme });
};
`

const lodashBundle = `
var _ = require('lodash');
exports.default = function () { return null; };
`

const publicManifest = `{
  "apps": [
    {"id": "hello", "name": "Hello", "description": "greets", "icon": {"type": "emoji", "value": "👋"},
     "bundleUrl": "%[1]s/bundles/hello.js", "defaultProps": {"title": "Hello", "theme": "light"}},
    {"id": "broken", "name": "Broken", "description": "", "icon": {"type": "emoji", "value": "💥"},
     "bundleUrl": "%[1]s/bundles/broken.js", "defaultProps": {}},
    {"id": "gone", "name": "Gone", "description": "", "icon": {"type": "emoji", "value": "👻"},
     "bundleUrl": "%[1]s/bundles/gone.js", "defaultProps": {}}
  ]
}`

type testEnv struct {
	router   *gin.Engine
	registry *registry.Manager
	host     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var base string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/public-manifest.json":
			fmt.Fprintf(w, publicManifest, base)
		case "/bundles/hello.js":
			w.Write([]byte(greetingBundle))
		case "/bundles/broken.js":
			w.Write([]byte(lodashBundle))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	base = srv.URL

	client := fetch.NewClient(fetch.Options{})
	fetcher := manifest.NewFetcher(client, manifest.Options{PrimaryBaseURL: srv.URL})
	metrics := monitoring.NewMetrics(nil)
	ldr := loader.New(client, loader.Options{Metrics: metrics})

	reg := registry.NewManager(fetcher, ldr, registry.Options{}).WithMetrics(metrics)
	t.Cleanup(reg.Close)
	require.NoError(t, reg.Refresh(context.Background()))

	router := gin.New()
	NewHandlers(reg, nil, metrics).WithBreakers(client).Register(router)
	return &testEnv{router: router, registry: reg, host: strings.TrimPrefix(srv.URL, "http://")}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, env.registry.SessionID(), body["session_id"])
	assert.Equal(t, map[string]any{env.host: "closed"}, body["breakers"])
}

func TestStatsReportsBreakers(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Contains(t, body, "registry")
	assert.Equal(t, map[string]any{env.host: "closed"}, body["breakers"])

	// A handler set without a reporter still answers with an empty map.
	router := gin.New()
	NewHandlers(env.registry, nil, nil).Register(router)
	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{}, decode(t, rec)["breakers"])
}

func TestListAppsReportsLoadStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/apps", "")
	require.Equal(t, http.StatusOK, w.Code)
	apps := decode(t, w)["apps"].([]any)
	require.Len(t, apps, 3)
	assert.Equal(t, "hello", apps[0].(map[string]any)["id"])
	assert.Equal(t, false, apps[0].(map[string]any)["loaded"])

	require.Equal(t, http.StatusOK, env.do("POST", "/apps/hello/load", "").Code)

	apps = decode(t, env.do("GET", "/apps", ""))["apps"].([]any)
	assert.Equal(t, true, apps[0].(map[string]any)["loaded"])
	assert.Equal(t, false, apps[1].(map[string]any)["loaded"])
}

func TestLoadAppErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantError  string
	}{
		{name: "malformed id", id: "bad%20id", wantStatus: http.StatusBadRequest, wantError: "invalid input"},
		{name: "unknown id", id: "missing", wantStatus: http.StatusNotFound, wantError: "unknown app"},
		{name: "unknown dependency", id: "broken", wantStatus: http.StatusUnprocessableEntity, wantError: "lodash"},
		{name: "bundle not found", id: "gone", wantStatus: http.StatusBadGateway, wantError: "bundle fetch failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/apps/"+tt.id+"/load", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, decode(t, w)["error"], tt.wantError)
		})
	}

	// failures leave the registry untouched
	assert.Empty(t, env.registry.LoadedApps())
}

func TestPropsPatchAndRender(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("PATCH", "/apps/hello/props", `{"theme": "dark"}`)
	require.Equal(t, http.StatusOK, w.Code)
	props := decode(t, w)["props"].(map[string]any)
	assert.Equal(t, "Hello", props["title"])
	assert.Equal(t, "dark", props["theme"])

	w = env.do("POST", "/apps/hello/render", `{"title": "Hi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tree := decode(t, w)["tree"].(map[string]any)
	assert.Equal(t, "Text", tree["type"])
	assert.Contains(t, w.Body.String(), "Hi / dark")

	// one-off render props are not stored
	w = env.do("GET", "/apps/hello/props", "")
	assert.Equal(t, "Hello", decode(t, w)["props"].(map[string]any)["title"])

	w = env.do("PATCH", "/apps/hello/props", `["not", "an", "object"]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PATCH", "/apps/missing/props", `{"a": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenderWithoutBodyLoadsApp(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/apps/hello/render", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Hello / light")

	_, loaded := env.registry.LoadedApp("hello")
	assert.True(t, loaded)

	w = env.do("GET", "/apps/hello/console", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do("GET", "/apps/gone/console", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrentApp(t *testing.T) {
	env := newTestEnv(t)

	assert.Nil(t, decode(t, env.do("GET", "/current", ""))["id"])

	w := env.do("PUT", "/current", `{"id": "hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", decode(t, env.do("GET", "/current", ""))["id"])

	w = env.do("PUT", "/current", `{"id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "hello", decode(t, env.do("GET", "/current", ""))["id"])

	w = env.do("PUT", "/current", `{"id": null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, env.do("GET", "/current", ""))["id"])
}

func TestAuthAndSource(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/auth/login", `{}`).Code)

	w := env.do("POST", "/auth/login", `{"token": "secret"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, env.registry.IsAuthenticated())

	require.Equal(t, http.StatusOK, env.do("POST", "/apps/hello/load", "").Code)
	w = env.do("POST", "/auth/logout", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.False(t, env.registry.IsAuthenticated())
	assert.Empty(t, env.registry.LoadedApps())
	assert.Empty(t, env.registry.AvailableApps())

	assert.Equal(t, http.StatusBadRequest, env.do("PUT", "/source", `{"source": "secondary"}`).Code)
	w = env.do("PUT", "/source", `{"source": "fallback"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, manifest.BaseFallback, env.registry.Source())
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/apps/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	state := decode(t, w)
	assert.Len(t, state["available_apps"], 3)
	assert.Equal(t, "public", state["variant"])
}

func TestStreamLogs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/logs", `{"entries": [{"level": "error", "message": "boundary caught", "app_id": "hello"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["entries_received"])

	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/logs", `{"entries": []}`).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", registry.ErrUnknownApp), http.StatusNotFound},
		{registry.ErrStaleLoad, http.StatusConflict},
		{fmt.Errorf("%w: %w", loader.ErrBundleFetchFailed, errors.New("dial")), http.StatusBadGateway},
		{manifest.ErrManifestUnavailable, http.StatusBadGateway},
		{&sandbox.UnknownDependencyError{Name: "lodash"}, http.StatusUnprocessableEntity},
		{sandbox.ErrInvalidComponentExport, http.StatusUnprocessableEntity},
		{loader.ErrBundleNotAllowed, http.StatusForbidden},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
