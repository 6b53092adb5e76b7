package registry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/SuperApp/backend/internal/fetch"
	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
)

// documents serves manifest bodies by URL for manifest.Fetcher.
type documents struct {
	mu     sync.Mutex
	bodies map[string]string
	tokens map[string]string
}

func newDocuments() *documents {
	return &documents{bodies: map[string]string{}, tokens: map[string]string{}}
}

func (d *documents) set(url, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bodies[url] = body
}

func (d *documents) remove(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bodies, url)
}

func (d *documents) FetchText(_ context.Context, url, token string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokens[url] = token
	body, ok := d.bodies[url]
	if !ok {
		return "", &fetch.StatusError{URL: url, StatusCode: http.StatusNotFound}
	}
	return body, nil
}

const (
	fullURL   = "http://apps.test/manifest.json"
	publicURL = "http://apps.test/public-manifest.json"
)

func newFetcher(docs *documents) *manifest.Fetcher {
	return manifest.NewFetcher(docs, manifest.Options{PrimaryBaseURL: "http://apps.test"})
}

func manifestJSON(ids ...string) string {
	body := `{"apps":[`
	for i, id := range ids {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"id":%q,"name":%q,"bundleUrl":"http://apps.test/%s/index.js","defaultProps":{"title":%q,"theme":"light"}}`, id, id, id, id)
	}
	return body + `]}`
}

// fakeLoader counts loads per id and can hold loads until released.
type fakeLoader struct {
	mu    sync.Mutex
	calls map[string]int
	gate  chan struct{}
	fail  map[string]error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{calls: map[string]int{}, fail: map[string]error{}}
}

func (f *fakeLoader) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

func (f *fakeLoader) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.gate)
	f.gate = nil
}

func (f *fakeLoader) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeLoader) Load(_ context.Context, meta manifest.App) (*loader.App, error) {
	f.mu.Lock()
	f.calls[meta.ID]++
	gate := f.gate
	err := f.fail[meta.ID]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &loader.App{Metadata: meta, LoadedAt: time.Now()}, nil
}

// scriptedSource returns results from a per-call script, for ordering tests.
type scriptedSource struct {
	mu        sync.Mutex
	calls     int
	script    func(call int, token string) (*manifest.Result, error)
	preferred manifest.Base
}

func (s *scriptedSource) Fetch(_ context.Context, token string) (*manifest.Result, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.script(call, token)
}

func (s *scriptedSource) Preferred() manifest.Base {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preferred == "" {
		return manifest.BasePrimary
	}
	return s.preferred
}

func (s *scriptedSource) SetPreferred(b manifest.Base) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferred = b
}

func resultFor(ids ...string) *manifest.Result {
	m, err := manifest.Parse([]byte(manifestJSON(ids...)))
	if err != nil {
		panic(err)
	}
	return &manifest.Result{Manifest: m, Variant: manifest.VariantPublic, URL: publicURL, FetchedAt: time.Now()}
}

func ptr(s string) *string { return &s }
