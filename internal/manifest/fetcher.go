package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrManifestUnavailable is returned when every candidate URL failed.
var ErrManifestUnavailable = errors.New("manifest unavailable")

// TextFetcher retrieves a document over the network.
type TextFetcher interface {
	FetchText(ctx context.Context, rawURL, token string) (string, error)
}

// Options configures a Fetcher.
type Options struct {
	PrimaryBaseURL  string
	FallbackBaseURL string
	Preferred       Base
	FullPath        string
	PublicPath      string
	// VerifyPartition fetches the public document after a full one and
	// checks the two agree. A mismatch is reported, never fatal.
	VerifyPartition bool
	Logger          *zap.Logger
}

// Candidate is one URL the fetcher will try.
type Candidate struct {
	URL     string
	Variant Variant
	Base    Base
}

// Result is a successfully fetched manifest and where it came from.
type Result struct {
	Manifest  *Manifest
	Variant   Variant
	URL       string
	FetchedAt time.Time
	// Dropped lists apps a public document wrongly flagged requiresAuth.
	Dropped []string
	// PartitionErr is set when partition verification found the public
	// document inconsistent with this full one.
	PartitionErr error
}

// Fetcher produces a Manifest from the first working candidate URL. It never
// touches registry state.
type Fetcher struct {
	http TextFetcher
	opts Options
	log  *zap.Logger

	mu        sync.RWMutex
	preferred Base
}

// NewFetcher creates a manifest fetcher.
func NewFetcher(http TextFetcher, opts Options) *Fetcher {
	if opts.FullPath == "" {
		opts.FullPath = "manifest.json"
	}
	if opts.PublicPath == "" {
		opts.PublicPath = "public-manifest.json"
	}
	preferred := opts.Preferred
	if preferred == "" {
		preferred = BasePrimary
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Fetcher{
		http:      http,
		opts:      opts,
		log:       log,
		preferred: preferred,
	}
}

// Preferred returns the base URL tried first.
func (f *Fetcher) Preferred() Base {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.preferred
}

// SetPreferred switches which base URL is tried first.
func (f *Fetcher) SetPreferred(base Base) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preferred = base
}

// Candidates returns the ordered URLs tried for the given auth state: with a
// token the full document at each base, then always the public document at
// each base, preferred base first.
func (f *Fetcher) Candidates(token string) []Candidate {
	bases := f.orderedBases()

	var candidates []Candidate
	if token != "" {
		for _, b := range bases {
			candidates = append(candidates, Candidate{
				URL:     joinURL(b.url, f.opts.FullPath),
				Variant: VariantFull,
				Base:    b.name,
			})
		}
	}
	for _, b := range bases {
		candidates = append(candidates, Candidate{
			URL:     joinURL(b.url, f.opts.PublicPath),
			Variant: VariantPublic,
			Base:    b.name,
		})
	}
	return candidates
}

// Fetch walks the candidates in order and returns the first manifest that
// downloads and parses. The bearer token is only sent to full documents.
// ErrManifestUnavailable means every candidate was tried and failed; a walk
// cut short by ctx returns the bare context error instead.
func (f *Fetcher) Fetch(ctx context.Context, token string) (*Result, error) {
	var causes []error

	for _, c := range f.Candidates(token) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := f.fetchCandidate(ctx, c, token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			f.log.Debug("Manifest candidate failed",
				zap.String("url", c.URL),
				zap.String("variant", string(c.Variant)),
				zap.Error(err),
			)
			causes = append(causes, fmt.Errorf("%s: %w", c.URL, err))
			continue
		}

		result := &Result{
			Manifest:  m,
			Variant:   c.Variant,
			URL:       c.URL,
			FetchedAt: time.Now(),
		}
		if c.Variant == VariantFull && f.opts.VerifyPartition {
			result.PartitionErr = f.verifyPartition(ctx, c, m)
		}
		if c.Variant == VariantPublic {
			result.Dropped = dropAuthRequired(m)
			if len(result.Dropped) > 0 {
				f.log.Warn("Public manifest listed apps that require auth; dropping them",
					zap.String("url", c.URL),
					zap.Strings("app_ids", result.Dropped),
				)
			}
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrManifestUnavailable, errors.Join(causes...))
}

func (f *Fetcher) fetchCandidate(ctx context.Context, c Candidate, token string) (*Manifest, error) {
	if path, ok := filePath(c.URL); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseJSONC(data)
	}

	if c.Variant == VariantPublic {
		token = ""
	}
	body, err := f.http.FetchText(ctx, c.URL, token)
	if err != nil {
		return nil, err
	}
	return Parse([]byte(body))
}

// verifyPartition compares full with the public document of the same base.
// An unreachable public document is logged and skipped.
func (f *Fetcher) verifyPartition(ctx context.Context, c Candidate, full *Manifest) error {
	publicURL := ""
	for _, b := range f.orderedBases() {
		if b.name == c.Base {
			publicURL = joinURL(b.url, f.opts.PublicPath)
		}
	}
	public, err := f.fetchCandidate(ctx, Candidate{URL: publicURL, Variant: VariantPublic, Base: c.Base}, "")
	if err != nil {
		f.log.Debug("Partition check skipped", zap.String("url", publicURL), zap.Error(err))
		return nil
	}
	if err := CheckPartition(full, public); err != nil {
		f.log.Warn("Manifest variants disagree",
			zap.String("full_url", c.URL),
			zap.String("public_url", publicURL),
			zap.Strings("full_ids", full.IDs()),
			zap.Strings("public_ids", public.IDs()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

type namedBase struct {
	name Base
	url  string
}

func (f *Fetcher) orderedBases() []namedBase {
	primary := namedBase{name: BasePrimary, url: f.opts.PrimaryBaseURL}
	fallback := namedBase{name: BaseFallback, url: f.opts.FallbackBaseURL}

	ordered := []namedBase{primary, fallback}
	if f.Preferred() == BaseFallback {
		ordered = []namedBase{fallback, primary}
	}

	bases := ordered[:0]
	seen := make(map[string]struct{})
	for _, b := range ordered {
		if b.url == "" {
			continue
		}
		if _, dup := seen[b.url]; dup {
			continue
		}
		seen[b.url] = struct{}{}
		bases = append(bases, b)
	}
	return bases
}

// dropAuthRequired removes apps flagged requiresAuth in place and returns their ids.
func dropAuthRequired(m *Manifest) []string {
	var dropped []string
	kept := m.Apps[:0]
	for _, app := range m.Apps {
		if app.RequiresAuth {
			dropped = append(dropped, app.ID)
			continue
		}
		kept = append(kept, app)
	}
	m.Apps = kept
	return dropped
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func filePath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return u.Path, true
}
