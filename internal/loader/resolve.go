package loader

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var extPattern = regexp.MustCompile(`\.[^/.]+$`)

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// resolveRelative resolves specifier against the directory of from and, when
// the result lacks a known extension, probes each extension in order. The
// first reachable candidate wins; with none reachable the first extension is
// appended.
func (l *Loader) resolveRelative(ctx context.Context, from, specifier string) (string, error) {
	base, err := url.Parse(from)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", from, err)
	}
	ref, err := url.Parse(specifier)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", specifier, err)
	}
	target := base.ResolveReference(ref)
	target.RawQuery = ""
	target.Fragment = ""

	if l.hasExtension(target.Path) {
		return target.String(), nil
	}

	stem := target.Path
	for _, ext := range l.opts.Extensions {
		target.Path = stem + ext
		candidate := target.String()
		if l.fetcher.Exists(ctx, candidate) {
			return candidate, nil
		}
	}
	target.Path = stem + l.opts.Extensions[0]
	return target.String(), nil
}

func (l *Loader) hasExtension(p string) bool {
	for _, ext := range l.opts.Extensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// allowed matches host/path of rawURL against the configured glob patterns.
func (l *Loader) allowed(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBundleNotAllowed, err)
	}
	subject := u.Host + u.Path
	for _, pattern := range l.opts.AllowPatterns {
		if ok, _ := doublestar.Match(pattern, subject); ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrBundleNotAllowed, rawURL)
}

// stubName is the export key a stub carries besides default: the last path
// segment of the specifier without its extension.
func stubName(specifier string) string {
	return extPattern.ReplaceAllString(path.Base(specifier), "")
}
