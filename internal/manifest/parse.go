package manifest

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/jsonc"
)

var (
	// ErrInvalidManifest is returned for documents that parse but break the schema.
	ErrInvalidManifest = errors.New("invalid manifest")
)

// displayPolicy strips any markup from strings shown in the host grid.
var displayPolicy = bluemonday.StrictPolicy()

// Parse decodes and validates a JSON manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := sonic.ConfigStd.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.sanitize()
	return &m, nil
}

// ParseJSONC decodes a manifest that may contain comments and trailing commas.
func ParseJSONC(data []byte) (*Manifest, error) {
	return Parse(jsonc.ToJSON(data))
}

// Validate checks the schema invariants consumers rely on.
func (m *Manifest) Validate() error {
	if m.Apps == nil {
		return fmt.Errorf("%w: missing apps array", ErrInvalidManifest)
	}

	seen := make(map[string]struct{}, len(m.Apps))
	for i, app := range m.Apps {
		if strings.TrimSpace(app.ID) == "" {
			return fmt.Errorf("%w: app %d has an empty id", ErrInvalidManifest, i)
		}
		if _, dup := seen[app.ID]; dup {
			return fmt.Errorf("%w: duplicate app id %q", ErrInvalidManifest, app.ID)
		}
		seen[app.ID] = struct{}{}

		if strings.TrimSpace(app.BundleURL) == "" {
			return fmt.Errorf("%w: app %q has no bundleUrl", ErrInvalidManifest, app.ID)
		}
		if app.Icon.Type != "" && !app.Icon.Type.Valid() {
			return fmt.Errorf("%w: app %q has unknown icon type %q", ErrInvalidManifest, app.ID, app.Icon.Type)
		}
	}
	return nil
}

func (m *Manifest) sanitize() {
	for i := range m.Apps {
		app := &m.Apps[i]
		app.Name = cleanDisplay(app.Name)
		app.Description = cleanDisplay(app.Description)
		if app.DefaultProps == nil {
			app.DefaultProps = map[string]any{}
		}
	}
}

func cleanDisplay(s string) string {
	return strings.TrimSpace(html.UnescapeString(displayPolicy.Sanitize(s)))
}
