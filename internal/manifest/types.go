package manifest

import "sort"

// IconType discriminates the icon descriptor variants.
type IconType string

const (
	IconEmoji     IconType = "emoji"
	IconURL       IconType = "url"
	IconComponent IconType = "component"
)

// Valid reports whether t is a known icon type.
func (t IconType) Valid() bool {
	switch t {
	case IconEmoji, IconURL, IconComponent:
		return true
	}
	return false
}

// Icon describes how the host grid draws an app.
type Icon struct {
	Type  IconType `json:"type"`
	Value string   `json:"value"`
}

// App is the metadata of one micro-app as published in the manifest.
type App struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Icon         Icon           `json:"icon"`
	BundleURL    string         `json:"bundleUrl"`
	DefaultProps map[string]any `json:"defaultProps"`
	RequiresAuth bool           `json:"requiresAuth,omitempty"`
	Version      string         `json:"version,omitempty"`
}

// Manifest is an ordered list of micro-apps.
type Manifest struct {
	Apps []App `json:"apps"`
}

// IDs returns the app ids in manifest order.
func (m *Manifest) IDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, len(m.Apps))
	for i, app := range m.Apps {
		ids[i] = app.ID
	}
	return ids
}

// IDSet returns the app ids as a set.
func (m *Manifest) IDSet() map[string]struct{} {
	set := make(map[string]struct{})
	if m == nil {
		return set
	}
	for _, app := range m.Apps {
		set[app.ID] = struct{}{}
	}
	return set
}

// Lookup finds an app by id.
func (m *Manifest) Lookup(id string) (App, bool) {
	if m == nil {
		return App{}, false
	}
	for _, app := range m.Apps {
		if app.ID == id {
			return app, true
		}
	}
	return App{}, false
}

// Variant names a published manifest document.
type Variant string

const (
	VariantFull   Variant = "full"
	VariantPublic Variant = "public"
)

// Base selects which configured base URL is tried first.
type Base string

const (
	BasePrimary  Base = "primary"
	BaseFallback Base = "fallback"
)

// ParseBase converts a configuration string into a Base.
func ParseBase(s string) (Base, bool) {
	switch Base(s) {
	case BasePrimary, BaseFallback:
		return Base(s), true
	}
	return "", false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
