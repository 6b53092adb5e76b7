package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
  "apps": [
    {
      "id": "micro-app-one",
      "name": "<b>Micro App One</b>",
      "description": "First &amp; finest",
      "icon": {"type": "emoji", "value": "1"},
      "bundleUrl": "http://localhost:3000/micro-app-one/index.js",
      "defaultProps": {"title": "One"}
    },
    {
      "id": "micro-app-two",
      "name": "Micro App Two",
      "description": "Members only",
      "icon": {"type": "url", "value": "http://localhost:3000/two.png"},
      "bundleUrl": "http://localhost:3000/micro-app-two/index.js",
      "requiresAuth": true,
      "version": "1.2.0"
    }
  ]
}`

func TestParseSanitizesDisplayStrings(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Apps, 2)

	one := m.Apps[0]
	assert.Equal(t, "Micro App One", one.Name)
	assert.Equal(t, "First & finest", one.Description)
	assert.Equal(t, IconEmoji, one.Icon.Type)
	assert.Equal(t, "One", one.DefaultProps["title"])
	assert.False(t, one.RequiresAuth)

	two := m.Apps[1]
	assert.True(t, two.RequiresAuth)
	assert.Equal(t, "1.2.0", two.Version)
	assert.NotNil(t, two.DefaultProps)
	assert.Empty(t, two.DefaultProps)

	assert.Equal(t, []string{"micro-app-one", "micro-app-two"}, m.IDs())
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `<html>`},
		{"missing apps", `{}`},
		{"empty id", `{"apps":[{"id":"","bundleUrl":"http://x/a.js"}]}`},
		{"duplicate id", `{"apps":[{"id":"a","bundleUrl":"http://x/a.js"},{"id":"a","bundleUrl":"http://x/b.js"}]}`},
		{"missing bundle", `{"apps":[{"id":"a"}]}`},
		{"bad icon", `{"apps":[{"id":"a","bundleUrl":"http://x/a.js","icon":{"type":"svg","value":""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestParseAcceptsEmptyAppList(t *testing.T) {
	m, err := Parse([]byte(`{"apps":[]}`))
	require.NoError(t, err)
	assert.Empty(t, m.Apps)
	assert.Empty(t, m.IDSet())
}

func TestParseJSONCAllowsComments(t *testing.T) {
	doc := `{
  // local development manifest
  "apps": [
    {"id": "a", "bundleUrl": "http://localhost:3000/a.js",}, /* trailing comma */
  ],
}`
	m, err := ParseJSONC([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, m.IDs())
}

func TestLookup(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	app, ok := m.Lookup("micro-app-two")
	require.True(t, ok)
	assert.Equal(t, "Micro App Two", app.Name)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)

	var nilManifest *Manifest
	_, ok = nilManifest.Lookup("a")
	assert.False(t, ok)
}

func TestFilterPublicReproducesPartition(t *testing.T) {
	full, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	public := FilterPublic(full)
	assert.Equal(t, []string{"micro-app-one"}, public.IDs())
	assert.NoError(t, CheckPartition(full, public))
}

func TestCheckPartitionDetectsProducerBugs(t *testing.T) {
	full, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	t.Run("public not a subset", func(t *testing.T) {
		public := &Manifest{Apps: []App{full.Apps[0], {ID: "stray", BundleURL: "http://x/s.js"}}}
		err := CheckPartition(full, public)
		assert.ErrorIs(t, err, ErrPartitionMismatch)
		assert.Contains(t, err.Error(), "stray")
	})

	t.Run("auth app leaked into public", func(t *testing.T) {
		public := &Manifest{Apps: []App{full.Apps[0], full.Apps[1]}}
		assert.ErrorIs(t, CheckPartition(full, public), ErrPartitionMismatch)
	})

	t.Run("entry differs", func(t *testing.T) {
		changed := full.Apps[0]
		changed.BundleURL = "http://elsewhere/one.js"
		public := &Manifest{Apps: []App{changed}}
		assert.ErrorIs(t, CheckPartition(full, public), ErrPartitionMismatch)
	})
}

func TestParseBase(t *testing.T) {
	b, ok := ParseBase("fallback")
	assert.True(t, ok)
	assert.Equal(t, BaseFallback, b)

	_, ok = ParseBase("staging")
	assert.False(t, ok)
}
