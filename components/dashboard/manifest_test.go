package dashboard

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: 1
name: partner-pack
widgets:
  - type_key: PortNews
    component_key: GenericNews
    name: Port News
    default_width: 4
    default_height: 8
    default_min_width: 2
    default_min_height: 4
    is_removable: true
    is_resizable: true
    is_draggable: true
    config:
      title: Port News
      category: ports
      icon: anchor
    tags: [news]
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)

	widget := doc.Widgets[0]
	assert.Equal(t, "PortNews", widget.TypeKey)
	assert.Equal(t, "GenericNews", widget.DispatchKey())
	assert.Equal(t, "anchor", widget.ConfigString("icon"))
	assert.Equal(t, []string{"news"}, widget.Tags)

	types := doc.Types()
	require.Len(t, types, 1)
	assert.Equal(t, 4, types[0].DefaultWidth)
}

func TestManifestDuplicateTypeKeys(t *testing.T) {
	const payload = `
widgets:
  - type_key: Dup
    name: First
    default_width: 2
    default_height: 2
  - type_key: Dup
    name: Second
    default_width: 2
    default_height: 2
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates type_key")
}

func TestManifestRejectsUnknownFields(t *testing.T) {
	const payload = `
widgets:
  - type_key: News
    name: News
    default_width: 2
    default_height: 2
    colour: red
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
}

func TestManifestRejectsInvalidGeometry(t *testing.T) {
	const payload = `
widgets:
  - type_key: News
    name: News
    default_width: 2
    default_height: 2
    default_min_width: 4
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestEncodeManifestRoundTrip(t *testing.T) {
	doc := &CatalogManifest{Version: ManifestVersion}
	for _, meta := range DefaultWidgetTypes() {
		doc.Widgets = append(doc.Widgets, ManifestWidget{WidgetTypeMeta: meta})
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeManifest(&buf, doc))

	decoded, err := DecodeManifest(&buf)
	require.NoError(t, err)
	assert.Equal(t, len(doc.Widgets), len(decoded.Widgets))
	assert.Equal(t, doc.Find("AISummary"), decoded.Find("AISummary"))
}

func TestDocsManifestsAreValid(t *testing.T) {
	dir := filepath.Join("..", "..", "docs", "manifests")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	keys := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := ReadManifest(path)
		require.NoErrorf(t, err, "manifest %s should parse", path)
		for _, widget := range doc.Widgets {
			if prev, exists := keys[widget.TypeKey]; exists {
				t.Fatalf("type %s defined in both %s and %s", widget.TypeKey, prev, path)
			}
			keys[widget.TypeKey] = path
		}
	}
	assert.Contains(t, keys, "BusinessPartnerInfo")
}
