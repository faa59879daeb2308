package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// CatalogManifest is a YAML document listing widget types to seed.
type CatalogManifest struct {
	Version string           `json:"version" yaml:"version"`
	Name    string           `json:"name,omitempty" yaml:"name,omitempty"`
	Widgets []ManifestWidget `json:"widgets" yaml:"widgets"`
	Source  string           `json:"-" yaml:"-"`
}

// ManifestWidget is one catalog entry plus authoring metadata.
type ManifestWidget struct {
	WidgetTypeMeta `yaml:",inline"`
	Maintainers    []string `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Types returns the manifest's catalog entries in document order.
func (doc *CatalogManifest) Types() []WidgetTypeMeta {
	if doc == nil {
		return nil
	}
	out := make([]WidgetTypeMeta, 0, len(doc.Widgets))
	for _, widget := range doc.Widgets {
		out = append(out, cloneMeta(widget.WidgetTypeMeta))
	}
	return out
}

// Find returns the index of the widget with typeKey, or -1.
func (doc *CatalogManifest) Find(typeKey string) int {
	for idx, widget := range doc.Widgets {
		if widget.TypeKey == typeKey {
			return idx
		}
	}
	return -1
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*CatalogManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader. Unknown fields are rejected.
func DecodeManifest(r io.Reader) (*CatalogManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc CatalogManifest
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeManifest writes doc as YAML with two-space indentation.
func EncodeManifest(w io.Writer, doc *CatalogManifest) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("dashboard: encode manifest: %w", err)
	}
	return encoder.Close()
}

// Validate ensures the manifest satisfies required fields.
func (doc *CatalogManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		if widget.TypeKey == "" {
			return fmt.Errorf("dashboard: manifest widget at index %d is missing type_key", idx)
		}
		if widget.Name == "" {
			return fmt.Errorf("dashboard: manifest widget %s missing name", widget.TypeKey)
		}
		if _, exists := seen[widget.TypeKey]; exists {
			return fmt.Errorf("dashboard: manifest duplicates type_key %s", widget.TypeKey)
		}
		seen[widget.TypeKey] = struct{}{}
		if err := CheckWidgetType(widget.WidgetTypeMeta); err != nil {
			return err
		}
	}
	return nil
}
