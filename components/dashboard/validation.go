package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

const schemaBaseURL = "https://schemas.gridboard.dev/"

// Schema names understood by PayloadValidator.
const (
	SchemaWidgetType     = "widget_type.json"
	SchemaWidgetTypes    = "widget_types.json"
	SchemaSavedConfig    = "saved_config.json"
	SchemaSaveRequest    = "save_request.json"
	SchemaConfigEnvelope = "config_envelope.json"
)

// PayloadValidator narrows untyped JSON payloads (catalog, saved config, save
// requests) before they are trusted. Compiled schemas are cached.
type PayloadValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewPayloadValidator builds a validator over the embedded schemas.
func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// ValidateJSON validates raw JSON bytes against the named schema.
func (v *PayloadValidator) ValidateJSON(schemaName string, data []byte) error {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return &ValidationError{Subject: subjectFor(schemaName), Err: err}
	}
	return v.validate(schemaName, payload)
}

// ValidateValue validates a Go value by round-tripping it through JSON.
func (v *PayloadValidator) ValidateValue(schemaName string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("dashboard: marshal %s: %w", subjectFor(schemaName), err)
	}
	return v.ValidateJSON(schemaName, data)
}

func (v *PayloadValidator) validate(schemaName string, payload any) error {
	schema, err := v.schemaFor(schemaName)
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		return &ValidationError{Subject: subjectFor(schemaName), Err: err}
	}
	return nil
}

func (v *PayloadValidator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	entries, err := fs.ReadDir(embeddedSchemas, "schemas")
	if err != nil {
		return nil, fmt.Errorf("dashboard: read schemas: %w", err)
	}
	for _, entry := range entries {
		data, err := embeddedSchemas.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("dashboard: read schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(schemaBaseURL+entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("dashboard: load schema %s: %w", entry.Name(), err)
		}
	}
	compiled, err := compiler.Compile(schemaBaseURL + name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}

func subjectFor(schemaName string) string {
	switch schemaName {
	case SchemaWidgetType:
		return "widget type"
	case SchemaWidgetTypes:
		return "widget catalog"
	case SchemaSavedConfig:
		return "saved config"
	case SchemaSaveRequest:
		return "save request"
	case SchemaConfigEnvelope:
		return "config response"
	default:
		return schemaName
	}
}

// CheckWidgetType enforces the catalog rules a schema cannot express.
func CheckWidgetType(meta WidgetTypeMeta) error {
	if meta.TypeKey == "" {
		return &ValidationError{Subject: "widget type", Err: ErrTypeKeyRequired}
	}
	if meta.DefaultWidth < 1 || meta.DefaultHeight < 1 {
		return &ValidationError{Subject: "widget type", Err: fmt.Errorf("%s: default size must be positive", meta.TypeKey)}
	}
	if meta.DefaultMinWidth < 0 || meta.DefaultMinHeight < 0 {
		return &ValidationError{Subject: "widget type", Err: fmt.Errorf("%s: minimum size must not be negative", meta.TypeKey)}
	}
	if meta.DefaultMinWidth > meta.DefaultWidth || meta.DefaultMinHeight > meta.DefaultHeight {
		return &ValidationError{Subject: "widget type", Err: fmt.Errorf("%s: minimum size exceeds default size", meta.TypeKey)}
	}
	return nil
}

// CheckSavedConfig verifies that a config about to be persisted keeps layout
// keys and widget ids in one-to-one correspondence.
func CheckSavedConfig(cfg SavedConfig) error {
	for _, w := range cfg.Widgets {
		if w.ID == "" || w.Type == "" {
			return &ValidationError{Subject: "saved config", Err: fmt.Errorf("widget id and type are required")}
		}
	}
	if err := CheckBijection(cfg); err != nil {
		return &ValidationError{Subject: "saved config", Err: err}
	}
	return nil
}
