package dashboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadValidatorAcceptsCatalog(t *testing.T) {
	validator := NewPayloadValidator()
	err := validator.ValidateValue(SchemaWidgetTypes, DefaultWidgetTypes())
	require.NoError(t, err)
}

func TestPayloadValidatorRejectsCatalogWithoutTypeKey(t *testing.T) {
	validator := NewPayloadValidator()
	err := validator.ValidateJSON(SchemaWidgetTypes, []byte(`[{"name":"x","default_width":2,"default_height":2,"is_removable":true,"is_resizable":true,"is_draggable":true}]`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestPayloadValidatorSavedConfigAllowsNullY(t *testing.T) {
	validator := NewPayloadValidator()
	payload := []byte(`{"layout":[{"i":"News-1","x":0,"y":null,"w":4,"h":6}],"widgets":[{"id":"News-1","type":"News"}]}`)
	require.NoError(t, validator.ValidateJSON(SchemaSavedConfig, payload))
}

func TestPayloadValidatorConfigEnvelope(t *testing.T) {
	validator := NewPayloadValidator()
	require.NoError(t, validator.ValidateJSON(SchemaConfigEnvelope, []byte(`{"config":null}`)))
	require.NoError(t, validator.ValidateJSON(SchemaConfigEnvelope, []byte(`{"config":{"layout":[],"widgets":[]}}`)))

	err := validator.ValidateJSON(SchemaConfigEnvelope, []byte(`{"config":{"layout":"nope","widgets":[]}}`))
	require.Error(t, err)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "config response", vErr.Subject)
}

func TestPayloadValidatorRejectsMalformedJSON(t *testing.T) {
	validator := NewPayloadValidator()
	err := validator.ValidateJSON(SchemaSaveRequest, []byte(`{"config":`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestPayloadValidatorCachesCompiledSchemas(t *testing.T) {
	validator := NewPayloadValidator()
	require.NoError(t, validator.ValidateValue(SchemaSavedConfig, SavedConfig{Layout: []LayoutEntry{}, Widgets: []WidgetInstance{}}))
	require.NoError(t, validator.ValidateValue(SchemaSavedConfig, SavedConfig{Layout: []LayoutEntry{}, Widgets: []WidgetInstance{}}))
	assert.Len(t, validator.compiled, 1)
}

func TestCheckWidgetType(t *testing.T) {
	valid := WidgetTypeMeta{TypeKey: "FuelPrices", DefaultWidth: 4, DefaultHeight: 6, DefaultMinWidth: 2, DefaultMinHeight: 4}
	require.NoError(t, CheckWidgetType(valid))

	missing := valid
	missing.TypeKey = ""
	assert.ErrorIs(t, CheckWidgetType(missing), ErrTypeKeyRequired)

	tooSmall := valid
	tooSmall.DefaultMinWidth = 8
	assert.True(t, IsValidationError(CheckWidgetType(tooSmall)))

	zero := valid
	zero.DefaultHeight = 0
	assert.Error(t, CheckWidgetType(zero))
}

func TestCheckSavedConfigRejectsDuplicates(t *testing.T) {
	cfg := SavedConfig{
		Widgets: []WidgetInstance{{ID: "a", Type: "News"}, {ID: "a", Type: "News"}},
		Layout:  []LayoutEntry{{I: "a", W: 1, H: 1}},
	}
	err := CheckSavedConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate widget id")

	orphanEntry := SavedConfig{
		Widgets: []WidgetInstance{{ID: "a", Type: "News"}},
		Layout:  []LayoutEntry{{I: "a", W: 1, H: 1}, {I: "b", W: 1, H: 1}},
	}
	assert.Error(t, CheckSavedConfig(orphanEntry))
}
