package dashboard

import (
	"context"
	"encoding/json"
	"time"
)

// CatalogStore owns the widget type catalog. Implementations ensure thread safety.
type CatalogStore interface {
	ListTypes(ctx context.Context) ([]WidgetTypeMeta, error)
	EnsureType(ctx context.Context, meta WidgetTypeMeta) (bool, error)
	UpsertType(ctx context.Context, meta WidgetTypeMeta) error
	DeleteType(ctx context.Context, typeKey string) error
}

// ConfigStore persists one saved dashboard document per user.
// LoadConfig returns (nil, nil) when the user never saved a dashboard.
type ConfigStore interface {
	LoadConfig(ctx context.Context, userID string) (*SavedConfig, error)
	SaveConfig(ctx context.Context, userID, name string, cfg SavedConfig) error
}

// PartnerDirectory resolves the business partner record injected into the info widget.
type PartnerDirectory interface {
	Partner(ctx context.Context, partnerID string) (*BusinessPartner, error)
}

// RefreshHook notifies transports (SSE, notifications) about dashboard changes.
type RefreshHook interface {
	DashboardUpdated(ctx context.Context, event DashboardEvent) error
}

// WidgetTypeMeta is a catalog entry: a reusable widget definition with default
// geometry and mutation policy. TypeKey is immutable once instances reference it.
type WidgetTypeMeta struct {
	ID               string         `json:"id" yaml:"id,omitempty" bson:"id"`
	TypeKey          string         `json:"type_key" yaml:"type_key" bson:"type_key"`
	ComponentKey     string         `json:"component_key,omitempty" yaml:"component_key,omitempty" bson:"component_key,omitempty"`
	Name             string         `json:"name" yaml:"name" bson:"name"`
	DefaultWidth     int            `json:"default_width" yaml:"default_width" bson:"default_width"`
	DefaultHeight    int            `json:"default_height" yaml:"default_height" bson:"default_height"`
	DefaultMinWidth  int            `json:"default_min_width" yaml:"default_min_width" bson:"default_min_width"`
	DefaultMinHeight int            `json:"default_min_height" yaml:"default_min_height" bson:"default_min_height"`
	IsRemovable      bool           `json:"is_removable" yaml:"is_removable" bson:"is_removable"`
	IsResizable      bool           `json:"is_resizable" yaml:"is_resizable" bson:"is_resizable"`
	IsDraggable      bool           `json:"is_draggable" yaml:"is_draggable" bson:"is_draggable"`
	AllowedRoles     []string       `json:"allowed_roles,omitempty" yaml:"allowed_roles,omitempty" bson:"allowed_roles,omitempty"`
	Config           map[string]any `json:"config,omitempty" yaml:"config,omitempty" bson:"config,omitempty"`
}

// DispatchKey selects the rendering component: component_key when set, type_key otherwise.
func (m WidgetTypeMeta) DispatchKey() string {
	if m.ComponentKey != "" {
		return m.ComponentKey
	}
	return m.TypeKey
}

// AllowsRole reports whether the type should be offered to the role.
// An empty allow list means every role.
func (m WidgetTypeMeta) AllowsRole(role string) bool {
	if len(m.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range m.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// ConfigString returns a string value from the type's free-form config.
func (m WidgetTypeMeta) ConfigString(key string) string {
	if m.Config == nil {
		return ""
	}
	if v, ok := m.Config[key].(string); ok {
		return v
	}
	return ""
}

// WidgetInstance is one placement of a catalog type on one user's dashboard.
type WidgetInstance struct {
	ID   string `json:"id" bson:"id"`
	Type string `json:"type" bson:"type"`
}

// Placement describes how a layout entry's row is determined.
type Placement string

const (
	// PlacementFixed uses the entry's Y coordinate as-is.
	PlacementFixed Placement = ""
	// PlacementAppend places the entry after the last occupied row; the grid
	// composition resolves it to a concrete Y.
	PlacementAppend Placement = "append"
)

// LayoutEntry is the grid geometry of one widget instance. I joins it to WidgetInstance.ID.
type LayoutEntry struct {
	I           string    `json:"i" bson:"i"`
	X           int       `json:"x" bson:"x"`
	Y           int       `json:"y" bson:"y"`
	W           int       `json:"w" bson:"w"`
	H           int       `json:"h" bson:"h"`
	MinW        int       `json:"minW" bson:"minW"`
	MinH        int       `json:"minH" bson:"minH"`
	IsResizable bool      `json:"isResizable" bson:"isResizable"`
	IsDraggable bool      `json:"isDraggable" bson:"isDraggable"`
	Placement   Placement `json:"placement,omitempty" bson:"placement,omitempty"`
}

// Bottom returns the first row below the entry.
func (e LayoutEntry) Bottom() int {
	return e.Y + e.H
}

type layoutEntryWire struct {
	I           string    `json:"i"`
	X           int       `json:"x"`
	Y           *int      `json:"y"`
	W           int       `json:"w"`
	H           int       `json:"h"`
	MinW        int       `json:"minW"`
	MinH        int       `json:"minH"`
	IsResizable *bool     `json:"isResizable"`
	IsDraggable *bool     `json:"isDraggable"`
	Placement   Placement `json:"placement,omitempty"`
}

// MarshalJSON encodes append placements with a null y, the form the browser grid
// understands as "after the last row".
func (e LayoutEntry) MarshalJSON() ([]byte, error) {
	wire := layoutEntryWire{
		I:           e.I,
		X:           e.X,
		W:           e.W,
		H:           e.H,
		MinW:        e.MinW,
		MinH:        e.MinH,
		IsResizable: &e.IsResizable,
		IsDraggable: &e.IsDraggable,
		Placement:   e.Placement,
	}
	if e.Placement != PlacementAppend {
		y := e.Y
		wire.Y = &y
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a layout entry. A null or missing y is the browser's
// serialization of the append sentinel and decodes as PlacementAppend.
func (e *LayoutEntry) UnmarshalJSON(data []byte) error {
	var wire layoutEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = LayoutEntry{
		I:           wire.I,
		X:           wire.X,
		W:           wire.W,
		H:           wire.H,
		MinW:        wire.MinW,
		MinH:        wire.MinH,
		IsResizable: wire.IsResizable == nil || *wire.IsResizable,
		IsDraggable: wire.IsDraggable == nil || *wire.IsDraggable,
		Placement:   wire.Placement,
	}
	if wire.Y == nil {
		e.Placement = PlacementAppend
	} else {
		e.Y = *wire.Y
	}
	return nil
}

// SavedConfig is the persisted dashboard document: layout plus widget instances.
type SavedConfig struct {
	Layout  []LayoutEntry    `json:"layout" bson:"layout"`
	Widgets []WidgetInstance `json:"widgets" bson:"widgets"`
}

// IsEmpty reports whether the config carries no widgets.
func (c *SavedConfig) IsEmpty() bool {
	return c == nil || len(c.Widgets) == 0
}

// Clone returns a deep copy of the config.
func (c SavedConfig) Clone() SavedConfig {
	out := SavedConfig{
		Layout:  make([]LayoutEntry, len(c.Layout)),
		Widgets: make([]WidgetInstance, len(c.Widgets)),
	}
	copy(out.Layout, c.Layout)
	copy(out.Widgets, c.Widgets)
	return out
}

// EntryFor returns the layout entry keyed by the widget id.
func (c SavedConfig) EntryFor(widgetID string) (LayoutEntry, bool) {
	for _, entry := range c.Layout {
		if entry.I == widgetID {
			return entry, true
		}
	}
	return LayoutEntry{}, false
}

// SaveConfigRequest is the body of POST /api/dashboard/config.
type SaveConfigRequest struct {
	Name   string      `json:"name"`
	Config SavedConfig `json:"config"`
}

// ConfigEnvelope is the body of GET /api/dashboard/config.
type ConfigEnvelope struct {
	Config *SavedConfig `json:"config"`
}

// ViewerContext carries the decoded bearer-token claims for the current user.
type ViewerContext struct {
	UserID            string   `json:"id"`
	Username          string   `json:"username"`
	Role              string   `json:"role"`
	BusinessPartnerID string   `json:"business_partner_id,omitempty"`
	Regions           []string `json:"regions,omitempty"`
	DashboardTitle    string   `json:"dashboard_title,omitempty"`
}

// IsAdmin reports whether the viewer holds the administrator role.
func (v ViewerContext) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// RoleAdmin is the role allowed to maintain the catalog.
const RoleAdmin = "admin"

// BusinessPartner is the record injected into the business partner info widget.
type BusinessPartner struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Address string   `json:"address,omitempty"`
	Regions []string `json:"regions,omitempty"`
}

// DashboardEvent describes changes that transports might care about.
type DashboardEvent struct {
	UserID  string    `json:"user_id,omitempty"`
	TypeKey string    `json:"type_key,omitempty"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

const (
	eventDashboardSaved = "dashboard.saved"
	eventCatalogChanged = "catalog.changed"
)
