package dashboard

import (
	"fmt"
	"time"
)

// AddWidget appends a new instance of typeKey with the type's current default
// geometry, placed after the last row. Unknown keys leave cfg untouched and
// report false. Only the returned value changes; persisting it is an explicit save.
func AddWidget(cfg SavedConfig, catalog *Catalog, typeKey string, now time.Time) (SavedConfig, WidgetInstance, bool) {
	meta, ok := catalog.Lookup(typeKey)
	if !ok {
		return cfg, WidgetInstance{}, false
	}
	used := make(map[string]struct{}, len(cfg.Widgets)+len(cfg.Layout))
	for _, w := range cfg.Widgets {
		used[w.ID] = struct{}{}
	}
	for _, e := range cfg.Layout {
		used[e.I] = struct{}{}
	}
	id := uniqueWidgetID(used, now, func(ms int64) string {
		return fmt.Sprintf("%s-%d", meta.TypeKey, ms)
	})
	instance := WidgetInstance{ID: id, Type: meta.TypeKey}

	out := cfg.Clone()
	out.Widgets = append(out.Widgets, instance)
	entry := defaultEntry(id, meta, 0)
	entry.Placement = PlacementAppend
	out.Layout = append(out.Layout, entry)
	return out, instance, true
}

// DeleteWidget removes the instance and its layout entry by id. Removability is
// decided by the caller; this operation does not consult the catalog.
func DeleteWidget(cfg SavedConfig, widgetID string) SavedConfig {
	out := SavedConfig{
		Layout:  make([]LayoutEntry, 0, len(cfg.Layout)),
		Widgets: make([]WidgetInstance, 0, len(cfg.Widgets)),
	}
	for _, w := range cfg.Widgets {
		if w.ID != widgetID {
			out.Widgets = append(out.Widgets, w)
		}
	}
	for _, e := range cfg.Layout {
		if e.I != widgetID {
			out.Layout = append(out.Layout, e)
		}
	}
	return out
}
