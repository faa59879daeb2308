package dashboard

import (
	"fmt"
	"time"
)

const autoAddedSuffix = "-auto-added"

// Reconcile repairs drift between a saved dashboard and the live catalog.
//
// Widgets whose type left the catalog are dropped together with their layout
// entries. Surviving entries take the catalog's current resize/drag policy.
// Every non-removable type ends up with exactly one instance; missing ones are
// synthesized below all existing content. The result is never persisted here,
// so the same repair runs on every load until the user saves.
func Reconcile(saved *SavedConfig, catalog *Catalog, now time.Time) SavedConfig {
	out := SavedConfig{
		Layout:  []LayoutEntry{},
		Widgets: []WidgetInstance{},
	}
	present := make(map[string]bool)
	used := make(map[string]struct{})

	if !saved.IsEmpty() {
		entries := make(map[string]LayoutEntry, len(saved.Layout))
		for _, entry := range saved.Layout {
			if _, dup := entries[entry.I]; !dup {
				entries[entry.I] = entry
			}
		}

		type slot struct {
			entry   LayoutEntry
			meta    WidgetTypeMeta
			missing bool
		}
		slots := make([]slot, 0, len(saved.Widgets))
		for _, widget := range saved.Widgets {
			if widget.ID == "" {
				continue
			}
			meta, ok := catalog.Lookup(widget.Type)
			if !ok {
				continue
			}
			if _, dup := used[widget.ID]; dup {
				continue
			}
			if !meta.IsRemovable && present[meta.TypeKey] {
				continue
			}
			used[widget.ID] = struct{}{}
			present[meta.TypeKey] = true
			out.Widgets = append(out.Widgets, widget)

			entry, ok := entries[widget.ID]
			if !ok {
				slots = append(slots, slot{meta: meta, entry: LayoutEntry{I: widget.ID}, missing: true})
				continue
			}
			entry.IsResizable = meta.IsResizable
			entry.IsDraggable = meta.IsDraggable
			slots = append(slots, slot{meta: meta, entry: entry})
		}

		row := 0
		for _, s := range slots {
			if !s.missing && s.entry.Placement != PlacementAppend && s.entry.Bottom() > row {
				row = s.entry.Bottom()
			}
		}
		for _, s := range slots {
			if s.missing {
				s.entry = defaultEntry(s.entry.I, s.meta, row+1)
				row = s.entry.Bottom()
			}
			out.Layout = append(out.Layout, s.entry)
		}
	}

	for _, meta := range catalog.NonRemovable() {
		if present[meta.TypeKey] {
			continue
		}
		id := uniqueWidgetID(used, now, func(ms int64) string {
			return fmt.Sprintf("%s-%d%s", meta.TypeKey, ms, autoAddedSuffix)
		})
		out.Widgets = append(out.Widgets, WidgetInstance{ID: id, Type: meta.TypeKey})
		out.Layout = append(out.Layout, defaultEntry(id, meta, nextRow(out.Layout)))
		present[meta.TypeKey] = true
	}
	return out
}

// nextRow returns the row below all fixed entries plus one spacer row.
func nextRow(layout []LayoutEntry) int {
	bottom := 0
	for _, entry := range layout {
		if entry.Placement == PlacementAppend {
			continue
		}
		if b := entry.Bottom(); b > bottom {
			bottom = b
		}
	}
	return bottom + 1
}

func defaultEntry(id string, meta WidgetTypeMeta, y int) LayoutEntry {
	return LayoutEntry{
		I:           id,
		X:           0,
		Y:           y,
		W:           meta.DefaultWidth,
		H:           meta.DefaultHeight,
		MinW:        meta.DefaultMinWidth,
		MinH:        meta.DefaultMinHeight,
		IsResizable: meta.IsResizable,
		IsDraggable: meta.IsDraggable,
	}
}

// uniqueWidgetID formats ids from the epoch-millisecond clock, bumping the
// timestamp until the id is unused. The chosen id is recorded in used.
func uniqueWidgetID(used map[string]struct{}, now time.Time, format func(ms int64) string) string {
	ms := now.UnixMilli()
	for {
		id := format(ms)
		if _, taken := used[id]; !taken {
			used[id] = struct{}{}
			return id
		}
		ms++
	}
}

// CheckBijection verifies that layout keys and widget ids match one to one.
func CheckBijection(cfg SavedConfig) error {
	widgets := make(map[string]struct{}, len(cfg.Widgets))
	for _, w := range cfg.Widgets {
		if _, dup := widgets[w.ID]; dup {
			return fmt.Errorf("dashboard: duplicate widget id %q", w.ID)
		}
		widgets[w.ID] = struct{}{}
	}
	entries := make(map[string]struct{}, len(cfg.Layout))
	for _, e := range cfg.Layout {
		if _, dup := entries[e.I]; dup {
			return fmt.Errorf("dashboard: duplicate layout entry %q", e.I)
		}
		if _, ok := widgets[e.I]; !ok {
			return fmt.Errorf("dashboard: layout entry %q has no widget", e.I)
		}
		entries[e.I] = struct{}{}
	}
	for id := range widgets {
		if _, ok := entries[id]; !ok {
			return fmt.Errorf("dashboard: widget %q has no layout entry", id)
		}
	}
	return nil
}
