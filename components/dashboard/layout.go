package dashboard

// ApplyLayoutChange replaces the layout with the grid's committed drag/resize
// result. Entries for ids without a widget are ignored and widgets missing from
// next keep their previous entry, so the layout/widget bijection survives a
// partial or stale update.
func ApplyLayoutChange(cfg SavedConfig, next []LayoutEntry) SavedConfig {
	if len(next) == 0 {
		return cfg.Clone()
	}
	index := make(map[string]LayoutEntry, len(next))
	for _, entry := range next {
		if _, dup := index[entry.I]; !dup {
			index[entry.I] = entry
		}
	}
	out := SavedConfig{
		Layout:  make([]LayoutEntry, 0, len(cfg.Widgets)),
		Widgets: append([]WidgetInstance(nil), cfg.Widgets...),
	}
	for _, w := range cfg.Widgets {
		if entry, ok := index[w.ID]; ok {
			entry.Placement = PlacementFixed
			out.Layout = append(out.Layout, entry)
			continue
		}
		if entry, ok := cfg.EntryFor(w.ID); ok {
			out.Layout = append(out.Layout, entry)
		}
	}
	return out
}
