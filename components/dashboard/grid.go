package dashboard

import "sort"

// Breakpoint maps a minimum viewport width to a column count.
type Breakpoint struct {
	Name     string `json:"name"`
	MinWidth int    `json:"min_width"`
	Cols     int    `json:"cols"`
}

// Fixed breakpoints, widest first.
var breakpoints = []Breakpoint{
	{Name: "lg", MinWidth: 1200, Cols: 12},
	{Name: "md", MinWidth: 996, Cols: 10},
	{Name: "sm", MinWidth: 768, Cols: 6},
	{Name: "xs", MinWidth: 480, Cols: 4},
	{Name: "xxs", MinWidth: 0, Cols: 2},
}

const (
	// DefaultRowHeight is the pixel height of one grid row.
	DefaultRowHeight = 30
	// DragHandle is the selector of the header strip that starts a drag.
	DragHandle = ".widget-drag-handle"
	// EmptyDashboardMessage is shown when no widget survives reconciliation.
	EmptyDashboardMessage = "Your dashboard is empty"
	// ActionDelete is offered on cells whose widget type is removable.
	ActionDelete = "delete"
)

// Breakpoints returns the breakpoint table, widest first.
func Breakpoints() []Breakpoint {
	return append([]Breakpoint(nil), breakpoints...)
}

// BreakpointForWidth picks the widest breakpoint whose minimum fits width.
// An unknown width (<= 0) renders as desktop.
func BreakpointForWidth(width int) Breakpoint {
	if width <= 0 {
		return breakpoints[0]
	}
	for _, bp := range breakpoints {
		if width >= bp.MinWidth {
			return bp
		}
	}
	return breakpoints[len(breakpoints)-1]
}

// BreakpointByName looks up a breakpoint by its name.
func BreakpointByName(name string) (Breakpoint, bool) {
	for _, bp := range breakpoints {
		if bp.Name == name {
			return bp, true
		}
	}
	return Breakpoint{}, false
}

// ComposeLayout resolves a layout for a breakpoint: sizes and x are clamped to
// the column count, append placements are stacked below the placed content,
// and the result is compacted vertically. Entries keep their input order.
func ComposeLayout(layout []LayoutEntry, bp Breakpoint) []LayoutEntry {
	cols := bp.Cols
	if cols <= 0 {
		cols = breakpoints[0].Cols
	}
	placed := make([]LayoutEntry, 0, len(layout))
	var appended []LayoutEntry
	for _, entry := range layout {
		entry = clampEntry(entry, cols)
		if entry.Placement == PlacementAppend {
			appended = append(appended, entry)
			continue
		}
		placed = append(placed, entry)
	}
	bottom := 0
	for _, entry := range placed {
		if b := entry.Bottom(); b > bottom {
			bottom = b
		}
	}
	for _, entry := range appended {
		entry.Y = bottom
		entry.Placement = PlacementFixed
		bottom = entry.Bottom()
		placed = append(placed, entry)
	}
	compacted := compactVertical(placed)

	resolved := make(map[string]LayoutEntry, len(compacted))
	for _, entry := range compacted {
		resolved[entry.I] = entry
	}
	out := make([]LayoutEntry, 0, len(layout))
	for _, entry := range layout {
		if r, ok := resolved[entry.I]; ok {
			out = append(out, r)
			delete(resolved, entry.I)
		}
	}
	return out
}

func clampEntry(entry LayoutEntry, cols int) LayoutEntry {
	if entry.MinW > cols {
		entry.MinW = cols
	}
	if entry.W < entry.MinW {
		entry.W = entry.MinW
	}
	if entry.W < 1 {
		entry.W = 1
	}
	if entry.W > cols {
		entry.W = cols
	}
	if entry.H < entry.MinH {
		entry.H = entry.MinH
	}
	if entry.H < 1 {
		entry.H = 1
	}
	if entry.X < 0 {
		entry.X = 0
	}
	if entry.X+entry.W > cols {
		entry.X = cols - entry.W
	}
	if entry.Y < 0 {
		entry.Y = 0
	}
	return entry
}

// compactVertical floats every item up until it would collide, processing items
// top-to-bottom then left-to-right.
func compactVertical(items []LayoutEntry) []LayoutEntry {
	sorted := append([]LayoutEntry(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	out := make([]LayoutEntry, 0, len(sorted))
	for _, item := range sorted {
		for item.Y > 0 {
			above := item
			above.Y--
			if _, hit := firstCollision(above, out); hit {
				break
			}
			item.Y--
		}
		for {
			collider, hit := firstCollision(item, out)
			if !hit {
				break
			}
			item.Y = collider.Bottom()
		}
		out = append(out, item)
	}
	return out
}

func firstCollision(item LayoutEntry, others []LayoutEntry) (LayoutEntry, bool) {
	for _, other := range others {
		if collides(item, other) {
			return other, true
		}
	}
	return LayoutEntry{}, false
}

func collides(a, b LayoutEntry) bool {
	if a.I == b.I {
		return false
	}
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// GridView is the composed, render-ready dashboard for one breakpoint.
type GridView struct {
	Title        string     `json:"title,omitempty"`
	Breakpoint   string     `json:"breakpoint"`
	Cols         int        `json:"cols"`
	RowHeight    int        `json:"row_height"`
	DragHandle   string     `json:"drag_handle"`
	Cells        []GridCell `json:"cells"`
	Empty        bool       `json:"empty"`
	EmptyMessage string     `json:"empty_message,omitempty"`
}

// GridCell pairs a resolved layout entry with its dispatched widget view.
type GridCell struct {
	Layout  LayoutEntry `json:"layout"`
	Widget  WidgetView  `json:"widget"`
	Actions []string    `json:"actions,omitempty"`
}

// ComposeInput carries the per-request context needed to compose a grid.
type ComposeInput struct {
	Viewer    ViewerContext
	Partner   *BusinessPartner
	Width     int
	RowHeight int
}

// Compose renders cfg on the breakpoint chosen by in.Width. Every widget goes
// through the dispatch table; a widget that fails to resolve becomes a
// placeholder cell without affecting the others.
func Compose(cfg SavedConfig, catalog *Catalog, table *DispatchTable, in ComposeInput) GridView {
	bp := BreakpointForWidth(in.Width)
	rowHeight := in.RowHeight
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	view := GridView{
		Title:      in.Viewer.DashboardTitle,
		Breakpoint: bp.Name,
		Cols:       bp.Cols,
		RowHeight:  rowHeight,
		DragHandle: DragHandle,
		Cells:      []GridCell{},
	}
	layout := ComposeLayout(cfg.Layout, bp)
	entries := make(map[string]LayoutEntry, len(layout))
	for _, entry := range layout {
		entries[entry.I] = entry
	}
	for _, widget := range cfg.Widgets {
		entry, ok := entries[widget.ID]
		if !ok {
			continue
		}
		meta, known := catalog.Lookup(widget.Type)
		cell := GridCell{
			Layout: entry,
			Widget: table.Render(ComponentInput{
				Instance: widget,
				Type:     meta,
				Known:    known,
				Viewer:   in.Viewer,
				Partner:  in.Partner,
			}),
		}
		if known && meta.IsRemovable {
			cell.Actions = []string{ActionDelete}
		}
		view.Cells = append(view.Cells, cell)
	}
	if len(view.Cells) == 0 {
		view.Empty = true
		view.EmptyMessage = EmptyDashboardMessage
	}
	return view
}
