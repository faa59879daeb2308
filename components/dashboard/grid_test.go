package dashboard

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointForWidth(t *testing.T) {
	cases := []struct {
		width int
		name  string
		cols  int
	}{
		{0, "lg", 12},
		{1440, "lg", 12},
		{1200, "lg", 12},
		{1199, "md", 10},
		{996, "md", 10},
		{800, "sm", 6},
		{768, "sm", 6},
		{500, "xs", 4},
		{320, "xxs", 2},
	}
	for _, tc := range cases {
		bp := BreakpointForWidth(tc.width)
		assert.Equal(t, tc.name, bp.Name, "width %d", tc.width)
		assert.Equal(t, tc.cols, bp.Cols, "width %d", tc.width)
	}
	bp, ok := BreakpointByName("sm")
	require.True(t, ok)
	assert.Equal(t, 768, bp.MinWidth)
	assert.Len(t, Breakpoints(), 5)
}

func TestComposeLayoutResolvesAppendBelowContent(t *testing.T) {
	layout := []LayoutEntry{
		{I: "a", X: 0, Y: 0, W: 6, H: 8},
		{I: "new", X: 0, W: 4, H: 6, Placement: PlacementAppend},
		{I: "b", X: 6, Y: 0, W: 6, H: 4},
	}
	out := ComposeLayout(layout, BreakpointForWidth(1300))
	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "new", "b"}, []string{out[0].I, out[1].I, out[2].I})
	assert.Equal(t, 8, out[1].Y)
	assert.Equal(t, PlacementFixed, out[1].Placement)
}

func TestComposeLayoutCompactsVertically(t *testing.T) {
	layout := []LayoutEntry{
		{I: "a", X: 0, Y: 5, W: 4, H: 2},
		{I: "b", X: 0, Y: 20, W: 4, H: 3},
		{I: "c", X: 4, Y: 9, W: 4, H: 3},
	}
	out := ComposeLayout(layout, BreakpointForWidth(1300))
	ys := map[string]int{}
	for _, e := range out {
		ys[e.I] = e.Y
	}
	assert.Equal(t, map[string]int{"a": 0, "b": 2, "c": 0}, ys)
}

func TestComposeLayoutClampsToColumns(t *testing.T) {
	layout := []LayoutEntry{
		{I: "wide", X: 8, Y: 0, W: 12, H: 2, MinW: 6},
		{I: "offset", X: 10, Y: 2, W: 4, H: 2},
	}
	out := ComposeLayout(layout, BreakpointForWidth(320))
	for _, e := range out {
		assert.LessOrEqual(t, e.X+e.W, 2, e.I)
		assert.GreaterOrEqual(t, e.X, 0, e.I)
		assert.GreaterOrEqual(t, e.W, 1, e.I)
	}
	assert.Equal(t, 2, out[0].MinW)
}

func TestComposeLayoutNoOverlap(t *testing.T) {
	layout := []LayoutEntry{
		{I: "a", X: 0, Y: 0, W: 6, H: 4},
		{I: "b", X: 3, Y: 1, W: 6, H: 4},
		{I: "c", X: 2, Y: 2, W: 6, H: 4},
		{I: "d", W: 12, H: 2, Placement: PlacementAppend},
	}
	for _, bp := range Breakpoints() {
		out := ComposeLayout(layout, bp)
		for i := range out {
			for j := i + 1; j < len(out); j++ {
				assert.False(t, collides(out[i], out[j]), "%s: %s overlaps %s", bp.Name, out[i].I, out[j].I)
			}
		}
	}
}

func TestComposeLayoutIsDeterministic(t *testing.T) {
	layout := []LayoutEntry{
		{I: "a", X: 0, Y: 3, W: 4, H: 2},
		{I: "b", X: 0, Y: 3, W: 4, H: 2},
		{I: "c", W: 4, H: 2, Placement: PlacementAppend},
	}
	first := ComposeLayout(layout, BreakpointForWidth(1000))
	second := ComposeLayout(layout, BreakpointForWidth(1000))
	assert.Equal(t, first, second)
	assert.Equal(t, 0, first[0].Y)
	assert.Equal(t, 2, first[1].Y)
}

type panickingComponent struct{}

func (panickingComponent) Template() string { return "widgets/boom" }

func (panickingComponent) Props(ComponentInput) (WidgetProps, error) {
	panic("boom")
}

func TestComposeIsolatesBrokenWidgets(t *testing.T) {
	catalog := NewCatalog([]WidgetTypeMeta{
		{TypeKey: "News", Name: "News", IsRemovable: true, DefaultWidth: 6, DefaultHeight: 4},
		{TypeKey: "Exploding", Name: "Exploding", IsRemovable: true, DefaultWidth: 6, DefaultHeight: 4},
		{TypeKey: "Failing", Name: "Failing", IsRemovable: true, DefaultWidth: 6, DefaultHeight: 4},
		{TypeKey: "Unmapped", Name: "Unmapped", IsRemovable: true, DefaultWidth: 6, DefaultHeight: 4},
	})
	components := DefaultComponents()
	components["Exploding"] = panickingComponent{}
	components["Failing"] = NewComponent("widgets/content", func(ComponentInput) (WidgetProps, error) {
		return nil, errors.New("feed offline")
	})
	table := NewDispatchTable(components)

	cfg := SavedConfig{
		Widgets: []WidgetInstance{
			{ID: "News-1", Type: "News"},
			{ID: "Ghost-1", Type: "Ghost"},
			{ID: "Exploding-1", Type: "Exploding"},
			{ID: "Failing-1", Type: "Failing"},
			{ID: "Unmapped-1", Type: "Unmapped"},
		},
		Layout: []LayoutEntry{
			{I: "News-1", W: 6, H: 4},
			{I: "Ghost-1", X: 6, W: 6, H: 4},
			{I: "Exploding-1", Y: 4, W: 6, H: 4},
			{I: "Failing-1", X: 6, Y: 4, W: 6, H: 4},
			{I: "Unmapped-1", Y: 8, W: 6, H: 4},
		},
	}
	view := Compose(cfg, catalog, table, ComposeInput{Width: 1400})
	require.Len(t, view.Cells, 5)

	byID := map[string]GridCell{}
	for _, cell := range view.Cells {
		byID[cell.Widget.ID] = cell
	}
	assert.False(t, byID["News-1"].Widget.Placeholder)
	assert.Equal(t, templateFeed, byID["News-1"].Widget.Template)
	assert.Equal(t, []string{ActionDelete}, byID["News-1"].Actions)

	assert.True(t, byID["Ghost-1"].Widget.Placeholder)
	assert.Equal(t, "unknown widget type: Ghost", byID["Ghost-1"].Widget.Message)
	assert.Empty(t, byID["Ghost-1"].Actions)

	assert.True(t, byID["Exploding-1"].Widget.Placeholder)
	assert.Contains(t, byID["Exploding-1"].Widget.Message, "boom")

	assert.True(t, byID["Failing-1"].Widget.Placeholder)
	assert.Equal(t, "feed offline", byID["Failing-1"].Widget.Message)

	assert.True(t, byID["Unmapped-1"].Widget.Placeholder)
	assert.Equal(t, "unknown widget type: Unmapped", byID["Unmapped-1"].Widget.Message)
}

func TestComposeEmptyDashboard(t *testing.T) {
	view := Compose(SavedConfig{}, NewCatalog(nil), DefaultDispatchTable(), ComposeInput{Width: 500})
	assert.True(t, view.Empty)
	assert.Equal(t, EmptyDashboardMessage, view.EmptyMessage)
	assert.Equal(t, "xs", view.Breakpoint)
	assert.Equal(t, DefaultRowHeight, view.RowHeight)
	assert.Equal(t, DragHandle, view.DragHandle)
	assert.NotNil(t, view.Cells)
}

func TestLayoutEntryJSONAppendPlacement(t *testing.T) {
	var entry LayoutEntry
	require.NoError(t, json.Unmarshal([]byte(`{"i":"a","x":0,"y":null,"w":4,"h":6,"minW":2,"minH":4}`), &entry))
	assert.Equal(t, PlacementAppend, entry.Placement)
	assert.True(t, entry.IsResizable)
	assert.True(t, entry.IsDraggable)

	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"y":null`)

	var fixed LayoutEntry
	require.NoError(t, json.Unmarshal([]byte(`{"i":"b","x":1,"y":3,"w":4,"h":6,"isResizable":false}`), &fixed))
	assert.Equal(t, PlacementFixed, fixed.Placement)
	assert.Equal(t, 3, fixed.Y)
	assert.False(t, fixed.IsResizable)
}
