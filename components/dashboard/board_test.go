package dashboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWidgetAppendsWithDefaults(t *testing.T) {
	catalog := scenarioCatalog()
	state := Reconcile(nil, catalog, fixedNow)

	next, instance, ok := AddWidget(state, catalog, "FuelPrices", fixedNow)
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("FuelPrices-%d", fixedNow.UnixMilli()), instance.ID)
	assert.Equal(t, "FuelPrices", instance.Type)

	require.Len(t, next.Widgets, 2)
	entry, found := next.EntryFor(instance.ID)
	require.True(t, found)
	assert.Equal(t, PlacementAppend, entry.Placement)
	assert.Equal(t, 0, entry.X)
	assert.Equal(t, 4, entry.W)
	assert.Equal(t, 6, entry.H)
	assert.Equal(t, 2, entry.MinW)
	assert.Equal(t, 4, entry.MinH)
	assert.NoError(t, CheckBijection(next))

	assert.Len(t, state.Widgets, 1, "input config must not be mutated")
}

func TestAddWidgetUnknownTypeIsNoop(t *testing.T) {
	catalog := scenarioCatalog()
	state := Reconcile(nil, catalog, fixedNow)
	next, _, ok := AddWidget(state, catalog, "Nope", fixedNow)
	assert.False(t, ok)
	assert.Equal(t, state, next)
}

func TestAddWidgetSameMillisecondGetsDistinctIDs(t *testing.T) {
	catalog := scenarioCatalog()
	state := Reconcile(nil, catalog, fixedNow)
	first, a, _ := AddWidget(state, catalog, "FuelPrices", fixedNow)
	second, b, _ := AddWidget(first, catalog, "FuelPrices", fixedNow)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NoError(t, CheckBijection(second))
}

func TestAddDeleteRoundTrip(t *testing.T) {
	catalog := NewCatalog(DefaultWidgetTypes())
	state := Reconcile(&SavedConfig{
		Widgets: []WidgetInstance{{ID: "News-1", Type: "News"}},
		Layout:  []LayoutEntry{{I: "News-1", W: 6, H: 10}},
	}, catalog, fixedNow)

	for _, meta := range catalog.Types() {
		added, instance, ok := AddWidget(state, catalog, meta.TypeKey, fixedNow)
		require.True(t, ok)
		back := DeleteWidget(added, instance.ID)
		assert.Equal(t, state.Widgets, back.Widgets, meta.TypeKey)
		assert.NotContains(t, layoutKeys(back), instance.ID)
		assert.Equal(t, state.Layout, back.Layout)
	}
}

func TestDeleteWidgetIgnoresRemovability(t *testing.T) {
	catalog := scenarioCatalog()
	state := Reconcile(nil, catalog, fixedNow)
	out := DeleteWidget(state, state.Widgets[0].ID)
	assert.Empty(t, out.Widgets)
	assert.Empty(t, out.Layout)

	// The next load puts the non-removable widget back.
	again := Reconcile(&out, catalog, fixedNow)
	assert.Equal(t, 1, countType(again, "BusinessPartnerInfo"))
}

func TestApplyLayoutChange(t *testing.T) {
	catalog := scenarioCatalog()
	state := Reconcile(nil, catalog, fixedNow)
	state, added, _ := AddWidget(state, catalog, "FuelPrices", fixedNow)
	bpi := state.Widgets[0].ID

	next := ApplyLayoutChange(state, []LayoutEntry{
		{I: added.ID, X: 6, Y: 0, W: 4, H: 6, IsResizable: true, IsDraggable: true},
		{I: "ghost", X: 0, Y: 0, W: 2, H: 2},
	})
	require.NoError(t, CheckBijection(next))
	entry, _ := next.EntryFor(added.ID)
	assert.Equal(t, PlacementFixed, entry.Placement)
	assert.Equal(t, 6, entry.X)
	kept, _ := next.EntryFor(bpi)
	prev, _ := state.EntryFor(bpi)
	assert.Equal(t, prev, kept)
	assert.NotContains(t, layoutKeys(next), "ghost")
}
