package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("GRIDBOARD_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GRIDBOARD_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbName := "gridboard_test_" + uuid.NewString()[:8]
	store, err := Open(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = store.client.Database(dbName).Drop(ctx)
		_ = store.Close(ctx)
	})
	return store
}

func TestCatalogRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := dashboard.SeedCatalog(ctx, store, dashboard.DefaultWidgetTypes())
	require.NoError(t, err)
	assert.Equal(t, len(dashboard.DefaultWidgetTypes()), created)

	types, err := store.ListTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, len(dashboard.DefaultWidgetTypes()))
	assert.Equal(t, "BusinessPartnerInfo", types[0].TypeKey)
	assert.NotEmpty(t, types[0].ID)

	ensured, err := store.EnsureType(ctx, dashboard.WidgetTypeMeta{TypeKey: "News", Name: "ignored"})
	require.NoError(t, err)
	assert.False(t, ensured)

	require.NoError(t, store.DeleteType(ctx, "News"))
	assert.True(t, errors.Is(store.DeleteType(ctx, "News"), dashboard.ErrWidgetTypeNotFound))
}

func TestConfigRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	missing, err := store.LoadConfig(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cfg := dashboard.SavedConfig{
		Layout:  []dashboard.LayoutEntry{{I: "News-1", W: 6, H: 10, IsResizable: true, IsDraggable: true, Placement: dashboard.PlacementAppend}},
		Widgets: []dashboard.WidgetInstance{{ID: "News-1", Type: "News"}},
	}
	require.NoError(t, store.SaveConfig(ctx, "user-1", "default", cfg))
	loaded, err := store.LoadConfig(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cfg, *loaded)
}
