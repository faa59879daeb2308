package dashboard

import (
	"context"
	"errors"
	"fmt"
)

var errMissingCatalogStore = errors.New("dashboard: catalog store not configured")

// SeedCatalog ensures every given type exists in the store. Existing entries are
// never overwritten, so admin edits survive restarts. It returns the number of
// types created.
func SeedCatalog(ctx context.Context, store CatalogStore, types []WidgetTypeMeta) (int, error) {
	if store == nil {
		return 0, errMissingCatalogStore
	}
	created := 0
	var seedErr error
	for _, meta := range types {
		if err := CheckWidgetType(meta); err != nil {
			seedErr = errors.Join(seedErr, err)
			continue
		}
		ok, err := store.EnsureType(ctx, meta)
		if err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("seed widget type %s: %w", meta.TypeKey, err))
			continue
		}
		if ok {
			created++
		}
	}
	return created, seedErr
}
