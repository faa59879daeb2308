package client

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// Source is the backend surface the loader consumes.
type Source interface {
	FetchCatalog(ctx context.Context) ([]dashboard.WidgetTypeMeta, error)
	FetchSavedConfig(ctx context.Context) (*dashboard.SavedConfig, error)
}

var _ Source = (*HTTPClient)(nil)

// LoadDashboard fetches the catalog and saved config in parallel and reconciles
// them. Either failure aborts the load with a *dashboard.LoadError; nothing is
// rendered from a half-finished load.
func (c *HTTPClient) LoadDashboard(ctx context.Context) (dashboard.Dashboard, error) {
	return Load(ctx, c, c.clock())
}

// Load runs the parallel fetch and reconciliation against any Source.
func Load(ctx context.Context, src Source, now time.Time) (dashboard.Dashboard, error) {
	var (
		types []dashboard.WidgetTypeMeta
		saved *dashboard.SavedConfig
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		if types, err = src.FetchCatalog(gctx); err != nil {
			return &dashboard.LoadError{Source: dashboard.LoadSourceCatalog, Err: err}
		}
		return nil
	})
	group.Go(func() error {
		var err error
		if saved, err = src.FetchSavedConfig(gctx); err != nil {
			return &dashboard.LoadError{Source: dashboard.LoadSourceConfig, Err: err}
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return dashboard.Dashboard{}, err
	}
	catalog := dashboard.NewCatalog(types)
	return dashboard.Dashboard{
		Config:  dashboard.Reconcile(saved, catalog, now),
		Catalog: catalog,
	}, nil
}
