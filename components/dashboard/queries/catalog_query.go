package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

type catalogService interface {
	Catalog(ctx context.Context) (*dashboard.Catalog, error)
	AddMenu(ctx context.Context, viewer dashboard.ViewerContext) ([]dashboard.WidgetTypeMeta, error)
}

// CatalogInput requests the full widget catalog.
type CatalogInput struct{}

// CatalogQuery lists every widget type.
type CatalogQuery struct {
	service catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(service catalogService) *CatalogQuery {
	return &CatalogQuery{service: service}
}

var _ gocommand.Querier[CatalogInput, []dashboard.WidgetTypeMeta] = (*CatalogQuery)(nil)

// Query returns the catalog in stored order.
func (q *CatalogQuery) Query(ctx context.Context, _ CatalogInput) ([]dashboard.WidgetTypeMeta, error) {
	catalog, err := q.service.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	types := catalog.Types()
	if types == nil {
		types = []dashboard.WidgetTypeMeta{}
	}
	return types, nil
}

// AddMenuQuery lists the types offered to a viewer in the add-widget menu.
type AddMenuQuery struct {
	service catalogService
}

// NewAddMenuQuery builds the query.
func NewAddMenuQuery(service catalogService) *AddMenuQuery {
	return &AddMenuQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, []dashboard.WidgetTypeMeta] = (*AddMenuQuery)(nil)

// Query filters the catalog by the viewer's role.
func (q *AddMenuQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) ([]dashboard.WidgetTypeMeta, error) {
	return q.service.AddMenu(ctx, viewer)
}
