package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

type configService interface {
	SavedConfig(ctx context.Context, viewer dashboard.ViewerContext) (*dashboard.SavedConfig, error)
}

// SavedConfigQuery returns the viewer's stored dashboard exactly as saved.
type SavedConfigQuery struct {
	service configService
}

// NewSavedConfigQuery builds the query.
func NewSavedConfigQuery(service configService) *SavedConfigQuery {
	return &SavedConfigQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.ConfigEnvelope] = (*SavedConfigQuery)(nil)

// Query wraps the stored config in its response envelope; Config is nil when
// the viewer never saved.
func (q *SavedConfigQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.ConfigEnvelope, error) {
	cfg, err := q.service.SavedConfig(ctx, viewer)
	if err != nil {
		return dashboard.ConfigEnvelope{}, err
	}
	return dashboard.ConfigEnvelope{Config: cfg}, nil
}

// DashboardInput identifies a composed dashboard request.
type DashboardInput struct {
	Viewer dashboard.ViewerContext
	Width  int
}

type gridService interface {
	Render(ctx context.Context, viewer dashboard.ViewerContext, width int) (dashboard.GridView, error)
}

// DashboardQuery loads, reconciles and composes the viewer's dashboard.
type DashboardQuery struct {
	service gridService
}

// NewDashboardQuery builds the query.
func NewDashboardQuery(service gridService) *DashboardQuery {
	return &DashboardQuery{service: service}
}

var _ gocommand.Querier[DashboardInput, dashboard.GridView] = (*DashboardQuery)(nil)

// Query composes the grid for the requested width.
func (q *DashboardQuery) Query(ctx context.Context, input DashboardInput) (dashboard.GridView, error) {
	return q.service.Render(ctx, input.Viewer, input.Width)
}
