package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConfigName = "default"

// Options configures the dashboard Service. Every collaborator is an interface
// or a ready value so applications can swap storage and transports freely.
type Options struct {
	CatalogStore CatalogStore
	ConfigStore  ConfigStore
	Partners     PartnerDirectory
	Dispatch     *DispatchTable
	Validator    *PayloadValidator
	RefreshHook  RefreshHook
	Telemetry    Telemetry
	Logger       *zap.Logger
	Clock        func() time.Time
	RowHeight    int
}

// Service ties the stores to the layout core.
type Service struct {
	opts Options
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.CatalogStore == nil {
		opts.CatalogStore = NewInMemoryCatalogStore(DefaultWidgetTypes()...)
	}
	if opts.ConfigStore == nil {
		opts.ConfigStore = NewInMemoryConfigStore()
	}
	if opts.Partners == nil {
		opts.Partners = NewStaticPartnerDirectory()
	}
	if opts.Dispatch == nil {
		opts.Dispatch = DefaultDispatchTable()
	}
	if opts.Validator == nil {
		opts.Validator = NewPayloadValidator()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = DefaultRowHeight
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{opts: opts}
}

// Validator exposes the payload validator shared with transports.
func (s *Service) Validator() *PayloadValidator {
	return s.opts.Validator
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.opts.Clock()
}

// Catalog loads the current widget catalog.
func (s *Service) Catalog(ctx context.Context) (*Catalog, error) {
	types, err := s.opts.CatalogStore.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: list widget types: %w", err)
	}
	return NewCatalog(types), nil
}

// AddMenu lists the types the viewer may add. Filtering here only shapes the
// menu; it does not authorize widget data.
func (s *Service) AddMenu(ctx context.Context, viewer ViewerContext) ([]WidgetTypeMeta, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.ForRole(viewer.Role), nil
}

// SavedConfig returns the viewer's stored dashboard, or nil when none was saved.
func (s *Service) SavedConfig(ctx context.Context, viewer ViewerContext) (*SavedConfig, error) {
	if viewer.UserID == "" {
		return nil, ErrViewerRequired
	}
	cfg, err := s.opts.ConfigStore.LoadConfig(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load config: %w", err)
	}
	return cfg, nil
}

// SaveConfig overwrites the viewer's dashboard. Concurrent saves resolve as
// last write wins.
func (s *Service) SaveConfig(ctx context.Context, viewer ViewerContext, req SaveConfigRequest) error {
	if viewer.UserID == "" {
		return ErrViewerRequired
	}
	if err := s.opts.Validator.ValidateValue(SchemaSavedConfig, req.Config); err != nil {
		return err
	}
	if err := CheckSavedConfig(req.Config); err != nil {
		return err
	}
	name := req.Name
	if name == "" {
		name = defaultConfigName
	}
	if err := s.opts.ConfigStore.SaveConfig(ctx, viewer.UserID, name, req.Config); err != nil {
		return fmt.Errorf("dashboard: save config: %w", err)
	}
	s.notify(ctx, DashboardEvent{UserID: viewer.UserID, Reason: eventDashboardSaved, At: s.opts.Clock()})
	s.recordTelemetry(ctx, "dashboard.config.save", map[string]any{
		"user_id": viewer.UserID,
		"widgets": len(req.Config.Widgets),
	})
	return nil
}

// Dashboard is the reconciled state a client works on.
type Dashboard struct {
	Config  SavedConfig
	Catalog *Catalog
}

// LoadDashboard fetches the catalog and the saved config concurrently and
// reconciles them. Both fetches must succeed; the repaired config is not
// persisted.
func (s *Service) LoadDashboard(ctx context.Context, viewer ViewerContext) (Dashboard, error) {
	if viewer.UserID == "" {
		return Dashboard{}, ErrViewerRequired
	}
	var (
		types []WidgetTypeMeta
		saved *SavedConfig
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		types, err = s.opts.CatalogStore.ListTypes(gctx)
		if err != nil {
			return &LoadError{Source: LoadSourceCatalog, Err: err}
		}
		return nil
	})
	group.Go(func() error {
		var err error
		saved, err = s.opts.ConfigStore.LoadConfig(gctx, viewer.UserID)
		if err != nil {
			return &LoadError{Source: LoadSourceConfig, Err: err}
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		s.opts.Logger.Warn("dashboard load failed", zap.String("user_id", viewer.UserID), zap.Error(err))
		return Dashboard{}, err
	}
	catalog := NewCatalog(types)
	cfg := Reconcile(saved, catalog, s.opts.Clock())
	s.recordTelemetry(ctx, "dashboard.load", map[string]any{
		"user_id": viewer.UserID,
		"widgets": len(cfg.Widgets),
		"types":   catalog.Len(),
	})
	return Dashboard{Config: cfg, Catalog: catalog}, nil
}

// Compose lays out a loaded dashboard for the given viewport width.
func (s *Service) Compose(ctx context.Context, viewer ViewerContext, dash Dashboard, width int) GridView {
	partner := s.partnerFor(ctx, viewer)
	return Compose(dash.Config, dash.Catalog, s.opts.Dispatch, ComposeInput{
		Viewer:    viewer,
		Partner:   partner,
		Width:     width,
		RowHeight: s.opts.RowHeight,
	})
}

// Render loads and composes the viewer's dashboard in one step.
func (s *Service) Render(ctx context.Context, viewer ViewerContext, width int) (GridView, error) {
	dash, err := s.LoadDashboard(ctx, viewer)
	if err != nil {
		return GridView{}, err
	}
	return s.Compose(ctx, viewer, dash, width), nil
}

func (s *Service) partnerFor(ctx context.Context, viewer ViewerContext) *BusinessPartner {
	if viewer.BusinessPartnerID == "" {
		return nil
	}
	partner, err := s.opts.Partners.Partner(ctx, viewer.BusinessPartnerID)
	if err != nil {
		s.opts.Logger.Warn("business partner lookup failed",
			zap.String("business_partner_id", viewer.BusinessPartnerID),
			zap.Error(err),
		)
		return nil
	}
	return partner
}

// UpsertWidgetType creates or replaces a catalog entry.
func (s *Service) UpsertWidgetType(ctx context.Context, viewer ViewerContext, meta WidgetTypeMeta) error {
	if !viewer.IsAdmin() {
		return ErrForbidden
	}
	if err := CheckWidgetType(meta); err != nil {
		return err
	}
	if err := s.opts.CatalogStore.UpsertType(ctx, meta); err != nil {
		return fmt.Errorf("dashboard: upsert widget type %s: %w", meta.TypeKey, err)
	}
	s.notify(ctx, DashboardEvent{TypeKey: meta.TypeKey, Reason: eventCatalogChanged, At: s.opts.Clock()})
	s.recordTelemetry(ctx, "dashboard.catalog.upsert", map[string]any{"type_key": meta.TypeKey})
	return nil
}

// DeleteWidgetType removes a catalog entry. Instances of it become orphans and
// are pruned from each dashboard on its next load.
func (s *Service) DeleteWidgetType(ctx context.Context, viewer ViewerContext, typeKey string) error {
	if !viewer.IsAdmin() {
		return ErrForbidden
	}
	if typeKey == "" {
		return ErrTypeKeyRequired
	}
	if err := s.opts.CatalogStore.DeleteType(ctx, typeKey); err != nil {
		return fmt.Errorf("dashboard: delete widget type %s: %w", typeKey, err)
	}
	s.notify(ctx, DashboardEvent{TypeKey: typeKey, Reason: eventCatalogChanged, At: s.opts.Clock()})
	s.recordTelemetry(ctx, "dashboard.catalog.delete", map[string]any{"type_key": typeKey})
	return nil
}

// SeedCatalog ensures the given types exist without overwriting edits.
func (s *Service) SeedCatalog(ctx context.Context, types []WidgetTypeMeta) (int, error) {
	created, err := SeedCatalog(ctx, s.opts.CatalogStore, types)
	if created > 0 {
		s.notify(ctx, DashboardEvent{Reason: eventCatalogChanged, At: s.opts.Clock()})
	}
	s.recordTelemetry(ctx, "dashboard.catalog.seed", map[string]any{"created": created})
	return created, err
}

// notify publishes to the refresh hook. The change is already stored, so hook
// failures are logged rather than returned.
func (s *Service) notify(ctx context.Context, event DashboardEvent) {
	if err := s.opts.RefreshHook.DashboardUpdated(ctx, event); err != nil {
		s.opts.Logger.Warn("refresh hook failed", zap.String("reason", event.Reason), zap.Error(err))
	}
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}
