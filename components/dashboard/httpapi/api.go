package httpapi

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	gocommand "github.com/goliatone/go-command"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/components/dashboard/commands"
	"github.com/goliatone/go-gridboard/components/dashboard/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Catalog     gocommand.Querier[queries.CatalogInput, []dashboard.WidgetTypeMeta]
	Menu        gocommand.Querier[dashboard.ViewerContext, []dashboard.WidgetTypeMeta]
	SavedConfig gocommand.Querier[dashboard.ViewerContext, dashboard.ConfigEnvelope]
	Dashboard   gocommand.Querier[queries.DashboardInput, dashboard.GridView]
	Save        gocommand.Commander[commands.SaveDashboardInput]
	UpsertType  gocommand.Commander[commands.UpsertWidgetTypeInput]
	DeleteType  gocommand.Commander[commands.DeleteWidgetTypeInput]

	Validator  *dashboard.PayloadValidator
	Events     *dashboard.BroadcastHook
	Controller *dashboard.Controller
	Logger     *zap.Logger
}

// HandlerOptions wires a Service into a Handlers set.
type HandlerOptions struct {
	Service    *dashboard.Service
	Events     *dashboard.BroadcastHook
	Controller *dashboard.Controller
	Telemetry  commands.Telemetry
	Logger     *zap.Logger
}

// NewHandlers builds the commands and queries for every route over one service.
func NewHandlers(opts HandlerOptions) *Handlers {
	svc := opts.Service
	if svc == nil {
		svc = dashboard.NewService(dashboard.Options{})
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Catalog:     queries.NewCatalogQuery(svc),
		Menu:        queries.NewAddMenuQuery(svc),
		SavedConfig: queries.NewSavedConfigQuery(svc),
		Dashboard:   queries.NewDashboardQuery(svc),
		Save:        commands.NewSaveDashboardCommand(svc, opts.Telemetry),
		UpsertType:  commands.NewUpsertWidgetTypeCommand(svc, opts.Telemetry),
		DeleteType:  commands.NewDeleteWidgetTypeCommand(svc, opts.Telemetry),
		Validator:   svc.Validator(),
		Events:      opts.Events,
		Controller:  opts.Controller,
		Logger:      logger,
	}
}

// Register mounts the dashboard routes. auth guards everything except /health.
func Register(router fiber.Router, h *Handlers, auth fiber.Handler) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if auth == nil {
		auth = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := router.Group("/api", auth)
	types := api.Group("/widgets/types")
	types.Get("/", h.HandleListTypes)
	types.Get("/menu", h.HandleAddMenu)
	types.Put("/:key", RequireAdmin(), h.HandleUpsertType)
	types.Delete("/:key", RequireAdmin(), h.HandleDeleteType)

	api.Get("/dashboard/config", h.HandleGetConfig)
	api.Post("/dashboard/config", h.HandleSaveConfig)
	api.Get("/dashboard", h.HandleDashboard)
	if h.Events != nil {
		api.Get("/dashboard/events", h.HandleEvents)
		api.Get("/dashboard/ws", upgradeOnly, h.HandleEventsSocket())
	}
	if h.Controller != nil {
		router.Get("/dashboard", auth, h.HandleDashboardPage)
	}
}

// HandleListTypes returns the full catalog.
func (h *Handlers) HandleListTypes(c *fiber.Ctx) error {
	types, err := h.Catalog.Query(c.UserContext(), queries.CatalogInput{})
	if err != nil {
		return err
	}
	return c.JSON(types)
}

// HandleAddMenu returns the catalog entries offered to the viewer's role.
func (h *Handlers) HandleAddMenu(c *fiber.Ctx) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	menu, err := h.Menu.Query(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	if menu == nil {
		menu = []dashboard.WidgetTypeMeta{}
	}
	return c.JSON(menu)
}

// HandleUpsertType creates or replaces the catalog entry named in the path.
func (h *Handlers) HandleUpsertType(c *fiber.Ctx) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	if err := h.validateBody(c, dashboard.SchemaWidgetType); err != nil {
		return err
	}
	var meta dashboard.WidgetTypeMeta
	if err := json.Unmarshal(c.Body(), &meta); err != nil {
		return BadRequestError("Malformed widget type")
	}
	key := c.Params("key")
	if meta.TypeKey != "" && meta.TypeKey != key {
		return BadRequestError("type_key does not match the request path")
	}
	meta.TypeKey = key
	if err := h.UpsertType.Execute(c.UserContext(), commands.UpsertWidgetTypeInput{Viewer: viewer, Type: meta}); err != nil {
		return err
	}
	return c.JSON(meta)
}

// HandleDeleteType removes a catalog entry.
func (h *Handlers) HandleDeleteType(c *fiber.Ctx) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	input := commands.DeleteWidgetTypeInput{Viewer: viewer, TypeKey: c.Params("key")}
	if err := h.DeleteType.Execute(c.UserContext(), input); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetConfig returns the viewer's stored dashboard or a null config.
func (h *Handlers) HandleGetConfig(c *fiber.Ctx) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	env, err := h.SavedConfig.Query(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(env)
}

// HandleSaveConfig overwrites the viewer's dashboard with the request body.
func (h *Handlers) HandleSaveConfig(c *fiber.Ctx) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	if err := h.validateBody(c, dashboard.SchemaSaveRequest); err != nil {
		return err
	}
	var req dashboard.SaveConfigRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return BadRequestError("Malformed dashboard config")
	}
	if err := h.Save.Execute(c.UserContext(), commands.SaveDashboardInput{Viewer: viewer, Request: req}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "saved"})
}

// HandleDashboard returns the reconciled grid composed for ?width=.
func (h *Handlers) HandleDashboard(c *fiber.Ctx) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	width, err := widthParam(c)
	if err != nil {
		return err
	}
	view, err := h.Dashboard.Query(c.UserContext(), queries.DashboardInput{Viewer: viewer, Width: width})
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// HandleDashboardPage renders the composed grid as HTML.
func (h *Handlers) HandleDashboardPage(c *fiber.Ctx) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	width, err := widthParam(c)
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return h.Controller.RenderTemplate(c.UserContext(), viewer, width, c.Response().BodyWriter())
}

func (h *Handlers) validateBody(c *fiber.Ctx, schema string) error {
	if h.Validator == nil {
		return nil
	}
	if len(c.Body()) == 0 {
		return BadRequestError("Request body is required")
	}
	return h.Validator.ValidateJSON(schema, c.Body())
}

func widthParam(c *fiber.Ctx) (int, error) {
	raw := c.Query("width")
	if raw == "" {
		return 0, nil
	}
	width, err := strconv.Atoi(raw)
	if err != nil || width < 0 {
		return 0, BadRequestError("width must be a non-negative integer")
	}
	return width, nil
}

func viewerFrom(c *fiber.Ctx) (dashboard.ViewerContext, error) {
	viewer, ok := GetViewer(c)
	if !ok || viewer.UserID == "" {
		return dashboard.ViewerContext{}, dashboard.ErrViewerRequired
	}
	return viewer, nil
}

var errNoEvents = errors.New("httpapi: events are not configured")
