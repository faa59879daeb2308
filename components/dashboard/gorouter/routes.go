package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/components/dashboard/commands"
	"github.com/goliatone/go-gridboard/components/dashboard/httpapi"
	"github.com/goliatone/go-gridboard/components/dashboard/queries"
)

// RequestContext is the part of router.Context the dashboard routes read and write.
type RequestContext interface {
	Context() context.Context
	Body() []byte
	Param(name string, defaultValue ...string) string
	Query(name string, defaultValue ...string) string
	Header(key string) string
	Locals(key any, value ...any) any
	SetHeader(key, value string) router.Context
	Send(body []byte) error
	JSON(code int, v any) error
}

// ViewerResolver identifies the viewer of a request. Returning an error
// answers the request with that error.
type ViewerResolver func(RequestContext) (dashboard.ViewerContext, error)

// Config wires go-router with the dashboard handlers, page controller and events.
type Config[T any] struct {
	Router         router.Router[T]
	Handlers       *httpapi.Handlers
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML      string
	Grid      string
	Types     string
	Menu      string
	TypeKey   string
	Config    string
	WebSocket string
}

// routeRegistrar is the subset of router.Router[T] the routes are mounted on.
type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// Register mounts the dashboard routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Handlers == nil {
		return errors.New("gorouter: handlers are required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/gridboard"
	}
	mount(cfg.Router.Group(base), newEndpoints(cfg.Handlers, cfg.ViewerResolver), defaultRouteConfig(cfg.Routes))
	return nil
}

func mount(r routeRegistrar, e *endpoints, routes RouteConfig) {
	r.Get(routes.Types, wrap(e.listTypes))
	r.Get(routes.Menu, wrap(e.addMenu))
	r.Put(routes.TypeKey, wrap(e.upsertType))
	r.Delete(routes.TypeKey, wrap(e.deleteType))
	r.Get(routes.Config, wrap(e.getConfig))
	r.Post(routes.Config, wrap(e.saveConfig))
	r.Get(routes.Grid, wrap(e.grid))
	if e.h.Controller != nil {
		r.Get(routes.HTML, wrap(e.page))
	}
	if e.h.Events != nil {
		r.WebSocket(routes.WebSocket, router.DefaultWebSocketConfig(), e.socket)
	}
}

func wrap(fn func(RequestContext) error) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		return fn(ctx)
	})
}

type endpoints struct {
	h       *httpapi.Handlers
	resolve ViewerResolver
}

func newEndpoints(h *httpapi.Handlers, resolve ViewerResolver) *endpoints {
	if resolve == nil {
		resolve = LocalsViewerResolver
	}
	return &endpoints{h: h, resolve: resolve}
}

func (e *endpoints) viewer(ctx RequestContext) (dashboard.ViewerContext, error) {
	viewer, err := e.resolve(ctx)
	if err != nil {
		return dashboard.ViewerContext{}, err
	}
	if viewer.UserID == "" {
		return dashboard.ViewerContext{}, dashboard.ErrViewerRequired
	}
	return viewer, nil
}

func (e *endpoints) listTypes(ctx RequestContext) error {
	if _, err := e.viewer(ctx); err != nil {
		return respondError(ctx, err)
	}
	types, err := e.h.Catalog.Query(ctx.Context(), queries.CatalogInput{})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, types)
}

func (e *endpoints) addMenu(ctx RequestContext) error {
	viewer, err := e.viewer(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	menu, err := e.h.Menu.Query(ctx.Context(), viewer)
	if err != nil {
		return respondError(ctx, err)
	}
	if menu == nil {
		menu = []dashboard.WidgetTypeMeta{}
	}
	return ctx.JSON(http.StatusOK, menu)
}

func (e *endpoints) upsertType(ctx RequestContext) error {
	viewer, err := e.viewer(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	if err := e.validateBody(ctx, dashboard.SchemaWidgetType); err != nil {
		return respondError(ctx, err)
	}
	var meta dashboard.WidgetTypeMeta
	if err := json.Unmarshal(ctx.Body(), &meta); err != nil {
		return respondError(ctx, httpapi.BadRequestError("Malformed widget type"))
	}
	key := ctx.Param("key")
	if meta.TypeKey != "" && meta.TypeKey != key {
		return respondError(ctx, httpapi.BadRequestError("type_key does not match the request path"))
	}
	meta.TypeKey = key
	if err := e.h.UpsertType.Execute(ctx.Context(), commands.UpsertWidgetTypeInput{Viewer: viewer, Type: meta}); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, meta)
}

func (e *endpoints) deleteType(ctx RequestContext) error {
	viewer, err := e.viewer(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	input := commands.DeleteWidgetTypeInput{Viewer: viewer, TypeKey: ctx.Param("key")}
	if err := e.h.DeleteType.Execute(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (e *endpoints) getConfig(ctx RequestContext) error {
	viewer, err := e.viewer(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	env, err := e.h.SavedConfig.Query(ctx.Context(), viewer)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, env)
}

func (e *endpoints) saveConfig(ctx RequestContext) error {
	viewer, err := e.viewer(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	if err := e.validateBody(ctx, dashboard.SchemaSaveRequest); err != nil {
		return respondError(ctx, err)
	}
	var req dashboard.SaveConfigRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		return respondError(ctx, httpapi.BadRequestError("Malformed dashboard config"))
	}
	if err := e.h.Save.Execute(ctx.Context(), commands.SaveDashboardInput{Viewer: viewer, Request: req}); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (e *endpoints) grid(ctx RequestContext) error {
	viewer, err := e.viewer(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	width, err := widthParam(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	view, err := e.h.Dashboard.Query(ctx.Context(), queries.DashboardInput{Viewer: viewer, Width: width})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, view)
}

func (e *endpoints) page(ctx RequestContext) error {
	viewer, err := e.viewer(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	width, err := widthParam(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	var buf bytes.Buffer
	if err := e.h.Controller.RenderTemplate(ctx.Context(), viewer, width, &buf); err != nil {
		return respondError(ctx, err)
	}
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.Send(buf.Bytes())
}

// socket pushes refresh events. Catalog-wide events go to every socket; saves
// only reach a socket whose context carries the saving viewer.
func (e *endpoints) socket(ws router.WebSocketContext) error {
	viewer, _ := dashboard.ViewerFromContext(ws.Context())
	events, cancel := e.h.Events.Subscribe()
	defer cancel()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.UserID != "" && event.UserID != viewer.UserID {
				continue
			}
			if err := ws.WriteJSON(event); err != nil {
				return err
			}
		case <-ws.Context().Done():
			return ws.Close()
		}
	}
}

func (e *endpoints) validateBody(ctx RequestContext, schema string) error {
	if e.h.Validator == nil {
		return nil
	}
	if len(ctx.Body()) == 0 {
		return httpapi.BadRequestError("Request body is required")
	}
	return e.h.Validator.ValidateJSON(schema, ctx.Body())
}

func widthParam(ctx RequestContext) (int, error) {
	raw := ctx.Query("width")
	if raw == "" {
		return 0, nil
	}
	width, err := strconv.Atoi(raw)
	if err != nil || width < 0 {
		return 0, httpapi.BadRequestError("width must be a non-negative integer")
	}
	return width, nil
}

// LocalsViewerResolver reads the viewer a host middleware stored under the
// "viewer" local.
func LocalsViewerResolver(ctx RequestContext) (dashboard.ViewerContext, error) {
	if viewer, ok := ctx.Locals("viewer").(dashboard.ViewerContext); ok {
		return viewer, nil
	}
	return dashboard.ViewerContext{}, dashboard.ErrViewerRequired
}

// TokenViewerResolver verifies the HS256 bearer token on each request.
func TokenViewerResolver(secret string) ViewerResolver {
	return func(ctx RequestContext) (dashboard.ViewerContext, error) {
		token := bearerToken(ctx)
		if token == "" {
			return dashboard.ViewerContext{}, httpapi.UnauthorizedError("Missing auth token")
		}
		claims, err := httpapi.ParseToken(token, secret)
		if err != nil {
			return dashboard.ViewerContext{}, httpapi.UnauthorizedError("Invalid or expired token")
		}
		return claims.Viewer(), nil
	}
}

func bearerToken(ctx RequestContext) string {
	header := ctx.Header("Authorization")
	if header == "" {
		return ctx.Query("access_token")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func respondError(ctx RequestContext, err error) error {
	apiErr := httpapi.ErrorFor(err)
	return ctx.JSON(apiErr.Status, httpapi.ErrorResponse{Error: apiErr})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboard"
	}
	if routes.Grid == "" {
		routes.Grid = "/api/dashboard"
	}
	if routes.Types == "" {
		routes.Types = "/api/widgets/types"
	}
	if routes.Menu == "" {
		routes.Menu = "/api/widgets/types/menu"
	}
	if routes.TypeKey == "" {
		routes.TypeKey = "/api/widgets/types/:key"
	}
	if routes.Config == "" {
		routes.Config = "/api/dashboard/config"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/api/dashboard/ws"
	}
	return routes
}
