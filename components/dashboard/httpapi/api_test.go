package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/components/dashboard/queries"
)

const testSecret = "test-secret"

var (
	driver = dashboard.ViewerContext{UserID: "user-1", Username: "dana", Role: "driver", BusinessPartnerID: "bp-1001"}
	admin  = dashboard.ViewerContext{UserID: "admin-1", Username: "root", Role: dashboard.RoleAdmin}
)

func newTestApp(t *testing.T) (*fiber.App, *dashboard.Service) {
	t.Helper()
	partners := dashboard.NewStaticPartnerDirectory(dashboard.DemoPartners()...)
	svc := dashboard.NewService(dashboard.Options{
		Partners: partners,
		Clock:    func() time.Time { return time.UnixMilli(1700000000000) },
	})
	handlers := NewHandlers(HandlerOptions{Service: svc})
	return NewApp(AppOptions{Handlers: handlers, JWTSecret: testSecret}), svc
}

func token(t *testing.T, viewer dashboard.ViewerContext) string {
	t.Helper()
	signed, err := IssueToken(viewer, testSecret, time.Hour)
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, app *fiber.App, method, path string, viewer *dashboard.ViewerContext, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if viewer != nil {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, *viewer))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthIsPublic(t *testing.T) {
	app, _ := newTestApp(t)
	resp := do(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutesRequireBearerToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/widgets/types", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/widgets/types", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListWidgetTypes(t *testing.T) {
	app, _ := newTestApp(t)
	resp := do(t, app, http.MethodGet, "/api/widgets/types", &driver, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	types := decode[[]dashboard.WidgetTypeMeta](t, resp)
	assert.Len(t, types, len(dashboard.DefaultWidgetTypes()))
}

func TestAddMenuFiltersByRole(t *testing.T) {
	app, _ := newTestApp(t)
	resp := do(t, app, http.MethodGet, "/api/widgets/types/menu", &driver, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	menu := decode[[]dashboard.WidgetTypeMeta](t, resp)
	for _, meta := range menu {
		assert.NotEqual(t, "AISummary", meta.TypeKey)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/dashboard/config", &driver, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode[map[string]any](t, resp)
	assert.Contains(t, env, "config")
	assert.Nil(t, env["config"])

	payload := `{"name":"default","config":{
		"layout":[
			{"i":"News-1","x":0,"y":0,"w":6,"h":10,"minW":3,"minH":6,"isResizable":true,"isDraggable":true},
			{"i":"Traffic-2","x":0,"y":null,"w":6,"h":8,"minW":3,"minH":6,"isResizable":true,"isDraggable":true}
		],
		"widgets":[{"id":"News-1","type":"News"},{"id":"Traffic-2","type":"Traffic"}]
	}}`
	resp = do(t, app, http.MethodPost, "/api/dashboard/config", &driver, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/dashboard/config", &driver, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[dashboard.ConfigEnvelope](t, resp)
	require.NotNil(t, saved.Config)
	require.Len(t, saved.Config.Layout, 2)
	assert.Equal(t, dashboard.PlacementAppend, saved.Config.Layout[1].Placement)

	other := dashboard.ViewerContext{UserID: "user-2", Role: "driver"}
	resp = do(t, app, http.MethodGet, "/api/dashboard/config", &other, "")
	isolated := decode[dashboard.ConfigEnvelope](t, resp)
	assert.Nil(t, isolated.Config)
}

func TestSaveConfigRejectsInvalidPayloads(t *testing.T) {
	app, svc := newTestApp(t)

	cases := map[string]string{
		"missing widgets": `{"name":"default","config":{"layout":[]}}`,
		"negative width":  `{"config":{"layout":[{"i":"a","x":0,"y":0,"w":0,"h":1}],"widgets":[{"id":"a","type":"News"}]}}`,
		"duplicate ids":   `{"config":{"layout":[{"i":"a","x":0,"y":0,"w":1,"h":1},{"i":"a","x":1,"y":0,"w":1,"h":1}],"widgets":[{"id":"a","type":"News"},{"id":"a","type":"News"}]}}`,
		"not json":        `{"config":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, "/api/dashboard/config", &driver, body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			out := decode[ErrorResponse](t, resp)
			assert.Equal(t, "VALIDATION_FAILED", out.Error.Code)
		})
	}

	stored, err := svc.SavedConfig(context.Background(), driver)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestCatalogMaintenanceRequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t)
	body := `{"type_key":"Weather","name":"Weather","default_width":4,"default_height":6,
		"default_min_width":2,"default_min_height":4,"is_removable":true,"is_resizable":true,"is_draggable":true}`

	resp := do(t, app, http.MethodPut, "/api/widgets/types/Weather", &driver, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, app, http.MethodPut, "/api/widgets/types/Weather", &admin, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/widgets/types", &driver, "")
	types := decode[[]dashboard.WidgetTypeMeta](t, resp)
	keys := make([]string, 0, len(types))
	for _, meta := range types {
		keys = append(keys, meta.TypeKey)
	}
	assert.Contains(t, keys, "Weather")

	resp = do(t, app, http.MethodPut, "/api/widgets/types/Other", &admin, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/widgets/types/Weather", &admin, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/widgets/types/Weather", &admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeletedTypeIsPrunedOnNextLoad(t *testing.T) {
	app, _ := newTestApp(t)
	payload := `{"config":{"layout":[{"i":"Traffic-1","x":0,"y":0,"w":6,"h":8}],"widgets":[{"id":"Traffic-1","type":"Traffic"}]}}`
	resp := do(t, app, http.MethodPost, "/api/dashboard/config", &driver, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/widgets/types/Traffic", &admin, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/dashboard?width=1400", &driver, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[dashboard.GridView](t, resp)
	for _, cell := range view.Cells {
		assert.NotEqual(t, "Traffic", cell.Widget.Type)
	}
}

func TestDashboardComposesForWidth(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/dashboard?width=500", &driver, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[dashboard.GridView](t, resp)
	assert.Equal(t, "xs", view.Breakpoint)
	assert.Equal(t, 4, view.Cols)
	require.Len(t, view.Cells, 1)
	cell := view.Cells[0]
	assert.Equal(t, "BusinessPartnerInfo", cell.Widget.Type)
	assert.Empty(t, cell.Actions)
	assert.LessOrEqual(t, cell.Layout.W, 4)

	resp = do(t, app, http.MethodGet, "/api/dashboard?width=wide", &driver, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type failingDashboardQuery struct{}

func (failingDashboardQuery) Query(context.Context, queries.DashboardInput) (dashboard.GridView, error) {
	return dashboard.GridView{}, &dashboard.LoadError{Source: dashboard.LoadSourceCatalog, Err: errors.New("upstream down")}
}

func TestLoadFailureMapsToBadGateway(t *testing.T) {
	handlers := NewHandlers(HandlerOptions{})
	handlers.Dashboard = failingDashboardQuery{}
	app := NewApp(AppOptions{Handlers: handlers, JWTSecret: testSecret})

	resp := do(t, app, http.MethodGet, "/api/dashboard", &driver, "")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "LOAD_FAILED", body.Error.Code)
}

type pageRenderer struct {
	template string
}

func (r *pageRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.template = name
	var buf bytes.Buffer
	buf.WriteString("<main>")
	if payload, ok := data.(map[string]any); ok {
		if view, ok := payload["dashboard"].(map[string]any); ok {
			buf.WriteString(view["breakpoint"].(string))
		}
	}
	buf.WriteString("</main>")
	for _, w := range out {
		if w != nil {
			w.Write(buf.Bytes())
		}
	}
	return buf.String(), nil
}

func TestDashboardPageRendersHTML(t *testing.T) {
	svc := dashboard.NewService(dashboard.Options{})
	renderer := &pageRenderer{}
	handlers := NewHandlers(HandlerOptions{
		Service:    svc,
		Controller: dashboard.NewController(dashboard.ControllerOptions{Service: svc, Renderer: renderer}),
	})
	app := NewApp(AppOptions{Handlers: handlers, JWTSecret: testSecret})

	resp := do(t, app, http.MethodGet, "/dashboard?width=800", &driver, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<main>sm</main>", string(raw))
	assert.Equal(t, "dashboard.html", renderer.template)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
}

func TestClaimsPreferIDOverSubject(t *testing.T) {
	signed, err := IssueToken(dashboard.ViewerContext{UserID: "u-9", Role: "manager", Regions: []string{"north"}}, testSecret, time.Minute)
	require.NoError(t, err)
	claims, err := ParseToken(signed, testSecret)
	require.NoError(t, err)
	viewer := claims.Viewer()
	assert.Equal(t, "u-9", viewer.UserID)
	assert.Equal(t, []string{"north"}, viewer.Regions)

	_, err = ParseToken(signed, "other-secret")
	assert.Error(t, err)
}

func TestEventVisibility(t *testing.T) {
	assert.True(t, visibleTo(driver, dashboard.DashboardEvent{Reason: "catalog.changed"}))
	assert.True(t, visibleTo(driver, dashboard.DashboardEvent{UserID: driver.UserID}))
	assert.False(t, visibleTo(driver, dashboard.DashboardEvent{UserID: "someone-else"}))
}
