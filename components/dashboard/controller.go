package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const defaultDashboardTemplate = "dashboard.html"

// GridRenderer produces the composed grid for a viewer.
type GridRenderer interface {
	Render(ctx context.Context, viewer ViewerContext, width int) (GridView, error)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Service  GridRenderer
	Renderer Renderer
	Template string
}

// Controller turns composed grids into JSON payloads or HTML.
type Controller struct {
	service  GridRenderer
	renderer Renderer
	template string
}

// NewController wires the service and template renderer into a controller.
func NewController(opts ControllerOptions) *Controller {
	tpl := opts.Template
	if tpl == "" {
		tpl = defaultDashboardTemplate
	}
	return &Controller{service: opts.Service, renderer: opts.Renderer, template: tpl}
}

// LayoutPayload returns the composed grid for the viewer.
func (c *Controller) LayoutPayload(ctx context.Context, viewer ViewerContext, width int) (GridView, error) {
	if c.service == nil {
		return GridView{}, errors.New("dashboard: controller has no service")
	}
	return c.service.Render(ctx, viewer, width)
}

// RenderTemplate renders the composed grid through the configured template.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, width int, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("dashboard: controller has no renderer")
	}
	view, err := c.LayoutPayload(ctx, viewer, width)
	if err != nil {
		return err
	}
	data, err := templateData(view)
	if err != nil {
		return err
	}
	if _, err := c.renderer.Render(c.template, data, out); err != nil {
		return fmt.Errorf("dashboard: render %s: %w", c.template, err)
	}
	return nil
}

// templateData exposes the view to templates under its JSON field names.
func templateData(view GridView) (map[string]any, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("dashboard: encode view: %w", err)
	}
	var dashboard map[string]any
	if err := json.Unmarshal(raw, &dashboard); err != nil {
		return nil, fmt.Errorf("dashboard: decode view: %w", err)
	}
	return map[string]any{"dashboard": dashboard}, nil
}
