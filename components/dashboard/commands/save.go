package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

type saveService interface {
	SaveConfig(ctx context.Context, viewer dashboard.ViewerContext, req dashboard.SaveConfigRequest) error
}

// SaveDashboardInput carries an explicit save of the viewer's working state.
type SaveDashboardInput struct {
	Viewer  dashboard.ViewerContext
	Request dashboard.SaveConfigRequest
}

// SaveDashboardCommand persists a dashboard. It is the only path that writes a
// user's layout; reconciliation and grid edits never save on their own.
type SaveDashboardCommand struct {
	service   saveService
	telemetry Telemetry
}

// NewSaveDashboardCommand creates a command instance.
func NewSaveDashboardCommand(service saveService, telemetry Telemetry) *SaveDashboardCommand {
	return &SaveDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveDashboardInput] = (*SaveDashboardCommand)(nil)

// Execute delegates to the dashboard service.
func (c *SaveDashboardCommand) Execute(ctx context.Context, msg SaveDashboardInput) error {
	if c.service == nil {
		return errors.New("save command requires service")
	}
	if err := c.service.SaveConfig(ctx, msg.Viewer, msg.Request); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.save", map[string]any{
		"user_id": msg.Viewer.UserID,
		"widgets": len(msg.Request.Config.Widgets),
	})
	return nil
}
