package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

type catalogService interface {
	UpsertWidgetType(ctx context.Context, viewer dashboard.ViewerContext, meta dashboard.WidgetTypeMeta) error
	DeleteWidgetType(ctx context.Context, viewer dashboard.ViewerContext, typeKey string) error
}

// UpsertWidgetTypeInput creates or replaces one catalog entry.
type UpsertWidgetTypeInput struct {
	Viewer dashboard.ViewerContext
	Type   dashboard.WidgetTypeMeta
}

// UpsertWidgetTypeCommand maintains catalog entries.
type UpsertWidgetTypeCommand struct {
	service   catalogService
	telemetry Telemetry
}

// NewUpsertWidgetTypeCommand creates the command.
func NewUpsertWidgetTypeCommand(service catalogService, telemetry Telemetry) *UpsertWidgetTypeCommand {
	return &UpsertWidgetTypeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpsertWidgetTypeInput] = (*UpsertWidgetTypeCommand)(nil)

// Execute delegates to the dashboard service.
func (c *UpsertWidgetTypeCommand) Execute(ctx context.Context, msg UpsertWidgetTypeInput) error {
	if c.service == nil {
		return errors.New("upsert widget type command requires service")
	}
	if err := c.service.UpsertWidgetType(ctx, msg.Viewer, msg.Type); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.catalog_upsert", map[string]any{"type_key": msg.Type.TypeKey})
	return nil
}

// DeleteWidgetTypeInput removes a catalog entry.
type DeleteWidgetTypeInput struct {
	Viewer  dashboard.ViewerContext
	TypeKey string
}

// DeleteWidgetTypeCommand removes catalog entries. Existing instances are
// orphaned and pruned on their next load.
type DeleteWidgetTypeCommand struct {
	service   catalogService
	telemetry Telemetry
}

// NewDeleteWidgetTypeCommand creates the command.
func NewDeleteWidgetTypeCommand(service catalogService, telemetry Telemetry) *DeleteWidgetTypeCommand {
	return &DeleteWidgetTypeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteWidgetTypeInput] = (*DeleteWidgetTypeCommand)(nil)

// Execute delegates to the dashboard service.
func (c *DeleteWidgetTypeCommand) Execute(ctx context.Context, msg DeleteWidgetTypeInput) error {
	if c.service == nil {
		return errors.New("delete widget type command requires service")
	}
	if err := c.service.DeleteWidgetType(ctx, msg.Viewer, msg.TypeKey); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.catalog_delete", map[string]any{"type_key": msg.TypeKey})
	return nil
}
