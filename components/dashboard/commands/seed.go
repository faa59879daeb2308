package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

type seedService interface {
	SeedCatalog(ctx context.Context, types []dashboard.WidgetTypeMeta) (int, error)
}

// SeedCatalogInput controls bootstrap behavior. ManifestPath, when set, is read
// instead of Types; with neither, the built-in catalog is used.
type SeedCatalogInput struct {
	Types        []dashboard.WidgetTypeMeta
	ManifestPath string
}

// SeedCatalogCommand ensures catalog entries exist at boot.
type SeedCatalogCommand struct {
	service   seedService
	telemetry Telemetry
}

// NewSeedCatalogCommand wires dependencies.
func NewSeedCatalogCommand(service seedService, telemetry Telemetry) *SeedCatalogCommand {
	return &SeedCatalogCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedCatalogInput] = (*SeedCatalogCommand)(nil)

// Execute runs the bootstrap pipeline.
func (c *SeedCatalogCommand) Execute(ctx context.Context, msg SeedCatalogInput) error {
	if c.service == nil {
		return errors.New("seed command requires service")
	}
	types := msg.Types
	source := "input"
	switch {
	case msg.ManifestPath != "":
		doc, err := dashboard.ReadManifest(msg.ManifestPath)
		if err != nil {
			return err
		}
		types = doc.Types()
		source = msg.ManifestPath
	case len(types) == 0:
		types = dashboard.DefaultWidgetTypes()
		source = "defaults"
	}
	created, err := c.service.SeedCatalog(ctx, types)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.seed", map[string]any{
		"source":  source,
		"created": created,
	})
	return nil
}
