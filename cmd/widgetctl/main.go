package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/components/dashboard/httpapi"
)

type cli struct {
	Scaffold  scaffoldCmd  `cmd:"" help:"Add or replace a widget type in a catalog manifest."`
	Validate  validateCmd  `cmd:"" help:"Validate a catalog manifest."`
	Reconcile reconcileCmd `cmd:"" help:"Reconcile a saved dashboard against a catalog and print the result."`
	Token     tokenCmd     `cmd:"" help:"Mint a development bearer token."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Catalog and layout tooling for gridboard dashboards."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

type scaffoldCmd struct {
	Name         string   `required:"" help:"Display name for the widget type."`
	TypeKey      string   `help:"Catalog type_key (defaults to the name in PascalCase)."`
	Component    string   `help:"Component key used for dispatch when it differs from the type_key."`
	Width        int      `default:"6" help:"Default width in grid columns."`
	Height       int      `default:"8" help:"Default height in grid rows."`
	MinWidth     int      `default:"2" help:"Minimum width in grid columns."`
	MinHeight    int      `default:"2" help:"Minimum height in grid rows."`
	Fixed        bool     `help:"Mark the type non-removable; every dashboard then carries one instance."`
	NoResize     bool     `name:"no-resize" help:"Disallow resizing."`
	NoDrag       bool     `name:"no-drag" help:"Disallow dragging."`
	Role         []string `help:"Roles offered this type in the add menu (repeatable; empty means all)."`
	Tag          []string `help:"Tags to record in the manifest (repeatable)."`
	Maintainer   []string `help:"Maintainers to record in the manifest (repeatable)."`
	ManifestPath string   `required:"" name:"manifest" type:"path" help:"Manifest YAML file to update."`
	Overwrite    bool     `help:"Replace an existing entry with the same type_key."`
}

func (cmd *scaffoldCmd) Run(_ context.Context, out io.Writer) error {
	typeKey := cmd.TypeKey
	if typeKey == "" {
		typeKey = strcase.ToPascal(cmd.Name)
	}
	if typeKey == "" {
		return errors.New("widgetctl: could not derive a type_key from the name")
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("widgetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}

	entry := dashboard.ManifestWidget{
		WidgetTypeMeta: dashboard.WidgetTypeMeta{
			TypeKey:          typeKey,
			ComponentKey:     cmd.Component,
			Name:             cmd.Name,
			DefaultWidth:     cmd.Width,
			DefaultHeight:    cmd.Height,
			DefaultMinWidth:  cmd.MinWidth,
			DefaultMinHeight: cmd.MinHeight,
			IsRemovable:      !cmd.Fixed,
			IsResizable:      !cmd.NoResize,
			IsDraggable:      !cmd.NoDrag,
			AllowedRoles:     cmd.Role,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}

	if idx := doc.Find(typeKey); idx >= 0 {
		if !cmd.Overwrite {
			return fmt.Errorf("widgetctl: manifest already defines %s (use --overwrite to replace)", typeKey)
		}
		doc.Widgets[idx] = entry
	} else {
		doc.Widgets = append(doc.Widgets, entry)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ %s written to %s (component %s, template widgets/%s)\n",
		typeKey, manifestPath, entry.DispatchKey(), strcase.ToSnake(entry.DispatchKey()))
	return nil
}

type validateCmd struct {
	ManifestPath string `arg:"" name:"manifest" type:"existingfile" help:"Manifest YAML file."`
}

func (cmd *validateCmd) Run(_ context.Context, out io.Writer) error {
	doc, err := dashboard.ReadManifest(cmd.ManifestPath)
	if err != nil {
		return err
	}
	fixed := 0
	for _, meta := range doc.Types() {
		if !meta.IsRemovable {
			fixed++
		}
	}
	fmt.Fprintf(out, "✓ %s: %d widget types (%d non-removable)\n", cmd.ManifestPath, len(doc.Widgets), fixed)
	return nil
}

type reconcileCmd struct {
	ManifestPath string `name:"manifest" type:"existingfile" help:"Catalog manifest (defaults to the built-in catalog)."`
	ConfigPath   string `name:"config" type:"existingfile" help:"Saved config JSON; either a bare config or a {\"config\": ...} envelope. Omit for a first visit."`
	Width        int    `help:"Viewport width in pixels; when set the composed grid is printed instead of the config."`
	Now          int64  `help:"Clock in epoch milliseconds used for generated ids (defaults to now)."`
}

func (cmd *reconcileCmd) Run(_ context.Context, out io.Writer) error {
	types := dashboard.DefaultWidgetTypes()
	if cmd.ManifestPath != "" {
		doc, err := dashboard.ReadManifest(cmd.ManifestPath)
		if err != nil {
			return err
		}
		types = doc.Types()
	}
	catalog := dashboard.NewCatalog(types)

	saved, err := readSavedConfig(cmd.ConfigPath)
	if err != nil {
		return err
	}
	now := time.Now()
	if cmd.Now > 0 {
		now = time.UnixMilli(cmd.Now)
	}
	cfg := dashboard.Reconcile(saved, catalog, now)

	var result any = cfg
	if cmd.Width > 0 {
		result = dashboard.Compose(cfg, catalog, dashboard.DefaultDispatchTable(), dashboard.ComposeInput{
			Viewer: dashboard.ViewerContext{UserID: "widgetctl"},
			Width:  cmd.Width,
		})
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

type tokenCmd struct {
	Secret  string        `required:"" env:"GRIDBOARD_AUTH_JWT_SECRET" help:"HS256 signing secret."`
	User    string        `required:"" help:"User id claim."`
	Role    string        `default:"user" help:"Role claim."`
	Partner string        `help:"business_partner_id claim."`
	Title   string        `help:"dashboard_title claim."`
	Region  []string      `help:"Region claims (repeatable)."`
	TTL     time.Duration `default:"24h" help:"Token lifetime."`
}

func (cmd *tokenCmd) Run(_ context.Context, out io.Writer) error {
	token, err := httpapi.IssueToken(dashboard.ViewerContext{
		UserID:            cmd.User,
		Username:          cmd.User,
		Role:              cmd.Role,
		BusinessPartnerID: cmd.Partner,
		Regions:           cmd.Region,
		DashboardTitle:    cmd.Title,
	}, cmd.Secret, cmd.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func readSavedConfig(path string) (*dashboard.SavedConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("widgetctl: read config: %w", err)
	}
	validator := dashboard.NewPayloadValidator()
	if isEnvelope(data) {
		if err := validator.ValidateJSON(dashboard.SchemaConfigEnvelope, data); err != nil {
			return nil, err
		}
		var env dashboard.ConfigEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("widgetctl: decode config envelope: %w", err)
		}
		return env.Config, nil
	}
	if err := validator.ValidateJSON(dashboard.SchemaSavedConfig, data); err != nil {
		return nil, err
	}
	var cfg dashboard.SavedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("widgetctl: decode config: %w", err)
	}
	return &cfg, nil
}

// isEnvelope reports whether data is a {"config": ...} response body rather
// than a bare saved config.
func isEnvelope(data []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	_, hasConfig := fields["config"]
	_, hasLayout := fields["layout"]
	return hasConfig && !hasLayout
}

func loadOrInitManifest(path string) (*dashboard.CatalogManifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.CatalogManifest{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("widgetctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.CatalogManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("widgetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()
	if err := dashboard.EncodeManifest(file, doc); err != nil {
		return fmt.Errorf("widgetctl: write manifest: %w", err)
	}
	return nil
}
