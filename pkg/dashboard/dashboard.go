// Package dashboard re-exports the gridboard core for applications that embed it.
package dashboard

import (
	core "github.com/goliatone/go-gridboard/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

type (
	WidgetTypeMeta = core.WidgetTypeMeta
	WidgetInstance = core.WidgetInstance
	LayoutEntry    = core.LayoutEntry
	SavedConfig    = core.SavedConfig
	ViewerContext  = core.ViewerContext
	GridView       = core.GridView
	Catalog        = core.Catalog
	Component      = core.Component
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewDispatchTable builds a dispatch table from the built-in components plus
// extra, which may override built-in keys.
func NewDispatchTable(extra map[string]Component) *core.DispatchTable {
	components := core.DefaultComponents()
	for key, component := range extra {
		components[key] = component
	}
	return core.NewDispatchTable(components)
}
