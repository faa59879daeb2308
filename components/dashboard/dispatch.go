package dashboard

import (
	"fmt"
	"sort"
)

// PlaceholderTemplate renders cells whose widget could not be dispatched.
const PlaceholderTemplate = "widgets/placeholder"

// WidgetProps is the prop bag handed to a widget template.
type WidgetProps map[string]any

// ComponentInput is everything a component may read while shaping its props.
type ComponentInput struct {
	Instance WidgetInstance
	Type     WidgetTypeMeta
	// Known is false when the instance's type is missing from the catalog.
	Known   bool
	Viewer  ViewerContext
	Partner *BusinessPartner
}

// Component renders one family of widgets. Widget bodies fetch their own data;
// a component only decides which template to use and which props it gets.
type Component interface {
	Template() string
	Props(in ComponentInput) (WidgetProps, error)
}

type componentFunc struct {
	template string
	props    func(ComponentInput) (WidgetProps, error)
}

func (c componentFunc) Template() string { return c.template }

func (c componentFunc) Props(in ComponentInput) (WidgetProps, error) {
	if c.props == nil {
		return baseProps(in), nil
	}
	return c.props(in)
}

// NewComponent adapts a template name and a props function into a Component.
// A nil props function yields the base props.
func NewComponent(template string, props func(ComponentInput) (WidgetProps, error)) Component {
	return componentFunc{template: template, props: props}
}

// WidgetView is the dispatched, render-ready form of one widget instance.
type WidgetView struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Name        string      `json:"name,omitempty"`
	Component   string      `json:"component,omitempty"`
	Template    string      `json:"template"`
	Props       WidgetProps `json:"props"`
	Placeholder bool        `json:"placeholder,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// DispatchTable maps dispatch keys to components. It is built once and never
// mutated, so it is safe to share between requests.
type DispatchTable struct {
	components map[string]Component
}

// NewDispatchTable copies components into a new table, skipping nil entries.
func NewDispatchTable(components map[string]Component) *DispatchTable {
	table := &DispatchTable{components: make(map[string]Component, len(components))}
	for key, component := range components {
		if key == "" || component == nil {
			continue
		}
		table.components[key] = component
	}
	return table
}

// Resolve finds the component for a catalog type by its dispatch key.
func (t *DispatchTable) Resolve(meta WidgetTypeMeta) (Component, bool) {
	if t == nil {
		return nil, false
	}
	component, ok := t.components[meta.DispatchKey()]
	return component, ok
}

// Keys lists the registered dispatch keys in sorted order.
func (t *DispatchTable) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.components))
	for key := range t.components {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Render dispatches one widget. Failures of any kind produce a placeholder view
// for this widget only; Render never panics.
func (t *DispatchTable) Render(in ComponentInput) (view WidgetView) {
	view = WidgetView{
		ID:   in.Instance.ID,
		Type: in.Instance.Type,
		Name: in.Type.Name,
	}
	if !in.Known {
		return placeholder(view, in, unknownTypeMessage(in.Instance.Type))
	}
	component, ok := t.Resolve(in.Type)
	if !ok {
		return placeholder(view, in, unknownTypeMessage(in.Instance.Type))
	}
	view.Component = in.Type.DispatchKey()

	defer func() {
		if r := recover(); r != nil {
			view = placeholder(view, in, fmt.Sprintf("widget %s failed to render: %v", in.Instance.Type, r))
		}
	}()
	props, err := component.Props(in)
	if err != nil {
		return placeholder(view, in, err.Error())
	}
	if props == nil {
		props = baseProps(in)
	}
	view.Template = component.Template()
	view.Props = props
	return view
}

func unknownTypeMessage(typeKey string) string {
	return fmt.Sprintf("unknown widget type: %s", typeKey)
}

func placeholder(view WidgetView, in ComponentInput, message string) WidgetView {
	view.Template = PlaceholderTemplate
	view.Placeholder = true
	view.Message = message
	props := baseProps(in)
	props["message"] = message
	view.Props = props
	return view
}

// baseProps are the props every widget receives.
func baseProps(in ComponentInput) WidgetProps {
	return WidgetProps{
		"widget_id":    in.Instance.ID,
		"is_removable": in.Known && in.Type.IsRemovable,
		"on_delete":    ActionDelete,
	}
}
