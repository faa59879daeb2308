package dashboard

import "fmt"

// Dispatch keys of the built-in components.
const (
	ComponentBusinessPartnerInfo = "BusinessPartnerInfo"
	ComponentGenericNews         = "GenericNews"
	ComponentNews                = "News"
	ComponentTraffic             = "Traffic"
	ComponentFuelPrices          = "FuelPrices"
	ComponentVignettePrices      = "VignettePrices"
	ComponentEVStations          = "EVStations"
	ComponentAISummary           = "AISummary"
)

const (
	templateBusinessPartner = "widgets/business_partner_info"
	templateFeed            = "widgets/feed"
	templateContent         = "widgets/content"
)

// DefaultComponents returns the built-in component set keyed by dispatch key.
// The map is fresh on every call.
func DefaultComponents() map[string]Component {
	return map[string]Component{
		ComponentBusinessPartnerInfo: NewComponent(templateBusinessPartner, businessPartnerProps),
		ComponentGenericNews:         NewComponent(templateFeed, feedProps),
		ComponentNews:                NewComponent(templateFeed, feedProps),
		ComponentTraffic:             contentComponent("traffic"),
		ComponentFuelPrices:          contentComponent("fuel-prices"),
		ComponentVignettePrices:      contentComponent("vignette-prices"),
		ComponentEVStations:          contentComponent("ev-stations"),
		ComponentAISummary:           contentComponent("ai-summary"),
	}
}

// DefaultDispatchTable builds a table over DefaultComponents.
func DefaultDispatchTable() *DispatchTable {
	return NewDispatchTable(DefaultComponents())
}

func businessPartnerProps(in ComponentInput) (WidgetProps, error) {
	if in.Viewer.BusinessPartnerID != "" && in.Partner == nil {
		return nil, fmt.Errorf("business partner %s unavailable", in.Viewer.BusinessPartnerID)
	}
	props := baseProps(in)
	props["business_partner"] = in.Partner
	return props, nil
}

// feedProps parameterizes the generic feed from the catalog entry's config, so
// one component serves many catalog entries.
func feedProps(in ComponentInput) (WidgetProps, error) {
	props := baseProps(in)
	title := in.Type.ConfigString("title")
	if title == "" {
		title = in.Type.Name
	}
	props["title"] = title
	props["category"] = in.Type.ConfigString("category")
	props["icon"] = in.Type.ConfigString("icon")
	return props, nil
}

// contentComponent serves self-fetching widgets that only need the base props
// plus a source slug for their data endpoint.
func contentComponent(source string) Component {
	return NewComponent(templateContent, func(in ComponentInput) (WidgetProps, error) {
		props := baseProps(in)
		props["title"] = in.Type.Name
		props["source"] = source
		return props, nil
	})
}
