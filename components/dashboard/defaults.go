package dashboard

var defaultWidgetTypes = []WidgetTypeMeta{
	{
		TypeKey:          "BusinessPartnerInfo",
		Name:             "Business Partner",
		DefaultWidth:     6,
		DefaultHeight:    8,
		DefaultMinWidth:  4,
		DefaultMinHeight: 6,
		IsRemovable:      false,
		IsResizable:      true,
		IsDraggable:      true,
	},
	{
		TypeKey:          "News",
		Name:             "News",
		DefaultWidth:     6,
		DefaultHeight:    10,
		DefaultMinWidth:  3,
		DefaultMinHeight: 6,
		IsRemovable:      true,
		IsResizable:      true,
		IsDraggable:      true,
	},
	{
		TypeKey:          "IndustryNews",
		ComponentKey:     ComponentGenericNews,
		Name:             "Industry News",
		DefaultWidth:     4,
		DefaultHeight:    8,
		DefaultMinWidth:  3,
		DefaultMinHeight: 6,
		IsRemovable:      true,
		IsResizable:      true,
		IsDraggable:      true,
		Config:           map[string]any{"title": "Industry News", "category": "industry", "icon": "newspaper"},
	},
	{
		TypeKey:          "RegulationNews",
		ComponentKey:     ComponentGenericNews,
		Name:             "Regulations",
		DefaultWidth:     4,
		DefaultHeight:    8,
		DefaultMinWidth:  3,
		DefaultMinHeight: 6,
		IsRemovable:      true,
		IsResizable:      true,
		IsDraggable:      true,
		Config:           map[string]any{"title": "Regulations", "category": "regulation", "icon": "scale"},
	},
	{
		TypeKey:          "Traffic",
		Name:             "Traffic",
		DefaultWidth:     6,
		DefaultHeight:    10,
		DefaultMinWidth:  4,
		DefaultMinHeight: 6,
		IsRemovable:      true,
		IsResizable:      true,
		IsDraggable:      true,
	},
	{
		TypeKey:          "FuelPrices",
		Name:             "Fuel Prices",
		DefaultWidth:     4,
		DefaultHeight:    6,
		DefaultMinWidth:  2,
		DefaultMinHeight: 4,
		IsRemovable:      true,
		IsResizable:      true,
		IsDraggable:      true,
	},
	{
		TypeKey:          "VignettePrices",
		Name:             "Vignette Prices",
		DefaultWidth:     4,
		DefaultHeight:    6,
		DefaultMinWidth:  2,
		DefaultMinHeight: 4,
		IsRemovable:      true,
		IsResizable:      false,
		IsDraggable:      true,
	},
	{
		TypeKey:          "EVStations",
		Name:             "EV Charging Stations",
		DefaultWidth:     6,
		DefaultHeight:    8,
		DefaultMinWidth:  4,
		DefaultMinHeight: 6,
		IsRemovable:      true,
		IsResizable:      true,
		IsDraggable:      true,
	},
	{
		TypeKey:          "AISummary",
		Name:             "AI Summary",
		DefaultWidth:     12,
		DefaultHeight:    4,
		DefaultMinWidth:  6,
		DefaultMinHeight: 3,
		IsRemovable:      true,
		IsResizable:      true,
		IsDraggable:      true,
		AllowedRoles:     []string{RoleAdmin, "manager"},
	},
}

// DefaultWidgetTypes returns copies of the built-in catalog entries.
func DefaultWidgetTypes() []WidgetTypeMeta {
	out := make([]WidgetTypeMeta, len(defaultWidgetTypes))
	for i, meta := range defaultWidgetTypes {
		out[i] = cloneMeta(meta)
	}
	return out
}

func cloneMeta(meta WidgetTypeMeta) WidgetTypeMeta {
	if meta.AllowedRoles != nil {
		meta.AllowedRoles = append([]string(nil), meta.AllowedRoles...)
	}
	if meta.Config != nil {
		cfg := make(map[string]any, len(meta.Config))
		for k, v := range meta.Config {
			cfg[k] = v
		}
		meta.Config = cfg
	}
	return meta
}
