package dashboard

// Catalog is an immutable, indexed snapshot of the widget type catalog.
type Catalog struct {
	types []WidgetTypeMeta
	index map[string]int
}

// NewCatalog indexes the provided types by type_key. When keys repeat the first
// entry wins; entries without a type_key are skipped.
func NewCatalog(types []WidgetTypeMeta) *Catalog {
	c := &Catalog{
		types: make([]WidgetTypeMeta, 0, len(types)),
		index: make(map[string]int, len(types)),
	}
	for _, meta := range types {
		if meta.TypeKey == "" {
			continue
		}
		if _, exists := c.index[meta.TypeKey]; exists {
			continue
		}
		c.index[meta.TypeKey] = len(c.types)
		c.types = append(c.types, meta)
	}
	return c
}

// Lookup returns the type registered under typeKey.
func (c *Catalog) Lookup(typeKey string) (WidgetTypeMeta, bool) {
	if c == nil {
		return WidgetTypeMeta{}, false
	}
	idx, ok := c.index[typeKey]
	if !ok {
		return WidgetTypeMeta{}, false
	}
	return c.types[idx], true
}

// Types returns a copy of the catalog in its original order.
func (c *Catalog) Types() []WidgetTypeMeta {
	if c == nil {
		return nil
	}
	return append([]WidgetTypeMeta(nil), c.types...)
}

// Len returns the number of indexed types.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.types)
}

// NonRemovable lists the types that must be present on every dashboard.
func (c *Catalog) NonRemovable() []WidgetTypeMeta {
	if c == nil {
		return nil
	}
	var out []WidgetTypeMeta
	for _, meta := range c.types {
		if !meta.IsRemovable {
			out = append(out, meta)
		}
	}
	return out
}

// ForRole lists the types offered in the add-widget menu for role. This is a UI
// affordance; data authorization happens wherever widget data is served.
func (c *Catalog) ForRole(role string) []WidgetTypeMeta {
	if c == nil {
		return nil
	}
	out := make([]WidgetTypeMeta, 0, len(c.types))
	for _, meta := range c.types {
		if meta.AllowsRole(role) {
			out = append(out, meta)
		}
	}
	return out
}
