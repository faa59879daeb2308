package dashboard

import (
	"context"
	"sync"
)

// StaticPartnerDirectory serves business partners from memory.
type StaticPartnerDirectory struct {
	mu       sync.RWMutex
	partners map[string]BusinessPartner
}

// NewStaticPartnerDirectory indexes the given partners by id.
func NewStaticPartnerDirectory(partners ...BusinessPartner) *StaticPartnerDirectory {
	dir := &StaticPartnerDirectory{partners: make(map[string]BusinessPartner, len(partners))}
	for _, p := range partners {
		dir.Put(p)
	}
	return dir
}

// Put adds or replaces a partner.
func (d *StaticPartnerDirectory) Put(partner BusinessPartner) {
	if partner.ID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.partners[partner.ID] = partner
}

// Partner returns the partner or nil when unknown.
func (d *StaticPartnerDirectory) Partner(_ context.Context, partnerID string) (*BusinessPartner, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.partners[partnerID]
	if !ok {
		return nil, nil
	}
	p.Regions = append([]string(nil), p.Regions...)
	return &p, nil
}

// DemoPartners returns placeholder partners used by the demo server.
func DemoPartners() []BusinessPartner {
	return []BusinessPartner{
		{ID: "bp-1001", Name: "Nordline Logistics", Email: "ops@nordline.example", Phone: "+49 30 1234567", Address: "Hafenstrasse 12, Hamburg", Regions: []string{"north", "west"}},
		{ID: "bp-1002", Name: "Alpen Transit", Email: "dispatch@alpentransit.example", Phone: "+43 1 7654321", Address: "Ringstrasse 4, Vienna", Regions: []string{"south"}},
	}
}
