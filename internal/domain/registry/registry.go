package registry

import (
	"sort"
	"strings"

	"github.com/estatecrm/backend/internal/domain/shared"
)

// Descriptor describes one record entity exposed through the uniform CRUD
// surface. Key is the lower-cased route segment, StorageName the backing
// table, DisplayName the human-readable model name used by notifications.
type Descriptor struct {
	Key         string
	StorageName string
	DisplayName string
	// SoftDelete selects soft-removal on delete; entities without it are
	// physically deleted.
	SoftDelete bool
	// Public entities allow unauthenticated list/listAll/read.
	Public bool
}

// Registry is the single source of truth mapping entity keys to storage.
// It is built once at startup and read-only afterwards.
type Registry struct {
	descriptors []Descriptor
	byKey       map[string]Descriptor
}

// modelNames enumerates every record model the system persists. The list
// replaces the original deployment's directory scan with an explicit table
// so a missing entity is a startup-time error, not a request-time surprise.
var modelNames = []string{
	"Apartment",
	"ApartmentBuyer",
	"ApartmentOwner",
	"ApartmentVIP",
	"ApartmentVIPClient",
	"ApartmentVisit",
	"Client",
	"ClientUniversal",
	"Commercial",
	"CommercialBuyer",
	"CommercialVIP",
	"CommercialVisit",
	"Customer",
	"Investor",
	"InvestorVIP",
	"JointVenture",
	"Land",
	"LandBuyer",
	"LandClient",
	"LandPurchase",
	"LandVIP",
	"LandVisit",
	"Lead",
	"ProjectExpense",
	"ProjectFile",
	"ProjectFileLand",
	"Property",
	"PurchasedClient",
	"Shop",
	"ShopVIP",
	"Task",
	"Visit",
	"VisitedClient",
}

// publicEntities allow unauthenticated browsing.
var publicEntities = map[string]bool{
	"property": true,
}

// New builds the registry from the static model table.
func New() *Registry {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(modelNames)),
		byKey:       make(map[string]Descriptor, len(modelNames)),
	}
	for _, name := range modelNames {
		key := strings.ToLower(name)
		d := Descriptor{
			Key:         key,
			StorageName: storageName(name),
			DisplayName: name,
			SoftDelete:  true,
			Public:      publicEntities[key],
		}
		r.descriptors = append(r.descriptors, d)
		r.byKey[key] = d
	}
	sort.Slice(r.descriptors, func(i, j int) bool {
		return r.descriptors[i].Key < r.descriptors[j].Key
	})
	return r
}

// List returns all descriptors in deterministic (key) order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Resolve looks up a descriptor by entity key.
func (r *Registry) Resolve(key string) (Descriptor, error) {
	d, ok := r.byKey[strings.ToLower(key)]
	if !ok {
		return Descriptor{}, shared.NewDomainError("NOT_FOUND", "Controller not available for "+key)
	}
	return d, nil
}

// Has reports whether the entity key is known.
func (r *Registry) Has(key string) bool {
	_, ok := r.byKey[strings.ToLower(key)]
	return ok
}

// ResolveDisplayName looks up a descriptor by its model display name.
// Used by the import router, whose decision table speaks in model names.
func (r *Registry) ResolveDisplayName(name string) (Descriptor, error) {
	return r.Resolve(strings.ToLower(name))
}

// storageName converts a model name to its snake_case plural table name,
// e.g. ApartmentBuyer -> apartment_buyers, Property -> properties.
func storageName(model string) string {
	var b strings.Builder
	for i, r := range model {
		if r >= 'A' && r <= 'Z' {
			// Keep acronym runs (VIP) as one segment.
			if i > 0 && !(model[i-1] >= 'A' && model[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	name := b.String()
	if strings.HasSuffix(name, "y") {
		return name[:len(name)-1] + "ies"
	}
	return name + "s"
}
