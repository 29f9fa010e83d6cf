package record

import (
	"context"

	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/google/uuid"
)

// Repository is the storage contract for generic records. Every method is
// scoped by an entity descriptor resolved through the registry; the
// implementation derives the physical table from it, so no per-entity
// repository code exists.
type Repository interface {
	Create(ctx context.Context, desc registry.Descriptor, rec *Record) error
	FindByID(ctx context.Context, desc registry.Descriptor, id uuid.UUID) (*Record, error)
	// Update merges attrs into the non-removed record and bumps updated_at.
	Update(ctx context.Context, desc registry.Descriptor, id uuid.UUID, attrs Attributes) (*Record, error)
	// SoftRemove marks the record removed; HardDelete erases it physically.
	SoftRemove(ctx context.Context, desc registry.Descriptor, id uuid.UUID) (*Record, error)
	HardDelete(ctx context.Context, desc registry.Descriptor, id uuid.UUID) (*Record, error)
	// List returns one page of non-removed records plus the total match count.
	List(ctx context.Context, desc registry.Descriptor, q ListQuery) ([]Record, int64, error)
	// Count returns the number of non-removed records matching the equality
	// filter; an empty filter counts the whole non-removed set.
	Count(ctx context.Context, desc registry.Descriptor, filterField, filterValue string) (int64, error)
	// InsertOne is the unordered bulk-insert building block: one row's
	// failure is reported to the caller and never poisons a transaction.
	InsertOne(ctx context.Context, desc registry.Descriptor, rec *Record) error
}
