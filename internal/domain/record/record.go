package record

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Attributes holds the entity-specific fields of a Record as a jsonb map.
// The CRUD surface is schema-agnostic: predicates and sorting operate on
// attribute names supplied by the caller, never on compiled struct fields.
type Attributes map[string]any

// Value implements driver.Valuer for jsonb persistence.
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Attributes) Scan(value any) error {
	if value == nil {
		*a = Attributes{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported attributes type %T", value)
	}
	if len(data) == 0 {
		*a = Attributes{}
		return nil
	}
	return json.Unmarshal(data, a)
}

// Record is the generic persisted document for any entity. Well-known
// lifecycle fields are columns; everything else lives in Attributes.
type Record struct {
	ID        uuid.UUID  `json:"_id"`
	Removed   bool       `json:"removed"`
	Enabled   bool       `json:"enabled"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt time.Time  `json:"updated"`
	Attributes Attributes `json:"-"`
}

// MarshalJSON flattens attributes beside the lifecycle fields, matching the
// wire shape clients expect from the document store era.
func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Attributes)+6)
	for k, v := range r.Attributes {
		flat[k] = v
	}
	flat["_id"] = r.ID
	flat["removed"] = r.Removed
	flat["enabled"] = r.Enabled
	if r.CreatedBy != nil {
		flat["createdBy"] = *r.CreatedBy
	}
	flat["created"] = r.CreatedAt
	flat["updated"] = r.UpdatedAt
	return json.Marshal(flat)
}

// New builds an active record from a raw attribute map. Lifecycle fields
// present in the input are stripped so callers cannot resurrect or forge
// them; removed is always forced to false on create.
func New(attrs map[string]any, createdBy *uuid.UUID) *Record {
	now := time.Now()
	return &Record{
		ID:         uuid.New(),
		Removed:    false,
		Enabled:    true,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
		Attributes: SanitizeAttributes(attrs),
	}
}

// reservedFields are column-backed and must not appear inside Attributes.
var reservedFields = map[string]bool{
	"_id":       true,
	"id":        true,
	"removed":   true,
	"enabled":   true,
	"createdBy": true,
	"created":   true,
	"updated":   true,
}

// SanitizeAttributes copies attrs with the reserved lifecycle fields removed.
func SanitizeAttributes(attrs map[string]any) Attributes {
	out := make(Attributes, len(attrs))
	for k, v := range attrs {
		if reservedFields[k] {
			continue
		}
		out[k] = v
	}
	return out
}

// StringAttr returns the named attribute as a string when present.
func (r *Record) StringAttr(name string) string {
	if v, ok := r.Attributes[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}
