package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRecordRepository implements record.Repository for every registered
// entity. The physical table is taken from the descriptor at call time, so
// one repository serves the whole registry.
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// recordRow is the shared row shape of every entity table.
type recordRow struct {
	ID         uuid.UUID         `gorm:"column:id;primaryKey"`
	Removed    bool              `gorm:"column:removed"`
	Enabled    bool              `gorm:"column:enabled"`
	CreatedBy  *uuid.UUID        `gorm:"column:created_by"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at"`
	Attributes record.Attributes `gorm:"column:attributes;type:jsonb"`
}

func rowFromDomain(rec *record.Record) *recordRow {
	return &recordRow{
		ID:         rec.ID,
		Removed:    rec.Removed,
		Enabled:    rec.Enabled,
		CreatedBy:  rec.CreatedBy,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		Attributes: rec.Attributes,
	}
}

func (m *recordRow) toDomain() *record.Record {
	attrs := m.Attributes
	if attrs == nil {
		attrs = record.Attributes{}
	}
	return &record.Record{
		ID:         m.ID,
		Removed:    m.Removed,
		Enabled:    m.Enabled,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		Attributes: attrs,
	}
}

func (r *GormRecordRepository) table(ctx context.Context, desc registry.Descriptor) *gorm.DB {
	return r.db.WithContext(ctx).Table(desc.StorageName)
}

// fieldExpr resolves a validated field name to a SQL expression: lifecycle
// fields map to columns, everything else reads from the attributes document.
// Callers must have passed the name through record.ValidFieldName first.
func fieldExpr(name string) string {
	if col, ok := record.ColumnFor(name); ok {
		return col
	}
	return fmt.Sprintf("attributes->>'%s'", name)
}

// Create inserts an active record
func (r *GormRecordRepository) Create(ctx context.Context, desc registry.Descriptor, rec *record.Record) error {
	if err := r.table(ctx, desc).Create(rowFromDomain(rec)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// InsertOne inserts a single imported record. Each call stands alone so a
// failed row never aborts its batch.
func (r *GormRecordRepository) InsertOne(ctx context.Context, desc registry.Descriptor, rec *record.Record) error {
	return r.Create(ctx, desc, rec)
}

// FindByID returns the non-removed record with the given id
func (r *GormRecordRepository) FindByID(ctx context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	var row recordRow
	err := r.table(ctx, desc).
		Where("id = ? AND removed = ?", id, false).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// Update merges attrs into the stored attributes, keeps the record active
// and bumps updated_at. Lifecycle fields in attrs are discarded.
func (r *GormRecordRepository) Update(ctx context.Context, desc registry.Descriptor, id uuid.UUID, attrs record.Attributes) (*record.Record, error) {
	existing, err := r.FindByID(ctx, desc, id)
	if err != nil {
		return nil, err
	}

	merged := make(record.Attributes, len(existing.Attributes)+len(attrs))
	for k, v := range existing.Attributes {
		merged[k] = v
	}
	for k, v := range record.SanitizeAttributes(attrs) {
		merged[k] = v
	}

	now := time.Now()
	result := r.table(ctx, desc).
		Where("id = ? AND removed = ?", id, false).
		Updates(map[string]any{
			"attributes": merged,
			"removed":    false,
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}

	existing.Attributes = merged
	existing.Removed = false
	existing.UpdatedAt = now
	return existing, nil
}

// SoftRemove marks the record removed and returns its final state
func (r *GormRecordRepository) SoftRemove(ctx context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	existing, err := r.FindByID(ctx, desc, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := r.table(ctx, desc).
		Where("id = ? AND removed = ?", id, false).
		Updates(map[string]any{
			"removed":    true,
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}

	existing.Removed = true
	existing.UpdatedAt = now
	return existing, nil
}

// HardDelete erases the record physically and returns what was deleted
func (r *GormRecordRepository) HardDelete(ctx context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	existing, err := r.FindByID(ctx, desc, id)
	if err != nil {
		return nil, err
	}

	result := r.table(ctx, desc).Where("id = ?", id).Delete(&recordRow{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return existing, nil
}

// List returns one page of non-removed records plus the total match count
func (r *GormRecordRepository) List(ctx context.Context, desc registry.Descriptor, q record.ListQuery) ([]record.Record, int64, error) {
	q = q.Normalize()

	var total int64
	if err := r.applyPredicates(r.table(ctx, desc), q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := fieldExpr(q.SortBy) + " " + strings.ToUpper(q.SortDir)
	var rows []recordRow
	err := r.applyPredicates(r.table(ctx, desc), q).
		Order(order).
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]record.Record, len(rows))
	for i := range rows {
		records[i] = *rows[i].toDomain()
	}
	return records, total, nil
}

// Count returns the number of non-removed records matching the equality filter
func (r *GormRecordRepository) Count(ctx context.Context, desc registry.Descriptor, filterField, filterValue string) (int64, error) {
	query := r.table(ctx, desc).Where("removed = ?", false)
	if filterField != "" {
		if !record.ValidFieldName(filterField) {
			return 0, shared.ErrInvalidInput
		}
		query = query.Where(fieldExpr(filterField)+" = ?", filterValue)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyPredicates builds the shared WHERE clause of the list family:
// removed=false, the equality filter and the free-text OR-contains search.
func (r *GormRecordRepository) applyPredicates(query *gorm.DB, q record.ListQuery) *gorm.DB {
	query = query.Where("removed = ?", false)

	if q.FilterField != "" {
		query = query.Where(fieldExpr(q.FilterField)+" = ?", q.FilterValue)
	}

	if q.Q != "" && len(q.Fields) > 0 {
		clauses := make([]string, 0, len(q.Fields))
		args := make([]any, 0, len(q.Fields))
		for _, f := range q.Fields {
			clauses = append(clauses, fieldExpr(f)+" ILIKE ?")
			args = append(args, "%"+q.Q+"%")
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	return query
}

// translateError maps low-level database errors onto domain errors
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	if strings.Contains(err.Error(), "duplicate key") {
		return shared.ErrAlreadyExists
	}
	return err
}

var _ record.Repository = (*GormRecordRepository)(nil)
