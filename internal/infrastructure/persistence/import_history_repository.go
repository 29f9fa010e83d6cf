package persistence

import (
	"context"

	"github.com/estatecrm/backend/internal/domain/importing"
	"github.com/estatecrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormImportHistoryRepository implements importing.HistoryRepository using GORM
type GormImportHistoryRepository struct {
	db *gorm.DB
}

// NewGormImportHistoryRepository creates a new GormImportHistoryRepository
func NewGormImportHistoryRepository(db *gorm.DB) *GormImportHistoryRepository {
	return &GormImportHistoryRepository{db: db}
}

// Create inserts a history row
func (r *GormImportHistoryRepository) Create(ctx context.Context, h *importing.History) error {
	model := models.ImportHistoryModelFromDomain(h)
	return r.db.WithContext(ctx).Create(model).Error
}

// List returns the most recent import batches, newest first
func (r *GormImportHistoryRepository) List(ctx context.Context, limit int) ([]importing.History, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ImportHistoryModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]importing.History, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

var _ importing.HistoryRepository = (*GormImportHistoryRepository)(nil)
