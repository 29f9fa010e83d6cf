package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCredentialRepository implements identity.CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// Create inserts a new credential
func (r *GormCredentialRepository) Create(ctx context.Context, cred *identity.SessionCredential) error {
	model := models.CredentialModelFromDomain(cred)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindByUserID finds the non-removed credential for a user
func (r *GormCredentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.SessionCredential, error) {
	var model models.CredentialModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND removed = ?", userID, false).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveSessions persists only the live session set
func (r *GormCredentialRepository) SaveSessions(ctx context.Context, cred *identity.SessionCredential) error {
	result := r.db.WithContext(ctx).Model(&models.CredentialModel{}).
		Where("user_id = ?", cred.UserID).
		Updates(map[string]any{
			"logged_sessions": cred.LoggedSessions,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Update persists the full credential, including new password material
func (r *GormCredentialRepository) Update(ctx context.Context, cred *identity.SessionCredential) error {
	model := models.CredentialModelFromDomain(cred)
	result := r.db.WithContext(ctx).Model(&models.CredentialModel{}).
		Where("id = ?", cred.ID).
		Updates(map[string]any{
			"password_hash":   model.PasswordHash,
			"salt":            model.Salt,
			"logged_sessions": model.LoggedSessions,
			"removed":         model.Removed,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ identity.CredentialRepository = (*GormCredentialRepository)(nil)
