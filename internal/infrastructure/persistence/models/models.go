// Package models holds the GORM row models for the fixed-schema tables.
// Entity record tables share one dynamic row shape and live in the
// persistence package itself.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/importing"
	"github.com/estatecrm/backend/internal/domain/notification"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// IntMap is a map[string]int persisted as jsonb.
type IntMap map[string]int

// Value implements driver.Valuer
func (m IntMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *IntMap) Scan(value any) error {
	if value == nil {
		*m = IntMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported int map type %T", value)
	}
	if len(data) == 0 {
		*m = IntMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// UserModel is the GORM model for users
type UserModel struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey"`
	Email     string    `gorm:"column:email;uniqueIndex"`
	Name      string    `gorm:"column:name"`
	Surname   string    `gorm:"column:surname"`
	Role      string    `gorm:"column:role"`
	Enabled   bool      `gorm:"column:enabled"`
	Removed   bool      `gorm:"column:removed"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler
func (UserModel) TableName() string { return "users" }

// ToDomain converts the model to a domain user
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Email:      m.Email,
		Name:       m.Name,
		Surname:    m.Surname,
		Role:       identity.Role(m.Role),
		Enabled:    m.Enabled,
		Removed:    m.Removed,
	}
}

// UserModelFromDomain converts a domain user to its model
func UserModelFromDomain(u *identity.User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Surname:   u.Surname,
		Role:      string(u.Role),
		Enabled:   u.Enabled,
		Removed:   u.Removed,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CredentialModel is the GORM model for session credentials
type CredentialModel struct {
	ID             uuid.UUID           `gorm:"column:id;primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;uniqueIndex"`
	PasswordHash   string              `gorm:"column:password_hash"`
	Salt           string              `gorm:"column:salt"`
	LoggedSessions identity.SessionSet `gorm:"column:logged_sessions;type:jsonb"`
	Removed        bool                `gorm:"column:removed"`
	CreatedAt      time.Time           `gorm:"column:created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler
func (CredentialModel) TableName() string { return "session_credentials" }

// ToDomain converts the model to a domain credential
func (m *CredentialModel) ToDomain() *identity.SessionCredential {
	sessions := m.LoggedSessions
	if sessions == nil {
		sessions = identity.SessionSet{}
	}
	return &identity.SessionCredential{
		BaseEntity:     shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		UserID:         m.UserID,
		PasswordHash:   m.PasswordHash,
		Salt:           m.Salt,
		LoggedSessions: sessions,
		Removed:        m.Removed,
	}
}

// CredentialModelFromDomain converts a domain credential to its model
func CredentialModelFromDomain(c *identity.SessionCredential) *CredentialModel {
	return &CredentialModel{
		ID:             c.ID,
		UserID:         c.UserID,
		PasswordHash:   c.PasswordHash,
		Salt:           c.Salt,
		LoggedSessions: c.LoggedSessions,
		Removed:        c.Removed,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// NotificationModel is the GORM model for notifications
type NotificationModel struct {
	ID        uuid.UUID         `gorm:"column:id;primaryKey"`
	UserID    uuid.UUID         `gorm:"column:user_id;index"`
	Type      string            `gorm:"column:type"`
	Title     string            `gorm:"column:title"`
	Message   string            `gorm:"column:message"`
	Link      string            `gorm:"column:link"`
	CreatedBy *uuid.UUID        `gorm:"column:created_by"`
	Metadata  record.Attributes `gorm:"column:metadata;type:jsonb"`
	Read      bool              `gorm:"column:read"`
	Removed   bool              `gorm:"column:removed"`
	CreatedAt time.Time         `gorm:"column:created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler
func (NotificationModel) TableName() string { return "notifications" }

// ToDomain converts the model to a domain notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		UserID:     m.UserID,
		Type:       notification.Type(m.Type),
		Title:      m.Title,
		Message:    m.Message,
		Link:       m.Link,
		CreatedBy:  m.CreatedBy,
		Metadata:   m.Metadata,
		Read:       m.Read,
		Removed:    m.Removed,
	}
}

// NotificationModelFromDomain converts a domain notification to its model
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	return &NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		CreatedBy: n.CreatedBy,
		Metadata:  n.Metadata,
		Read:      n.Read,
		Removed:   n.Removed,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// ImportHistoryModel is the GORM model for import history rows
type ImportHistoryModel struct {
	ID          uuid.UUID  `gorm:"column:id;primaryKey"`
	Source      string     `gorm:"column:source"`
	SheetID     string     `gorm:"column:sheet_id"`
	RowCount    int        `gorm:"column:row_count"`
	Inserted    int        `gorm:"column:inserted"`
	Summary     IntMap     `gorm:"column:summary;type:jsonb"`
	Breakdown   IntMap     `gorm:"column:breakdown;type:jsonb"`
	Note        string     `gorm:"column:note"`
	ArchiveKey  string     `gorm:"column:archive_key"`
	DurationMS  int64      `gorm:"column:duration_ms"`
	RequestedBy *uuid.UUID `gorm:"column:requested_by"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler
func (ImportHistoryModel) TableName() string { return "import_histories" }

// ToDomain converts the model to a domain history entry
func (m *ImportHistoryModel) ToDomain() *importing.History {
	return &importing.History{
		BaseEntity:  shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Source:      importing.Source(m.Source),
		SheetID:     m.SheetID,
		RowCount:    m.RowCount,
		Inserted:    m.Inserted,
		Summary:     m.Summary,
		Breakdown:   m.Breakdown,
		Note:        m.Note,
		ArchiveKey:  m.ArchiveKey,
		Duration:    time.Duration(m.DurationMS) * time.Millisecond,
		RequestedBy: m.RequestedBy,
	}
}

// ImportHistoryModelFromDomain converts a domain history entry to its model
func ImportHistoryModelFromDomain(h *importing.History) *ImportHistoryModel {
	return &ImportHistoryModel{
		ID:          h.ID,
		Source:      string(h.Source),
		SheetID:     h.SheetID,
		RowCount:    h.RowCount,
		Inserted:    h.Inserted,
		Summary:     h.Summary,
		Breakdown:   h.Breakdown,
		Note:        h.Note,
		ArchiveKey:  h.ArchiveKey,
		DurationMS:  h.Duration.Milliseconds(),
		RequestedBy: h.RequestedBy,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}
