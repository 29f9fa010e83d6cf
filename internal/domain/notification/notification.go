package notification

import (
	"context"

	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Type categorizes a notification for the client UI.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeClient  Type = "client"
	TypePayment Type = "payment"
	TypeTask    Type = "task"
)

// Notification is a persisted message for one user.
type Notification struct {
	shared.BaseEntity
	UserID    uuid.UUID
	Type      Type
	Title     string
	Message   string
	Link      string
	CreatedBy *uuid.UUID
	Metadata  map[string]any
	Read      bool
	Removed   bool
}

// New builds an unread notification.
func New(userID uuid.UUID, typ Type, title, message, link string, createdBy *uuid.UUID, metadata map[string]any) *Notification {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Type:       typ,
		Title:      title,
		Message:    message,
		Link:       link,
		CreatedBy:  createdBy,
		Metadata:   metadata,
		Read:       false,
	}
}

// Emitter is the fire-and-forget side channel triggered by CRUD mutations.
// Implementations must be safe to fail: callers log and discard errors, a
// failed emit never fails the request that triggered it.
type Emitter interface {
	Emit(ctx context.Context, n *Notification) error
}

// Repository is the storage contract for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}
