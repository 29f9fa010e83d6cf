// Package notification delivers the fire-and-forget messages triggered by
// record mutations. Every failure here is logged and absorbed; a broken
// notification pipeline must never fail the request that triggered it.
package notification

import (
	"context"
	"fmt"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/notification"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// template selects the notification type and title wording per entity.
type template struct {
	typ     notification.Type
	created string
	updated string
	deleted string
}

var defaultTemplate = template{
	typ:     notification.TypeInfo,
	created: "New %s record",
	updated: "%s record updated",
	deleted: "%s record removed",
}

// entityTemplates override the default for the entities clients surface
// prominently.
var entityTemplates = map[string]template{
	"client": {
		typ:     notification.TypeClient,
		created: "New client added",
		updated: "Client updated",
		deleted: "Client removed",
	},
	"lead": {
		typ:     notification.TypeClient,
		created: "New lead captured",
		updated: "Lead updated",
		deleted: "Lead removed",
	},
	"landpurchase": {
		typ:     notification.TypePayment,
		created: "Land purchase recorded",
		updated: "Land purchase updated",
		deleted: "Land purchase removed",
	},
	"projectexpense": {
		typ:     notification.TypePayment,
		created: "Project expense recorded",
		updated: "Project expense updated",
		deleted: "Project expense removed",
	},
	"property": {
		typ:     notification.TypeSuccess,
		created: "New property listed",
		updated: "Property updated",
		deleted: "Property removed",
	},
	"task": {
		typ:     notification.TypeTask,
		created: "New task assigned",
		updated: "Task updated",
		deleted: "Task removed",
	},
}

// Service persists notifications and exposes the read/mark operations.
type Service struct {
	repo   notification.Repository
	logger *zap.Logger
}

// NewService creates the notification service.
func NewService(repo notification.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Emit persists one notification.
func (s *Service) Emit(ctx context.Context, n *notification.Notification) error {
	return s.repo.Create(ctx, n)
}

// RecordCreated notifies the acting user about a new record.
func (s *Service) RecordCreated(ctx context.Context, desc registry.Descriptor, rec *record.Record, actor *identity.User) {
	s.emitMutation(ctx, desc, rec, actor, "created")
}

// RecordUpdated notifies the acting user about an updated record.
func (s *Service) RecordUpdated(ctx context.Context, desc registry.Descriptor, rec *record.Record, actor *identity.User) {
	s.emitMutation(ctx, desc, rec, actor, "updated")
}

// RecordDeleted notifies the acting user about a removed record.
func (s *Service) RecordDeleted(ctx context.Context, desc registry.Descriptor, rec *record.Record, actor *identity.User) {
	s.emitMutation(ctx, desc, rec, actor, "deleted")
}

func (s *Service) emitMutation(ctx context.Context, desc registry.Descriptor, rec *record.Record, actor *identity.User, action string) {
	if actor == nil {
		return
	}

	tpl, ok := entityTemplates[desc.Key]
	if !ok {
		tpl = defaultTemplate
	}

	var title string
	switch action {
	case "created":
		title = tpl.created
	case "updated":
		title = tpl.updated
	default:
		title = tpl.deleted
	}
	if !ok {
		title = fmt.Sprintf(title, desc.DisplayName)
	}

	subject := rec.StringAttr("name")
	if subject == "" {
		subject = rec.ID.String()
	}
	message := fmt.Sprintf("%s %s was %s by %s", desc.DisplayName, subject, action, actor.FullName())
	link := fmt.Sprintf("/api/%s/read/%s", desc.Key, rec.ID)

	actorID := actor.ID
	n := notification.New(actor.ID, tpl.typ, title, message, link, &actorID, map[string]any{
		"entity":   desc.Key,
		"recordId": rec.ID.String(),
		"action":   action,
	})

	if err := s.Emit(ctx, n); err != nil {
		s.logger.Warn("Notification emit failed",
			zap.String("entity", desc.Key),
			zap.String("record_id", rec.ID.String()),
			zap.Error(err),
		)
	}
}

// ListForUser returns the user's most recent notifications.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every notification of the user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// CountUnread returns the user's unread notification count.
func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
