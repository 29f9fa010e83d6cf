package handler

import (
	"strconv"

	notifapp "github.com/estatecrm/backend/internal/application/notification"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultNotificationLimit = 50

// NotificationHandler serves the per-user notification feed.
type NotificationHandler struct {
	Base
	notifications *notifapp.Service
}

// NewNotificationHandler creates the notification handler.
func NewNotificationHandler(base Base, notifications *notifapp.Service) *NotificationHandler {
	return &NotificationHandler{Base: base, notifications: notifications}
}

// List returns the authenticated user's most recent notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.GetPrincipal(c)
	if user == nil {
		h.handleError(c, shared.ErrUnauthorized)
		return
	}

	limit := defaultNotificationLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}

	items, err := h.notifications.ListForUser(c.Request.Context(), user.ID, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, items, "Successfully found all notifications")
}

// MarkRead marks one notification of the authenticated user as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := middleware.GetPrincipal(c)
	if user == nil {
		h.handleError(c, shared.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleError(c, shared.ErrInvalidID)
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, nil, "Successfully marked the notification as read")
}

// MarkAllRead marks every notification of the authenticated user as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := middleware.GetPrincipal(c)
	if user == nil {
		h.handleError(c, shared.ErrUnauthorized)
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, nil, "Successfully marked all notifications as read")
}

// UnreadCount returns the authenticated user's unread notification count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := middleware.GetPrincipal(c)
	if user == nil {
		h.handleError(c, shared.ErrUnauthorized)
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, gin.H{"count": count}, "Successfully counted unread notifications")
}
