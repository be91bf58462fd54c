package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/middleware"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
	"github.com/stemsi/certify-backend/internal/validator"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	adminService        *service.AdminService
}

func NewNotificationHandler(notificationService *service.NotificationService, adminService *service.AdminService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, adminService: adminService}
}

func inboxOf(c *gin.Context) model.InboxKey {
	user, _ := middleware.GetUser(c)
	return model.InboxKey{Role: user.Role, Email: user.Email}
}

// List godoc
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	k := inboxOf(c)
	ctx := c.Request.Context()
	response.Success(c, http.StatusOK, gin.H{
		"notifications": h.notificationService.List(ctx, k),
		"unread":        h.notificationService.UnreadCount(ctx, k),
	})
}

// MarkRead godoc
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), inboxOf(c), c.Param("id")); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllRead godoc
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), inboxOf(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n})
}

// ListSent godoc
// GET /api/v1/admin/notifications
func (h *NotificationHandler) ListSent(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"notifications": h.adminService.SentNotifications()})
}

// Broadcast godoc
// POST /api/v1/admin/notifications
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req model.BroadcastRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	entry, err := h.adminService.Broadcast(c.Request.Context(), req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"notification": entry})
}
