package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/middleware"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
)

type UserHandler struct {
	adminService *service.AdminService
}

func NewUserHandler(adminService *service.AdminService) *UserHandler {
	return &UserHandler{adminService: adminService}
}

// List godoc
// GET /api/v1/admin/users?role=&q=
func (h *UserHandler) List(c *gin.Context) {
	role := model.Role(c.Query("role"))
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))

	users := make([]model.AdminUserRecord, 0)
	for _, u := range h.adminService.Users() {
		if role != "" && u.Role != role {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FullName), q) {
			continue
		}
		users = append(users, u)
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// ToggleBlock godoc
// POST /api/v1/admin/users/:id/toggle-block
func (h *UserHandler) ToggleBlock(c *gin.Context) {
	id := c.Param("id")

	// Prevent an admin from locking themselves out.
	if me, _ := middleware.GetUser(c); me.ID == id {
		response.FailWithDetail(c, http.StatusForbidden, response.ErrForbidden, "cannot block your own account")
		return
	}

	if _, err := h.adminService.Dispatch(c.Request.Context(), admin.ToggleUserBlock{ID: id}); err != nil {
		failFromError(c, err)
		return
	}

	for _, u := range h.adminService.Users() {
		if u.ID == id {
			response.Success(c, http.StatusOK, gin.H{"user": u})
			return
		}
	}
	response.Fail(c, http.StatusNotFound, response.ErrNotFound)
}
