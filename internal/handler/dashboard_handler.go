package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
)

// DashboardHandler handles admin dashboard requests.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboardData godoc
// GET /api/v1/admin/dashboard
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	response.Success(c, http.StatusOK, h.dashboardService.GetDashboardData(c.Request.Context()))
}
