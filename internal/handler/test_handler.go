package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
	"github.com/stemsi/certify-backend/internal/validator"
)

// TestHandler manages assessments. Candidates get read access, writes are
// admin-only.
type TestHandler struct {
	adminService *service.AdminService
}

func NewTestHandler(adminService *service.AdminService) *TestHandler {
	return &TestHandler{adminService: adminService}
}

// List godoc
// GET /api/v1/tests
// GET /api/v1/admin/tests
func (h *TestHandler) List(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"tests": h.adminService.Tests()})
}

// Get godoc
// GET /api/v1/tests/:id
func (h *TestHandler) Get(c *gin.Context) {
	t, ok := h.adminService.Test(c.Param("id"))
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": t})
}

// Create godoc
// POST /api/v1/admin/tests
func (h *TestHandler) Create(c *gin.Context) {
	var req model.TestInput
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.adminService.Dispatch(c.Request.Context(), admin.CreateTest{Input: req})
	if err != nil {
		failFromError(c, err)
		return
	}
	t, _ := h.adminService.Test(res.ID)
	response.Success(c, http.StatusCreated, gin.H{"test": t})
}

// Update godoc
// PUT /api/v1/admin/tests/:id
func (h *TestHandler) Update(c *gin.Context) {
	var req model.TestInput
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.adminService.Dispatch(c.Request.Context(), admin.UpdateTest{ID: c.Param("id"), Input: req})
	if err != nil {
		failFromError(c, err)
		return
	}
	t, _ := h.adminService.Test(res.ID)
	response.Success(c, http.StatusOK, gin.H{"test": t})
}

// Delete godoc
// DELETE /api/v1/admin/tests/:id
func (h *TestHandler) Delete(c *gin.Context) {
	if _, err := h.adminService.Dispatch(c.Request.Context(), admin.DeleteTest{ID: c.Param("id")}); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "test deleted"})
}
