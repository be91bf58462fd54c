package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/middleware"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
	"github.com/stemsi/certify-backend/internal/validator"
)

// AppointmentHandler serves bookings for candidates and their review by
// administrators.
type AppointmentHandler struct {
	bookingService *service.BookingService
	adminService   *service.AdminService
}

func NewAppointmentHandler(bookingService *service.BookingService, adminService *service.AdminService) *AppointmentHandler {
	return &AppointmentHandler{bookingService: bookingService, adminService: adminService}
}

// ─── Candidate ─────────────────────────────────────────────────────

// Book godoc
// POST /api/v1/appointments
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req model.BookingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, _ := middleware.GetUser(c)
	appt, err := h.bookingService.Book(c.Request.Context(), user.Email, req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"appointment": appt})
}

// Mine godoc
// GET /api/v1/appointments/mine
func (h *AppointmentHandler) Mine(c *gin.Context) {
	user, _ := middleware.GetUser(c)
	response.Success(c, http.StatusOK, gin.H{"appointments": h.bookingService.Mine(user.Email)})
}

// Reschedule godoc
// POST /api/v1/appointments/:id/reschedule
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	var req model.RescheduleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, _ := middleware.GetUser(c)
	appt, err := h.bookingService.Reschedule(c.Request.Context(), user.Email, c.Param("id"), req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": appt})
}

// Cancel godoc
// POST /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	var req model.CancelRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	user, _ := middleware.GetUser(c)
	appt, err := h.bookingService.Cancel(c.Request.Context(), user.Email, c.Param("id"), req.Reason)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": appt})
}

// ─── Admin ─────────────────────────────────────────────────────────

// AdminList godoc
// GET /api/v1/admin/appointments?status=&date=&q=
func (h *AppointmentHandler) AdminList(c *gin.Context) {
	filter := service.AppointmentFilter{
		Status: model.AppointmentStatus(c.Query("status")),
		Date:   c.Query("date"),
		Query:  c.Query("q"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"status": "must be one of: pending approved rejected cancelled",
		})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointments": h.adminService.Appointments(filter)})
}

// SetStatus godoc
// PUT /api/v1/admin/appointments/:id/status
func (h *AppointmentHandler) SetStatus(c *gin.Context) {
	var req model.SetStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.adminService.Dispatch(c.Request.Context(), admin.SetAppointmentStatus{
		ID:          c.Param("id"),
		Status:      req.Status,
		Reason:      req.Reason,
		AdminNote:   req.AdminNote,
		CancelledBy: model.ActorAdmin,
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	appt, _ := res.Appointment()
	response.Success(c, http.StatusOK, gin.H{"appointment": appt})
}

// Patch godoc
// PATCH /api/v1/admin/appointments/:id
func (h *AppointmentHandler) Patch(c *gin.Context) {
	var req model.AppointmentPatch
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.adminService.Dispatch(c.Request.Context(), admin.PatchAppointment{ID: c.Param("id"), Patch: req})
	if err != nil {
		failFromError(c, err)
		return
	}
	appt, _ := res.Appointment()
	response.Success(c, http.StatusOK, gin.H{"appointment": appt})
}
