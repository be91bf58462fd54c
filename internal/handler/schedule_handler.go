package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/schedule"
	"github.com/stemsi/certify-backend/internal/service"
)

// ScheduleHandler serves exam day and slot availability.
type ScheduleHandler struct {
	bookingService *service.BookingService
}

func NewScheduleHandler(bookingService *service.BookingService) *ScheduleHandler {
	return &ScheduleHandler{bookingService: bookingService}
}

// Days godoc
// GET /api/v1/schedule/days?from=YYYY-MM-DD&to=YYYY-MM-DD&count=N
func (h *ScheduleHandler) Days(c *gin.Context) {
	from, to := h.bookingService.DefaultWindow()
	fields := map[string]string{}

	if v := c.Query("from"); v != "" {
		t, err := schedule.ParseDate(v)
		if err != nil {
			fields["from"] = "must be a date in YYYY-MM-DD format"
		} else {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		t, err := schedule.ParseDate(v)
		if err != nil {
			fields["to"] = "must be a date in YYYY-MM-DD format"
		} else {
			to = t
		}
	}
	count := 0
	if v := c.Query("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > service.MaxDayCount {
			fields["count"] = "must be between 1 and " + strconv.Itoa(service.MaxDayCount)
		} else {
			count = n
		}
	}
	if len(fields) > 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, gin.H{"days": h.bookingService.Days(from, to, count)})
}

// Slots godoc
// GET /api/v1/schedule/days/:date/slots
func (h *ScheduleHandler) Slots(c *gin.Context) {
	slots, day, err := h.bookingService.Slots(c.Param("date"))
	if err != nil {
		failFromError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, gin.H{"day": day, "slots": slots})
}
