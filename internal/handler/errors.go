package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
)

// domainErrors maps service and reducer errors to their HTTP status and
// API code. The first match wins.
var domainErrors = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{admin.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{admin.ErrInvalidTransition, http.StatusConflict, response.ErrInvalidTransition},
	{admin.ErrRescheduleLimit, http.StatusConflict, response.ErrRescheduleLimit},
	{admin.ErrNotAllowedDay, http.StatusUnprocessableEntity, response.ErrDayNotAllowed},
	{admin.ErrDateBlocked, http.StatusConflict, response.ErrDateBlocked},
	{admin.ErrSlotUnavailable, http.StatusConflict, response.ErrSlotUnavailable},
	{admin.ErrLeadTime, http.StatusUnprocessableEntity, response.ErrLeadTime},
	{admin.ErrCooldown, http.StatusConflict, response.ErrRejectionCooldown},
	{admin.ErrActiveAppointment, http.StatusConflict, response.ErrActiveAppointment},
	{admin.ErrEmailExists, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrNotOwner, http.StatusForbidden, response.ErrNotOwner},
	{service.ErrNotificationNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrNoRecipients, http.StatusUnprocessableEntity, response.ErrNoRecipients},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrUserBlocked, http.StatusForbidden, response.ErrAccountBlocked},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrSessionInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated},
}

// failFromError writes the error response for err. Unknown errors are
// recorded on the context and reported as internal errors.
func failFromError(c *gin.Context, err error) {
	var ve *admin.ValidationError
	if errors.As(err, &ve) {
		fields := ve.Fields
		if len(fields) == 0 {
			fields = map[string]string{"detail": ve.Message}
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			response.FailWithDetail(c, m.status, m.code, err.Error())
			return
		}
	}

	_ = c.Error(err)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
