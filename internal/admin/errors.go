package admin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors. A failed Apply never changes state.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrRescheduleLimit   = errors.New("reschedule limit reached")
	ErrNotAllowedDay     = errors.New("exams are held on Monday, Wednesday and Friday only")
	ErrDateBlocked       = errors.New("date is blocked")
	ErrSlotUnavailable   = errors.New("slot is not available")
	ErrLeadTime          = errors.New("slot is too close to now")
	ErrCooldown          = errors.New("booking is in cooldown after a rejection")
	ErrActiveAppointment = errors.New("candidate already has an active appointment")
	ErrEmailExists       = errors.New("email is already registered")
	ErrUnknownAction     = errors.New("unknown action")
)

// ValidationError reports malformed admin input. Message is suitable for
// showing next to the form.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func invalidFields(fields map[string]string) *ValidationError {
	msgs := make([]string, 0, len(fields))
	for _, m := range fields {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return &ValidationError{Message: strings.Join(msgs, "; "), Fields: fields}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
