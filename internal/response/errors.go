package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrAccountBlocked     ErrCode = "ACCOUNT_BLOCKED"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"
	ErrNotOwner        ErrCode = "NOT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Scheduling ────────────────────────────────────────────────────
	ErrDayNotAllowed     ErrCode = "DAY_NOT_ALLOWED"
	ErrDateBlocked       ErrCode = "DATE_BLOCKED"
	ErrSlotUnavailable   ErrCode = "SLOT_UNAVAILABLE"
	ErrLeadTime          ErrCode = "LEAD_TIME_NOT_MET"
	ErrRescheduleLimit   ErrCode = "RESCHEDULE_LIMIT_REACHED"
	ErrRejectionCooldown ErrCode = "REJECTION_COOLDOWN"
	ErrActiveAppointment ErrCode = "ACTIVE_APPOINTMENT_EXISTS"
	ErrInvalidTransition ErrCode = "INVALID_STATUS_TRANSITION"

	// ─── Notifications ─────────────────────────────────────────────────
	ErrNoRecipients ErrCode = "NO_RECIPIENTS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrAccountBlocked:
		return "Your account is blocked. Contact an administrator."
	case ErrEmailTaken:
		return "Email is already registered."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrNotOwner:
		return "This appointment belongs to another account."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Scheduling ────────────────────────────────────────────────────
	case ErrDayNotAllowed:
		return "Exams are held on Monday, Wednesday and Friday only."
	case ErrDateBlocked:
		return "This date is not available for exams."
	case ErrSlotUnavailable:
		return "This time slot is no longer available."
	case ErrLeadTime:
		return "The slot is too close to the current time."
	case ErrRescheduleLimit:
		return "The reschedule limit has been reached."
	case ErrRejectionCooldown:
		return "You cannot book again yet after the last rejection."
	case ErrActiveAppointment:
		return "You already have an active appointment."
	case ErrInvalidTransition:
		return "This status change is not allowed."

	// ─── Notifications ─────────────────────────────────────────────────
	case ErrNoRecipients:
		return "No recipient matches the target."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
