package admin

import "github.com/stemsi/certify-backend/internal/model"

// Action is the closed set of transitions. Only types in this package
// implement it.
type Action interface {
	action()
}

// CreateTest adds a test at the front of the catalogue.
type CreateTest struct {
	Input model.TestInput
}

// UpdateTest replaces a test's content.
type UpdateTest struct {
	ID    string
	Input model.TestInput
}

// DeleteTest removes a test. Recorded quiz history is kept.
type DeleteTest struct {
	ID string
}

// UpdateSettings replaces the exam settings wholesale.
type UpdateSettings struct {
	Settings model.ExamSettings
}

// ToggleUserBlock flips the blocked flag of a user.
type ToggleUserBlock struct {
	ID string
}

// UpsertUser registers an account or refreshes an existing one with the
// same email.
type UpsertUser struct {
	User model.AdminUserRecord
	// CreateOnly rejects the action with ErrEmailExists when the email is
	// already registered.
	CreateOnly bool
}

// SetAppointmentStatus moves an appointment to another status.
type SetAppointmentStatus struct {
	ID        string
	Status    model.AppointmentStatus
	Reason    string
	AdminNote string
	// CancelledBy is recorded only when Status is cancelled; it defaults to
	// the administrator.
	CancelledBy model.Actor
}

// PatchAppointment overwrites the non-nil fields of an appointment.
type PatchAppointment struct {
	ID    string
	Patch model.AppointmentPatch
}

// LogSentNotification records a broadcast in the sent log.
type LogSentNotification struct {
	Entry model.SentNotificationLog
}

// BookAppointment creates a pending appointment for a candidate.
type BookAppointment struct {
	Request   model.BookingRequest
	UserEmail string
}

// RescheduleAppointment replaces an appointment with a linked one on
// another slot.
type RescheduleAppointment struct {
	ID      string
	Request model.RescheduleRequest
}

func (CreateTest) action()            {}
func (UpdateTest) action()            {}
func (DeleteTest) action()            {}
func (UpdateSettings) action()        {}
func (ToggleUserBlock) action()       {}
func (UpsertUser) action()            {}
func (SetAppointmentStatus) action()  {}
func (PatchAppointment) action()      {}
func (LogSentNotification) action()   {}
func (BookAppointment) action()       {}
func (RescheduleAppointment) action() {}
