// Package admin is the back-office state machine. Apply is pure: it takes
// the current State and one Action and returns the next State together with
// the collections that changed and the domain events to fan out. Persisting
// and notifying are left to the caller.
package admin

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/schedule"
)

// State is the canonical in-memory copy of the admin collections.
type State struct {
	Tests             []model.AdminTest
	Settings          model.ExamSettings
	Users             []model.AdminUserRecord
	Appointments      []model.AdminAppointmentRecord
	SentNotifications []model.SentNotificationLog
}

// EmptyState is the state of a fresh installation.
func EmptyState() State {
	return State{
		Tests:             []model.AdminTest{},
		Settings:          model.DefaultExamSettings(),
		Users:             []model.AdminUserRecord{},
		Appointments:      []model.AdminAppointmentRecord{},
		SentNotifications: []model.SentNotificationLog{},
	}
}

// Collection names one of the five persisted admin collections.
type Collection string

const (
	CollectionTests             Collection = "tests"
	CollectionSettings          Collection = "settings"
	CollectionUsers             Collection = "users"
	CollectionAppointments      Collection = "appointments"
	CollectionSentNotifications Collection = "sentNotifications"
)

// EventKind classifies domain events raised by a transition.
type EventKind string

const (
	EventStatusChanged          EventKind = "status_changed"
	EventAppointmentCreated     EventKind = "appointment_created"
	EventAppointmentRescheduled EventKind = "appointment_rescheduled"
)

// Event is a domain event for the notification fan-out.
type Event struct {
	Kind        EventKind
	Appointment model.AdminAppointmentRecord
	// Previous is the appointment before the transition, when there was one.
	Previous *model.AdminAppointmentRecord
}

// Result is the outcome of a successful Apply.
type Result struct {
	State   State
	Changed []Collection
	Events  []Event
	// ID is the id of the record created or changed by the action, if any.
	ID string
}

// Appointment returns the appointment the action touched.
func (r Result) Appointment() (model.AdminAppointmentRecord, bool) {
	i := slices.IndexFunc(r.State.Appointments, func(a model.AdminAppointmentRecord) bool { return a.ID == r.ID })
	if r.ID == "" || i < 0 {
		return model.AdminAppointmentRecord{}, false
	}
	return r.State.Appointments[i], true
}

// Env supplies the impure inputs of a transition.
type Env struct {
	Now      time.Time
	Location *time.Location
	NewID    func() string
	NewCode  func(now time.Time) string
}

// NewEnv returns an Env stamped with the current time.
func NewEnv(loc *time.Location) Env {
	if loc == nil {
		loc = time.UTC
	}
	return Env{
		Now:      time.Now(),
		Location: loc,
		NewID:    uuid.NewString,
		NewCode:  schedule.GenerateAppointmentCode,
	}
}
