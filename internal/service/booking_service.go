package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/schedule"
)

var ErrNotOwner = errors.New("appointment belongs to another account")

// Booking window defaults for the availability listing.
const (
	DefaultDayCount = 12
	MaxDayCount     = 60
	BookingHorizon  = 90 * 24 * time.Hour
)

// BookingService is the candidate-facing side of scheduling. Writes go
// through the admin session so that both sides share one state.
type BookingService struct {
	admin *AdminService
	loc   *time.Location
	now   func() time.Time
}

func NewBookingService(adminSvc *AdminService, loc *time.Location) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{admin: adminSvc, loc: loc, now: time.Now}
}

// Days lists up to count eligible exam days after from and no later than to.
func (s *BookingService) Days(from, to time.Time, count int) []schedule.DayAvailability {
	if count <= 0 {
		count = DefaultDayCount
	}
	count = min(count, MaxDayCount)
	st := s.admin.Snapshot()
	days := slices.Collect(schedule.NextEligibleDates(st.Settings, st.Appointments, from.In(s.loc), to.In(s.loc), count))
	if days == nil {
		days = []schedule.DayAvailability{}
	}
	return days
}

// DefaultWindow is the booking window starting today.
func (s *BookingService) DefaultWindow() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	return now, now.Add(BookingHorizon)
}

// Slots returns the slot availability of one date together with its day
// summary.
func (s *BookingService) Slots(date string) ([]schedule.SlotAvailability, schedule.DayAvailability, error) {
	if !model.ValidDateKey(date) {
		return nil, schedule.DayAvailability{}, &admin.ValidationError{Message: fmt.Sprintf("invalid date %q", date)}
	}
	if !schedule.IsAllowedDateKey(date) {
		return nil, schedule.DayAvailability{}, fmt.Errorf("%w: %s", admin.ErrNotAllowedDay, date)
	}
	st := s.admin.Snapshot()
	return schedule.AvailableSlots(st.Settings, st.Appointments, date, ""), schedule.Day(st.Settings, st.Appointments, date), nil
}

// Book creates a pending appointment for the signed-in user.
func (s *BookingService) Book(ctx context.Context, email string, req model.BookingRequest) (model.AdminAppointmentRecord, error) {
	res, err := s.admin.Dispatch(ctx, admin.BookAppointment{Request: req, UserEmail: email})
	if err != nil {
		return model.AdminAppointmentRecord{}, err
	}
	return res.State.Appointments[0], nil
}

// Mine lists the user's appointments, newest first.
func (s *BookingService) Mine(email string) []model.AdminAppointmentRecord {
	email = strings.ToLower(strings.TrimSpace(email))
	out := make([]model.AdminAppointmentRecord, 0)
	for _, a := range s.admin.Snapshot().Appointments {
		if a.UserEmail == email {
			out = append(out, a)
		}
	}
	return out
}

func (s *BookingService) owned(email, id string) error {
	a, ok := s.admin.Appointment(id)
	if !ok {
		return fmt.Errorf("appointment %s: %w", id, admin.ErrNotFound)
	}
	if !strings.EqualFold(a.UserEmail, strings.TrimSpace(email)) {
		return ErrNotOwner
	}
	return nil
}

// Reschedule moves the user's appointment to another slot.
func (s *BookingService) Reschedule(ctx context.Context, email, id string, req model.RescheduleRequest) (model.AdminAppointmentRecord, error) {
	if err := s.owned(email, id); err != nil {
		return model.AdminAppointmentRecord{}, err
	}
	res, err := s.admin.Dispatch(ctx, admin.RescheduleAppointment{ID: id, Request: req})
	if err != nil {
		return model.AdminAppointmentRecord{}, err
	}
	return res.State.Appointments[0], nil
}

// Cancel withdraws the user's appointment.
func (s *BookingService) Cancel(ctx context.Context, email, id, reason string) (model.AdminAppointmentRecord, error) {
	if err := s.owned(email, id); err != nil {
		return model.AdminAppointmentRecord{}, err
	}
	res, err := s.admin.Dispatch(ctx, admin.SetAppointmentStatus{
		ID:          id,
		Status:      model.AppointmentCancelled,
		Reason:      reason,
		CancelledBy: model.ActorUser,
	})
	if err != nil {
		return model.AdminAppointmentRecord{}, err
	}
	a, ok := res.Appointment()
	if !ok {
		return model.AdminAppointmentRecord{}, fmt.Errorf("appointment %s: %w", id, admin.ErrNotFound)
	}
	return a, nil
}
