package model

import "time"

// AppointmentStatus enumerates the states of an exam booking.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentApproved  AppointmentStatus = "approved"
	AppointmentRejected  AppointmentStatus = "rejected"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentApproved, AppointmentRejected, AppointmentCancelled:
		return true
	}
	return false
}

// Occupies reports whether an appointment in this status holds day capacity.
func (s AppointmentStatus) Occupies() bool {
	return s == AppointmentPending || s == AppointmentApproved
}

// Actor identifies who cancelled an appointment.
type Actor string

const (
	ActorUser  Actor = "user"
	ActorAdmin Actor = "admin"
)

// AdminAppointmentRecord is one exam booking.
type AdminAppointmentRecord struct {
	ID                    string            `json:"id"`
	Code                  string            `json:"code"`
	FullName              string            `json:"fullName"`
	IDOrPhone             string            `json:"idOrPhone"`
	UserEmail             string            `json:"userEmail,omitempty"`
	Date                  string            `json:"date"`
	StartTime             string            `json:"startTime"`
	EndTime               string            `json:"endTime"`
	Status                AppointmentStatus `json:"status"`
	StatusReason          string            `json:"statusReason,omitempty"`
	AdminNote             string            `json:"adminNote,omitempty"`
	CancelledBy           Actor             `json:"cancelledBy,omitempty"`
	PreviousAppointmentID string            `json:"previousAppointmentId,omitempty"`
	RescheduleCount       int               `json:"rescheduleCount"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// AppointmentPatch holds the fields an administrator may overwrite directly.
// Nil fields are left untouched.
type AppointmentPatch struct {
	FullName     *string `json:"fullName" binding:"omitempty,min=2,max=100"`
	IDOrPhone    *string `json:"idOrPhone" binding:"omitempty,min=4,max=50"`
	UserEmail    *string `json:"userEmail" binding:"omitempty,email"`
	StatusReason *string `json:"statusReason" binding:"omitempty,max=500"`
	AdminNote    *string `json:"adminNote" binding:"omitempty,max=1000"`
}

// BookingRequest is a candidate's request for an exam slot.
type BookingRequest struct {
	FullName  string `json:"fullName" binding:"required,min=2,max=100"`
	IDOrPhone string `json:"idOrPhone" binding:"required,min=4,max=50"`
	Date      string `json:"date" binding:"required,datekey"`
	StartTime string `json:"startTime" binding:"required,clock"`
	EndTime   string `json:"endTime" binding:"required,clock"`
}

// RescheduleRequest moves an appointment to another slot.
type RescheduleRequest struct {
	Date      string `json:"date" binding:"required,datekey"`
	StartTime string `json:"startTime" binding:"required,clock"`
	EndTime   string `json:"endTime" binding:"required,clock"`
}

// CancelRequest carries an optional reason for a cancellation.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SetStatusRequest is the admin payload for an appointment status change.
type SetStatusRequest struct {
	Status    AppointmentStatus `json:"status" binding:"required,oneof=pending approved rejected cancelled"`
	Reason    string            `json:"reason" binding:"max=500"`
	AdminNote string            `json:"adminNote" binding:"max=1000"`
}
