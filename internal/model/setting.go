package model

// Slot is one bookable exam interval within a day.
type Slot struct {
	Start     string `json:"start" binding:"required,clock"`
	End       string `json:"end" binding:"required,clock"`
	Available bool   `json:"available"`
}

// BlockedDate excludes a calendar date from booking.
type BlockedDate struct {
	Date string `json:"date" binding:"required,datekey"`
	Note string `json:"note,omitempty" binding:"max=200"`
}

// CapacityOverride replaces the daily capacity for one date.
type CapacityOverride struct {
	Date     string `json:"date" binding:"required,datekey"`
	Capacity int    `json:"capacity" binding:"min=0,max=1000"`
}

// SlotOverride replaces the slot template for one date.
type SlotOverride struct {
	Date  string `json:"date" binding:"required,datekey"`
	Slots []Slot `json:"slots" binding:"dive"`
}

// ExamSettings is the process-wide exam configuration. The binding tags are
// enforced both on HTTP input and by the admin reducer.
type ExamSettings struct {
	TestDuration          int                `json:"testDuration" binding:"min=1,max=180"`
	PassingThreshold      int                `json:"passingThreshold" binding:"min=1,max=100"`
	AppointmentsPerDay    int                `json:"appointmentsPerDay" binding:"min=1"`
	LeadTimeHours         int                `json:"leadTimeHours" binding:"min=0,max=720"`
	MaxReschedulesPerUser int                `json:"maxReschedulesPerUser" binding:"min=0,max=20"`
	RejectionCooldownDays int                `json:"rejectionCooldownDays" binding:"min=0,max=365"`
	ExamLocation          string             `json:"examLocation" binding:"max=200"`
	ExamRoom              string             `json:"examRoom" binding:"max=100"`
	DefaultSlots          []Slot             `json:"defaultSlots" binding:"dive"`
	BlockedDates          []BlockedDate      `json:"blockedDates" binding:"dive"`
	CapacityOverrides     []CapacityOverride `json:"capacityOverrides" binding:"dive"`
	SlotOverrides         []SlotOverride     `json:"slotOverrides" binding:"dive"`
}

// DefaultSlotTemplate returns 30-minute slots from 09:00 to 12:30 and from
// 13:30 to 16:00.
func DefaultSlotTemplate() []Slot {
	starts := []string{
		"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00",
		"13:30", "14:00", "14:30", "15:00", "15:30",
	}
	ends := []string{
		"09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
		"14:00", "14:30", "15:00", "15:30", "16:00",
	}
	slots := make([]Slot, len(starts))
	for i := range starts {
		slots[i] = Slot{Start: starts[i], End: ends[i], Available: true}
	}
	return slots
}

// DefaultExamSettings is what a fresh installation starts with.
func DefaultExamSettings() ExamSettings {
	return ExamSettings{
		TestDuration:          60,
		PassingThreshold:      70,
		AppointmentsPerDay:    10,
		LeadTimeHours:         24,
		MaxReschedulesPerUser: 2,
		RejectionCooldownDays: 7,
		ExamLocation:          "Certification Center",
		ExamRoom:              "Main Exam Room",
		DefaultSlots:          DefaultSlotTemplate(),
		BlockedDates:          []BlockedDate{},
		CapacityOverrides:     []CapacityOverride{},
		SlotOverrides:         []SlotOverride{},
	}
}
