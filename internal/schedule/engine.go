package schedule

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/stemsi/certify-backend/internal/model"
)

// Reasons a slot is not bookable.
const (
	ReasonBlocked  = "blocked"
	ReasonFull     = "full"
	ReasonDisabled = "disabled"
	ReasonTaken    = "taken"
)

// SlotAvailability is one template slot with its bookability on a date.
type SlotAvailability struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// DayAvailability summarizes one eligible exam day.
type DayAvailability struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Capacity  int    `json:"capacity"`
	Occupied  int    `json:"occupied"`
	Remaining int    `json:"remaining"`
	Blocked   bool   `json:"blocked"`
	BlockNote string `json:"blockNote,omitempty"`
}

// ParseDate parses a date key into midnight UTC of that civil date.
func ParseDate(key string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", key, err)
	}
	return t, nil
}

// DateKey returns the date key of t as seen in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(model.DateLayout)
}

// IsAllowedDay reports whether exams are held on t's weekday: Monday,
// Wednesday and Friday only.
func IsAllowedDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Monday, time.Wednesday, time.Friday:
		return true
	}
	return false
}

// IsAllowedDateKey is IsAllowedDay for a date key. Malformed keys are never
// allowed.
func IsAllowedDateKey(key string) bool {
	t, err := ParseDate(key)
	return err == nil && IsAllowedDay(t)
}

// DailyCapacity returns the capacity override of dateKey, or the default
// appointments per day.
func DailyCapacity(s model.ExamSettings, dateKey string) int {
	for _, o := range s.CapacityOverrides {
		if o.Date == dateKey {
			return o.Capacity
		}
	}
	return s.AppointmentsPerDay
}

// SlotTemplate returns the non-empty slot override of dateKey, or the
// default slot list.
func SlotTemplate(s model.ExamSettings, dateKey string) []model.Slot {
	for _, o := range s.SlotOverrides {
		if o.Date == dateKey && len(o.Slots) > 0 {
			return o.Slots
		}
	}
	if len(s.DefaultSlots) == 0 {
		return model.DefaultSlotTemplate()
	}
	return s.DefaultSlots
}

// Blocked reports whether dateKey is administratively blocked, with its note.
func Blocked(s model.ExamSettings, dateKey string) (bool, string) {
	for _, b := range s.BlockedDates {
		if b.Date == dateKey {
			return true, b.Note
		}
	}
	return false, ""
}

// OccupyingAppointments returns the pending or approved appointments on
// dateKey, leaving out excludeID when it is non-empty.
func OccupyingAppointments(appts []model.AdminAppointmentRecord, dateKey, excludeID string) []model.AdminAppointmentRecord {
	var out []model.AdminAppointmentRecord
	for _, a := range appts {
		if a.Date != dateKey || !a.Status.Occupies() {
			continue
		}
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// AvailableSlots evaluates every template slot of dateKey. Capacity is a
// day-level limit: once the occupying count reaches it, no slot of the day
// is available, including slots nobody holds.
func AvailableSlots(s model.ExamSettings, appts []model.AdminAppointmentRecord, dateKey, excludeID string) []SlotAvailability {
	template := SlotTemplate(s, dateKey)
	blocked, _ := Blocked(s, dateKey)
	occupying := OccupyingAppointments(appts, dateKey, excludeID)
	full := len(occupying) >= DailyCapacity(s, dateKey)

	held := make(map[[2]string]bool, len(occupying))
	for _, a := range occupying {
		held[[2]string{a.StartTime, a.EndTime}] = true
	}

	out := make([]SlotAvailability, len(template))
	for i, sl := range template {
		av := SlotAvailability{Start: sl.Start, End: sl.End}
		switch {
		case blocked:
			av.Reason = ReasonBlocked
		case full:
			av.Reason = ReasonFull
		case !sl.Available:
			av.Reason = ReasonDisabled
		case held[[2]string{sl.Start, sl.End}]:
			av.Reason = ReasonTaken
		default:
			av.Available = true
		}
		out[i] = av
	}
	return out
}

// SlotAvailable reports whether the slot start-end exists in the template of
// dateKey and is currently bookable. The second result is the reason when it
// is not; it is empty for a slot missing from the template.
func SlotAvailable(s model.ExamSettings, appts []model.AdminAppointmentRecord, dateKey, start, end, excludeID string) (bool, string) {
	for _, av := range AvailableSlots(s, appts, dateKey, excludeID) {
		if av.Start == start && av.End == end {
			return av.Available, av.Reason
		}
	}
	return false, ""
}

// LeadTimeSatisfied reports whether examAt is at least LeadTimeHours after now.
func LeadTimeSatisfied(s model.ExamSettings, examAt, now time.Time) bool {
	return examAt.Sub(now) >= time.Duration(s.LeadTimeHours)*time.Hour
}

// SlotDateTime combines a date key and an HH:MM clock in loc.
func SlotDateTime(dateKey, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout+" "+model.ClockLayout, dateKey+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot time %s %s: %w", dateKey, clock, err)
	}
	return t, nil
}

// NextEligibleDates yields up to count allowed days after start, up to and
// including maxDate, in increasing order. Blocked and full days are yielded
// too, annotated. The sequence is lazy and can be ranged over repeatedly.
func NextEligibleDates(s model.ExamSettings, appts []model.AdminAppointmentRecord, start, maxDate time.Time, count int) iter.Seq[DayAvailability] {
	first := civil(start).AddDate(0, 0, 1)
	last := civil(maxDate)

	return func(yield func(DayAvailability) bool) {
		found := 0
		for d := first; found < count && !d.After(last); d = d.AddDate(0, 0, 1) {
			if !IsAllowedDay(d) {
				continue
			}
			if !yield(Day(s, appts, d.Format(model.DateLayout))) {
				return
			}
			found++
		}
	}
}

// Day annotates a single date with its capacity and occupancy.
func Day(s model.ExamSettings, appts []model.AdminAppointmentRecord, dateKey string) DayAvailability {
	capacity := DailyCapacity(s, dateKey)
	occupied := len(OccupyingAppointments(appts, dateKey, ""))
	blocked, note := Blocked(s, dateKey)

	remaining := capacity - occupied
	if remaining < 0 || blocked {
		remaining = 0
	}

	weekday := ""
	if t, err := ParseDate(dateKey); err == nil {
		weekday = t.Weekday().String()
	}

	return DayAvailability{
		Date:      dateKey,
		Weekday:   weekday,
		Capacity:  capacity,
		Occupied:  occupied,
		Remaining: remaining,
		Blocked:   blocked,
		BlockNote: note,
	}
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GenerateAppointmentCode returns a display code AP-<year>-<5 digits>. Codes
// are labels, not keys: uniqueness is not guaranteed.
func GenerateAppointmentCode(now time.Time) string {
	return fmt.Sprintf("AP-%d-%05d", now.Year(), rand.IntN(100000))
}

// CanReschedule reports whether a pending or approved appointment still has
// reschedules left.
func CanReschedule(s model.ExamSettings, a model.AdminAppointmentRecord) bool {
	return a.Status.Occupies() && a.RescheduleCount < s.MaxReschedulesPerUser
}

// CooldownUntil finds the candidate's most recent rejection, matched by
// email or by id/phone, and returns when its cooldown ends. The second
// result is false when no cooldown is in effect at now.
func CooldownUntil(s model.ExamSettings, appts []model.AdminAppointmentRecord, email, idOrPhone string, now time.Time) (time.Time, bool) {
	if s.RejectionCooldownDays <= 0 {
		return time.Time{}, false
	}

	var latest time.Time
	for _, a := range appts {
		if a.Status != model.AppointmentRejected {
			continue
		}
		sameEmail := email != "" && strings.EqualFold(a.UserEmail, email)
		samePerson := idOrPhone != "" && strings.EqualFold(strings.TrimSpace(a.IDOrPhone), strings.TrimSpace(idOrPhone))
		if !sameEmail && !samePerson {
			continue
		}
		if a.UpdatedAt.After(latest) {
			latest = a.UpdatedAt
		}
	}
	if latest.IsZero() {
		return time.Time{}, false
	}

	until := latest.Add(time.Duration(s.RejectionCooldownDays) * 24 * time.Hour)
	return until, now.Before(until)
}
