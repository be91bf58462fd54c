package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appt(id, date, start, end string, status model.AppointmentStatus) model.AdminAppointmentRecord {
	return model.AdminAppointmentRecord{ID: id, Date: date, StartTime: start, EndTime: end, Status: status}
}

func availableCount(slots []SlotAvailability) int {
	n := 0
	for _, s := range slots {
		if s.Available {
			n++
		}
	}
	return n
}

func TestIsAllowedDay_TwoWeeks(t *testing.T) {
	// 2026-02-02 is a Monday.
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		d := start.AddDate(0, 0, i)
		wd := d.Weekday()
		want := wd == time.Monday || wd == time.Wednesday || wd == time.Friday
		assert.Equal(t, want, IsAllowedDay(d), d.Format(model.DateLayout))
		assert.Equal(t, want, IsAllowedDateKey(d.Format(model.DateLayout)))
	}
}

func TestIsAllowedDateKey_Malformed(t *testing.T) {
	assert.False(t, IsAllowedDateKey("2026-13-01"))
	assert.False(t, IsAllowedDateKey(""))
}

func TestDailyCapacity_Override(t *testing.T) {
	s := model.DefaultExamSettings()
	s.CapacityOverrides = []model.CapacityOverride{{Date: "2026-02-11", Capacity: 3}}

	assert.Equal(t, 3, DailyCapacity(s, "2026-02-11"))
	assert.Equal(t, s.AppointmentsPerDay, DailyCapacity(s, "2026-02-13"))
}

func TestSlotTemplate_Override(t *testing.T) {
	s := model.DefaultExamSettings()
	custom := []model.Slot{{Start: "08:00", End: "09:00", Available: true}}
	s.SlotOverrides = []model.SlotOverride{
		{Date: "2026-02-11", Slots: custom},
		{Date: "2026-02-13", Slots: nil},
	}

	assert.Equal(t, custom, SlotTemplate(s, "2026-02-11"))
	assert.Len(t, SlotTemplate(s, "2026-02-13"), 12, "empty override falls back to defaults")

	s.DefaultSlots = nil
	assert.Len(t, SlotTemplate(s, "2026-02-16"), 12)
}

func TestAvailableSlots_BlockedDate(t *testing.T) {
	s := model.DefaultExamSettings()
	s.BlockedDates = []model.BlockedDate{{Date: "2026-02-11", Note: "Libur"}}

	slots := AvailableSlots(s, nil, "2026-02-11", "")
	require.NotEmpty(t, slots)
	for _, sl := range slots {
		assert.False(t, sl.Available)
		assert.Equal(t, ReasonBlocked, sl.Reason)
	}

	blocked, note := Blocked(s, "2026-02-11")
	assert.True(t, blocked)
	assert.Equal(t, "Libur", note)
}

func TestAvailableSlots_Capacity(t *testing.T) {
	const date = "2026-02-11"
	s := model.DefaultExamSettings()
	s.AppointmentsPerDay = 3

	t.Run("full day", func(t *testing.T) {
		appts := []model.AdminAppointmentRecord{
			appt("a1", date, "09:00", "09:30", model.AppointmentPending),
			appt("a2", date, "09:30", "10:00", model.AppointmentApproved),
			appt("a3", date, "10:00", "10:30", model.AppointmentPending),
		}
		slots := AvailableSlots(s, appts, date, "")
		assert.Zero(t, availableCount(slots))
		for _, sl := range slots {
			assert.Equal(t, ReasonFull, sl.Reason, sl.Start)
		}
	})

	t.Run("one below capacity", func(t *testing.T) {
		appts := []model.AdminAppointmentRecord{
			appt("a1", date, "09:00", "09:30", model.AppointmentPending),
			appt("a2", date, "09:30", "10:00", model.AppointmentApproved),
		}
		slots := AvailableSlots(s, appts, date, "")
		assert.Equal(t, len(slots)-2, availableCount(slots))
		for _, sl := range slots {
			held := sl.Start == "09:00" || sl.Start == "09:30"
			assert.Equal(t, !held, sl.Available, sl.Start)
			if held {
				assert.Equal(t, ReasonTaken, sl.Reason)
			}
		}
	})

	t.Run("exclude frees the day", func(t *testing.T) {
		appts := []model.AdminAppointmentRecord{
			appt("a1", date, "09:00", "09:30", model.AppointmentPending),
			appt("a2", date, "09:30", "10:00", model.AppointmentApproved),
			appt("a3", date, "10:00", "10:30", model.AppointmentPending),
		}
		slots := AvailableSlots(s, appts, date, "a3")
		assert.Equal(t, len(slots)-2, availableCount(slots))
	})
}

func TestAvailableSlots_InactiveStatusesDoNotOccupy(t *testing.T) {
	const date = "2026-02-13"
	s := model.DefaultExamSettings()
	s.AppointmentsPerDay = 2
	appts := []model.AdminAppointmentRecord{
		appt("a1", date, "09:00", "09:30", model.AppointmentRejected),
		appt("a2", date, "09:30", "10:00", model.AppointmentCancelled),
	}

	slots := AvailableSlots(s, appts, date, "")
	assert.Equal(t, len(slots), availableCount(slots))
	assert.Empty(t, OccupyingAppointments(appts, date, ""))
}

func TestAvailableSlots_DisabledSlot(t *testing.T) {
	s := model.DefaultExamSettings()
	s.DefaultSlots = []model.Slot{
		{Start: "09:00", End: "10:00", Available: true},
		{Start: "10:00", End: "11:00", Available: false},
	}

	slots := AvailableSlots(s, nil, "2026-02-16", "")
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.Equal(t, ReasonDisabled, slots[1].Reason)
}

func TestAvailableSlots_SingleCapacityConsumesWholeDay(t *testing.T) {
	s := model.DefaultExamSettings()
	s.AppointmentsPerDay = 1
	appts := []model.AdminAppointmentRecord{
		appt("a1", "2026-02-09", "12:00", "12:30", model.AppointmentApproved),
	}

	slots := AvailableSlots(s, appts, "2026-02-09", "")
	require.Len(t, slots, 12)
	for _, sl := range slots {
		assert.False(t, sl.Available, sl.Start)
	}

	ok, reason := SlotAvailable(s, appts, "2026-02-09", "12:00", "12:30", "")
	assert.False(t, ok)
	assert.Equal(t, ReasonFull, reason)
}

func TestSlotAvailable_NotInTemplate(t *testing.T) {
	ok, reason := SlotAvailable(model.DefaultExamSettings(), nil, "2026-02-09", "07:00", "07:30", "")
	assert.False(t, ok)
	assert.Empty(t, reason)
}

func TestLeadTimeSatisfied(t *testing.T) {
	s := model.DefaultExamSettings()
	s.LeadTimeHours = 24
	now := time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC)

	assert.False(t, LeadTimeSatisfied(s, now.Add(23*time.Hour), now))
	assert.True(t, LeadTimeSatisfied(s, now.Add(24*time.Hour), now))
	assert.True(t, LeadTimeSatisfied(s, now.Add(72*time.Hour), now))
}

func TestSlotDateTime(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	at, err := SlotDateTime("2026-02-09", "12:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 9, 5, 0, 0, 0, time.UTC), at.UTC())

	_, err = SlotDateTime("2026-02-09", "noon", loc)
	assert.Error(t, err)
}

func TestCanReschedule(t *testing.T) {
	s := model.DefaultExamSettings()
	s.MaxReschedulesPerUser = 2

	for _, st := range []model.AppointmentStatus{
		model.AppointmentPending, model.AppointmentApproved,
		model.AppointmentRejected, model.AppointmentCancelled,
	} {
		a := model.AdminAppointmentRecord{Status: st, RescheduleCount: 2}
		assert.False(t, CanReschedule(s, a), st)
	}

	assert.True(t, CanReschedule(s, model.AdminAppointmentRecord{Status: model.AppointmentPending, RescheduleCount: 1}))
	assert.False(t, CanReschedule(s, model.AdminAppointmentRecord{Status: model.AppointmentCancelled, RescheduleCount: 0}))
}

func TestNextEligibleDates(t *testing.T) {
	s := model.DefaultExamSettings()
	s.AppointmentsPerDay = 2
	s.BlockedDates = []model.BlockedDate{{Date: "2026-02-11", Note: "Rapat pleno"}}
	appts := []model.AdminAppointmentRecord{
		appt("a1", "2026-02-13", "09:00", "09:30", model.AppointmentPending),
	}
	// Monday 2026-02-09.
	start := time.Date(2026, 2, 9, 15, 0, 0, 0, time.UTC)
	maxDate := start.AddDate(0, 0, 30)

	seq := NextEligibleDates(s, appts, start, maxDate, 4)

	var got []DayAvailability
	for d := range seq {
		got = append(got, d)
	}
	require.Len(t, got, 4)
	assert.Equal(t, []string{"2026-02-11", "2026-02-13", "2026-02-16", "2026-02-18"},
		[]string{got[0].Date, got[1].Date, got[2].Date, got[3].Date})

	assert.True(t, got[0].Blocked)
	assert.Equal(t, "Rapat pleno", got[0].BlockNote)
	assert.Zero(t, got[0].Remaining)

	assert.Equal(t, 1, got[1].Occupied)
	assert.Equal(t, 1, got[1].Remaining)
	assert.Equal(t, "Friday", got[1].Weekday)

	// Restartable.
	again := 0
	for range seq {
		again++
	}
	assert.Equal(t, 4, again)
}

func TestNextEligibleDates_StopsAtMaxDate(t *testing.T) {
	s := model.DefaultExamSettings()
	start := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	maxDate := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)

	var dates []string
	for d := range NextEligibleDates(s, nil, start, maxDate, 10) {
		dates = append(dates, d.Date)
	}
	assert.Equal(t, []string{"2026-02-11", "2026-02-13"}, dates)
}

func TestNextEligibleDates_EarlyBreak(t *testing.T) {
	s := model.DefaultExamSettings()
	start := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

	n := 0
	for range NextEligibleDates(s, nil, start, start.AddDate(1, 0, 0), 50) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestCooldownUntil(t *testing.T) {
	s := model.DefaultExamSettings()
	s.RejectionCooldownDays = 7
	rejectedAt := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	appts := []model.AdminAppointmentRecord{{
		ID: "a1", Status: model.AppointmentRejected, UserEmail: "budi@example.com",
		IDOrPhone: "081234", UpdatedAt: rejectedAt,
	}}

	until, active := CooldownUntil(s, appts, "BUDI@example.com", "", rejectedAt.Add(48*time.Hour))
	assert.True(t, active)
	assert.Equal(t, rejectedAt.AddDate(0, 0, 7), until)

	_, active = CooldownUntil(s, appts, "", "081234", rejectedAt.AddDate(0, 0, 8))
	assert.False(t, active)

	_, active = CooldownUntil(s, appts, "other@example.com", "999", rejectedAt)
	assert.False(t, active)

	s.RejectionCooldownDays = 0
	_, active = CooldownUntil(s, appts, "budi@example.com", "", rejectedAt)
	assert.False(t, active)
}

func TestGenerateAppointmentCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		code := GenerateAppointmentCode(now)
		var n int
		_, err := fmt.Sscanf(code, "AP-2026-%05d", &n)
		require.NoError(t, err, code)
		assert.Len(t, code, len("AP-2026-00000"))
	}
}
