package model

import (
	"fmt"
	"strings"
)

// The Normalize functions repair records read back from storage: missing
// fields get defaults, unknown enum values fall back to a safe value and
// records that cannot be identified are dropped. They never fail.

// NormalizeSettings repairs settings decoded on top of DefaultExamSettings.
func NormalizeSettings(s ExamSettings) ExamSettings {
	def := DefaultExamSettings()
	if s.TestDuration < 1 || s.TestDuration > 180 {
		s.TestDuration = def.TestDuration
	}
	if s.PassingThreshold < 1 || s.PassingThreshold > 100 {
		s.PassingThreshold = def.PassingThreshold
	}
	if s.AppointmentsPerDay < 1 {
		s.AppointmentsPerDay = def.AppointmentsPerDay
	}
	if s.LeadTimeHours < 0 || s.LeadTimeHours > 720 {
		s.LeadTimeHours = def.LeadTimeHours
	}
	if s.MaxReschedulesPerUser < 0 || s.MaxReschedulesPerUser > 20 {
		s.MaxReschedulesPerUser = def.MaxReschedulesPerUser
	}
	if s.RejectionCooldownDays < 0 || s.RejectionCooldownDays > 365 {
		s.RejectionCooldownDays = def.RejectionCooldownDays
	}

	s.DefaultSlots = normalizeSlots(s.DefaultSlots)
	if len(s.DefaultSlots) == 0 {
		s.DefaultSlots = def.DefaultSlots
	}

	blocked := make([]BlockedDate, 0, len(s.BlockedDates))
	for _, b := range s.BlockedDates {
		if ValidDateKey(b.Date) {
			blocked = append(blocked, b)
		}
	}
	s.BlockedDates = blocked

	caps := make([]CapacityOverride, 0, len(s.CapacityOverrides))
	for _, c := range s.CapacityOverrides {
		if ValidDateKey(c.Date) && c.Capacity >= 0 {
			caps = append(caps, c)
		}
	}
	s.CapacityOverrides = caps

	overrides := make([]SlotOverride, 0, len(s.SlotOverrides))
	for _, o := range s.SlotOverrides {
		if !ValidDateKey(o.Date) {
			continue
		}
		o.Slots = normalizeSlots(o.Slots)
		overrides = append(overrides, o)
	}
	s.SlotOverrides = overrides
	return s
}

func normalizeSlots(in []Slot) []Slot {
	out := make([]Slot, 0, len(in))
	for _, sl := range in {
		if ValidClock(sl.Start) && ValidClock(sl.End) && sl.Start < sl.End {
			out = append(out, sl)
		}
	}
	return out
}

// NormalizeTests drops tests without an id and repairs their questions.
func NormalizeTests(in []AdminTest) []AdminTest {
	out := make([]AdminTest, 0, len(in))
	for _, t := range in {
		if t.ID == "" {
			continue
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		qs := make([]AdminQuestion, 0, len(t.Questions))
		for i, q := range t.Questions {
			if len(q.Options) == 0 {
				continue
			}
			if q.ID == "" {
				q.ID = QuestionID(t.ID, i)
			}
			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				q.CorrectAnswer = 0
			}
			qs = append(qs, q)
		}
		t.Questions = qs
		out = append(out, t)
	}
	return out
}

// QuestionID is the id a question gets at position i of a test.
func QuestionID(testID string, i int) string {
	return fmt.Sprintf("%s-q%d", testID, i+1)
}

// NormalizeUsers lower-cases emails, keeps the first record per email and
// repairs unknown roles.
func NormalizeUsers(in []AdminUserRecord) []AdminUserRecord {
	out := make([]AdminUserRecord, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, u := range in {
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Email == "" || seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		if u.Role != RoleAdmin {
			u.Role = RoleUser
		}
		if u.ID == "" {
			u.ID = "user-" + u.Email
		}
		out = append(out, u)
	}
	return out
}

// NormalizeAppointments drops records without an id and repairs statuses
// and counters.
func NormalizeAppointments(in []AdminAppointmentRecord) []AdminAppointmentRecord {
	out := make([]AdminAppointmentRecord, 0, len(in))
	for _, a := range in {
		if a.ID == "" {
			continue
		}
		if !a.Status.Valid() {
			a.Status = AppointmentPending
		}
		if a.Status != AppointmentCancelled {
			a.CancelledBy = ""
		}
		if a.RescheduleCount < 0 {
			a.RescheduleCount = 0
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = a.CreatedAt
		}
		a.UserEmail = strings.ToLower(strings.TrimSpace(a.UserEmail))
		out = append(out, a)
	}
	return out
}

// NormalizeQuizHistory clamps scores and counters of stored attempts.
func NormalizeQuizHistory(in []QuizHistoryRecord) []QuizHistoryRecord {
	out := make([]QuizHistoryRecord, 0, len(in))
	for i, r := range in {
		if r.ID == "" {
			r.ID = fmt.Sprintf("quiz-%d-%d", r.CompletedAt.Unix(), i)
		}
		if r.Score < 0 {
			r.Score = 0
		}
		if r.Score > 100 {
			r.Score = 100
		}
		if r.Mode != QuizModeExam && r.Mode != QuizModeTraining {
			r.Mode = ""
		}
		r.UserEmail = strings.ToLower(r.UserEmail)
		out = append(out, r)
	}
	return out
}

// NormalizeSentLog keeps the newest MaxSentNotifications entries.
func NormalizeSentLog(in []SentNotificationLog) []SentNotificationLog {
	out := make([]SentNotificationLog, 0, len(in))
	for _, l := range in {
		if l.ID == "" {
			continue
		}
		switch l.Target {
		case TargetAll, TargetUsers, TargetAdmins, TargetEmail:
		default:
			l.Target = TargetAll
		}
		out = append(out, l)
	}
	if len(out) > MaxSentNotifications {
		out = out[:MaxSentNotifications]
	}
	return out
}

// NormalizeInbox keeps the newest MaxInboxEntries entries with an id.
func NormalizeInbox(in []AppNotification) []AppNotification {
	out := make([]AppNotification, 0, len(in))
	for _, n := range in {
		if n.ID == "" {
			continue
		}
		out = append(out, n)
	}
	if len(out) > MaxInboxEntries {
		out = out[:MaxInboxEntries]
	}
	return out
}
