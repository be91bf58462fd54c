package admin

import (
	"fmt"
	"slices"
	"strings"

	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/schedule"
	"github.com/stemsi/certify-backend/internal/validator"
)

// transitions lists the status moves an appointment may make. Re-applying
// the current status is always accepted and only refreshes reason and note.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentPending:  {model.AppointmentApproved, model.AppointmentRejected, model.AppointmentCancelled},
	model.AppointmentApproved: {model.AppointmentRejected, model.AppointmentCancelled},
}

// Apply computes the state that follows a. The input state is never
// modified; on error the caller keeps its current state.
func Apply(s State, a Action, env Env) (Result, error) {
	switch a := a.(type) {
	case CreateTest:
		return createTest(s, a, env)
	case UpdateTest:
		return updateTest(s, a, env)
	case DeleteTest:
		return deleteTest(s, a)
	case UpdateSettings:
		return updateSettings(s, a)
	case ToggleUserBlock:
		return toggleUserBlock(s, a)
	case UpsertUser:
		return upsertUser(s, a, env)
	case SetAppointmentStatus:
		return setAppointmentStatus(s, a, env)
	case PatchAppointment:
		return patchAppointment(s, a, env)
	case LogSentNotification:
		return logSentNotification(s, a, env)
	case BookAppointment:
		return bookAppointment(s, a, env)
	case RescheduleAppointment:
		return rescheduleAppointment(s, a, env)
	}
	return Result{}, fmt.Errorf("%w: %T", ErrUnknownAction, a)
}

func changed(s State, c ...Collection) Result {
	return Result{State: s, Changed: c}
}

// ─── Tests ────────────────────────────────────────────────

// ValidateTest checks the structural rules of a test definition.
func ValidateTest(in model.TestInput) error {
	if fields := validator.Struct(in); fields != nil {
		return invalidFields(fields)
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if len(in.Questions) == 0 {
		return invalid("a test needs at least one question")
	}
	for i, q := range in.Questions {
		n := i + 1
		if strings.TrimSpace(q.Text) == "" {
			return invalid("question %d: text is required", n)
		}
		if len(q.Options) == 0 {
			return invalid("question %d: options are required", n)
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return invalid("question %d: option %d is empty", n, j+1)
			}
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return invalid("question %d: correct answer must be between 1 and %d", n, len(q.Options))
		}
	}
	return nil
}

func buildQuestions(testID string, in []model.QuestionInput) []model.AdminQuestion {
	out := make([]model.AdminQuestion, len(in))
	for i, q := range in {
		opts := make([]string, len(q.Options))
		for j, o := range q.Options {
			opts[j] = strings.TrimSpace(o)
		}
		out[i] = model.AdminQuestion{
			ID:            model.QuestionID(testID, i),
			Text:          strings.TrimSpace(q.Text),
			Options:       opts,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	return out
}

func applyTestInput(t model.AdminTest, in model.TestInput, defaults model.ExamSettings) model.AdminTest {
	t.Title = strings.TrimSpace(in.Title)
	t.Description = strings.TrimSpace(in.Description)
	t.Duration = in.Duration
	if t.Duration == 0 {
		t.Duration = defaults.TestDuration
	}
	t.PassingScore = in.PassingScore
	if t.PassingScore == 0 {
		t.PassingScore = defaults.PassingThreshold
	}
	t.Questions = buildQuestions(t.ID, in.Questions)
	return t
}

func createTest(s State, a CreateTest, env Env) (Result, error) {
	if err := ValidateTest(a.Input); err != nil {
		return Result{}, err
	}
	t := applyTestInput(model.AdminTest{
		ID:        env.NewID(),
		CreatedAt: env.Now,
		UpdatedAt: env.Now,
	}, a.Input, s.Settings)

	s.Tests = append([]model.AdminTest{t}, s.Tests...)
	r := changed(s, CollectionTests)
	r.ID = t.ID
	return r, nil
}

func updateTest(s State, a UpdateTest, env Env) (Result, error) {
	i := slices.IndexFunc(s.Tests, func(t model.AdminTest) bool { return t.ID == a.ID })
	if i < 0 {
		return Result{}, fmt.Errorf("test %s: %w", a.ID, ErrNotFound)
	}
	if err := ValidateTest(a.Input); err != nil {
		return Result{}, err
	}
	t := applyTestInput(s.Tests[i], a.Input, s.Settings)
	t.UpdatedAt = env.Now

	s.Tests = slices.Clone(s.Tests)
	s.Tests[i] = t
	r := changed(s, CollectionTests)
	r.ID = t.ID
	return r, nil
}

func deleteTest(s State, a DeleteTest) (Result, error) {
	if !slices.ContainsFunc(s.Tests, func(t model.AdminTest) bool { return t.ID == a.ID }) {
		return Result{}, fmt.Errorf("test %s: %w", a.ID, ErrNotFound)
	}
	kept := make([]model.AdminTest, 0, len(s.Tests)-1)
	for _, t := range s.Tests {
		if t.ID != a.ID {
			kept = append(kept, t)
		}
	}
	s.Tests = kept
	return changed(s, CollectionTests), nil
}

// ─── Settings ─────────────────────────────────────────────

// ValidateSettings checks every bound of the exam settings and that each
// slot ends after it starts.
func ValidateSettings(set model.ExamSettings) error {
	if fields := validator.Struct(set); fields != nil {
		return invalidFields(fields)
	}
	check := func(where string, slots []model.Slot) error {
		for i, sl := range slots {
			if sl.End <= sl.Start {
				return invalid("%s[%d]: end must be after start", where, i)
			}
		}
		return nil
	}
	if err := check("defaultSlots", set.DefaultSlots); err != nil {
		return err
	}
	for _, o := range set.SlotOverrides {
		if err := check("slotOverrides "+o.Date, o.Slots); err != nil {
			return err
		}
	}
	return nil
}

func updateSettings(s State, a UpdateSettings) (Result, error) {
	if err := ValidateSettings(a.Settings); err != nil {
		return Result{}, err
	}
	set := a.Settings
	set.DefaultSlots = cloneOrEmpty(set.DefaultSlots)
	set.BlockedDates = cloneOrEmpty(set.BlockedDates)
	set.CapacityOverrides = cloneOrEmpty(set.CapacityOverrides)
	set.SlotOverrides = cloneOrEmpty(set.SlotOverrides)
	s.Settings = set
	return changed(s, CollectionSettings), nil
}

func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}

// ─── Users ────────────────────────────────────────────────

func toggleUserBlock(s State, a ToggleUserBlock) (Result, error) {
	i := slices.IndexFunc(s.Users, func(u model.AdminUserRecord) bool { return u.ID == a.ID })
	if i < 0 {
		return Result{}, fmt.Errorf("user %s: %w", a.ID, ErrNotFound)
	}
	s.Users = slices.Clone(s.Users)
	s.Users[i].IsBlocked = !s.Users[i].IsBlocked
	r := changed(s, CollectionUsers)
	r.ID = a.ID
	return r, nil
}

func upsertUser(s State, a UpsertUser, env Env) (Result, error) {
	in := a.User
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return Result{}, invalid("a valid email is required")
	}
	if in.Role != "" && in.Role != model.RoleUser && in.Role != model.RoleAdmin {
		return Result{}, invalid("unknown role %q", in.Role)
	}

	i := slices.IndexFunc(s.Users, func(u model.AdminUserRecord) bool { return u.Email == in.Email })
	if i >= 0 && a.CreateOnly {
		return Result{}, fmt.Errorf("%s: %w", in.Email, ErrEmailExists)
	}
	if i < 0 {
		u := model.AdminUserRecord{
			ID:        in.ID,
			Email:     in.Email,
			FullName:  strings.TrimSpace(in.FullName),
			Role:      in.Role,
			CreatedAt: env.Now,
			IsBlocked: in.IsBlocked,
			LastLogin: in.LastLogin,
		}
		if u.ID == "" {
			u.ID = env.NewID()
		}
		if u.Role == "" {
			u.Role = model.RoleUser
		}
		s.Users = append(slices.Clone(s.Users), u)
		r := changed(s, CollectionUsers)
		r.ID = u.ID
		return r, nil
	}

	s.Users = slices.Clone(s.Users)
	u := &s.Users[i]
	if name := strings.TrimSpace(in.FullName); name != "" {
		u.FullName = name
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	if in.LastLogin != nil {
		t := *in.LastLogin
		u.LastLogin = &t
	}
	r := changed(s, CollectionUsers)
	r.ID = u.ID
	return r, nil
}

// ─── Appointments ─────────────────────────────────────────

func findAppointment(s State, id string) (int, error) {
	i := slices.IndexFunc(s.Appointments, func(a model.AdminAppointmentRecord) bool { return a.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	return i, nil
}

// CanTransition reports whether an appointment may move from one status
// to another.
func CanTransition(from, to model.AppointmentStatus) bool {
	return from == to || slices.Contains(transitions[from], to)
}

func setAppointmentStatus(s State, a SetAppointmentStatus, env Env) (Result, error) {
	i, err := findAppointment(s, a.ID)
	if err != nil {
		return Result{}, err
	}
	if !a.Status.Valid() {
		return Result{}, invalid("unknown status %q", a.Status)
	}
	prev := s.Appointments[i]
	if !CanTransition(prev.Status, a.Status) {
		return Result{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, prev.Status, a.Status)
	}
	if a.Status == model.AppointmentApproved && prev.Status != model.AppointmentApproved {
		if err := checkApprovalCapacity(s, prev); err != nil {
			return Result{}, err
		}
	}

	next := prev
	next.Status = a.Status
	if a.Reason != "" {
		next.StatusReason = strings.TrimSpace(a.Reason)
	}
	if a.AdminNote != "" {
		next.AdminNote = strings.TrimSpace(a.AdminNote)
	}
	if a.Status == model.AppointmentCancelled {
		next.CancelledBy = a.CancelledBy
		if next.CancelledBy == "" {
			next.CancelledBy = model.ActorAdmin
		}
	}
	next.UpdatedAt = env.Now

	s.Appointments = slices.Clone(s.Appointments)
	s.Appointments[i] = next
	r := changed(s, CollectionAppointments)
	r.ID = next.ID
	if prev.Status != next.Status {
		r.Events = []Event{{Kind: EventStatusChanged, Appointment: next, Previous: &prev}}
	}
	return r, nil
}

// checkApprovalCapacity refuses an approval that would put more approved
// appointments on a day than its capacity, or two on the same slot. Pending
// bookings may exceed a capacity that was lowered after they were made.
func checkApprovalCapacity(s State, appt model.AdminAppointmentRecord) error {
	approved := 0
	for _, o := range schedule.OccupyingAppointments(s.Appointments, appt.Date, appt.ID) {
		if o.Status != model.AppointmentApproved {
			continue
		}
		if o.StartTime == appt.StartTime && o.EndTime == appt.EndTime {
			return fmt.Errorf("%w: %s %s is already approved for %s", ErrSlotUnavailable, appt.Date, appt.StartTime, o.Code)
		}
		approved++
	}
	if approved >= schedule.DailyCapacity(s.Settings, appt.Date) {
		return fmt.Errorf("%w: %s is at capacity", ErrSlotUnavailable, appt.Date)
	}
	return nil
}

func patchAppointment(s State, a PatchAppointment, env Env) (Result, error) {
	i, err := findAppointment(s, a.ID)
	if err != nil {
		return Result{}, err
	}
	if fields := validator.Struct(a.Patch); fields != nil {
		return Result{}, invalidFields(fields)
	}
	next := s.Appointments[i]
	p := a.Patch
	if p.FullName != nil {
		next.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.IDOrPhone != nil {
		next.IDOrPhone = strings.TrimSpace(*p.IDOrPhone)
	}
	if p.UserEmail != nil {
		next.UserEmail = strings.ToLower(strings.TrimSpace(*p.UserEmail))
	}
	if p.StatusReason != nil {
		next.StatusReason = strings.TrimSpace(*p.StatusReason)
	}
	if p.AdminNote != nil {
		next.AdminNote = strings.TrimSpace(*p.AdminNote)
	}
	next.UpdatedAt = env.Now

	s.Appointments = slices.Clone(s.Appointments)
	s.Appointments[i] = next
	r := changed(s, CollectionAppointments)
	r.ID = next.ID
	return r, nil
}

// checkSlot applies the booking rules shared by new bookings and
// reschedules.
func checkSlot(s State, date, start, end, excludeID string, env Env) error {
	if !schedule.IsAllowedDateKey(date) {
		return fmt.Errorf("%w: %s", ErrNotAllowedDay, date)
	}
	ok, reason := schedule.SlotAvailable(s.Settings, s.Appointments, date, start, end, excludeID)
	if !ok {
		if reason == schedule.ReasonBlocked {
			_, note := schedule.Blocked(s.Settings, date)
			return fmt.Errorf("%w: %s %s", ErrDateBlocked, date, note)
		}
		if reason == "" {
			reason = "not offered"
		}
		return fmt.Errorf("%w: %s %s-%s (%s)", ErrSlotUnavailable, date, start, end, reason)
	}
	at, err := schedule.SlotDateTime(date, start, env.Location)
	if err != nil {
		return invalid("%s", err.Error())
	}
	if !schedule.LeadTimeSatisfied(s.Settings, at, env.Now) {
		return fmt.Errorf("%w: bookings close %d hours before the exam", ErrLeadTime, s.Settings.LeadTimeHours)
	}
	return nil
}

// activeAppointment returns a pending or approved appointment of the same
// candidate that has not taken place yet.
func activeAppointment(s State, email, idOrPhone string, env Env) (model.AdminAppointmentRecord, bool) {
	today := schedule.DateKey(env.Now, env.Location)
	for _, a := range s.Appointments {
		if !a.Status.Occupies() || a.Date < today {
			continue
		}
		if (email != "" && strings.EqualFold(a.UserEmail, email)) ||
			strings.EqualFold(strings.TrimSpace(a.IDOrPhone), idOrPhone) {
			return a, true
		}
	}
	return model.AdminAppointmentRecord{}, false
}

func bookAppointment(s State, a BookAppointment, env Env) (Result, error) {
	req := a.Request
	if fields := validator.Struct(req); fields != nil {
		return Result{}, invalidFields(fields)
	}
	email := strings.ToLower(strings.TrimSpace(a.UserEmail))
	idOrPhone := strings.TrimSpace(req.IDOrPhone)

	if until, active := schedule.CooldownUntil(s.Settings, s.Appointments, email, idOrPhone, env.Now); active {
		return Result{}, fmt.Errorf("%w until %s", ErrCooldown, schedule.DateKey(until, env.Location))
	}
	if other, ok := activeAppointment(s, email, idOrPhone, env); ok {
		return Result{}, fmt.Errorf("%w: %s on %s", ErrActiveAppointment, other.Code, other.Date)
	}
	if err := checkSlot(s, req.Date, req.StartTime, req.EndTime, "", env); err != nil {
		return Result{}, err
	}

	appt := model.AdminAppointmentRecord{
		ID:        env.NewID(),
		Code:      env.NewCode(env.Now),
		FullName:  strings.TrimSpace(req.FullName),
		IDOrPhone: idOrPhone,
		UserEmail: email,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    model.AppointmentPending,
		CreatedAt: env.Now,
		UpdatedAt: env.Now,
	}
	s.Appointments = append([]model.AdminAppointmentRecord{appt}, s.Appointments...)
	r := changed(s, CollectionAppointments)
	r.ID = appt.ID
	r.Events = []Event{{Kind: EventAppointmentCreated, Appointment: appt}}
	return r, nil
}

func rescheduleAppointment(s State, a RescheduleAppointment, env Env) (Result, error) {
	i, err := findAppointment(s, a.ID)
	if err != nil {
		return Result{}, err
	}
	if fields := validator.Struct(a.Request); fields != nil {
		return Result{}, invalidFields(fields)
	}
	old := s.Appointments[i]
	if !old.Status.Occupies() {
		return Result{}, fmt.Errorf("%w: a %s appointment cannot be rescheduled", ErrInvalidTransition, old.Status)
	}
	if !schedule.CanReschedule(s.Settings, old) {
		return Result{}, fmt.Errorf("%w: %d of %d used", ErrRescheduleLimit, old.RescheduleCount, s.Settings.MaxReschedulesPerUser)
	}
	req := a.Request
	if err := checkSlot(s, req.Date, req.StartTime, req.EndTime, old.ID, env); err != nil {
		return Result{}, err
	}

	next := model.AdminAppointmentRecord{
		ID:                    env.NewID(),
		Code:                  env.NewCode(env.Now),
		FullName:              old.FullName,
		IDOrPhone:             old.IDOrPhone,
		UserEmail:             old.UserEmail,
		Date:                  req.Date,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		Status:                model.AppointmentPending,
		PreviousAppointmentID: old.ID,
		RescheduleCount:       old.RescheduleCount + 1,
		CreatedAt:             env.Now,
		UpdatedAt:             env.Now,
	}

	retired := old
	retired.Status = model.AppointmentCancelled
	retired.CancelledBy = model.ActorUser
	retired.StatusReason = "rescheduled"
	retired.UpdatedAt = env.Now

	appts := make([]model.AdminAppointmentRecord, 0, len(s.Appointments)+1)
	appts = append(appts, next)
	appts = append(appts, s.Appointments...)
	appts[i+1] = retired
	s.Appointments = appts

	r := changed(s, CollectionAppointments)
	r.ID = next.ID
	r.Events = []Event{{Kind: EventAppointmentRescheduled, Appointment: next, Previous: &old}}
	return r, nil
}

// ─── Notifications log ────────────────────────────────────

func logSentNotification(s State, a LogSentNotification, env Env) (Result, error) {
	e := a.Entry
	if e.ID == "" {
		e.ID = env.NewID()
	}
	if e.SentAt.IsZero() {
		e.SentAt = env.Now
	}
	logs := make([]model.SentNotificationLog, 0, len(s.SentNotifications)+1)
	logs = append(logs, e)
	logs = append(logs, s.SentNotifications...)
	if len(logs) > model.MaxSentNotifications {
		logs = logs[:model.MaxSentNotifications]
	}
	s.SentNotifications = logs
	r := changed(s, CollectionSentNotifications)
	r.ID = e.ID
	return r, nil
}
