package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/repository"
)

// AdminService is the live admin session. It owns the canonical copy of the
// admin collections, applies actions through the pure reducer, writes back
// what changed and fans out notifications.
type AdminService struct {
	tests    *repository.TestRepository
	settings *repository.SettingRepository
	users    *repository.UserRepository
	appts    *repository.AppointmentRepository
	notifs   *repository.NotificationRepository
	notifier *NotificationService
	loc      *time.Location
	log      zerolog.Logger

	// newEnv is replaced in tests to pin time and ids.
	newEnv func() admin.Env

	mu    sync.Mutex
	state admin.State
}

// NewAdminService creates an AdminService with an empty state; call Load
// before serving.
func NewAdminService(
	tests *repository.TestRepository,
	settings *repository.SettingRepository,
	users *repository.UserRepository,
	appts *repository.AppointmentRepository,
	notifs *repository.NotificationRepository,
	notifier *NotificationService,
	loc *time.Location,
	log zerolog.Logger,
) *AdminService {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminService{
		tests:    tests,
		settings: settings,
		users:    users,
		appts:    appts,
		notifs:   notifs,
		notifier: notifier,
		loc:      loc,
		log:      log.With().Str("component", "admin_service").Logger(),
		newEnv:   func() admin.Env { return admin.NewEnv(loc) },
		state:    admin.EmptyState(),
	}
}

// Load reads every admin collection from the store.
func (s *AdminService) Load(ctx context.Context) {
	st := admin.State{
		Tests:             s.tests.List(ctx),
		Settings:          s.settings.Get(ctx),
		Users:             s.users.List(ctx),
		Appointments:      s.appts.List(ctx),
		SentNotifications: s.notifs.ListSent(ctx),
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.log.Info().
		Int("tests", len(st.Tests)).
		Int("users", len(st.Users)).
		Int("appointments", len(st.Appointments)).
		Msg("Admin state loaded")
}

// Watch reloads a collection whenever another instance rewrites it. The
// returned function stops watching.
func (s *AdminService) Watch(ctx context.Context, b *bus.Bus) (stop func()) {
	keys := []string{
		config.StoreKey.AdminTests,
		config.StoreKey.ExamSettings,
		config.StoreKey.Users,
		config.StoreKey.Appointments,
		config.StoreKey.SentNotifications,
	}
	unsubs := make([]func(), 0, len(keys))
	for _, key := range keys {
		unsubs = append(unsubs, b.OnChange(key, func(c bus.Change) {
			if c.Remote {
				s.reload(ctx, c.Key)
			}
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *AdminService) reload(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case config.StoreKey.AdminTests:
		s.state.Tests = s.tests.List(ctx)
	case config.StoreKey.ExamSettings:
		s.state.Settings = s.settings.Get(ctx)
	case config.StoreKey.Users:
		s.state.Users = s.users.List(ctx)
	case config.StoreKey.Appointments:
		s.state.Appointments = s.appts.List(ctx)
	case config.StoreKey.SentNotifications:
		s.state.SentNotifications = s.notifs.ListSent(ctx)
	default:
		return
	}
	s.log.Debug().Str("key", key).Msg("Reloaded after remote change")
}

// Dispatch applies a to the current state. The new state is committed only
// once every changed collection has been written.
func (s *AdminService) Dispatch(ctx context.Context, a admin.Action) (admin.Result, error) {
	s.mu.Lock()
	res, err := admin.Apply(s.state, a, s.newEnv())
	if err != nil {
		s.mu.Unlock()
		return admin.Result{}, err
	}
	if err := s.persist(ctx, res); err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Str("action", fmt.Sprintf("%T", a)).Msg("failed to persist admin state")
		return admin.Result{}, err
	}
	s.state = res.State
	users := res.State.Users
	s.mu.Unlock()

	s.fanOut(ctx, users, res.Events)
	return res, nil
}

func (s *AdminService) persist(ctx context.Context, res admin.Result) error {
	for _, c := range res.Changed {
		var err error
		switch c {
		case admin.CollectionTests:
			err = s.tests.Save(ctx, res.State.Tests)
		case admin.CollectionSettings:
			err = s.settings.Save(ctx, res.State.Settings)
		case admin.CollectionUsers:
			err = s.users.Save(ctx, res.State.Users)
		case admin.CollectionAppointments:
			err = s.appts.Save(ctx, res.State.Appointments)
		case admin.CollectionSentNotifications:
			err = s.notifs.SaveSent(ctx, res.State.SentNotifications)
		}
		if err != nil {
			return fmt.Errorf("save %s: %w", c, err)
		}
	}
	return nil
}

// ─── Queries ──────────────────────────────────────────────

// Snapshot returns a copy of the current state.
func (s *AdminService) Snapshot() admin.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return admin.State{
		Tests:             slices.Clone(s.state.Tests),
		Settings:          s.state.Settings,
		Users:             slices.Clone(s.state.Users),
		Appointments:      slices.Clone(s.state.Appointments),
		SentNotifications: slices.Clone(s.state.SentNotifications),
	}
}

func (s *AdminService) Settings() model.ExamSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

func (s *AdminService) Tests() []model.AdminTest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Tests)
}

// Test returns one test by id.
func (s *AdminService) Test(id string) (model.AdminTest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Tests, func(t model.AdminTest) bool { return t.ID == id })
	if i < 0 {
		return model.AdminTest{}, false
	}
	return s.state.Tests[i], true
}

func (s *AdminService) Users() []model.AdminUserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Users)
}

// UserByEmail finds a registered account.
func (s *AdminService) UserByEmail(email string) (model.AdminUserRecord, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Users, func(u model.AdminUserRecord) bool { return u.Email == email })
	if i < 0 {
		return model.AdminUserRecord{}, false
	}
	return s.state.Users[i], true
}

// Appointment returns one appointment by id.
func (s *AdminService) Appointment(id string) (model.AdminAppointmentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Appointments, func(a model.AdminAppointmentRecord) bool { return a.ID == id })
	if i < 0 {
		return model.AdminAppointmentRecord{}, false
	}
	return s.state.Appointments[i], true
}

// AppointmentFilter narrows the admin appointment list. Zero fields match
// everything.
type AppointmentFilter struct {
	Status model.AppointmentStatus
	Date   string
	// Query matches code, name, contact or email, case-insensitively.
	Query string
}

func (f AppointmentFilter) match(a model.AdminAppointmentRecord) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(a.Code + " " + a.FullName + " " + a.IDOrPhone + " " + a.UserEmail)
		return strings.Contains(hay, q)
	}
	return true
}

// Appointments lists appointments matching f, newest first.
func (s *AdminService) Appointments(f AppointmentFilter) []model.AdminAppointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AdminAppointmentRecord, 0, len(s.state.Appointments))
	for _, a := range s.state.Appointments {
		if f.match(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s *AdminService) SentNotifications() []model.SentNotificationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.SentNotifications)
}

// ─── Broadcast ────────────────────────────────────────────

// Broadcast delivers an administrator notification to the resolved
// recipients and records it in the sent log.
func (s *AdminService) Broadcast(ctx context.Context, req model.BroadcastRequest) (model.SentNotificationLog, error) {
	if req.Target == model.TargetEmail && strings.TrimSpace(req.TargetEmail) == "" {
		return model.SentNotificationLog{}, &admin.ValidationError{
			Message: "targetEmail is required when target is email",
			Fields:  map[string]string{"targetEmail": "targetEmail is required when target is email"},
		}
	}

	keys := s.notifier.Recipients(req.Target, req.TargetEmail, s.Users())
	if len(keys) == 0 {
		return model.SentNotificationLog{}, ErrNoRecipients
	}

	delivered, err := s.notifier.Deliver(ctx, keys, model.AppNotification{
		Title:   strings.TrimSpace(req.Title),
		Message: strings.TrimSpace(req.Message),
		Link:    req.Link,
	})
	if err != nil {
		s.log.Warn().Err(err).Int("delivered", delivered).Int("recipients", len(keys)).Msg("broadcast partially delivered")
	}

	entry := model.SentNotificationLog{
		Target:         req.Target,
		Title:          strings.TrimSpace(req.Title),
		Message:        strings.TrimSpace(req.Message),
		RecipientCount: len(keys),
	}
	if req.Target == model.TargetEmail {
		entry.TargetEmail = strings.ToLower(strings.TrimSpace(req.TargetEmail))
	}
	res, err := s.Dispatch(ctx, admin.LogSentNotification{Entry: entry})
	if err != nil {
		return model.SentNotificationLog{}, err
	}
	return res.State.SentNotifications[0], nil
}

// ─── Event fan-out ────────────────────────────────────────

var statusTitles = map[model.AppointmentStatus]string{
	model.AppointmentPending:   "Appointment status updated",
	model.AppointmentApproved:  "Appointment approved",
	model.AppointmentRejected:  "Appointment rejected",
	model.AppointmentCancelled: "Appointment cancelled",
}

func (s *AdminService) fanOut(ctx context.Context, users []model.AdminUserRecord, events []admin.Event) {
	for _, ev := range events {
		a := ev.Appointment
		switch ev.Kind {
		case admin.EventStatusChanged:
			s.notifyStatusChanged(ctx, users, a)
		case admin.EventAppointmentCreated:
			s.notifier.NotifyAdmins(ctx, users, model.AppNotification{
				Title:   "New appointment",
				Message: fmt.Sprintf("%s booked an exam on %s at %s-%s (%s).", a.FullName, a.Date, a.StartTime, a.EndTime, a.Code),
				Link:    "/admin/appointments",
				Tag:     "appointment:" + a.ID,
			})
		case admin.EventAppointmentRescheduled:
			prev := ""
			if ev.Previous != nil {
				prev = fmt.Sprintf(" from %s %s", ev.Previous.Date, ev.Previous.StartTime)
			}
			s.notifier.NotifyAdmins(ctx, users, model.AppNotification{
				Title:   "Exam rescheduled",
				Message: fmt.Sprintf("%s moved the exam%s to %s at %s-%s (%s).", a.FullName, prev, a.Date, a.StartTime, a.EndTime, a.Code),
				Link:    "/admin/appointments",
				Tag:     "appointment:" + a.ID,
			})
		}
	}
}

func (s *AdminService) notifyStatusChanged(ctx context.Context, users []model.AdminUserRecord, a model.AdminAppointmentRecord) {
	k, ok := admin.RecipientInbox(users, a)
	if !ok {
		s.log.Warn().Str("appointment_id", a.ID).Msg("no recipient for status change, skipping notification")
		return
	}

	msg := fmt.Sprintf("Appointment %s on %s at %s-%s is now %s.", a.Code, a.Date, a.StartTime, a.EndTime, a.Status)
	if a.StatusReason != "" {
		msg += " Reason: " + a.StatusReason
	}

	if _, err := s.notifier.Push(ctx, k, model.AppNotification{
		Title:   statusTitles[a.Status],
		Message: msg,
		Link:    "/appointments",
		Tag:     fmt.Sprintf("status:%s:%s:%d", a.ID, a.Status, a.UpdatedAt.Unix()),
	}); err != nil {
		s.log.Error().Err(err).Str("appointment_id", a.ID).Msg("failed to notify status change")
	}
}
