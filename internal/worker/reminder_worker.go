package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/service"
)

// ReminderWorker tells candidates the day before an approved exam. Each
// appointment is reminded once: the inbox tag makes later runs no-ops.
type ReminderWorker struct {
	admin    *service.AdminService
	notifier *service.NotificationService
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewReminderWorker(adminSvc *service.AdminService, notifier *service.NotificationService, loc *time.Location, interval time.Duration, log zerolog.Logger) *ReminderWorker {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &ReminderWorker{
		admin:    adminSvc,
		notifier: notifier,
		loc:      loc,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "reminder_worker").Logger(),
	}
}

// Start runs a pass immediately and then on every tick until ctx is done.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ReminderWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			w.log.Info().Msg("ReminderWorker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce reminds every approved appointment of tomorrow and returns how
// many new reminders were delivered.
func (w *ReminderWorker) RunOnce(ctx context.Context) int {
	tomorrow := w.now().In(w.loc).AddDate(0, 0, 1).Format(model.DateLayout)
	appts := w.admin.Appointments(service.AppointmentFilter{Status: model.AppointmentApproved, Date: tomorrow})
	if len(appts) == 0 {
		return 0
	}

	users := w.admin.Users()
	set := w.admin.Settings()
	sent := 0
	for _, a := range appts {
		k, ok := admin.RecipientInbox(users, a)
		if !ok {
			w.log.Debug().Str("appointment_id", a.ID).Msg("no recipient for reminder")
			continue
		}

		added, err := w.notifier.Push(ctx, k, model.AppNotification{
			Title:   "Exam reminder",
			Message: reminderMessage(a, set),
			Link:    "/appointments",
			Tag:     config.WorkerKey.ReminderTagPrefix + a.ID,
		})
		if err != nil {
			w.log.Error().Err(err).Str("appointment_id", a.ID).Msg("failed to deliver reminder")
			continue
		}
		if added {
			sent++
		}
	}

	if sent > 0 {
		w.log.Info().Int("sent", sent).Str("date", tomorrow).Msg("Reminders delivered")
	}
	return sent
}

func reminderMessage(a model.AdminAppointmentRecord, set model.ExamSettings) string {
	msg := fmt.Sprintf("Your exam (%s) is scheduled for tomorrow, %s at %s-%s.", a.Code, a.Date, a.StartTime, a.EndTime)
	if set.ExamLocation != "" {
		msg += " Location: " + set.ExamLocation
		if set.ExamRoom != "" {
			msg += ", " + set.ExamRoom
		}
		msg += "."
	}
	return msg
}
