package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/repository"
	"github.com/stemsi/certify-backend/internal/service"
	"github.com/stemsi/certify-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderWorker_RemindsApprovedAppointmentsOnce(t *testing.T) {
	ctx := context.Background()
	log := zerolog.Nop()
	st := store.New(store.NewMemoryKV(), bus.New(), log)

	users := repository.NewUserRepository(st)
	appts := repository.NewAppointmentRepository(st)
	notifs := repository.NewNotificationRepository(st)

	require.NoError(t, users.Save(ctx, []model.AdminUserRecord{
		{ID: "u1", Email: "rina@example.com", FullName: "Rina", Role: model.RoleUser},
	}))
	require.NoError(t, appts.Save(ctx, []model.AdminAppointmentRecord{
		{ID: "a1", Code: "AP-1", FullName: "Rina", UserEmail: "rina@example.com", Date: "2026-02-10", StartTime: "09:00", EndTime: "09:30", Status: model.AppointmentApproved},
		{ID: "a2", Code: "AP-2", FullName: "Rina", UserEmail: "rina@example.com", Date: "2026-02-10", StartTime: "10:00", EndTime: "10:30", Status: model.AppointmentPending},
		{ID: "a3", Code: "AP-3", FullName: "Rina", UserEmail: "rina@example.com", Date: "2026-02-11", StartTime: "09:00", EndTime: "09:30", Status: model.AppointmentApproved},
		{ID: "a4", Code: "AP-4", FullName: "Nobody", Date: "2026-02-10", StartTime: "11:00", EndTime: "11:30", Status: model.AppointmentApproved},
	}))

	notifier := service.NewNotificationService(notifs, "admin@example.com", nil, log)
	adminSvc := service.NewAdminService(
		repository.NewTestRepository(st),
		repository.NewSettingRepository(st),
		users, appts, notifs, notifier, time.UTC, log,
	)
	adminSvc.Load(ctx)

	w := NewReminderWorker(adminSvc, notifier, time.UTC, time.Minute, log)
	w.now = func() time.Time { return time.Date(2026, 2, 9, 18, 0, 0, 0, time.UTC) }

	assert.Equal(t, 1, w.RunOnce(ctx))
	assert.Equal(t, 0, w.RunOnce(ctx), "second pass is deduplicated by tag")

	inbox := notifier.List(ctx, model.InboxKey{Role: model.RoleUser, Email: "rina@example.com"})
	require.Len(t, inbox, 1)
	assert.Equal(t, config.WorkerKey.ReminderTagPrefix+"a1", inbox[0].Tag)
	assert.Contains(t, inbox[0].Message, "AP-1")
}

func TestReminderMessage(t *testing.T) {
	a := model.AdminAppointmentRecord{Code: "AP-9", Date: "2026-02-10", StartTime: "09:00", EndTime: "09:30"}
	assert.NotContains(t, reminderMessage(a, model.ExamSettings{}), "Location")
	assert.Contains(t, reminderMessage(a, model.ExamSettings{ExamLocation: "Certification Center", ExamRoom: "Room 2"}), "Location: Certification Center, Room 2.")
}
